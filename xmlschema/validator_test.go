package xmlschema

import (
	"fmt"
	"strings"
	"testing"
)

const invoiceXSD = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="Invoice">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="ID" type="xs:string"/>
        <xs:element name="Total" type="xs:decimal"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>`

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		markup string
		valid  bool
	}{
		{name: "conforming", markup: `<Invoice><ID>INV-1</ID><Total>10.50</Total></Invoice>`, valid: true},
		{name: "bad decimal", markup: `<Invoice><ID>INV-1</ID><Total>abc</Total></Invoice>`},
		{name: "missing element", markup: `<Invoice><ID>INV-1</ID></Invoice>`},
		{name: "wrong root", markup: `<Order><ID>1</ID></Order>`},
		{name: "malformed", markup: `<Invoice>Broken Tag`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ok, diagnostic := Validate(tc.markup, invoiceXSD)
			if ok != tc.valid {
				t.Fatalf("Validate = %v (%s), want %v", ok, diagnostic, tc.valid)
			}
			if !ok && diagnostic == "" {
				t.Fatalf("expected diagnostic for invalid markup")
			}
			if ok && diagnostic != "" {
				t.Fatalf("unexpected diagnostic: %s", diagnostic)
			}
		})
	}
}

func TestValidateBrokenSchema(t *testing.T) {
	ok, diagnostic := Validate(`<Invoice/>`, `<xs:schema`)
	if ok {
		t.Fatalf("expected failure for broken schema")
	}
	if diagnostic == "" {
		t.Fatalf("expected diagnostic")
	}
}

func TestCompileCached(t *testing.T) {
	a, err := Compile(invoiceXSD)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	b, err := Compile(invoiceXSD)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if a != b {
		t.Fatalf("expected cached schema instance")
	}
}

func TestCompileCacheBounded(t *testing.T) {
	for i := 0; i < maxCompiled+10; i++ {
		content := strings.Replace(invoiceXSD, `name="Invoice"`, fmt.Sprintf(`name="Invoice%d"`, i), 1)
		if _, err := Compile(content); err != nil {
			t.Fatalf("compile %d: %v", i, err)
		}
	}
	if n := compiled.Size(); n > maxCompiled {
		t.Fatalf("expected at most %d compiled schemas, got %d", maxCompiled, n)
	}
}
