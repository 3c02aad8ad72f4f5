package cache

import (
	"errors"
	"strconv"
	"testing"
)

func TestHashString(t *testing.T) {
	a, err := HashString("<Invoice/>")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, _ := HashString("<Invoice/>")
	c, _ := HashString("<Invoice />")
	if a != b {
		t.Fatalf("expected stable hash, got %s and %s", a, b)
	}
	if a == c {
		t.Fatalf("expected different hash for different content")
	}
}

func TestGetOrCompute(t *testing.T) {
	m := NewMap[string, int](0)
	calls := 0
	compute := func() (int, error) {
		calls++
		return 7, nil
	}
	for i := 0; i < 3; i++ {
		v, err := m.GetOrCompute("a", compute)
		if err != nil || v != 7 {
			t.Fatalf("unexpected: %v %v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one computation, got %d", calls)
	}
	if _, err := m.GetOrCompute("b", func() (int, error) { return 0, errors.New("fail") }); err == nil {
		t.Fatalf("expected error")
	}
	if m.Size() != 1 {
		t.Fatalf("failed computations must not be cached, size=%d", m.Size())
	}
}

func TestMapEvictsLeastRecentlyUsed(t *testing.T) {
	m := NewMap[string, int](2)
	m.Set("a", 1)
	m.Set("b", 2)
	m.Get("a")
	m.Set("c", 3)
	if _, ok := m.Get("b"); ok {
		t.Fatalf("least recently used entry should be evicted")
	}
	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a to survive, got %v %v", v, ok)
	}
	for i := 0; i < 10; i++ {
		_, _ = m.GetOrCompute(strconv.Itoa(i), func() (int, error) { return i, nil })
	}
	if m.Size() != 2 {
		t.Fatalf("expected size bounded at 2, got %d", m.Size())
	}
}
