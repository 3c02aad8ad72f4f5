package sqliteutil

import "testing"

func TestEnsurePragmas(t *testing.T) {
	testCases := []struct {
		name string
		dsn  string
		want string
	}{
		{name: "memory", dsn: ":memory:", want: ":memory:"},
		{name: "plain path", dsn: "/tmp/a.db", want: "/tmp/a.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"},
		{name: "existing pragma", dsn: "/tmp/a.db?_pragma=busy_timeout(10)", want: "/tmp/a.db?_pragma=busy_timeout(10)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EnsurePragmas(tc.dsn, true, 5000); got != tc.want {
				t.Fatalf("EnsurePragmas(%q) = %q, want %q", tc.dsn, got, tc.want)
			}
		})
	}
}

func TestEnsureImmediateTx(t *testing.T) {
	if got := EnsureImmediateTx("/tmp/a.db"); got != "/tmp/a.db?_txlock=immediate" {
		t.Fatalf("unexpected dsn: %s", got)
	}
	if got := EnsureImmediateTx("/tmp/a.db?_txlock=deferred"); got != "/tmp/a.db?_txlock=deferred" {
		t.Fatalf("expected existing txlock kept: %s", got)
	}
}
