package dispatch

import "testing"

func TestParsePolicy(t *testing.T) {
	cases := []struct {
		raw  string
		want Policy
	}{
		{"", PolicySeparated},
		{"separated", PolicySeparated},
		{"  Separated ", PolicySeparated},
		{"module-authorized", PolicyModuleAuthorized},
		{"MODULE-AUTHORIZED", PolicyModuleAuthorized},
	}
	for _, c := range cases {
		got, err := ParsePolicy(c.raw)
		if err != nil {
			t.Fatalf("ParsePolicy(%q) error: %v", c.raw, err)
		}
		if got != c.want {
			t.Fatalf("ParsePolicy(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestParsePolicyRejectsUnknown(t *testing.T) {
	if _, err := ParsePolicy("open"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestClassify(t *testing.T) {
	guard := NewAccessGuard(PolicySeparated)
	admin := Identity("secret-admin-token")

	if got := guard.Classify(admin, admin); got != Administrator {
		t.Fatalf("matching token classified as %q", got)
	}
	if got := guard.Classify("someone-else", admin); got != OrdinaryCaller {
		t.Fatalf("mismatching token classified as %q", got)
	}
	// 空身份永远不是管理员，即使管理员令牌恰好也为空。
	if got := guard.Classify("", ""); got != OrdinaryCaller {
		t.Fatalf("empty caller classified as %q", got)
	}
	if got := guard.Classify("", admin); got != OrdinaryCaller {
		t.Fatalf("empty caller classified as %q", got)
	}
}
