package app

import "testing"

func TestResolveAccess(t *testing.T) {
	tests := []struct {
		name        string
		known       bool
		blocked     bool
		configAdmin bool
		want        accessVerdict
	}{
		{"unknown user", false, false, false, accessDenyUnknown},
		{"known active", true, false, false, accessAllow},
		{"known blocked", true, true, false, accessDenyBlocked},
		{"known blocked admin stays blocked", true, true, true, accessDenyBlocked},
		{"config admin without record", false, false, true, accessProvisionAdmin},
		{"known config admin", true, false, true, accessAllow},
	}
	for _, tt := range tests {
		if got := resolveAccess(tt.known, tt.blocked, tt.configAdmin); got != tt.want {
			t.Fatalf("%s: resolveAccess(%v,%v,%v) = %v; want %v",
				tt.name, tt.known, tt.blocked, tt.configAdmin, got, tt.want)
		}
	}
}

func TestIsAdminIDFromConfig(t *testing.T) {
	cfg := Config{AdminUserIDs: []int64{10, 20}}
	if !cfg.IsAdminID(10) || !cfg.IsAdminID(20) {
		t.Fatal("configured admin ids must match")
	}
	if cfg.IsAdminID(30) {
		t.Fatal("unknown id must not be admin")
	}
}
