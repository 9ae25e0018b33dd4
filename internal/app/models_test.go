package app

import "testing"

func TestUserDisplayName(t *testing.T) {
	tests := []struct {
		u    User
		want string
	}{
		{User{ID: 1, FullName: "Иванов И.И.", FirstName: "Иван", Username: "ivan"}, "Иванов И.И."},
		{User{ID: 2, FirstName: "Иван", Username: "ivan"}, "Иван"},
		{User{ID: 3, Username: "ivan"}, "@ivan"},
		{User{ID: 12345}, "ID: 12345"},
	}
	for _, tt := range tests {
		if got := tt.u.DisplayName(); got != tt.want {
			t.Fatalf("DisplayName(%+v) = %q; want %q", tt.u, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("привет мир", 6); got != "привет..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("ok", 10); got != "ok" {
		t.Fatalf("short string must pass through, got %q", got)
	}
	if got := truncate("x", 0); got != "" {
		t.Fatalf("zero limit must yield empty, got %q", got)
	}
}
