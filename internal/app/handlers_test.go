package app

import (
	"testing"
	"time"
)

func TestResolveInvite(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	used := int64(55)

	tests := []struct {
		name string
		link *InviteLink
		want inviteVerdict
	}{
		{"nil link", nil, inviteNotFound},
		{"fresh unused", &InviteLink{Code: "a", ExpiresAt: &future}, inviteOK},
		{"no expiry", &InviteLink{Code: "b"}, inviteOK},
		{"used", &InviteLink{Code: "c", IsUsed: true, UsedBy: &used}, inviteUsed},
		{"expired unused", &InviteLink{Code: "d", ExpiresAt: &past}, inviteExpired},
		// Использованность проверяется раньше срока действия.
		{"used and expired", &InviteLink{Code: "e", IsUsed: true, ExpiresAt: &past}, inviteUsed},
	}
	for _, tt := range tests {
		if got := resolveInvite(tt.link, now); got != tt.want {
			t.Fatalf("%s: resolveInvite = %d; want %d", tt.name, got, tt.want)
		}
	}
}

func TestExpiredInviteRefusedWithoutRegistration(t *testing.T) {
	s := newTestStore(t)

	past := time.Now().UTC().Add(-time.Hour)
	if _, err := s.CreateInviteLink("stale", 1, RoleEmployee, "Иванов И.И.", &past); err != nil {
		t.Fatalf("CreateInviteLink: %v", err)
	}

	link, err := s.GetInviteLinkByCode("stale")
	if err != nil {
		t.Fatalf("GetInviteLinkByCode: %v", err)
	}
	if v := resolveInvite(link, time.Now().UTC()); v != inviteExpired {
		t.Fatalf("resolveInvite = %d; want inviteExpired", v)
	}

	// Отказ: ссылка не гасится, пользователь не создается.
	link, err = s.GetInviteLinkByCode("stale")
	if err != nil {
		t.Fatalf("GetInviteLinkByCode: %v", err)
	}
	if link.IsUsed {
		t.Fatal("expired link must stay unused")
	}
	u, err := s.GetUser(777)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u != nil {
		t.Fatalf("no user must be created on refusal, got %+v", u)
	}
}
