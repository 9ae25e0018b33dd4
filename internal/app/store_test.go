package app

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddUserUpsert(t *testing.T) {
	s := newTestStore(t)

	u, err := s.AddUser(100, "ivan", "Иван", "Петров")
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if u.Role != RoleEmployee || !u.IsActive {
		t.Fatalf("unexpected defaults: %+v", u)
	}

	// Повторный контакт обновляет видимые поля, не плодя записи.
	u2, err := s.AddUser(100, "ivan_new", "Иван", "Петров")
	if err != nil {
		t.Fatalf("AddUser twice: %v", err)
	}
	if u2.Username != "ivan_new" {
		t.Fatalf("username not updated: %+v", u2)
	}
	n, err := s.UsersCount()
	if err != nil || n != 1 {
		t.Fatalf("expected 1 user, got %d (%v)", n, err)
	}
}

func TestGetUserMissing(t *testing.T) {
	s := newTestStore(t)
	u, err := s.GetUser(999)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u != nil {
		t.Fatalf("expected nil for missing user, got %+v", u)
	}
}

func TestInviteRedeemOnce(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateInviteLink("code123", 1, RoleEmployee, "Петров П.П.", nil); err != nil {
		t.Fatalf("CreateInviteLink: %v", err)
	}

	link, err := s.UseInviteLink("code123", 200)
	if err != nil {
		t.Fatalf("UseInviteLink: %v", err)
	}
	if link == nil || !link.IsUsed || link.UsedBy == nil || *link.UsedBy != 200 {
		t.Fatalf("unexpected redeemed link: %+v", link)
	}

	// Повторное погашение одноразового кода возвращает nil.
	second, err := s.UseInviteLink("code123", 300)
	if err != nil {
		t.Fatalf("UseInviteLink twice: %v", err)
	}
	if second != nil {
		t.Fatalf("single-use code redeemed twice: %+v", second)
	}
}

func TestInviteExpiry(t *testing.T) {
	s := newTestStore(t)

	past := time.Now().UTC().Add(-time.Hour)
	if _, err := s.CreateInviteLink("expired", 1, RoleEmployee, "", &past); err != nil {
		t.Fatalf("CreateInviteLink: %v", err)
	}

	link, err := s.GetInviteLinkByCode("expired")
	if err != nil {
		t.Fatalf("GetInviteLinkByCode: %v", err)
	}
	if link == nil || link.ExpiresAt == nil || !link.ExpiresAt.Before(time.Now().UTC()) {
		t.Fatalf("expected expired link, got %+v", link)
	}
	if link.IsUsed {
		t.Fatal("expired link must stay unused")
	}
}

func TestAddUserWithInviteUpgradesExisting(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.AddUser(300, "olga", "Ольга", ""); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	inviter := int64(1)
	u, err := s.AddUserWithInvite(300, "olga", "Ольга", "", "Сидорова О.И.", RoleAdmin, &inviter)
	if err != nil {
		t.Fatalf("AddUserWithInvite: %v", err)
	}
	if u.Role != RoleAdmin || u.FullName != "Сидорова О.И." || u.InvitedBy == nil || *u.InvitedBy != 1 {
		t.Fatalf("invite fields not applied: %+v", u)
	}
	n, _ := s.UsersCount()
	if n != 1 {
		t.Fatalf("expected 1 user, got %d", n)
	}
}

func TestBlockUnblockUser(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.AddUser(400, "u", "U", ""); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	u, err := s.BlockUser(400)
	if err != nil || u == nil || !u.IsBlocked {
		t.Fatalf("BlockUser failed: %+v (%v)", u, err)
	}
	u, err = s.UnblockUser(400)
	if err != nil || u == nil || u.IsBlocked {
		t.Fatalf("UnblockUser failed: %+v (%v)", u, err)
	}
}

func TestCreativesListAndCount(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		err := s.SaveCreative(&Creative{
			UserID:   500,
			Form:     "Text",
			KktuCode: "4.1.1",
			Erid:     "erid-" + string(rune('a'+i)),
			Status:   CreativeStatusCreated,
		})
		if err != nil {
			t.Fatalf("SaveCreative: %v", err)
		}
	}
	if err := s.SaveCreative(&Creative{UserID: 501, Form: "Banner", KktuCode: "15.2.2", Status: CreativeStatusError}); err != nil {
		t.Fatalf("SaveCreative other user: %v", err)
	}

	list, err := s.GetUserCreatives(500, 10, 0)
	if err != nil {
		t.Fatalf("GetUserCreatives: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 creatives, got %d", len(list))
	}
	n, err := s.UserCreativesCount(500)
	if err != nil || n != 3 {
		t.Fatalf("expected count 3, got %d (%v)", n, err)
	}

	byErid, err := s.GetCreativeByErid("erid-a")
	if err != nil || byErid == nil || byErid.UserID != 500 {
		t.Fatalf("GetCreativeByErid: %+v (%v)", byErid, err)
	}
}

func TestUpdateBotStats(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.AddUser(600, "a", "A", ""); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	stats, err := s.UpdateBotStats()
	if err != nil {
		t.Fatalf("UpdateBotStats: %v", err)
	}
	if stats.TotalUsers != 1 || stats.ActiveUsers != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestMigrationsAppliedOnce(t *testing.T) {
	s := newTestStore(t)

	first, err := s.MigrationHistoryList()
	if err != nil {
		t.Fatalf("MigrationHistoryList: %v", err)
	}
	if len(first) != len(migrations) {
		t.Fatalf("expected %d applied migrations, got %d", len(migrations), len(first))
	}

	// Повторный прогон не создает дублей.
	if err := s.runMigrations(); err != nil {
		t.Fatalf("runMigrations twice: %v", err)
	}
	second, _ := s.MigrationHistoryList()
	if len(second) != len(first) {
		t.Fatalf("migrations reapplied: %d -> %d", len(first), len(second))
	}
}
