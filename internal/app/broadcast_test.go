package app

import (
	"errors"
	"testing"

	tele "gopkg.in/telebot.v3"
)

func TestRunBroadcastInvariant(t *testing.T) {
	broadcastDelay = 0

	// Любая перестановка исходов: sent + failed + blocked == total.
	outcomes := map[int64]error{
		1: nil,
		2: tele.ErrBlockedByUser,
		3: errors.New("network down"),
		4: nil,
		5: tele.ErrUserIsDeactivated,
		6: errors.New("chat not found"),
		7: nil,
	}
	var ids []int64
	for id := range outcomes {
		ids = append(ids, id)
	}

	stats := runBroadcast(ids, func(id int64) error { return outcomes[id] }, nil)

	if stats.Total != len(ids) {
		t.Fatalf("total = %d; want %d", stats.Total, len(ids))
	}
	if got := stats.Sent + stats.Failed + stats.Blocked; got != stats.Total {
		t.Fatalf("sent+failed+blocked = %d; want %d", got, stats.Total)
	}
	if stats.Sent != 3 || stats.Blocked != 2 || stats.Failed != 2 {
		t.Fatalf("unexpected breakdown: %+v", stats)
	}
}

func TestRunBroadcastEmpty(t *testing.T) {
	broadcastDelay = 0
	stats := runBroadcast(nil, func(int64) error { t.Fatal("send must not be called"); return nil }, nil)
	if stats.Total != 0 || stats.done() != 0 {
		t.Fatalf("unexpected stats for empty run: %+v", stats)
	}
	if stats.percent() != 100 {
		t.Fatalf("empty run percent = %d; want 100", stats.percent())
	}
}

func TestRunBroadcastProgressChannel(t *testing.T) {
	broadcastDelay = 0

	ids := []int64{1, 2, 3}
	progress := make(chan BroadcastStats, len(ids))
	final := runBroadcast(ids, func(int64) error { return nil }, progress)

	var snapshots []BroadcastStats
	for s := range progress {
		snapshots = append(snapshots, s)
	}
	if len(snapshots) == 0 {
		t.Fatal("expected progress snapshots")
	}
	last := snapshots[len(snapshots)-1]
	if last != final {
		t.Fatalf("last snapshot %+v != final %+v", last, final)
	}
	if final.Sent != 3 {
		t.Fatalf("unexpected final: %+v", final)
	}

	// Счетчики неубывающие.
	for i := 1; i < len(snapshots); i++ {
		if snapshots[i].done() < snapshots[i-1].done() {
			t.Fatalf("progress went backwards: %+v -> %+v", snapshots[i-1], snapshots[i])
		}
	}
}

func TestIsBlockedErr(t *testing.T) {
	if !isBlockedErr(tele.ErrBlockedByUser) {
		t.Fatal("ErrBlockedByUser must count as blocked")
	}
	if !isBlockedErr(tele.ErrUserIsDeactivated) {
		t.Fatal("ErrUserIsDeactivated must count as blocked")
	}
	if isBlockedErr(errors.New("timeout")) {
		t.Fatal("generic error must not count as blocked")
	}
	if isBlockedErr(nil) {
		t.Fatal("nil is not blocked")
	}
}
