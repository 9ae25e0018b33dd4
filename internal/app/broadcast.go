package app

import (
	"errors"
	"fmt"
	"log"
	"time"

	tele "gopkg.in/telebot.v3"
)

// ==========================================
// РАССЫЛКА
// ==========================================

// BroadcastStats — счетчики рассылки. Инвариант после завершения:
// Sent + Failed + Blocked == Total.
type BroadcastStats struct {
	Total   int
	Sent    int
	Failed  int
	Blocked int
}

func (s BroadcastStats) done() int { return s.Sent + s.Failed + s.Blocked }

func (s BroadcastStats) percent() int {
	if s.Total == 0 {
		return 100
	}
	return s.done() * 100 / s.Total
}

type broadcastSendFunc func(userID int64) error

// Пауза между отправками, чтобы не упереться в лимиты Telegram.
var broadcastDelay = 50 * time.Millisecond

// isBlockedErr отличает «получатель заблокировал бота» от прочих
// ошибок доставки: блокировка — ожидаемое состояние, не сбой.
func isBlockedErr(err error) bool {
	return errors.Is(err, tele.ErrBlockedByUser) || errors.Is(err, tele.ErrUserIsDeactivated)
}

// runBroadcast последовательно доставляет сообщение каждому получателю
// и после каждой попытки шлет срез счетчиков в progress (неблокирующе:
// отставший потребитель пропускает промежуточные срезы). Канал
// закрывается по завершении.
func runBroadcast(userIDs []int64, send broadcastSendFunc, progress chan<- BroadcastStats) BroadcastStats {
	stats := BroadcastStats{Total: len(userIDs)}

	for _, id := range userIDs {
		err := send(id)
		switch {
		case err == nil:
			stats.Sent++
		case isBlockedErr(err):
			stats.Blocked++
		default:
			stats.Failed++
			log.Printf("⚠️ Ошибка рассылки пользователю %d: %v", id, err)
		}

		if progress != nil {
			select {
			case progress <- stats:
			default:
			}
		}
		if broadcastDelay > 0 {
			time.Sleep(broadcastDelay)
		}
	}

	if progress != nil {
		close(progress)
	}
	return stats
}

func progressText(s BroadcastStats) string {
	return fmt.Sprintf(
		"📤 <b>Рассылка в процессе...</b>\n\n"+
			"📊 Прогресс: <b>%d%%</b>\n"+
			"✅ Отправлено: <b>%d</b>\n"+
			"❌ Ошибок: <b>%d</b>\n"+
			"🚫 Заблокировано: <b>%d</b>",
		s.percent(), s.Sent, s.Failed, s.Blocked)
}

func finalReportText(s BroadcastStats) string {
	rate := 0
	if s.Total > 0 {
		rate = s.Sent * 100 / s.Total
	}
	return fmt.Sprintf(
		"✅ <b>Рассылка завершена!</b>\n\n"+
			"📊 <b>Итоговая статистика:</b>\n"+
			"👥 Всего получателей: <b>%d</b>\n"+
			"✅ Успешно доставлено: <b>%d</b>\n"+
			"❌ Ошибок доставки: <b>%d</b>\n"+
			"🚫 Заблокировали бота: <b>%d</b>\n"+
			"📈 Успешность: <b>%d%%</b>",
		s.Total, s.Sent, s.Failed, s.Blocked, rate)
}

// launchBroadcast запускает подтвержденную рассылку в фоне и
// редактирует сообщение-прогресс по мере доставки. Ошибки обновления
// прогресса глотаются: это вспомогательный UI, не сама рассылка.
func launchBroadcast(b *tele.Bot, c tele.Context) error {
	adminID := c.Sender().ID
	st := getAdminState(adminID)
	if st == nil || st.BroadcastText == "" {
		clearAdminState(adminID)
		return tryEdit(c, "❌ Ошибка: сообщение для рассылки не найдено")
	}
	clearAdminState(adminID)

	users, err := store.GetActiveUsers()
	if err != nil {
		log.Printf("❌ Ошибка выборки получателей: %v", err)
		return tryEdit(c, "❌ Не удалось получить список получателей")
	}

	var recipients []int64
	for _, u := range users {
		recipients = append(recipients, u.ID)
	}

	text := st.BroadcastText
	var markup *tele.ReplyMarkup
	if st.ButtonText != "" && st.ButtonURL != "" {
		markup = &tele.ReplyMarkup{}
		markup.Inline(markup.Row(markup.URL(st.ButtonText, st.ButtonURL)))
	}

	if err := tryEdit(c, progressText(BroadcastStats{Total: len(recipients)})+"\n\n🚀 Запущена...", tele.ModeHTML); err != nil {
		log.Printf("⚠️ Не удалось показать прогресс рассылки: %v", err)
	}
	progressMsg := c.Message()

	send := func(userID int64) error {
		var e error
		if markup != nil {
			_, e = b.Send(&tele.User{ID: userID}, text, markup, tele.ModeHTML)
		} else {
			_, e = b.Send(&tele.User{ID: userID}, text, tele.ModeHTML)
		}
		return e
	}

	progress := make(chan BroadcastStats, 1)
	done := make(chan BroadcastStats, 1)

	safeGo("broadcast", func() {
		log.Printf("🚀 Рассылка запущена админом %d, получателей: %d", adminID, len(recipients))
		done <- runBroadcast(recipients, send, progress)
	})

	safeGo("broadcast_progress", func() {
		for s := range progress {
			// Прогресс — best effort, ошибки редактирования глотаем.
			_, _ = b.Edit(progressMsg, progressText(s), tele.ModeHTML)
		}
		final := <-done
		log.Printf("✅ Рассылка завершена: всего %d, доставлено %d, ошибок %d, заблокировано %d",
			final.Total, final.Sent, final.Failed, final.Blocked)
		if _, err := b.Edit(progressMsg, finalReportText(final), tele.ModeHTML); err != nil {
			log.Printf("⚠️ Не удалось отправить отчет рассылки: %v", err)
		}
	})

	return nil
}
