package app

import (
	"log"

	tele "gopkg.in/telebot.v3"
)

// ==========================================
// КОМАНДЫ БОТА
// ==========================================

var userCommands = []tele.Command{
	{Text: "start", Description: "🚀 Запуск бота"},
	{Text: "menu", Description: "📋 Главное меню"},
	{Text: "help", Description: "❓ Помощь"},
	{Text: "status", Description: "📊 Статус бота"},
	{Text: "cancel", Description: "❌ Отменить текущее действие"},
}

var adminCommands = []tele.Command{
	{Text: "start", Description: "🚀 Запуск бота"},
	{Text: "menu", Description: "📋 Главное меню"},
	{Text: "admin", Description: "👑 Админ-панель"},
	{Text: "help", Description: "❓ Помощь"},
	{Text: "status", Description: "📊 Статус бота"},
	{Text: "cancel", Description: "❌ Отменить текущее действие"},
}

// setupBotCommands выставляет общий список команд и расширенный —
// персонально каждому админу из конфига.
func setupBotCommands(b *tele.Bot) {
	if err := b.SetCommands(userCommands); err != nil {
		log.Printf("⚠️ Ошибка установки команд: %v", err)
		return
	}
	log.Println("✅ Команды бота установлены.")

	for _, adminID := range config.AdminUserIDs {
		updateUserCommands(b, adminID, true)
	}
}

// updateUserCommands переключает набор команд конкретного чата.
func updateUserCommands(b *tele.Bot, userID int64, admin bool) {
	commands := userCommands
	if admin {
		commands = adminCommands
	}
	scope := tele.CommandScope{Type: tele.CommandScopeChat, ChatID: userID}
	if err := b.SetCommands(commands, scope); err != nil {
		log.Printf("⚠️ Ошибка установки команд для %d: %v", userID, err)
		return
	}
	log.Printf("✅ Команды обновлены для %d (admin=%v)", userID, admin)
}
