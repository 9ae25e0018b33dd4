package app

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tele "gopkg.in/telebot.v3"
)

// ==========================================
// КОНФИГУРАЦИЯ
// ==========================================

type Config struct {
	Token       string `json:"token"`
	BotAPIUrl   string `json:"bot_api_url"`
	BotUsername string `json:"bot_username"`

	AdminUserIDs []int64 `json:"admin_user_ids"`

	MediascoutAPIUrl   string `json:"mediascout_api_url"`
	MediascoutLogin    string `json:"mediascout_login"`
	MediascoutPassword string `json:"mediascout_password"`
}

func (c *Config) IsAdminID(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// ==========================================
// ГЛОБАЛЬНЫЕ ПЕРЕМЕННЫЕ (Общие для всех файлов)
// ==========================================

var (
	config     Config
	store      *Store
	mediascout *MediascoutClient
)

// ==========================================
// MAIN
// ==========================================

func Run() {
	initAppLayout()
	InitLogger()
	defer CloseLogger()
	markStart()

	// 1. Загрузка конфигурации
	if err := loadJSON(configFilePath, &config); err != nil {
		log.Fatalf("❌ Критическая ошибка: не найден или поврежден %s: %v", configFilePath, err)
	}
	applyEnvOverrides(&config)
	if config.Token == "" {
		log.Fatalf("❌ Критическая ошибка: не задан токен бота (token / ORDBOT_BOT_TOKEN)")
	}

	// 2. База данных (SQLite + миграции)
	store = NewStore(dbFilePath)
	log.Println("✅ База данных подключена, миграции применены.")

	// 3. Клиент Медиаскаут
	mediascout = NewMediascoutClient(config.MediascoutAPIUrl, config.MediascoutLogin, config.MediascoutPassword)
	if mediascout.Ping() {
		if mediascout.PingAuth() {
			log.Println("✅ Медиаскаут: связь и авторизация в порядке.")
		} else {
			log.Println("⚠️ Медиаскаут: связь есть, но авторизация не прошла. Проверьте логин/пароль.")
		}
	} else {
		log.Println("⚠️ Медиаскаут недоступен. Создание креативов будет падать до восстановления связи.")
	}

	// 4. Настройки бота
	log.Println("🔄 Попытка подключения к Telegram API...")

	pref := tele.Settings{
		Token: config.Token,
		URL:   config.BotAPIUrl,
		Poller: &tele.LongPoller{
			Timeout: 10 * time.Second,
		},
		OnError: func(err error, c tele.Context) {
			log.Printf("❌ Ошибка в Bot Poller: %v", err)
			if c != nil && c.Chat() != nil {
				log.Printf("   -> В чате: %v", c.Chat().ID)
			}
		},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("❌ КРИТИЧЕСКАЯ ОШИБКА при создании бота (проверьте токен или доступ к API): %v", err)
	}
	if config.BotUsername == "" && b.Me != nil {
		config.BotUsername = b.Me.Username
	}

	// 5. Хендлеры и команды
	RegisterHandlers(b)
	setupBotCommands(b)

	// 6. Снимок статистики на старте
	if _, err := store.UpdateBotStats(); err != nil {
		log.Printf("⚠️ Не удалось обновить статистику при старте: %v", err)
	}

	safeGo("housekeeping", startHousekeeping)
	if addr := os.Getenv("ORDBOT_HEALTH_ADDR"); addr != "" {
		safeGo("health-server", func() { startHealthServer(addr) })
	}

	log.Printf("✅ Соединение установлено! Бот: @%s (ID: %d)", b.Me.Username, b.Me.ID)
	if config.BotAPIUrl != "" {
		log.Printf("🌐 Работа через прокси: %s", config.BotAPIUrl)
	} else {
		log.Println("🌐 Работа через стандартный api.telegram.org")
	}

	// Сброс вебхука и зависших апдейтов (важно при переезде сервера)
	log.Println("🧹 Сброс вебхука и удаление старых зависших сообщений...")
	if err := b.RemoveWebhook(true); err != nil {
		log.Printf("⚠️ Предупреждение: Не удалось сбросить вебхук (возможно, ошибка сети): %v", err)
	} else {
		log.Println("✅ Вебхук удален, очередь очищена. Бот готов к работе.")
	}

	log.Printf("🚀 Бот запущен. Админов в конфиге: %d", len(config.AdminUserIDs))

	safeGo("bot", func() { b.Start() })

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("⏹ Завершение работы...")
	b.Stop()
	if err := store.Close(); err != nil {
		log.Printf("⚠️ Ошибка закрытия БД: %v", err)
	}
}

func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	if v := os.Getenv("ORDBOT_BOT_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("ORDBOT_BOT_API_URL"); v != "" {
		cfg.BotAPIUrl = v
	}
	if v := os.Getenv("ORDBOT_BOT_USERNAME"); v != "" {
		cfg.BotUsername = v
	}
	if v := os.Getenv("ORDBOT_ADMIN_IDS"); v != "" {
		var ids []int64
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if id, err := strconv.ParseInt(part, 10, 64); err == nil {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			cfg.AdminUserIDs = ids
		}
	}
	if v := os.Getenv("ORDBOT_MEDIASCOUT_URL"); v != "" {
		cfg.MediascoutAPIUrl = v
	}
	if v := os.Getenv("ORDBOT_MEDIASCOUT_LOGIN"); v != "" {
		cfg.MediascoutLogin = v
	}
	if v := os.Getenv("ORDBOT_MEDIASCOUT_PASSWORD"); v != "" {
		cfg.MediascoutPassword = v
	}
}
