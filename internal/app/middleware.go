package app

import (
	"log"
	"runtime/debug"

	tele "gopkg.in/telebot.v3"
)

// ==========================================
// MIDDLEWARE
// ==========================================

// RecoverMiddleware перехватывает панику обработчика, чтобы один
// сломанный апдейт не ронял весь бот.
func RecoverMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("💥 PANIC [handler]: %v\n%s", r, string(debug.Stack()))
				}
			}()
			return next(c)
		}
	}
}

type accessVerdict int

const (
	accessAllow accessVerdict = iota
	accessDenyUnknown
	accessDenyBlocked
	accessProvisionAdmin
)

// resolveAccess — чистое правило допуска: известность, блокировка,
// принадлежность к админам из конфига.
func resolveAccess(known, blocked, configAdmin bool) accessVerdict {
	switch {
	case known && blocked:
		return accessDenyBlocked
	case known:
		return accessAllow
	case configAdmin:
		return accessProvisionAdmin
	default:
		return accessDenyUnknown
	}
}

const (
	msgAccessDenied  = "⛔️ Доступ запрещен. Для регистрации используйте пригласительную ссылку или обратитесь к администратору."
	msgAccessBlocked = "🚫 Ваш доступ к боту заблокирован. Обратитесь к администратору."
)

// AccessMiddleware пускает /start всегда (там своя логика приглашений),
// остальное — только зарегистрированным и не заблокированным. Админы
// из конфига заводятся в БД автоматически при первом обращении.
func AccessMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}

			if m := c.Message(); c.Callback() == nil && m != nil && m.Text != "" {
				if m.Text == "/start" || len(m.Text) > 7 && m.Text[:7] == "/start " {
					return next(c)
				}
			}

			dbUser, err := store.GetUser(sender.ID)
			if err != nil {
				log.Printf("❌ Ошибка загрузки пользователя %d: %v", sender.ID, err)
				return c.Send("⚠️ Временная ошибка. Попробуйте позже.")
			}

			verdict := resolveAccess(dbUser != nil, dbUser != nil && dbUser.IsBlocked, config.IsAdminID(sender.ID))
			switch verdict {
			case accessDenyUnknown:
				return c.Send(msgAccessDenied)
			case accessDenyBlocked:
				return c.Send(msgAccessBlocked)
			case accessProvisionAdmin:
				dbUser, err = store.AddUser(sender.ID, sender.Username, sender.FirstName, sender.LastName)
				if err != nil {
					log.Printf("❌ Ошибка автосоздания админа %d: %v", sender.ID, err)
					return c.Send("⚠️ Временная ошибка. Попробуйте позже.")
				}
				if dbUser.Role != RoleAdmin {
					dbUser, err = store.UpdateUserRole(sender.ID, RoleAdmin)
					if err != nil {
						log.Printf("❌ Ошибка назначения роли админа %d: %v", sender.ID, err)
					}
				}
				log.Printf("✅ Админ из конфига автоматически зарегистрирован: %d", sender.ID)
			}

			c.Set("dbUser", dbUser)
			return next(c)
		}
	}
}

// currentUser достает пользователя, положенного AccessMiddleware.
func currentUser(c tele.Context) *User {
	if u, ok := c.Get("dbUser").(*User); ok {
		return u
	}
	return nil
}

// isAdmin — админ по записи в БД либо по списку из конфига.
func isAdmin(c tele.Context) bool {
	if u := currentUser(c); u != nil {
		return u.Role == RoleAdmin
	}
	return config.IsAdminID(c.Sender().ID)
}
