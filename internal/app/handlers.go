package app

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"
)

// ==========================================
// РЕГИСТРАЦИЯ ОБРАБОТЧИКОВ
// ==========================================

func RegisterHandlers(b *tele.Bot) {
	b.Use(RecoverMiddleware(), AccessMiddleware())

	b.Handle("/start", func(c tele.Context) error { return handleStart(b, c) })
	b.Handle("/menu", handleMenu)
	b.Handle("/help", handleHelp)
	b.Handle("/status", handleStatus)
	b.Handle("/cancel", handleCancelCommand)
	b.Handle("/admin", handleAdminPanel)

	b.Handle(tele.OnText, func(c tele.Context) error { return onText(b, c) })
	b.Handle(tele.OnPhoto, func(c tele.Context) error { return handleWizardMedia(c, b) })
	b.Handle(tele.OnVideo, func(c tele.Context) error { return handleWizardMedia(c, b) })
	b.Handle(tele.OnAudio, func(c tele.Context) error { return handleWizardMedia(c, b) })
	b.Handle(tele.OnDocument, func(c tele.Context) error { return handleWizardMedia(c, b) })

	b.Handle(tele.OnCallback, func(c tele.Context) error { return onCallback(b, c) })
}

func buildMainMenu() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.Data("🎨 Создать креатив", "create_creative")),
		menu.Row(menu.Data("📋 Мои креативы", "my_creatives")),
		menu.Row(menu.Data("ℹ️ Помощь", "help_info")),
	)
	return menu
}

// tryEdit редактирует сообщение, «message is not modified» не считается
// ошибкой (пользователь ткнул ту же кнопку дважды).
func tryEdit(c tele.Context, what interface{}, opts ...interface{}) error {
	err := c.Edit(what, opts...)
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return c.Respond()
	}
	if err != nil {
		log.Printf("⚠️ Ошибка редактирования сообщения: %v", err)
	}
	return err
}

// ==========================================
// /start И РЕГИСТРАЦИЯ ПО ПРИГЛАШЕНИЮ
// ==========================================

const welcomeBody = `<b>Добро пожаловать в бот для создания токенов Erid!</b>

Этот бот поможет вам создать креативы саморекламы и получить токены Erid через сервис Медиаскаут.

🎨 <b>Что можно сделать:</b>
• Создать креатив для саморекламы
• Выбрать форму креатива (баннер, текст, видео и т.д.)
• Загрузить медиа-файлы
• Получить токен Erid

Для начала работы используйте команду /menu или выберите действие ниже:`

func handleStart(b *tele.Bot, c tele.Context) error {
	if code := strings.TrimSpace(c.Message().Payload); code != "" {
		return redeemInvite(b, c, code)
	}

	sender := c.Sender()
	user, err := store.GetUser(sender.ID)
	if err != nil {
		log.Printf("❌ Ошибка загрузки пользователя %d: %v", sender.ID, err)
		return c.Send("⚠️ Временная ошибка. Попробуйте позже.")
	}

	if user == nil && !config.IsAdminID(sender.ID) {
		return c.Send(
			"❌ <b>Доступ запрещен</b>\n\n"+
				"Для использования бота необходима пригласительная ссылка от администратора.\n\n"+
				"Обратитесь к администратору вашей компании для получения доступа.",
			tele.ModeHTML)
	}

	// Админ из конфига без записи в БД — заводим сами.
	if user == nil {
		user, err = store.AddUserWithInvite(sender.ID, sender.Username, sender.FirstName, sender.LastName, "", RoleAdmin, nil)
		if err != nil {
			log.Printf("❌ Ошибка регистрации админа %d: %v", sender.ID, err)
			return c.Send("⚠️ Временная ошибка. Попробуйте позже.")
		}
		updateUserCommands(b, sender.ID, true)
		log.Printf("✅ Админ из конфига зарегистрирован: %d", sender.ID)
	}

	if user.IsBlocked {
		return c.Send(
			"🚫 <b>Доступ заблокирован</b>\n\n"+
				"Ваш доступ к боту был заблокирован администратором.\n\n"+
				"Для получения дополнительной информации обратитесь к администратору.",
			tele.ModeHTML)
	}

	name := sender.FirstName
	if name == "" {
		name = "пользователь"
	}
	text := fmt.Sprintf("👋 Привет, %s!\n\n%s", name, welcomeBody)
	return c.Send(text, buildMainMenu(), tele.ModeHTML)
}

type inviteVerdict int

const (
	inviteOK inviteVerdict = iota
	inviteNotFound
	inviteUsed
	inviteExpired
)

// resolveInvite применяет проверки в строгом порядке: не существует →
// уже использован → просрочен. Регистрация происходит только при
// inviteOK, отказ не создает пользователя.
func resolveInvite(link *InviteLink, now time.Time) inviteVerdict {
	switch {
	case link == nil:
		return inviteNotFound
	case link.IsUsed:
		return inviteUsed
	case link.ExpiresAt != nil && link.ExpiresAt.Before(now):
		return inviteExpired
	default:
		return inviteOK
	}
}

func redeemInvite(b *tele.Bot, c tele.Context, code string) error {
	sender := c.Sender()

	link, err := store.GetInviteLinkByCode(code)
	if err != nil {
		log.Printf("❌ Ошибка поиска приглашения %s: %v", code, err)
		return c.Send("⚠️ Временная ошибка. Попробуйте позже.")
	}

	switch resolveInvite(link, time.Now().UTC()) {
	case inviteNotFound:
		return c.Send(
			"❌ <b>Неверная пригласительная ссылка</b>\n\n"+
				"Эта ссылка не существует или была удалена.",
			tele.ModeHTML)
	case inviteUsed:
		return c.Send(
			"❌ <b>Ссылка уже использована</b>\n\n"+
				"Эта пригласительная ссылка уже была использована и больше не действительна.\n"+
				"Обратитесь к администратору для получения новой ссылки.",
			tele.ModeHTML)
	case inviteExpired:
		return c.Send(
			"❌ <b>Ссылка просрочена</b>\n\n"+
				"Срок действия этой пригласительной ссылки истек.\n"+
				"Обратитесь к администратору для получения новой ссылки.",
			tele.ModeHTML)
	}

	if _, err := store.UseInviteLink(code, sender.ID); err != nil {
		log.Printf("❌ Ошибка погашения приглашения %s: %v", code, err)
		return c.Send("⚠️ Временная ошибка. Попробуйте позже.")
	}

	createdBy := link.CreatedBy
	_, err = store.AddUserWithInvite(sender.ID, sender.Username, sender.FirstName, sender.LastName,
		link.FullName, link.TargetRole, &createdBy)
	if err != nil {
		log.Printf("❌ Ошибка регистрации по приглашению %s: %v", code, err)
		return c.Send("⚠️ Временная ошибка. Попробуйте позже.")
	}

	updateUserCommands(b, sender.ID, link.TargetRole == RoleAdmin)

	roleText := "сотрудника"
	if link.TargetRole == RoleAdmin {
		roleText = "администратора"
	}
	name := link.FullName
	if name == "" {
		name = sender.FirstName
	}
	if name == "" {
		name = "пользователь"
	}

	text := fmt.Sprintf(
		"✅ <b>Успешная регистрация!</b>\n\n👋 Привет, %s!\n\nВы зарегистрированы в боте как <b>%s</b>.\n\n%s",
		name, roleText, welcomeBody)
	log.Printf("✅ Пользователь %d зарегистрирован по приглашению %s (роль %s)", sender.ID, code, link.TargetRole)
	return c.Send(text, buildMainMenu(), tele.ModeHTML)
}

// ==========================================
// ПОЛЬЗОВАТЕЛЬСКИЕ КОМАНДЫ
// ==========================================

func handleMenu(c tele.Context) error {
	return c.Send("🎨 <b>Главное меню</b>\n\nВыберите действие:", buildMainMenu(), tele.ModeHTML)
}

const helpText = `ℹ️ <b>Помощь по работе с ботом</b>

<b>Что такое Erid?</b>
Erid (маркер) — уникальный идентификатор рекламы, который должен быть указан в каждом рекламном креативе согласно закону о рекламе.

<b>Как создать креатив?</b>
1. Нажмите "🎨 Создать креатив"
2. Выберите форму креатива (баннер, текст, видео и т.д.)
3. Загрузите медиа-файл (если требуется)
4. Введите текст (если требуется)
5. Укажите целевые ссылки (по желанию)
6. Выберите код ККТУ (категорию товара/услуги)
7. Подтвердите создание и получите токен Erid

<b>Самореклама</b>
Этот бот создает креативы саморекламы (isSelfPromotion = true), которые не требуют договоров между сторонами.

<b>Техподдержка</b>
По вопросам работы бота обращайтесь к администратору.`

func handleHelp(c tele.Context) error {
	return c.Send(helpText, buildMainMenu(), tele.ModeHTML)
}

func handleStatus(c tele.Context) error {
	stats, err := store.GetBotStats()
	if err != nil || stats == nil {
		stats, err = store.UpdateBotStats()
		if err != nil {
			log.Printf("❌ Ошибка статистики: %v", err)
			return c.Send("⚠️ Не удалось получить статус бота.")
		}
	}

	mediascoutOK := "🟢 доступен"
	if !mediascout.Ping() {
		mediascoutOK = "🔴 недоступен"
	}

	text := fmt.Sprintf(
		"📊 <b>Статус бота</b>\n\n"+
			"🟢 Статус: <b>%s</b>\n"+
			"🕐 Последний запуск: <b>%s</b>\n"+
			"🌐 Mediascout: <b>%s</b>\n\n"+
			"⏱ Аптайм: <b>%s</b>",
		stats.Status,
		stats.LastRestart.Format("02.01.2006 15:04:05"),
		mediascoutOK,
		formatDuration(time.Since(appStartedAt)))
	return c.Send(text, tele.ModeHTML)
}

func handleCancelCommand(c tele.Context) error {
	userID := c.Sender().ID
	hadDraft := getDraft(userID) != nil
	hadAdmin := getAdminState(userID) != nil
	clearDraft(userID)
	clearAdminState(userID)
	if hadDraft || hadAdmin {
		return c.Send("❌ Операция отменена")
	}
	return c.Send("ℹ️ Нет активных операций для отмены")
}

// ==========================================
// МОИ КРЕАТИВЫ
// ==========================================

func handleMyCreatives(c tele.Context) error {
	userID := c.Sender().ID

	creatives, err := store.GetUserCreatives(userID, 10, 0)
	if err != nil {
		log.Printf("❌ Ошибка выборки креативов %d: %v", userID, err)
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка. Попробуйте позже."})
	}
	total, err := store.UserCreativesCount(userID)
	if err != nil {
		log.Printf("❌ Ошибка подсчета креативов %d: %v", userID, err)
	}

	if len(creatives) == 0 {
		return tryEdit(c,
			"📋 <b>Мои креативы</b>\n\n"+
				"У вас пока нет созданных креативов.\n"+
				"Нажмите \"🎨 Создать креатив\" чтобы начать.",
			buildMainMenu(), tele.ModeHTML)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 <b>Мои креативы</b> (всего: %d)\n\n", total)
	for _, cr := range creatives {
		emoji := "✅"
		if cr.Status != CreativeStatusCreated {
			emoji = "❌"
		}
		fmt.Fprintf(&b, "%s <b>Креатив #%d</b>\n", emoji, cr.ID)
		formName := creativeForms[cr.Form]
		if formName == "" {
			formName = cr.Form
		}
		fmt.Fprintf(&b, "   🎨 Форма: %s\n", formName)
		fmt.Fprintf(&b, "   📦 ККТУ: %s\n", cr.KktuCode)
		if cr.Erid != "" {
			fmt.Fprintf(&b, "   🎫 Erid: <code>%s</code>\n", cr.Erid)
		}
		if cr.Status == CreativeStatusError && cr.ErrorMessage != "" {
			fmt.Fprintf(&b, "   ❌ Ошибка: %s\n", truncate(cr.ErrorMessage, 50))
		}
		fmt.Fprintf(&b, "   📅 Создан: %s\n\n", cr.CreatedAt.Format("02.01.2006 15:04"))
	}
	if total > 10 {
		fmt.Fprintf(&b, "<i>Показаны последние 10 из %d креативов</i>", total)
	}

	return tryEdit(c, b.String(), buildMainMenu(), tele.ModeHTML)
}

// ==========================================
// ДИСПЕТЧЕРИЗАЦИЯ
// ==========================================

// onText раздает текстовый ввод активным диалогам: сперва админским
// (рассылка, ввод ФИО), затем мастеру креативов.
func onText(b *tele.Bot, c tele.Context) error {
	if handled, err := handleAdminText(b, c); handled {
		return err
	}
	if handled, err := handleWizardText(c); handled {
		return err
	}
	return c.Send("ℹ️ Используйте /menu для выбора действия.")
}

func onCallback(b *tele.Bot, c tele.Context) error {
	// Всегда подтверждаем callback, чтобы убрать "часики" на кнопке.
	defer func() {
		_ = c.Respond()
	}()

	data := strings.TrimSpace(c.Callback().Data)

	switch {
	// --- главное меню ---
	case data == "create_creative":
		return startWizard(c)
	case data == "my_creatives":
		return handleMyCreatives(c)
	case data == "help_info":
		return tryEdit(c, helpText, buildMainMenu(), tele.ModeHTML)

	// --- мастер креативов ---
	case strings.HasPrefix(data, "form_"):
		return handleFormSelected(c, strings.TrimPrefix(data, "form_"))
	case strings.HasPrefix(data, "kktupage_"):
		page, err := strconv.Atoi(strings.TrimPrefix(data, "kktupage_"))
		if err != nil {
			return c.Respond()
		}
		return handleKktuPage(c, page)
	case strings.HasPrefix(data, "kktu_"):
		return handleKktuSelected(c, strings.TrimPrefix(data, "kktu_"))
	case data == "nav_back":
		return handleBack(c)
	case data == "nav_skip":
		return handleSkip(c)
	case data == "nav_cancel":
		return handleCancel(c)
	case data == "confirm_yes":
		return handleConfirmCreation(c)
	case data == "confirm_no":
		return handleConfirmReject(c)
	case data == "noop":
		return c.Respond(&tele.CallbackResponse{Text: "Используйте кнопки навигации для переключения страниц"})

	// --- админка ---
	case strings.HasPrefix(data, "admin_"), strings.HasPrefix(data, "employee"),
		strings.HasPrefix(data, "broadcast_"), strings.HasPrefix(data, "invite_del_"):
		return handleAdminCallback(b, c, data)
	}

	log.Printf("⚠️ Неизвестный callback: %q от %d", data, c.Sender().ID)
	return c.Respond()
}
