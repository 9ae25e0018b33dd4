package app

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	tele "gopkg.in/telebot.v3"
)

// ==========================================
// АДМИН-ПАНЕЛЬ
// ==========================================

const (
	adminModeBroadcastMessage = "broadcast_message"
	adminModeBroadcastButton  = "broadcast_button"
	adminModeAddEmployee      = "add_employee_name"
	adminModeAddAdmin         = "add_admin_name"
	adminModeEditName         = "edit_employee_name"
)

// adminState — незавершенный админский диалог (рассылка, ввод ФИО).
type adminState struct {
	Mode          string
	BroadcastText string
	ButtonText    string
	ButtonURL     string
	EditUserID    int64
}

var (
	adminStates   = make(map[int64]*adminState)
	adminStatesMu sync.Mutex
)

func getAdminState(userID int64) *adminState {
	adminStatesMu.Lock()
	defer adminStatesMu.Unlock()
	return adminStates[userID]
}

func setAdminState(userID int64, s *adminState) {
	adminStatesMu.Lock()
	defer adminStatesMu.Unlock()
	adminStates[userID] = s
}

func clearAdminState(userID int64) {
	adminStatesMu.Lock()
	defer adminStatesMu.Unlock()
	delete(adminStates, userID)
}

func buildAdminMenu() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.Data("📤 Рассылка", "admin_broadcast")),
		menu.Row(menu.Data("👥 Сотрудники", "admin_employees")),
		menu.Row(menu.Data("📈 График креативов", "admin_chart")),
		menu.Row(menu.Data("🔗 Мои приглашения", "admin_invites")),
		menu.Row(menu.Data("🗄 База данных", "admin_db")),
	)
	return menu
}

func buildEmployeesMenu() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.Data("📋 Список сотрудников", "employees_list")),
		menu.Row(menu.Data("➕ Добавить сотрудника", "employee_add")),
		menu.Row(menu.Data("👨‍💼 Добавить администратора", "admin_add")),
		menu.Row(menu.Data("🔙 Назад", "admin_back")),
	)
	return menu
}

func adminPanelText() (string, error) {
	stats, err := store.GetBotStats()
	if err != nil {
		return "", err
	}
	if stats == nil {
		stats, err = store.UpdateBotStats()
		if err != nil {
			return "", err
		}
	}
	totalUsers, err := store.UsersCount()
	if err != nil {
		return "", err
	}
	activeUsers, err := store.ActiveUsersCount()
	if err != nil {
		return "", err
	}
	totalCreatives, err := store.CreativesCount()
	if err != nil {
		return "", err
	}

	text := fmt.Sprintf(
		"🔧 <b>Админская панель</b>\n\n"+
			"📊 <b>Статистика бота:</b>\n"+
			"👥 Всего пользователей: <b>%d</b>\n"+
			"✅ Активных пользователей: <b>%d</b>\n"+
			"🎨 Всего креативов: <b>%d</b>\n"+
			"🟢 Статус: <b>%s</b>\n"+
			"🕐 Последний запуск: <b>%s</b>\n\n"+
			"Выберите действие:",
		totalUsers, activeUsers, totalCreatives,
		stats.Status, stats.LastRestart.Format("02.01.2006 15:04:05"))
	return text, nil
}

func handleAdminPanel(c tele.Context) error {
	if !isAdmin(c) {
		return c.Send("❌ У вас нет прав администратора")
	}
	text, err := adminPanelText()
	if err != nil {
		log.Printf("❌ Ошибка статистики админки: %v", err)
		return c.Send("⚠️ Не удалось получить статистику.")
	}
	return c.Send(text, buildAdminMenu(), tele.ModeHTML)
}

// ==========================================
// CALLBACK-ДИСПЕТЧЕР АДМИНКИ
// ==========================================

func handleAdminCallback(b *tele.Bot, c tele.Context, data string) error {
	if !isAdmin(c) {
		return c.Respond(&tele.CallbackResponse{Text: "❌ У вас нет прав администратора"})
	}
	userID := c.Sender().ID

	switch {
	case data == "admin_back":
		clearAdminState(userID)
		text, err := adminPanelText()
		if err != nil {
			return c.Respond(&tele.CallbackResponse{Text: "Ошибка статистики."})
		}
		return tryEdit(c, text, buildAdminMenu(), tele.ModeHTML)

	case data == "admin_employees":
		clearAdminState(userID)
		return tryEdit(c, "👥 <b>Управление сотрудниками</b>\n\nВыберите действие:", buildEmployeesMenu(), tele.ModeHTML)

	case data == "admin_chart":
		return sendCreativesChart(c)

	case data == "admin_invites":
		return showInviteList(c)

	case strings.HasPrefix(data, "invite_del_"):
		return revokeInvite(c, strings.TrimPrefix(data, "invite_del_"))

	case data == "admin_db":
		return showDatabaseMenu(c)

	case data == "admin_vacuum":
		return runVacuum(c)

	case data == "admin_broadcast":
		setAdminState(userID, &adminState{Mode: adminModeBroadcastMessage})
		return tryEdit(c,
			"📤 <b>Создание рассылки</b>\n\n"+
				"Отправьте текст сообщения, которое хотите разослать всем пользователям бота.\n\n"+
				"Для отмены введите /cancel",
			tele.ModeHTML)

	case data == "employees_list":
		return showEmployeesList(c)

	case data == "employee_add":
		setAdminState(userID, &adminState{Mode: adminModeAddEmployee})
		return tryEdit(c, "➕ <b>Добавление сотрудника</b>\n\nВведите ФИО сотрудника:", buildEmployeesMenu(), tele.ModeHTML)

	case data == "admin_add":
		setAdminState(userID, &adminState{Mode: adminModeAddAdmin})
		return tryEdit(c, "👨‍💼 <b>Добавление администратора</b>\n\nВведите ФИО администратора:", buildEmployeesMenu(), tele.ModeHTML)

	case strings.HasPrefix(data, "employee_view_"):
		id, err := parseUserID(data, "employee_view_")
		if err != nil {
			return c.Respond()
		}
		return showEmployeeCard(c, id)

	case strings.HasPrefix(data, "employee_block_"):
		id, err := parseUserID(data, "employee_block_")
		if err != nil {
			return c.Respond()
		}
		return blockEmployee(b, c, id)

	case strings.HasPrefix(data, "employee_unblock_"):
		id, err := parseUserID(data, "employee_unblock_")
		if err != nil {
			return c.Respond()
		}
		return unblockEmployee(b, c, id)

	case strings.HasPrefix(data, "employee_edit_"):
		id, err := parseUserID(data, "employee_edit_")
		if err != nil {
			return c.Respond()
		}
		setAdminState(userID, &adminState{Mode: adminModeEditName, EditUserID: id})
		return tryEdit(c, "✏️ <b>Редактирование ФИО</b>\n\nВведите новое ФИО сотрудника:", tele.ModeHTML)

	case strings.HasPrefix(data, "employee_reinvite_"):
		id, err := parseUserID(data, "employee_reinvite_")
		if err != nil {
			return c.Respond()
		}
		return reinviteEmployee(b, c, id)

	case strings.HasPrefix(data, "employee_delconfirm_"):
		id, err := parseUserID(data, "employee_delconfirm_")
		if err != nil {
			return c.Respond()
		}
		return confirmDeleteEmployee(c, id)

	case strings.HasPrefix(data, "employee_delete_"):
		id, err := parseUserID(data, "employee_delete_")
		if err != nil {
			return c.Respond()
		}
		return deleteEmployee(b, c, id)

	case data == "broadcast_addbtn":
		st := getAdminState(userID)
		if st == nil || st.Mode != adminModeBroadcastMessage {
			return c.Respond()
		}
		st.Mode = adminModeBroadcastButton
		return tryEdit(c,
			"🔗 <b>Добавление кнопки</b>\n\n"+
				"Отправьте кнопку в формате:\n"+
				"<code>Текст кнопки | https://example.com</code>\n\n"+
				"Для отмены введите /cancel",
			tele.ModeHTML)

	case data == "broadcast_nobtn":
		st := getAdminState(userID)
		if st == nil || st.BroadcastText == "" {
			return c.Respond()
		}
		return promptBroadcastConfirm(c, true)

	case data == "broadcast_yes":
		return launchBroadcast(b, c)

	case data == "broadcast_no", data == "broadcast_cancel":
		clearAdminState(userID)
		return tryEdit(c, "❌ Рассылка отменена")
	}

	return c.Respond()
}

func parseUserID(data, prefix string) (int64, error) {
	return strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
}

// ==========================================
// СОТРУДНИКИ
// ==========================================

func showEmployeesList(c tele.Context) error {
	users, err := store.GetAllUsers()
	if err != nil {
		log.Printf("❌ Ошибка списка сотрудников: %v", err)
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка. Попробуйте позже."})
	}
	if len(users) == 0 {
		return tryEdit(c, "📋 <b>Список сотрудников</b>\n\nСотрудников пока нет.", buildEmployeesMenu(), tele.ModeHTML)
	}

	menu := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, u := range users {
		label := u.DisplayName()
		if u.IsBlocked {
			label = "🔴 " + label
		}
		rows = append(rows, menu.Row(menu.Data(label, fmt.Sprintf("employee_view_%d", u.ID))))
	}
	rows = append(rows, menu.Row(menu.Data("🔙 Назад", "admin_employees")))
	menu.Inline(rows...)

	return tryEdit(c, "📋 <b>Список сотрудников</b>\n\nВыберите сотрудника для просмотра карточки:", menu, tele.ModeHTML)
}

func buildEmployeeCardMenu(userID int64, isBlocked bool) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	blockBtn := menu.Data("🚫 Заблокировать", fmt.Sprintf("employee_block_%d", userID))
	if isBlocked {
		blockBtn = menu.Data("✅ Разблокировать", fmt.Sprintf("employee_unblock_%d", userID))
	}
	menu.Inline(
		menu.Row(blockBtn),
		menu.Row(menu.Data("✏️ Изменить ФИО", fmt.Sprintf("employee_edit_%d", userID))),
		menu.Row(menu.Data("🔗 Перевыпустить ссылку", fmt.Sprintf("employee_reinvite_%d", userID))),
		menu.Row(menu.Data("🗑 Удалить", fmt.Sprintf("employee_delconfirm_%d", userID))),
		menu.Row(menu.Data("🔙 Назад", "employees_list")),
	)
	return menu
}

func showEmployeeCard(c tele.Context, userID int64) error {
	user, err := store.GetUser(userID)
	if err != nil {
		log.Printf("❌ Ошибка карточки сотрудника %d: %v", userID, err)
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка. Попробуйте позже."})
	}
	if user == nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Сотрудник не найден", ShowAlert: true})
	}

	roleText := "👤 Сотрудник"
	if user.Role == RoleAdmin {
		roleText = "👨‍💼 Администратор"
	}
	statusText := "🟢 Активен"
	if user.IsBlocked {
		statusText = "🔴 Заблокирован"
	}
	fullName := user.FullName
	if fullName == "" {
		fullName = "Не указано"
	}
	username := "Не указан"
	if user.Username != "" {
		username = "@" + user.Username
	}

	invitedBy := "Не указано"
	if user.InvitedBy != nil {
		if inviter, err := store.GetUser(*user.InvitedBy); err == nil && inviter != nil {
			invitedBy = inviter.DisplayName()
		}
	}

	creativesCount, _ := store.UserCreativesCount(userID)

	text := fmt.Sprintf(
		"👤 <b>Карточка сотрудника</b>\n\n"+
			"<b>ФИО:</b> %s\n"+
			"<b>Username:</b> %s\n"+
			"<b>Telegram ID:</b> <code>%d</code>\n\n"+
			"<b>Роль:</b> %s\n"+
			"<b>Статус:</b> %s\n"+
			"<b>Креативов создано:</b> %d\n\n"+
			"<b>Пригласил:</b> %s\n"+
			"<b>Дата добавления:</b> %s\n\n"+
			"Выберите действие:",
		fullName, username, user.ID, roleText, statusText,
		creativesCount, invitedBy, user.CreatedAt.Format("02.01.2006 15:04"))

	return tryEdit(c, text, buildEmployeeCardMenu(userID, user.IsBlocked), tele.ModeHTML)
}

func adminDisplayName(c tele.Context) string {
	s := c.Sender()
	name := strings.TrimSpace(s.FirstName + " " + s.LastName)
	if name == "" {
		name = s.Username
	}
	if name == "" {
		name = "Администратор"
	}
	return name
}

func blockEmployee(b *tele.Bot, c tele.Context, userID int64) error {
	user, err := store.BlockUser(userID)
	if err != nil || user == nil {
		log.Printf("❌ Ошибка блокировки %d: %v", userID, err)
		return c.Respond(&tele.CallbackResponse{Text: "❌ Ошибка блокировки", ShowAlert: true})
	}
	log.Printf("🚫 Сотрудник %d заблокирован админом %d", userID, c.Sender().ID)

	// Уведомление заблокированному, не критично.
	_, err = b.Send(&tele.User{ID: userID}, fmt.Sprintf(
		"🚫 <b>Ваш доступ к боту был заблокирован</b>\n\n"+
			"Администратор <b>%s</b> заблокировал ваш доступ к боту.\n\n"+
			"Для получения дополнительной информации обратитесь к администратору.",
		adminDisplayName(c)), tele.ModeHTML)
	if err != nil {
		log.Printf("⚠️ Не удалось уведомить о блокировке %d: %v", userID, err)
	}

	if err := c.Respond(&tele.CallbackResponse{Text: "✅ Сотрудник заблокирован", ShowAlert: true}); err != nil {
		log.Printf("⚠️ Ошибка ответа на callback: %v", err)
	}
	return showEmployeeCard(c, userID)
}

func unblockEmployee(b *tele.Bot, c tele.Context, userID int64) error {
	user, err := store.UnblockUser(userID)
	if err != nil || user == nil {
		log.Printf("❌ Ошибка разблокировки %d: %v", userID, err)
		return c.Respond(&tele.CallbackResponse{Text: "❌ Ошибка разблокировки", ShowAlert: true})
	}
	log.Printf("✅ Сотрудник %d разблокирован админом %d", userID, c.Sender().ID)

	_, err = b.Send(&tele.User{ID: userID}, fmt.Sprintf(
		"✅ <b>Ваш доступ к боту восстановлен</b>\n\n"+
			"Администратор <b>%s</b> разблокировал ваш доступ к боту.\n\n"+
			"Теперь вы снова можете использовать все функции бота.",
		adminDisplayName(c)), tele.ModeHTML)
	if err != nil {
		log.Printf("⚠️ Не удалось уведомить о разблокировке %d: %v", userID, err)
	}

	if err := c.Respond(&tele.CallbackResponse{Text: "✅ Сотрудник разблокирован", ShowAlert: true}); err != nil {
		log.Printf("⚠️ Ошибка ответа на callback: %v", err)
	}
	return showEmployeeCard(c, userID)
}

// newInviteCode — одноразовый код без дефисов, пригодный для deep-link.
func newInviteCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func inviteURL(code string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", config.BotUsername, code)
}

func issueInvite(c tele.Context, fullName, role string) error {
	code := newInviteCode()
	expires := time.Now().UTC().Add(inviteTTL)
	link, err := store.CreateInviteLink(code, c.Sender().ID, role, fullName, &expires)
	if err != nil {
		log.Printf("❌ Ошибка создания приглашения: %v", err)
		return c.Send("❌ Не удалось создать пригласительную ссылку. Попробуйте позже.")
	}

	who := "сотрудника"
	header := "✅ <b>Пригласительная ссылка создана!</b>"
	if role == RoleAdmin {
		who = "нового администратора"
		header = "✅ <b>Пригласительная ссылка для администратора создана!</b>"
	}
	log.Printf("🔗 Приглашение %s (роль %s) создано админом %d", link.Code, role, c.Sender().ID)

	return c.Send(fmt.Sprintf(
		"%s\n\n<b>ФИО:</b> %s\n<b>Ссылка:</b> <code>%s</code>\n\n"+
			"⚠️ Эта ссылка одноразовая и действует %d дней.\n\n"+
			"Отправьте эту ссылку %s для регистрации в боте.",
		header, fullName, inviteURL(code), int(inviteTTL.Hours()/24), who),
		buildEmployeesMenu(), tele.ModeHTML)
}

// inviteTTL — срок жизни пригласительной ссылки.
const inviteTTL = 7 * 24 * time.Hour

func reinviteEmployee(b *tele.Bot, c tele.Context, userID int64) error {
	user, err := store.GetUser(userID)
	if err != nil || user == nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Сотрудник не найден", ShowAlert: true})
	}

	code := newInviteCode()
	expires := time.Now().UTC().Add(inviteTTL)
	if _, err := store.CreateInviteLink(code, c.Sender().ID, user.Role, user.FullName, &expires); err != nil {
		log.Printf("❌ Ошибка перевыпуска приглашения для %d: %v", userID, err)
		return c.Respond(&tele.CallbackResponse{Text: "❌ Ошибка создания ссылки", ShowAlert: true})
	}

	fullName := user.FullName
	if fullName == "" {
		fullName = "Не указано"
	}
	if err := c.Send(fmt.Sprintf(
		"🔗 <b>Новая пригласительная ссылка создана!</b>\n\n"+
			"<b>ФИО:</b> %s\n<b>Ссылка:</b> <code>%s</code>\n\n"+
			"⚠️ Эта ссылка одноразовая и может быть использована только один раз.",
		fullName, inviteURL(code)), tele.ModeHTML); err != nil {
		return err
	}
	return c.Respond(&tele.CallbackResponse{Text: "✅ Ссылка перевыпущена"})
}

func confirmDeleteEmployee(c tele.Context, userID int64) error {
	user, err := store.GetUser(userID)
	if err != nil || user == nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Сотрудник не найден", ShowAlert: true})
	}

	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.Data("🗑 Да, удалить", fmt.Sprintf("employee_delete_%d", userID))),
		menu.Row(menu.Data("🔙 Отмена", fmt.Sprintf("employee_view_%d", userID))),
	)

	return tryEdit(c, fmt.Sprintf(
		"⚠️ <b>Подтверждение удаления</b>\n\n"+
			"Вы действительно хотите удалить сотрудника:\n<b>%s</b>?\n\n"+
			"Это действие нельзя отменить!",
		user.DisplayName()), menu, tele.ModeHTML)
}

func deleteEmployee(b *tele.Bot, c tele.Context, userID int64) error {
	// Уведомляем до удаления: после записи уже не будет.
	_, err := b.Send(&tele.User{ID: userID}, fmt.Sprintf(
		"🗑 <b>Ваш доступ к боту был удален</b>\n\n"+
			"Администратор <b>%s</b> удалил вас из системы.\n\n"+
			"Для получения доступа к боту обратитесь к администратору за новой пригласительной ссылкой.",
		adminDisplayName(c)), tele.ModeHTML)
	if err != nil {
		log.Printf("⚠️ Не удалось уведомить об удалении %d: %v", userID, err)
	}

	ok, err := store.DeleteUser(userID)
	if err != nil || !ok {
		log.Printf("❌ Ошибка удаления сотрудника %d: %v", userID, err)
		return c.Respond(&tele.CallbackResponse{Text: "❌ Ошибка удаления", ShowAlert: true})
	}
	log.Printf("🗑 Сотрудник %d удален админом %d", userID, c.Sender().ID)

	return tryEdit(c, "✅ <b>Сотрудник успешно удален</b>", buildEmployeesMenu(), tele.ModeHTML)
}

// ==========================================
// ПРИГЛАШЕНИЯ И БАЗА ДАННЫХ
// ==========================================

func inviteStatusLabel(l InviteLink) string {
	switch {
	case l.IsUsed:
		return "✅ использована"
	case l.ExpiresAt != nil && l.ExpiresAt.Before(time.Now().UTC()):
		return "⌛️ истекла"
	default:
		return "⏳ активна"
	}
}

// showInviteList показывает ссылки, выпущенные текущим админом.
// Неиспользованные можно отозвать.
func showInviteList(c tele.Context) error {
	links, err := store.UserInviteLinks(c.Sender().ID)
	if err != nil {
		log.Printf("❌ Ошибка списка приглашений: %v", err)
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка. Попробуйте позже."})
	}

	menu := &tele.ReplyMarkup{}
	var rows []tele.Row
	var sb strings.Builder
	sb.WriteString("🔗 <b>Мои приглашения</b>\n\n")
	if len(links) == 0 {
		sb.WriteString("Вы еще не выпускали пригласительных ссылок.")
	}
	if len(links) > 10 {
		links = links[:10]
	}
	for _, l := range links {
		role := "сотрудник"
		if l.TargetRole == RoleAdmin {
			role = "администратор"
		}
		sb.WriteString(fmt.Sprintf("• <code>%s…</code> — %s, %s, %s\n",
			l.Code[:8], l.FullName, role, inviteStatusLabel(l)))
		if !l.IsUsed {
			rows = append(rows, menu.Row(menu.Data(
				fmt.Sprintf("🗑 Отозвать %s…", l.Code[:8]),
				"invite_del_"+l.Code)))
		}
	}
	rows = append(rows, menu.Row(menu.Data("🔙 Назад", "admin_back")))
	menu.Inline(rows...)

	return tryEdit(c, sb.String(), menu, tele.ModeHTML)
}

func revokeInvite(c tele.Context, code string) error {
	ok, err := store.DeleteInviteLink(code)
	if err != nil {
		log.Printf("❌ Ошибка отзыва приглашения %s: %v", code, err)
		return c.Respond(&tele.CallbackResponse{Text: "❌ Ошибка отзыва", ShowAlert: true})
	}
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Ссылка не найдена", ShowAlert: true})
	}
	log.Printf("🗑 Приглашение %s отозвано админом %d", code, c.Sender().ID)
	if err := c.Respond(&tele.CallbackResponse{Text: "✅ Ссылка отозвана"}); err != nil {
		log.Printf("⚠️ Ошибка ответа на callback: %v", err)
	}
	return showInviteList(c)
}

func buildDatabaseMenu() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.Data("🧹 Сжать базу (VACUUM)", "admin_vacuum")),
		menu.Row(menu.Data("🔙 Назад", "admin_back")),
	)
	return menu
}

func showDatabaseMenu(c tele.Context) error {
	var size string
	if fi, err := os.Stat(store.FilePath); err == nil {
		size = formatBytes(uint64(fi.Size()))
	} else {
		size = "неизвестно"
	}

	var sb strings.Builder
	sb.WriteString("🗄 <b>База данных</b>\n\n")
	sb.WriteString(fmt.Sprintf("📦 Размер файла: <b>%s</b>\n\n", size))

	history, err := store.MigrationHistoryList()
	if err != nil {
		log.Printf("❌ Ошибка истории миграций: %v", err)
	} else {
		sb.WriteString("📜 <b>Миграции:</b>\n")
		for _, m := range history {
			sb.WriteString(fmt.Sprintf("• %s %s — %s\n",
				m.Version, m.Name, m.AppliedAt.Format("02.01.2006")))
		}
	}

	return tryEdit(c, sb.String(), buildDatabaseMenu(), tele.ModeHTML)
}

func runVacuum(c tele.Context) error {
	if err := store.Vacuum(); err != nil {
		log.Printf("❌ Ошибка VACUUM: %v", err)
		return c.Respond(&tele.CallbackResponse{Text: "❌ Ошибка сжатия базы", ShowAlert: true})
	}
	log.Printf("🧹 VACUUM выполнен админом %d", c.Sender().ID)
	if err := c.Respond(&tele.CallbackResponse{Text: "✅ База данных сжата"}); err != nil {
		log.Printf("⚠️ Ошибка ответа на callback: %v", err)
	}
	return showDatabaseMenu(c)
}

// ==========================================
// ТЕКСТОВЫЙ ВВОД АДМИНСКИХ ДИАЛОГОВ
// ==========================================

var broadcastButtonPattern = regexp.MustCompile(`^(.+?)\s*\|\s*(https?://\S+)$`)

// handleAdminText обрабатывает текст в рамках активного админского
// диалога. Возвращает false, если диалога нет.
func handleAdminText(b *tele.Bot, c tele.Context) (bool, error) {
	userID := c.Sender().ID
	st := getAdminState(userID)
	if st == nil {
		return false, nil
	}
	if !isAdmin(c) {
		clearAdminState(userID)
		return true, nil
	}

	text := strings.TrimSpace(c.Text())

	switch st.Mode {
	case adminModeBroadcastMessage:
		if text == "" {
			return true, c.Send("❌ Отправьте непустой текст сообщения.")
		}
		st.BroadcastText = text
		count, _ := store.ActiveUsersCount()
		menu := &tele.ReplyMarkup{}
		menu.Inline(
			menu.Row(menu.Data("🔗 Добавить кнопку", "broadcast_addbtn")),
			menu.Row(menu.Data("➡️ Без кнопки", "broadcast_nobtn")),
			menu.Row(menu.Data("❌ Отменить", "broadcast_cancel")),
		)
		return true, c.Send(fmt.Sprintf(
			"✅ <b>Сообщение получено!</b>\n\n👥 Количество получателей: <b>%d</b>\n\nХотите добавить кнопку к сообщению?",
			count), menu, tele.ModeHTML)

	case adminModeBroadcastButton:
		m := broadcastButtonPattern.FindStringSubmatch(text)
		if m == nil {
			return true, c.Send(
				"❌ <b>Неверный формат кнопки!</b>\n\n"+
					"Используйте формат:\n<code>Текст кнопки | https://example.com</code>\n\n"+
					"Попробуйте еще раз или введите /cancel для отмены",
				tele.ModeHTML)
		}
		st.ButtonText = strings.TrimSpace(m[1])
		st.ButtonURL = strings.TrimSpace(m[2])

		preview := &tele.ReplyMarkup{}
		preview.Inline(preview.Row(preview.URL(st.ButtonText, st.ButtonURL)))
		if err := c.Send(fmt.Sprintf(
			"✅ <b>Кнопка создана!</b>\n\n📝 Текст: <b>%s</b>\n🔗 Ссылка: <code>%s</code>\n\nПревью кнопки:",
			st.ButtonText, st.ButtonURL), preview, tele.ModeHTML); err != nil {
			return true, err
		}
		return true, promptBroadcastConfirm(c, false)

	case adminModeAddEmployee:
		clearAdminState(userID)
		return true, issueInvite(c, text, RoleEmployee)

	case adminModeAddAdmin:
		clearAdminState(userID)
		return true, issueInvite(c, text, RoleAdmin)

	case adminModeEditName:
		editID := st.EditUserID
		clearAdminState(userID)
		user, err := store.UpdateUserFullName(editID, text)
		if err != nil || user == nil {
			log.Printf("❌ Ошибка обновления ФИО %d: %v", editID, err)
			return true, c.Send("❌ Ошибка обновления ФИО")
		}
		return true, c.Send(fmt.Sprintf("✅ ФИО успешно обновлено на: <b>%s</b>", text),
			buildEmployeeCardMenu(editID, user.IsBlocked), tele.ModeHTML)
	}

	return false, nil
}

// promptBroadcastConfirm показывает финальное подтверждение рассылки.
// edit=true редактирует сообщение с кнопками, false — шлет новое.
func promptBroadcastConfirm(c tele.Context, edit bool) error {
	st := getAdminState(c.Sender().ID)
	if st == nil {
		return nil
	}
	count, _ := store.ActiveUsersCount()
	withButton := "Нет"
	if st.ButtonText != "" {
		withButton = "Да"
	}
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.Data(fmt.Sprintf("📤 Отправить (%d)", count), "broadcast_yes")),
		menu.Row(menu.Data("❌ Отменить", "broadcast_no")),
	)
	text := fmt.Sprintf(
		"📤 <b>Подтверждение рассылки</b>\n\n👥 Получателей: <b>%d</b>\n🔗 С кнопкой: <b>%s</b>\n\nОтправить рассылку?",
		count, withButton)
	if edit {
		return tryEdit(c, text, menu, tele.ModeHTML)
	}
	return c.Send(text, menu, tele.ModeHTML)
}
