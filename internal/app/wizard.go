package app

import (
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	tele "gopkg.in/telebot.v3"
)

// ==========================================
// МАСТЕР СОЗДАНИЯ КРЕАТИВА
// ==========================================

const (
	stateSelectForm  = "select_form"
	stateUploadMedia = "upload_media"
	stateEnterText   = "enter_text"
	stateEnterURLs   = "enter_advertiser_urls"
	stateSelectKktu  = "select_kktu"
	stateConfirm     = "confirm_creation"
)

// creativeDraft — накопленные данные одного прохода мастера.
// Один черновик на пользователя; порядок шагов внутри чата
// гарантирует Telegram, поэтому достаточно мьютекса на карту.
type creativeDraft struct {
	State          string
	Form           string
	FormName       string
	MediaFileID    string
	MediaFileName  string
	MediaBase64    string
	TextData       string
	AdvertiserURLs []string
	KktuCode       string
	KktuName       string
}

var (
	drafts   = make(map[int64]*creativeDraft)
	draftsMu sync.Mutex
)

func getDraft(userID int64) *creativeDraft {
	draftsMu.Lock()
	defer draftsMu.Unlock()
	return drafts[userID]
}

func setDraft(userID int64, d *creativeDraft) {
	draftsMu.Lock()
	defer draftsMu.Unlock()
	drafts[userID] = d
}

func clearDraft(userID int64) {
	draftsMu.Lock()
	defer draftsMu.Unlock()
	delete(drafts, userID)
}

// nextStepAfterForm — первый применимый шаг после выбора формы.
func nextStepAfterForm(form string) string {
	switch {
	case formRequiresMedia(form):
		return stateUploadMedia
	case formRequiresText(form):
		return stateEnterText
	default:
		return stateEnterURLs
	}
}

// nextStepAfterMedia — шаг после загрузки медиа.
func nextStepAfterMedia(form string) string {
	if formRequiresText(form) {
		return stateEnterText
	}
	return stateEnterURLs
}

// goBack переводит черновик на предыдущий применимый шаг, стирая
// данные покидаемого шага. Возвращает false, если отступать некуда
// (select_form — первый шаг).
func goBack(d *creativeDraft) bool {
	switch d.State {
	case stateUploadMedia:
		d.MediaFileID, d.MediaFileName, d.MediaBase64 = "", "", ""
		d.Form, d.FormName = "", ""
		d.State = stateSelectForm
	case stateEnterText:
		d.TextData = ""
		if formRequiresMedia(d.Form) {
			d.State = stateUploadMedia
		} else {
			d.Form, d.FormName = "", ""
			d.State = stateSelectForm
		}
	case stateEnterURLs:
		d.AdvertiserURLs = nil
		switch {
		case formRequiresText(d.Form):
			d.State = stateEnterText
		case formRequiresMedia(d.Form):
			d.State = stateUploadMedia
		default:
			d.Form, d.FormName = "", ""
			d.State = stateSelectForm
		}
	case stateSelectKktu:
		d.KktuCode, d.KktuName = "", ""
		d.State = stateEnterURLs
	case stateConfirm:
		d.KktuCode, d.KktuName = "", ""
		d.State = stateSelectKktu
	default:
		return false
	}
	return true
}

// ==========================================
// ОБРАБОТЧИКИ ШАГОВ
// ==========================================

func startWizard(c tele.Context) error {
	userID := c.Sender().ID
	setDraft(userID, &creativeDraft{State: stateSelectForm})
	return tryEdit(c,
		"🎨 <b>Создание креатива для саморекламы</b>\n\nВыберите форму креатива:",
		buildFormKeyboard(), tele.ModeHTML)
}

func handleFormSelected(c tele.Context, formCode string) error {
	userID := c.Sender().ID
	d := getDraft(userID)
	if d == nil || d.State != stateSelectForm {
		return c.Respond()
	}
	formName, ok := creativeForms[formCode]
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Неизвестная форма."})
	}
	d.Form = formCode
	d.FormName = formName
	d.State = nextStepAfterForm(formCode)
	return promptForState(c, d, true)
}

// promptForState показывает приглашение текущего шага. edit=true
// редактирует сообщение с кнопками, false — шлет новое (после
// текстового ввода или загрузки файла редактировать нечего).
func promptForState(c tele.Context, d *creativeDraft, edit bool) error {
	var text string
	var menu *tele.ReplyMarkup
	switch d.State {
	case stateSelectForm:
		text = "🎨 <b>Создание креатива для саморекламы</b>\n\nВыберите форму креатива:"
		menu = buildFormKeyboard()
	case stateUploadMedia:
		text = fmt.Sprintf("📎 <b>Форма: %s</b>\n\nЗагрузите медиа-файл (фото, видео, аудио или документ):", d.FormName)
		menu = buildNavKeyboard(false)
	case stateEnterText:
		text = fmt.Sprintf("📝 <b>Форма: %s</b>\n\nВведите текст креатива (от 1 до 1000 символов):", d.FormName)
		menu = buildNavKeyboard(false)
	case stateEnterURLs:
		text = "🔗 <b>Целевые ссылки</b>\n\n" +
			"Отправьте ссылки на рекламируемый ресурс (через запятую или с новой строки) " +
			"либо пропустите этот шаг:"
		menu = buildNavKeyboard(true)
	case stateSelectKktu:
		text = "Выберите код ККТУ (категорию товара/услуги):"
		menu = buildKktuKeyboard(0)
	case stateConfirm:
		text = buildConfirmationText(d)
		menu = buildConfirmKeyboard()
	default:
		return nil
	}
	if edit {
		return tryEdit(c, text, menu, tele.ModeHTML)
	}
	return c.Send(text, menu, tele.ModeHTML)
}

// handleWizardMedia принимает вложение на шаге upload_media.
func handleWizardMedia(c tele.Context, b *tele.Bot) error {
	userID := c.Sender().ID
	d := getDraft(userID)
	if d == nil || d.State != stateUploadMedia {
		return nil
	}

	m := c.Message()
	var file tele.File
	var fileName string
	switch {
	case m.Photo != nil:
		file = m.Photo.File
		fileName = fmt.Sprintf("photo_%s.jpg", m.Photo.FileID)
	case m.Video != nil:
		file = m.Video.File
		fileName = m.Video.FileName
		if fileName == "" {
			fileName = fmt.Sprintf("video_%s.mp4", m.Video.FileID)
		}
	case m.Audio != nil:
		file = m.Audio.File
		fileName = m.Audio.FileName
		if fileName == "" {
			fileName = fmt.Sprintf("audio_%s.mp3", m.Audio.FileID)
		}
	case m.Document != nil:
		file = m.Document.File
		fileName = m.Document.FileName
		if fileName == "" {
			fileName = fmt.Sprintf("document_%s", m.Document.FileID)
		}
	default:
		return c.Send("❌ Пожалуйста, отправьте медиа-файл (фото, видео, аудио или документ).")
	}

	rc, err := b.File(&file)
	if err != nil {
		log.Printf("⚠️ Ошибка скачивания файла %s: %v", file.FileID, err)
		return c.Send("❌ Ошибка при загрузке файла. Попробуйте снова или выберите другой файл.")
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		log.Printf("⚠️ Ошибка чтения файла %s: %v", file.FileID, err)
		return c.Send("❌ Ошибка при загрузке файла. Попробуйте снова или выберите другой файл.")
	}

	d.MediaFileID = file.FileID
	d.MediaFileName = fileName
	d.MediaBase64 = base64.StdEncoding.EncodeToString(raw)
	d.State = nextStepAfterMedia(d.Form)

	if err := c.Send(fmt.Sprintf("✅ Медиа-файл загружен: %s", fileName)); err != nil {
		return err
	}
	return promptForState(c, d, false)
}

// creativeTextLength считает длину текста креатива в рунах и
// проверяет лимит 1..1000.
func creativeTextLength(text string) (int, bool) {
	n := len([]rune(text))
	return n, n >= 1 && n <= 1000
}

// handleWizardText принимает текстовый ввод шагов enter_text и
// enter_advertiser_urls. Возвращает false, если мастер не активен
// и ввод нужно отдать следующему обработчику.
func handleWizardText(c tele.Context) (bool, error) {
	userID := c.Sender().ID
	d := getDraft(userID)
	if d == nil {
		return false, nil
	}

	text := strings.TrimSpace(c.Text())

	switch d.State {
	case stateEnterText:
		n, ok := creativeTextLength(text)
		if !ok {
			return true, c.Send("❌ Текст должен быть от 1 до 1000 символов. Попробуйте снова.")
		}
		d.TextData = text
		d.State = stateEnterURLs
		if err := c.Send(fmt.Sprintf("✅ Текст сохранен (%d символов)", n)); err != nil {
			return true, err
		}
		return true, promptForState(c, d, false)

	case stateEnterURLs:
		urls, invalid := parseAdvertiserURLs(text)
		if len(invalid) > 0 {
			report := "❌ Невалидные ссылки:\n"
			shown := invalid
			if len(shown) > 5 {
				shown = shown[:5]
			}
			for _, u := range shown {
				report += "• " + u + "\n"
			}
			if len(invalid) > 5 {
				report += fmt.Sprintf("…и еще %d\n", len(invalid)-5)
			}
			report += "\nОжидается http(s)://домен[:порт][/путь]. Исправьте и отправьте список заново."
			return true, c.Send(report)
		}
		if len(urls) == 0 {
			return true, c.Send("❌ Не нашел ни одной ссылки. Отправьте ссылки или нажмите «Пропустить».")
		}
		d.AdvertiserURLs = urls
		d.State = stateSelectKktu
		if err := c.Send(fmt.Sprintf("✅ Ссылки сохранены (%d шт.)", len(urls))); err != nil {
			return true, err
		}
		return true, promptForState(c, d, false)

	case stateUploadMedia:
		return true, c.Send("❌ Пожалуйста, отправьте медиа-файл (фото, видео, аудио или документ).")
	}

	return false, nil
}

func handleSkip(c tele.Context) error {
	d := getDraft(c.Sender().ID)
	if d == nil || d.State != stateEnterURLs {
		return c.Respond()
	}
	d.AdvertiserURLs = nil
	d.State = stateSelectKktu
	return promptForState(c, d, true)
}

func handleBack(c tele.Context) error {
	d := getDraft(c.Sender().ID)
	if d == nil {
		return c.Respond()
	}
	if !goBack(d) {
		return c.Respond(&tele.CallbackResponse{Text: "Это первый шаг."})
	}
	return promptForState(c, d, true)
}

func handleCancel(c tele.Context) error {
	clearDraft(c.Sender().ID)
	return tryEdit(c,
		"❌ Создание креатива отменено.\n\nВыберите действие:",
		buildMainMenu(), tele.ModeHTML)
}

func handleKktuPage(c tele.Context, page int) error {
	d := getDraft(c.Sender().ID)
	if d == nil || d.State != stateSelectKktu {
		return c.Respond()
	}
	return tryEdit(c,
		"Выберите код ККТУ (категорию товара/услуги):",
		buildKktuKeyboard(page), tele.ModeHTML)
}

func handleKktuSelected(c tele.Context, code string) error {
	d := getDraft(c.Sender().ID)
	if d == nil || d.State != stateSelectKktu {
		return c.Respond()
	}
	name, ok := kktuCodes[code]
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Неизвестный код ККТУ."})
	}
	d.KktuCode = code
	d.KktuName = name
	d.State = stateConfirm
	return promptForState(c, d, true)
}

func buildConfirmationText(d *creativeDraft) string {
	var b strings.Builder
	b.WriteString("📋 <b>Подтверждение данных креатива</b>\n\n")
	fmt.Fprintf(&b, "🎨 <b>Форма:</b> %s\n", d.FormName)
	fmt.Fprintf(&b, "📦 <b>ККТУ:</b> %s - %s\n", d.KktuCode, d.KktuName)
	if d.TextData != "" {
		preview := d.TextData
		if len([]rune(preview)) > 100 {
			preview = string([]rune(preview)[:100]) + "..."
		}
		fmt.Fprintf(&b, "📝 <b>Текст:</b> %s\n", preview)
	}
	if d.MediaFileName != "" {
		fmt.Fprintf(&b, "📎 <b>Медиа:</b> %s\n", d.MediaFileName)
	}
	if len(d.AdvertiserURLs) > 0 {
		fmt.Fprintf(&b, "🔗 <b>Ссылки:</b> %s\n", strings.Join(d.AdvertiserURLs, ", "))
	}
	b.WriteString("\n⚠️ <b>Параметры по умолчанию:</b>\n")
	b.WriteString("• Тип: Самореклама (isSelfPromotion = true)\n")
	b.WriteString("• Тип кампании: Other\n\n")
	b.WriteString("Создать креатив?")
	return b.String()
}

// handleConfirmCreation — финальный шаг: один вызов Mediascout,
// запись в БД. Ошибка записи после успешной регистрации не отменяет
// выдачу токена: erid уже существует в ОРД, пользователь должен его
// получить.
func handleConfirmCreation(c tele.Context) error {
	userID := c.Sender().ID
	d := getDraft(userID)
	if d == nil || d.State != stateConfirm {
		return c.Respond()
	}

	if err := tryEdit(c, "⏳ Создание креатива...\nПожалуйста, подождите.", tele.ModeHTML); err != nil {
		return err
	}

	result := mediascout.CreateCreative(CreativeRequest{
		Form:           d.Form,
		KktuCode:       d.KktuCode,
		TextData:       d.TextData,
		AdvertiserURLs: d.AdvertiserURLs,
		MediaBase64:    d.MediaBase64,
		MediaFileName:  d.MediaFileName,
	})

	if !result.OK {
		saveCreativeRecord(userID, d, result)
		clearDraft(userID)
		errText := "❌ <b>Ошибка при создании креатива</b>\n\n" +
			fmt.Sprintf("📝 <b>Детали:</b> %s\n\n", result.Err) +
			"Попробуйте снова или обратитесь в поддержку."
		return tryEdit(c, errText, buildMainMenu(), tele.ModeHTML)
	}

	saveCreativeRecord(userID, d, result)

	successText := "✅ <b>Креатив успешно создан!</b>\n\n" +
		fmt.Sprintf("🎫 <b>Токен Erid:</b>\n<code>%s</code>\n\n", result.Erid) +
		fmt.Sprintf("📋 <b>Форма:</b> %s\n", d.FormName) +
		fmt.Sprintf("📦 <b>ККТУ:</b> %s - %s\n\n", d.KktuCode, d.KktuName) +
		"💡 <i>Нажмите на токен, чтобы скопировать</i>"

	clearDraft(userID)
	return tryEdit(c, successText, buildMainMenu(), tele.ModeHTML)
}

// newCreativeRecord собирает строку БД по итогу обращения в ОРД:
// успех — created с erid, отказ — error с текстом ошибки.
func newCreativeRecord(userID int64, d *creativeDraft, result CreateResult) *Creative {
	creative := &Creative{
		UserID:        userID,
		Form:          d.Form,
		KktuCode:      d.KktuCode,
		MediaFileID:   d.MediaFileID,
		MediaFileName: d.MediaFileName,
		TextData:      d.TextData,
	}
	if result.OK {
		creative.Erid = result.Erid
		creative.MediascoutID = result.ID
		creative.CreativeGroupID = result.CreativeGroupID
		creative.CreativeGroupName = result.CreativeGroupName
		creative.Status = CreativeStatusCreated
	} else {
		creative.Status = CreativeStatusError
		creative.ErrorMessage = result.Err
	}
	return creative
}

// saveCreativeRecord пишет итог в БД. Ошибка только логируется:
// выданный erid откатить уже нельзя, а запись об отказе — best effort.
func saveCreativeRecord(userID int64, d *creativeDraft, result CreateResult) {
	creative := newCreativeRecord(userID, d, result)
	if err := store.SaveCreative(creative); err != nil {
		log.Printf("❌ Ошибка сохранения креатива в БД (user %d): %v", userID, err)
		return
	}
	if result.OK {
		log.Printf("✅ Креатив сохранен в БД: %s (user %d)", result.Erid, userID)
	} else {
		log.Printf("📝 Отказ ОРД записан в БД (user %d): %s", userID, truncate(result.Err, 100))
	}
}

func handleConfirmReject(c tele.Context) error {
	clearDraft(c.Sender().ID)
	return tryEdit(c,
		"❌ Создание креатива отменено.\n\nВыберите действие:",
		buildMainMenu(), tele.ModeHTML)
}
