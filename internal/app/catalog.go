package app

import (
	"fmt"

	tele "gopkg.in/telebot.v3"
)

// ==========================================
// СПРАВОЧНИКИ: ФОРМЫ КРЕАТИВОВ И ККТУ
// ==========================================

// creativeForms — формы креативов Mediascout и их подписи для кнопок.
// Порядок кнопок фиксирован отдельным срезом: map в Go не упорядочен.
var creativeForms = map[string]string{
	"Banner":                     "Баннер",
	"Text":                       "Текстовый блок",
	"TextGraphic":                "Текст. граф. блок",
	"Video":                      "Видеоролик",
	"Audio":                      "Аудиозапись",
	"AudioBroadcast":             "Аудиотрансляция",
	"VideoBroadcast":             "Видеотрансляции",
	"TextVideoBlock":             "Текст. блок с видео",
	"TextAudioBlock":             "Текст. блок с аудио",
	"TextAudioVideoBlock":        "Текст. блок с аудио и видео",
	"TextGraphicVideoBlock":      "Текст. граф. блок с видео",
	"TextGraphicAudioBlock":      "Текст. граф. блок с аудио",
	"TextGraphicAudioVideoBlock": "Текст. граф. блок с аудио и видео",
	"BannerHtml5":                "HTML5-баннер",
}

var creativeFormOrder = []string{
	"Banner", "Text", "TextGraphic", "Video", "Audio", "AudioBroadcast",
	"VideoBroadcast", "TextVideoBlock", "TextAudioBlock",
	"TextAudioVideoBlock", "TextGraphicVideoBlock",
	"TextGraphicAudioBlock", "TextGraphicAudioVideoBlock", "BannerHtml5",
}

// Формы, требующие медиа-файл (все, кроме чисто текстового блока).
var formsWithMedia = map[string]bool{
	"Banner": true, "TextGraphic": true, "Video": true, "Audio": true,
	"AudioBroadcast": true, "VideoBroadcast": true, "TextVideoBlock": true,
	"TextAudioBlock": true, "TextAudioVideoBlock": true,
	"TextGraphicVideoBlock": true, "TextGraphicAudioBlock": true,
	"TextGraphicAudioVideoBlock": true, "BannerHtml5": true,
}

// Формы, требующие текстовые данные.
var formsWithText = map[string]bool{
	"Text": true, "TextGraphic": true, "TextVideoBlock": true,
	"TextAudioBlock": true, "TextAudioVideoBlock": true,
	"TextGraphicVideoBlock": true, "TextGraphicAudioBlock": true,
	"TextGraphicAudioVideoBlock": true,
}

func formRequiresMedia(form string) bool { return formsWithMedia[form] }
func formRequiresText(form string) bool  { return formsWithText[form] }

// kktuCodes — коды товаров, работ, услуг (ККТУ) с расшифровками.
var kktuCodes = map[string]string{
	"4.1.1":   "Средства для мытья посуды",
	"4.1.2":   "Средства для стирки",
	"4.1.3":   "Чистящие средства",
	"4.1.4":   "Моющие и чистящие средства (прочее)",
	"4.2.1":   "Средства борьбы с насекомыми",
	"4.3.1":   "Средства по уходу за одеждой и обувью",
	"4.3.2":   "Бытовая химия (ядохимикаты)",
	"4.3.3":   "Бытовая химия (прочее)",
	"15.1.1":  "Детский шампунь",
	"15.1.2":  "Средства по уходу за волосами",
	"15.1.3":  "Шампунь",
	"15.1.4":  "Средства по уходу за волосами (прочее)",
	"15.2.1":  "Гель для душа",
	"15.2.2":  "Мыло",
	"15.2.3":  "Средства для бритья и эпиляции (разное)",
	"15.2.4":  "Средства для и после бритья",
	"15.2.5":  "Средства для удаления волос",
	"15.2.6":  "Средства по уходу за кожей",
	"15.3.1":  "Дезодоранты",
	"15.3.2":  "Декоративная косметика",
	"15.3.3":  "Парфюмерия",
	"15.3.4":  "Средства по уходу за ногтями",
	"15.3.5":  "Товары для красоты и здоровья (разное)",
	"22.2.3":  "Подгузники",
	"22.2.4":  "Средства гигиены для детей",
	"22.2.5":  "Средства и предметы гигиены (прочее)",
	"22.3.1":  "Зубная паста",
	"22.3.2":  "Зубные щетки",
	"22.3.3":  "Средства для гигиены рта",
	"22.3.4":  "Средства гигиены (прочее)",
	"26.3.1":  "Средства детской гигиены",
	"30.15.1": "Информационные услуги",
}

var kktuOrder = []string{
	"4.1.1", "4.1.2", "4.1.3", "4.1.4", "4.2.1", "4.3.1", "4.3.2", "4.3.3",
	"15.1.1", "15.1.2", "15.1.3", "15.1.4", "15.2.1", "15.2.2", "15.2.3",
	"15.2.4", "15.2.5", "15.2.6", "15.3.1", "15.3.2", "15.3.3", "15.3.4",
	"15.3.5", "22.2.3", "22.2.4", "22.2.5", "22.3.1", "22.3.2", "22.3.3",
	"22.3.4", "26.3.1", "30.15.1",
}

const kktuPerPage = 10

// kktuPage возвращает коды страницы page и общее число страниц.
func kktuPage(page int) ([]string, int) {
	totalPages := (len(kktuOrder) + kktuPerPage - 1) / kktuPerPage
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}
	start := page * kktuPerPage
	end := start + kktuPerPage
	if end > len(kktuOrder) {
		end = len(kktuOrder)
	}
	return kktuOrder[start:end], totalPages
}

// ==========================================
// КЛАВИАТУРЫ МАСТЕРА
// ==========================================

// buildFormKeyboard — выбор формы креатива, две кнопки в ряд,
// снизу только "Отменить" (это первый шаг, "Назад" некуда).
func buildFormKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	var rows []tele.Row
	for i := 0; i < len(creativeFormOrder); i += 2 {
		code := creativeFormOrder[i]
		btn := menu.Data(creativeForms[code], "form_"+code)
		if i+1 < len(creativeFormOrder) {
			next := creativeFormOrder[i+1]
			rows = append(rows, menu.Row(btn, menu.Data(creativeForms[next], "form_"+next)))
		} else {
			rows = append(rows, menu.Row(btn))
		}
	}
	rows = append(rows, menu.Row(menu.Data("❌ Отменить", "nav_cancel")))
	menu.Inline(rows...)
	return menu
}

// buildKktuKeyboard — выбор ККТУ со страницами по kktuPerPage кодов.
func buildKktuKeyboard(page int) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	codes, totalPages := kktuPage(page)
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}

	var rows []tele.Row
	for _, code := range codes {
		desc := kktuCodes[code]
		if len([]rune(desc)) > 35 {
			desc = string([]rune(desc)[:35]) + "..."
		}
		rows = append(rows, menu.Row(menu.Data(fmt.Sprintf("%s - %s", code, desc), "kktu_"+code)))
	}

	var nav []tele.Btn
	if page > 0 {
		nav = append(nav, menu.Data("⬅️ Предыдущая", fmt.Sprintf("kktupage_%d", page-1)))
	}
	if page < totalPages-1 {
		nav = append(nav, menu.Data("Следующая ➡️", fmt.Sprintf("kktupage_%d", page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, menu.Row(nav...))
	}
	rows = append(rows, menu.Row(menu.Data(fmt.Sprintf("📄 Страница %d из %d", page+1, totalPages), "noop")))
	rows = append(rows, menu.Row(
		menu.Data("◀️ Назад", "nav_back"),
		menu.Data("❌ Отменить", "nav_cancel"),
	))
	menu.Inline(rows...)
	return menu
}

// buildNavKeyboard — "Пропустить" (опционально), "Назад", "Отменить".
func buildNavKeyboard(showSkip bool) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	var rows []tele.Row
	if showSkip {
		rows = append(rows, menu.Row(menu.Data("⏭ Пропустить", "nav_skip")))
	}
	rows = append(rows, menu.Row(
		menu.Data("◀️ Назад", "nav_back"),
		menu.Data("❌ Отменить", "nav_cancel"),
	))
	menu.Inline(rows...)
	return menu
}

// buildConfirmKeyboard — финальное подтверждение перед отправкой в ОРД.
func buildConfirmKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.Data("✅ Создать креатив", "confirm_yes")),
		menu.Row(menu.Data("❌ Нет, отменить", "confirm_no")),
		menu.Row(menu.Data("◀️ Назад", "nav_back")),
	)
	return menu
}
