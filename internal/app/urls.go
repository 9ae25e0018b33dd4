package app

import (
	"regexp"
	"strings"
)

// ==========================================
// ПАРСИНГ ЦЕЛЕВЫХ ССЫЛОК
// ==========================================

// Принимаем http(s)://хост[:порт][/путь], где хост — домен с точкой,
// localhost или IPv4. Ссылки без схемы отклоняются.
var urlPattern = regexp.MustCompile(
	`^https?://` +
		`(` +
		`(?:[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?\.)+[A-Za-z]{2,}` +
		`|localhost` +
		`|(?:\d{1,3}\.){3}\d{1,3}` +
		`)` +
		`(?::\d{1,5})?` +
		`(?:/\S*)?$`,
)

// splitAdvertiserURLs режет пользовательский ввод на кандидатов:
// разделители — запятые и переводы строки, пустые куски отбрасываются.
func splitAdvertiserURLs(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	var out []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func isValidAdvertiserURL(raw string) bool {
	return urlPattern.MatchString(raw)
}

// parseAdvertiserURLs валидирует ввод целиком: одна невалидная ссылка
// бракует весь список. Возвращает ссылки либо невалидные куски.
func parseAdvertiserURLs(input string) (urls []string, invalid []string) {
	for _, candidate := range splitAdvertiserURLs(input) {
		if isValidAdvertiserURL(candidate) {
			urls = append(urls, candidate)
		} else {
			invalid = append(invalid, candidate)
		}
	}
	if len(invalid) > 0 {
		return nil, invalid
	}
	return urls, nil
}
