package app

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ==========================================
// КЛИЕНТ MEDIASCOUT
// ==========================================

// MediascoutClient — клиент ОРД Mediascout. Один запрос = одна попытка,
// без ретраев: повторная отправка того же креатива породит дубль с новым
// токеном erid.
type MediascoutClient struct {
	http *resty.Client
}

func NewMediascoutClient(baseURL, login, password string) *MediascoutClient {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetBasicAuth(login, password).
		SetTimeout(60 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &MediascoutClient{http: c}
}

// Ping проверяет доступность API без авторизации.
func (m *MediascoutClient) Ping() bool {
	resp, err := m.http.R().Get("/ping")
	if err != nil {
		log.Printf("⚠️ Mediascout ping: %v", err)
		return false
	}
	return resp.StatusCode() == 200
}

// PingAuth проверяет валидность учетных данных.
func (m *MediascoutClient) PingAuth() bool {
	resp, err := m.http.R().Get("/pingauth")
	if err != nil {
		log.Printf("⚠️ Mediascout pingauth: %v", err)
		return false
	}
	return resp.StatusCode() == 200
}

// CreativeRequest — исходные данные для регистрации креатива,
// собранные мастером.
type CreativeRequest struct {
	Form           string
	KktuCode       string
	TextData       string
	AdvertiserURLs []string
	MediaBase64    string
	MediaFileName  string
}

// CreateResult — итог регистрации. OK=true означает, что Mediascout
// принял креатив и выдал erid; иначе Err содержит человекочитаемое
// описание отказа.
type CreateResult struct {
	OK                bool
	Erid              string
	ID                string
	CreativeGroupID   string
	CreativeGroupName string
	Status            int
	Err               string
}

type mediaPayload struct {
	FileName      string `json:"fileName"`
	FileContent   string `json:"fileContentBase64"`
	Description   string `json:"description,omitempty"`
	IsArchive     bool   `json:"isArchive"`
	AdvertiserURL string `json:"advertiserUrl,omitempty"`
}

type textPayload struct {
	TextData string `json:"textData"`
}

type createResponse struct {
	Erid              string `json:"erid"`
	ID                string `json:"id"`
	CreativeGroupID   string `json:"creativeGroupId"`
	CreativeGroupName string `json:"creativeGroupName"`
}

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Errors []struct {
		ErrorType string `json:"errorType"`
		Message   string `json:"message"`
	} `json:"errors"`
}

// buildCreativePayload собирает тело POST /v3/creatives.
// Саморекламный креатив: договорные поля не передаются.
// description заполняется только для ККТУ 30.15.1 и только из
// непустого текста.
func buildCreativePayload(req CreativeRequest) map[string]any {
	payload := map[string]any{
		"form":            req.Form,
		"isSelfPromotion": true,
		"type":            "Other",
		"isCobranding":    false,
		"isNative":        false,
		"isSocial":        false,
		"isSocialQuota":   false,
		"kktuCodes":       []string{req.KktuCode},
	}

	if req.KktuCode == "30.15.1" && strings.TrimSpace(req.TextData) != "" {
		payload["description"] = req.TextData
	}

	if len(req.AdvertiserURLs) > 0 {
		payload["advertiserUrls"] = req.AdvertiserURLs
	}

	if req.MediaBase64 != "" {
		payload["mediaData"] = []mediaPayload{{
			FileName:    req.MediaFileName,
			FileContent: req.MediaBase64,
			IsArchive:   false,
		}}
	}

	if strings.TrimSpace(req.TextData) != "" {
		payload["textData"] = []textPayload{{TextData: req.TextData}}
	}

	return payload
}

// redactPayload — копия payload для логов с вырезанным base64.
func redactPayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	if media, ok := out["mediaData"].([]mediaPayload); ok && len(media) > 0 {
		redacted := make([]mediaPayload, len(media))
		copy(redacted, media)
		for i := range redacted {
			redacted[i].FileContent = fmt.Sprintf("<base64 %d bytes>", len(media[i].FileContent))
		}
		out["mediaData"] = redacted
	}
	return out
}

// CreateCreative регистрирует креатив и возвращает маркировку.
// Любой ответ кроме 201 считается отказом.
func (m *MediascoutClient) CreateCreative(req CreativeRequest) CreateResult {
	payload := buildCreativePayload(req)

	if dump, err := json.Marshal(redactPayload(payload)); err == nil {
		log.Printf("🌐 Mediascout POST /v3/creatives: %s", dump)
	}

	resp, err := m.http.R().SetBody(payload).Post("/v3/creatives")
	if err != nil {
		log.Printf("❌ Mediascout: сетевая ошибка: %v", err)
		return CreateResult{Err: fmt.Sprintf("Сетевая ошибка: %v", err)}
	}

	body := resp.Body()
	if resp.StatusCode() == 201 {
		var out createResponse
		if err := json.Unmarshal(body, &out); err != nil || out.Erid == "" {
			log.Printf("❌ Mediascout: 201 без erid: %s", truncate(string(body), 200))
			return CreateResult{
				Status: resp.StatusCode(),
				Err:    "Ответ API не распознан: " + truncate(string(body), 200),
			}
		}
		log.Printf("✅ Mediascout: креатив создан, erid=%s id=%s", out.Erid, out.ID)
		return CreateResult{
			OK:                true,
			Erid:              out.Erid,
			ID:                out.ID,
			CreativeGroupID:   out.CreativeGroupID,
			CreativeGroupName: out.CreativeGroupName,
			Status:            resp.StatusCode(),
		}
	}

	msg := parseAPIError(body)
	if msg == "" {
		msg = "Ошибка парсинга ответа API: " + truncate(string(body), 200)
	}
	log.Printf("❌ Mediascout: статус %d: %s", resp.StatusCode(), msg)
	return CreateResult{Status: resp.StatusCode(), Err: msg}
}

// parseAPIError вытаскивает человекочитаемое сообщение из тела ошибки.
func parseAPIError(body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	var parts []string
	if e.Title != "" {
		parts = append(parts, e.Title)
	}
	if e.Detail != "" {
		parts = append(parts, e.Detail)
	}
	for _, item := range e.Errors {
		if item.Message != "" {
			parts = append(parts, item.Message)
		}
	}
	return strings.Join(parts, "; ")
}
