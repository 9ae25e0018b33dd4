package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBuildCreativePayloadDescriptionRule(t *testing.T) {
	// description заполняется только для ККТУ 30.15.1 при непустом тексте.
	p := buildCreativePayload(CreativeRequest{Form: "Text", KktuCode: "30.15.1", TextData: "реклама услуг"})
	if p["description"] != "реклама услуг" {
		t.Fatalf("expected description for 30.15.1, got %#v", p["description"])
	}

	p = buildCreativePayload(CreativeRequest{Form: "Text", KktuCode: "4.1.1", TextData: "реклама услуг"})
	if _, ok := p["description"]; ok {
		t.Fatalf("description must be absent for other codes, got %#v", p["description"])
	}

	p = buildCreativePayload(CreativeRequest{Form: "Banner", KktuCode: "30.15.1", MediaBase64: "aGk=", MediaFileName: "a.jpg"})
	if _, ok := p["description"]; ok {
		t.Fatal("description must be absent without text")
	}
}

func TestBuildCreativePayloadDefaults(t *testing.T) {
	p := buildCreativePayload(CreativeRequest{Form: "Banner", KktuCode: "15.2.2", MediaBase64: "aGk=", MediaFileName: "soap.png"})

	if p["isSelfPromotion"] != true || p["type"] != "Other" {
		t.Fatalf("self-promotion defaults broken: %#v", p)
	}
	for _, flag := range []string{"isCobranding", "isNative", "isSocial", "isSocialQuota"} {
		if p[flag] != false {
			t.Fatalf("%s must be false", flag)
		}
	}
	codes, ok := p["kktuCodes"].([]string)
	if !ok || len(codes) != 1 || codes[0] != "15.2.2" {
		t.Fatalf("unexpected kktuCodes: %#v", p["kktuCodes"])
	}
	media, ok := p["mediaData"].([]mediaPayload)
	if !ok || len(media) != 1 || media[0].FileName != "soap.png" || media[0].FileContent != "aGk=" {
		t.Fatalf("unexpected mediaData: %#v", p["mediaData"])
	}
	if _, ok := p["textData"]; ok {
		t.Fatal("textData must be absent without text")
	}
	if _, ok := p["advertiserUrls"]; ok {
		t.Fatal("advertiserUrls must be absent when empty")
	}
}

func TestCreateCreativeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/creatives" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if _, _, ok := r.BasicAuth(); !ok {
			t.Fatal("missing basic auth")
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"erid":"2VtzqxbJEk8","id":"CR-1","creativeGroupId":"CG-1","creativeGroupName":"Self-promo"}`))
	}))
	defer srv.Close()

	client := NewMediascoutClient(srv.URL, "login", "pass")
	res := client.CreateCreative(CreativeRequest{Form: "Text", KktuCode: "4.1.1", TextData: "текст"})

	if !res.OK {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Erid != "2VtzqxbJEk8" || res.ID != "CR-1" || res.CreativeGroupID != "CG-1" || res.CreativeGroupName != "Self-promo" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCreateCreativeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"title":"Validation failed","detail":"kktuCodes is invalid","errors":[{"errorType":"field","message":"unknown code"}]}`))
	}))
	defer srv.Close()

	client := NewMediascoutClient(srv.URL, "login", "pass")
	res := client.CreateCreative(CreativeRequest{Form: "Text", KktuCode: "0.0.0", TextData: "текст"})

	if res.OK {
		t.Fatal("expected failure")
	}
	if res.Status != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", res.Status)
	}
	want := "Validation failed; kktuCodes is invalid; unknown code"
	if res.Err != want {
		t.Fatalf("unexpected error message: %q", res.Err)
	}
}

func TestCreateCreativeUnparseableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>Bad Gateway</html>"))
	}))
	defer srv.Close()

	client := NewMediascoutClient(srv.URL, "login", "pass")
	res := client.CreateCreative(CreativeRequest{Form: "Text", KktuCode: "4.1.1", TextData: "текст"})

	if res.OK {
		t.Fatal("expected failure")
	}
	if !strings.HasPrefix(res.Err, "Ошибка парсинга ответа API: ") {
		t.Fatalf("expected parse-failure prefix, got %q", res.Err)
	}
	if !strings.Contains(res.Err, "<html>Bad Gateway</html>") {
		t.Fatalf("expected raw body in error message, got %q", res.Err)
	}
}

func TestRedactPayloadHidesBase64(t *testing.T) {
	payload := buildCreativePayload(CreativeRequest{Form: "Banner", KktuCode: "4.1.1", MediaBase64: "c2VjcmV0", MediaFileName: "x.png"})
	redacted := redactPayload(payload)

	media := redacted["mediaData"].([]mediaPayload)
	if media[0].FileContent == "c2VjcmV0" {
		t.Fatal("base64 must be redacted in logs")
	}
	// Исходный payload не трогаем.
	orig := payload["mediaData"].([]mediaPayload)
	if orig[0].FileContent != "c2VjcmV0" {
		t.Fatal("original payload must stay intact")
	}
}
