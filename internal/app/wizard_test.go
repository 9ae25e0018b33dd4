package app

import (
	"strings"
	"testing"
)

func TestNextStepAfterForm(t *testing.T) {
	tests := []struct {
		form string
		want string
	}{
		{"Banner", stateUploadMedia},
		{"TextGraphic", stateUploadMedia},
		{"BannerHtml5", stateUploadMedia},
		{"Text", stateEnterText},
	}
	for _, tt := range tests {
		if got := nextStepAfterForm(tt.form); got != tt.want {
			t.Fatalf("nextStepAfterForm(%q) = %q; want %q", tt.form, got, tt.want)
		}
	}
}

func TestNextStepAfterFormNoMediaNoText(t *testing.T) {
	// Формы без медиа и текста ведут сразу к целевым ссылкам.
	for form := range creativeForms {
		if !formRequiresMedia(form) && !formRequiresText(form) {
			if got := nextStepAfterForm(form); got != stateEnterURLs {
				t.Fatalf("nextStepAfterForm(%q) = %q; want %q", form, got, stateEnterURLs)
			}
		}
	}
}

func TestNextStepAfterMedia(t *testing.T) {
	if got := nextStepAfterMedia("TextGraphic"); got != stateEnterText {
		t.Fatalf("nextStepAfterMedia(TextGraphic) = %q; want enter_text", got)
	}
	if got := nextStepAfterMedia("Banner"); got != stateEnterURLs {
		t.Fatalf("nextStepAfterMedia(Banner) = %q; want enter_advertiser_urls", got)
	}
}

func TestGoBackClearsLeavingStateData(t *testing.T) {
	d := &creativeDraft{
		State:         stateEnterText,
		Form:          "TextGraphic",
		FormName:      "Текст. граф. блок",
		MediaFileID:   "file123",
		MediaFileName: "photo_file123.jpg",
		MediaBase64:   "aGk=",
		TextData:      "черновик текста",
	}

	if !goBack(d) {
		t.Fatal("goBack from enter_text should succeed")
	}
	if d.State != stateUploadMedia {
		t.Fatalf("expected upload_media, got %q", d.State)
	}
	if d.TextData != "" {
		t.Fatalf("text must be cleared, got %q", d.TextData)
	}
	if d.MediaFileID == "" {
		t.Fatal("media of an earlier step must survive going back")
	}

	if !goBack(d) {
		t.Fatal("goBack from upload_media should succeed")
	}
	if d.State != stateSelectForm {
		t.Fatalf("expected select_form, got %q", d.State)
	}
	if d.MediaFileID != "" || d.MediaBase64 != "" || d.Form != "" {
		t.Fatalf("media and form must be cleared: %+v", d)
	}

	if goBack(d) {
		t.Fatal("goBack from select_form must fail")
	}
}

func TestGoBackFromConfirm(t *testing.T) {
	d := &creativeDraft{State: stateConfirm, Form: "Text", KktuCode: "4.1.1", KktuName: "Средства для мытья посуды"}
	if !goBack(d) {
		t.Fatal("goBack from confirm should succeed")
	}
	if d.State != stateSelectKktu {
		t.Fatalf("expected select_kktu, got %q", d.State)
	}
	if d.KktuCode != "" {
		t.Fatalf("kktu code must be cleared, got %q", d.KktuCode)
	}
}

func TestGoBackFromURLsSkipsInapplicableSteps(t *testing.T) {
	// Для Video текст не нужен: назад со ссылок ведет к медиа.
	d := &creativeDraft{State: stateEnterURLs, Form: "Video", AdvertiserURLs: []string{"https://a.com"}}
	if !goBack(d) {
		t.Fatal("goBack from urls should succeed")
	}
	if d.State != stateUploadMedia {
		t.Fatalf("expected upload_media, got %q", d.State)
	}
	if d.AdvertiserURLs != nil {
		t.Fatalf("urls must be cleared, got %#v", d.AdvertiserURLs)
	}
}

func TestCreativeTextLength(t *testing.T) {
	tests := []struct {
		text   string
		wantN  int
		wantOK bool
	}{
		{"", 0, false},
		{"а", 1, true},
		{strings.Repeat("я", 1000), 1000, true},
		{strings.Repeat("я", 1001), 1001, false},
	}
	for _, tt := range tests {
		n, ok := creativeTextLength(tt.text)
		if n != tt.wantN || ok != tt.wantOK {
			t.Fatalf("creativeTextLength(len %d runes) = (%d, %v); want (%d, %v)",
				len([]rune(tt.text)), n, ok, tt.wantN, tt.wantOK)
		}
	}
}

func TestNewCreativeRecord(t *testing.T) {
	d := &creativeDraft{
		Form:          "Banner",
		KktuCode:      "4.1.1",
		MediaFileID:   "file-id",
		MediaFileName: "banner.png",
	}

	ok := newCreativeRecord(7, d, CreateResult{
		OK:              true,
		Erid:            "2VtzqvLEjKA",
		ID:              "ms-1",
		CreativeGroupID: "grp-1",
	})
	if ok.Status != CreativeStatusCreated || ok.Erid != "2VtzqvLEjKA" {
		t.Fatalf("success record: %+v", ok)
	}
	if ok.ErrorMessage != "" {
		t.Fatalf("success record must have empty error, got %q", ok.ErrorMessage)
	}

	bad := newCreativeRecord(7, d, CreateResult{OK: false, Err: "Validation failed"})
	if bad.Status != CreativeStatusError || bad.ErrorMessage != "Validation failed" {
		t.Fatalf("failure record: %+v", bad)
	}
	if bad.Erid != "" {
		t.Fatalf("failure record must have no erid, got %q", bad.Erid)
	}
	if bad.Form != "Banner" || bad.KktuCode != "4.1.1" || bad.MediaFileName != "banner.png" {
		t.Fatalf("draft fields must carry over: %+v", bad)
	}
}

func TestDraftLifecycle(t *testing.T) {
	const uid = int64(424242)
	setDraft(uid, &creativeDraft{State: stateSelectForm})
	if getDraft(uid) == nil {
		t.Fatal("draft must be stored")
	}
	clearDraft(uid)
	if getDraft(uid) != nil {
		t.Fatal("draft must be gone after clear")
	}
}
