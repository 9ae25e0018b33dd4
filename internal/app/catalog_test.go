package app

import "testing"

func TestKktuPagePagination(t *testing.T) {
	codes, totalPages := kktuPage(0)
	if len(codes) != kktuPerPage {
		t.Fatalf("first page has %d codes; want %d", len(codes), kktuPerPage)
	}
	wantPages := (len(kktuOrder) + kktuPerPage - 1) / kktuPerPage
	if totalPages != wantPages {
		t.Fatalf("totalPages = %d; want %d", totalPages, wantPages)
	}

	// Последняя страница содержит остаток.
	last, _ := kktuPage(totalPages - 1)
	wantLast := len(kktuOrder) - (totalPages-1)*kktuPerPage
	if len(last) != wantLast {
		t.Fatalf("last page has %d codes; want %d", len(last), wantLast)
	}

	// Выход за границы прижимается к краям.
	clamped, _ := kktuPage(999)
	if len(clamped) != wantLast {
		t.Fatalf("overflow page not clamped: %d codes", len(clamped))
	}
	neg, _ := kktuPage(-1)
	if len(neg) != kktuPerPage {
		t.Fatalf("negative page not clamped: %d codes", len(neg))
	}

	// Страницы покрывают каталог без пропусков и дублей.
	seen := make(map[string]bool)
	for p := 0; p < totalPages; p++ {
		page, _ := kktuPage(p)
		for _, code := range page {
			if seen[code] {
				t.Fatalf("code %s appears twice", code)
			}
			seen[code] = true
		}
	}
	if len(seen) != len(kktuOrder) {
		t.Fatalf("pages cover %d codes; want %d", len(seen), len(kktuOrder))
	}
}

func TestCatalogConsistency(t *testing.T) {
	if len(creativeFormOrder) != len(creativeForms) {
		t.Fatalf("form order has %d entries, map has %d", len(creativeFormOrder), len(creativeForms))
	}
	for _, code := range creativeFormOrder {
		if _, ok := creativeForms[code]; !ok {
			t.Fatalf("ordered form %q missing from map", code)
		}
	}
	if len(kktuOrder) != len(kktuCodes) {
		t.Fatalf("kktu order has %d entries, map has %d", len(kktuOrder), len(kktuCodes))
	}
	for _, code := range kktuOrder {
		if _, ok := kktuCodes[code]; !ok {
			t.Fatalf("ordered kktu %q missing from map", code)
		}
	}

	// Формы с медиа/текстом — подмножества каталога форм.
	for form := range formsWithMedia {
		if _, ok := creativeForms[form]; !ok {
			t.Fatalf("media form %q not in catalog", form)
		}
	}
	for form := range formsWithText {
		if _, ok := creativeForms[form]; !ok {
			t.Fatalf("text form %q not in catalog", form)
		}
	}

	// Text — единственная форма без медиа.
	if formRequiresMedia("Text") {
		t.Fatal("Text must not require media")
	}
	if !formRequiresText("Text") {
		t.Fatal("Text must require text")
	}
	if !formRequiresMedia("Banner") || formRequiresText("Banner") {
		t.Fatal("Banner requires media only")
	}
}

func TestConfirmKeyboardButtons(t *testing.T) {
	var uniques []string
	for _, row := range buildConfirmKeyboard().InlineKeyboard {
		for _, btn := range row {
			uniques = append(uniques, btn.Unique)
		}
	}

	want := map[string]bool{"confirm_yes": false, "confirm_no": false, "nav_back": false}
	for _, u := range uniques {
		if _, ok := want[u]; ok {
			want[u] = true
		}
	}
	for u, seen := range want {
		if !seen {
			t.Fatalf("confirm keyboard misses %q button; got %v", u, uniques)
		}
	}
}
