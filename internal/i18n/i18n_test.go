// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

package i18n

import (
	"strings"
	"testing"
)

func TestTranslationsLoad(t *testing.T) {
	Init("en")
	if got := T("menu.browse"); got == "menu.browse" {
		t.Fatalf("english translation missing, got %q", got)
	}

	SetLang("de")
	if got := T("menu.browse"); got != "Daten durchsuchen" {
		t.Fatalf("german translation = %q", got)
	}
}

func TestUnknownIDFallsBackToID(t *testing.T) {
	Init("en")
	if got := T("no.such.message"); got != "no.such.message" {
		t.Fatalf("fallback = %q", got)
	}
}

func TestFormatArgs(t *testing.T) {
	Init("en")
	got := T("browse.footer.page", 3, 21, 208)
	if !strings.Contains(got, "3/21") || !strings.Contains(got, "208") {
		t.Fatalf("formatted message = %q", got)
	}
}

func TestGetAvailableLocales(t *testing.T) {
	av := GetAvailableLocales()
	if av["en"] != "English" || av["de"] != "Deutsch" {
		t.Fatalf("available locales = %v", av)
	}
}
