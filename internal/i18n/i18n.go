// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

// package i18n provides localization for Tabula's CLI and TUI strings.
// It uses the go-i18n library with YAML message files embedded into the
// binary, so the interface language can be switched at runtime.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// localeFS embeds the YAML translation files from the 'locales' directory.
//
//go:embed locales/*.yaml
var localeFS embed.FS

// bundle stores all loaded translation messages.
var bundle *i18n.Bundle

// localizer translates messages into the active language.
var localizer *i18n.Localizer

// Init loads the embedded locale files and activates the given language.
func Init(lang string) {
	bundle = i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, _ := fs.ReadDir(localeFS, "locales")
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, _ := localeFS.ReadFile("locales/" + f.Name())
		_, _ = bundle.ParseMessageFileBytes(data, f.Name())
	}

	localizer = i18n.NewLocalizer(bundle, lang)
}

// T translates a message by its ID. Unknown IDs fall back to the ID itself
// so missing translations never hide information. Optional args are applied
// with Sprintf when the localized message contains format verbs.
func T(messageID string, args ...any) string {
	if localizer == nil {
		Init("en")
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: messageID})
	if err != nil {
		msg = messageID
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// SetLang changes the active language of the localizer.
func SetLang(lang string) {
	Init(lang)
}

// displayNames maps locale codes to their native names for the language
// menu. Codes without an entry fall back to the code itself.
var displayNames = map[string]string{
	"en": "English",
	"de": "Deutsch",
}

// GetAvailableLocales returns the embedded locale codes mapped to their
// display names, discovered from the embedded locale files.
func GetAvailableLocales() map[string]string {
	out := map[string]string{}
	files, _ := fs.ReadDir(localeFS, "locales")
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		code := strings.TrimSuffix(f.Name(), ".yaml")
		if name, ok := displayNames[code]; ok {
			out[code] = name
		} else {
			out[code] = code
		}
	}
	return out
}
