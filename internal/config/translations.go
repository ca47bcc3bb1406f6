package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// builtinTranslations are the presence texts shipped with the daemon.
// Keys are presence keywords, values the rendered status line.
var builtinTranslations = map[string]map[string]string{
	"en": {
		"online":   "Server is online",
		"offline":  "Server is offline",
		"starting": "Server is starting...",
		"stopping": "Server is stopping...",
		"error":    "Server error, check logs",
	},
	"pl": {
		"online":   "Serwer działa",
		"offline":  "Serwer jest wyłączony",
		"starting": "Serwer się uruchamia...",
		"stopping": "Serwer się zatrzymuje...",
		"error":    "Błąd serwera, sprawdź logi",
	},
}

// Translator renders presence keywords into human-readable status text for a
// configured language, falling back to English and finally to the keyword
// itself.
type Translator struct {
	language string
	tables   map[string]map[string]string
}

// NewTranslator creates a translator for the given language using the
// built-in tables.
func NewTranslator(language string) *Translator {
	if language == "" {
		language = "en"
	}
	tables := make(map[string]map[string]string, len(builtinTranslations))
	for lang, entries := range builtinTranslations {
		table := make(map[string]string, len(entries))
		for k, v := range entries {
			table[k] = v
		}
		tables[lang] = table
	}
	return &Translator{language: language, tables: tables}
}

// LoadOverrides merges translations from a TOML file over the built-in
// tables. The file maps language codes to keyword tables:
//
//	[en]
//	online = "We are live"
//
// A missing file is not an error.
func (t *Translator) LoadOverrides(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read translations: %w", err)
	}

	var overrides map[string]map[string]string
	if err := toml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("failed to parse translations: %w", err)
	}

	for lang, entries := range overrides {
		table := t.tables[lang]
		if table == nil {
			table = make(map[string]string, len(entries))
			t.tables[lang] = table
		}
		for k, v := range entries {
			table[k] = v
		}
	}
	return nil
}

// Language returns the translator's configured language code.
func (t *Translator) Language() string {
	return t.language
}

// Render returns the status text for the keyword in the configured language.
// Unknown languages fall back to English; unknown keywords fall back to the
// keyword itself so new states still surface something readable.
func (t *Translator) Render(keyword string) string {
	if table, ok := t.tables[t.language]; ok {
		if text, ok := table[keyword]; ok {
			return text
		}
	}
	if text, ok := t.tables["en"][keyword]; ok {
		return text
	}
	return keyword
}
