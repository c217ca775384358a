// Package localization extracts translation file changes from comparisons
// and renders them for announcements.
package localization

import (
	"cmp"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var englishNames = display.Languages(language.English)

// Language is a translation target such as en or pt-BR.
type Language struct {
	ReferenceName string
	Code          string
	Region        string
}

// English is the language of untranslated default resources.
var English = Language{ReferenceName: "English", Code: "en"}

// ParseLanguage parses codes written as en, en_US, en-US or en-rUS.
// Resource qualifiers that are not languages (land, night, v9) are rejected.
func ParseLanguage(code string) (Language, error) {
	canonical := strings.ReplaceAll(code, "-r", "_")
	canonical = strings.ReplaceAll(canonical, "-", "_")
	parts := strings.Split(canonical, "_")
	if len(parts) > 2 {
		return Language{}, fmt.Errorf("language code %q: too many parts", code)
	}

	lang := parts[0]
	if len(lang) < 2 || len(lang) > 3 {
		return Language{}, fmt.Errorf("language code %q: want 2 or 3 letters", code)
	}
	for _, r := range lang {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return Language{}, fmt.Errorf("language code %q: want letters only", code)
		}
	}

	tag, err := language.Parse(lang)
	if err != nil {
		return Language{}, fmt.Errorf("language code %q: %w", code, err)
	}
	name := englishNames.Name(tag)
	if name == "" {
		return Language{}, fmt.Errorf("language code %q: unknown language", code)
	}

	l := Language{ReferenceName: name, Code: lang}
	if len(parts) == 2 {
		if parts[1] == "" {
			return Language{}, fmt.Errorf("language code %q: empty region", code)
		}
		l.Region = parts[1]
	}
	return l, nil
}

// FullCode returns lang or lang-REGION.
func (l Language) FullCode() string {
	if l.Region == "" {
		return l.Code
	}
	return l.Code + "-" + l.Region
}

// String returns the display form, e.g. English (`en-US`).
func (l Language) String() string {
	return fmt.Sprintf("%s (`%s`)", l.ReferenceName, l.FullCode())
}

// Compare orders by language code, then region with no region first.
func (l Language) Compare(o Language) int {
	if c := cmp.Compare(l.Code, o.Code); c != 0 {
		return c
	}
	return cmp.Compare(l.Region, o.Region)
}
