package localization

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/drewdunne/updatesbot/internal/platform"
)

// Change is one changed strings file of one language.
type Change struct {
	Language Language
	Kind     Kind
}

// Path returns the changed file's repository path.
func (c Change) Path(p platform.Platform) string {
	return filePath(p, c)
}

// Compare orders by language, then kind.
func (c Change) Compare(o Change) int {
	if r := c.Language.Compare(o.Language); r != 0 {
		return r
	}
	return cmp.Compare(c.Kind, o.Kind)
}

// Code returns the persisted form: the full language code, suffixed with
// ":kind" for kinds other than Main.
func (c Change) Code() string {
	if c.Kind == Main {
		return c.Language.FullCode()
	}
	return c.Language.FullCode() + ":" + c.Kind.String()
}

// ParseCode parses the persisted form produced by Code.
func ParseCode(code string) (Change, error) {
	langCode, kindName, hasKind := strings.Cut(code, ":")
	kind := Main
	if hasKind {
		k, ok := parseKind(kindName)
		if !ok {
			return Change{}, fmt.Errorf("parsing localization code %q: unknown kind %q", code, kindName)
		}
		kind = k
	}
	lang, err := ParseLanguage(langCode)
	if err != nil {
		return Change{}, fmt.Errorf("parsing localization code %q: %w", code, err)
	}
	return Change{Language: lang, Kind: kind}, nil
}

// Codes returns the persisted form of changes, in order.
func Codes(changes []Change) []string {
	codes := make([]string, len(changes))
	for i, c := range changes {
		codes[i] = c.Code()
	}
	return codes
}

// ParseCodes parses persisted codes, dropping ones the platform has no file for.
func ParseCodes(p platform.Platform, codes []string) ([]Change, error) {
	var changes []Change
	for _, code := range codes {
		c, err := ParseCode(code)
		if err != nil {
			return nil, err
		}
		if c.Path(p) == "" {
			continue
		}
		changes = append(changes, c)
	}
	return Merge(changes), nil
}

// ChangesFromFiles maps changed file paths to a sorted, deduplicated set of
// changes. Paths that are not strings files are ignored.
func ChangesFromFiles(p platform.Platform, paths []string) []Change {
	var changes []Change
	for _, path := range paths {
		if c, ok := changeFromPath(p, path); ok {
			changes = append(changes, c)
		}
	}
	return Merge(changes)
}

// Merge returns the sorted union of the given sets.
func Merge(sets ...[]Change) []Change {
	var all []Change
	for _, s := range sets {
		all = append(all, s...)
	}
	slices.SortFunc(all, Change.Compare)
	return slices.CompactFunc(all, func(a, b Change) bool { return a.Compare(b) == 0 })
}
