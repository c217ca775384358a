package localization

import (
	"regexp"
	"strings"

	"github.com/drewdunne/updatesbot/internal/platform"
)

// Kind is a kind of strings file. Only iOS has more than one.
type Kind int

const (
	Main Kind = iota
	InfoPlist
	PluralAware
	AppStoreDescription
	AppStoreReleaseNotes
)

// String returns the short label used in posts and persisted codes.
func (k Kind) String() string {
	switch k {
	case InfoPlist:
		return "info"
	case PluralAware:
		return "plural"
	case AppStoreDescription:
		return "desc"
	case AppStoreReleaseNotes:
		return "release"
	default:
		return "main"
	}
}

func parseKind(s string) (Kind, bool) {
	for _, k := range []Kind{Main, InfoPlist, PluralAware, AppStoreDescription, AppStoreReleaseNotes} {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

const (
	androidDefaultStrings = "app/src/main/res/values/strings.xml"
	serverDefaultStrings  = "service/src/main/resources/org/signal/badges/Badges.properties"
)

// filePattern maps one strings file layout to languages and back.
type filePattern struct {
	kind    Kind
	pattern *regexp.Regexp
	// path builds the file path for a language.
	path func(l Language) string
}

func underscored(l Language) string { return strings.ReplaceAll(l.FullCode(), "-", "_") }

var patterns = map[platform.Platform][]filePattern{
	platform.Android: {{
		kind:    Main,
		pattern: regexp.MustCompile(`^app/src/main/res/values-([a-zA-Z]{2,3}(?:-r[A-Z]{2})?)/strings\.xml$`),
		path: func(l Language) string {
			if l.FullCode() == "en" {
				return androidDefaultStrings
			}
			code := l.Code
			if l.Region != "" {
				code += "-r" + l.Region
			}
			return "app/src/main/res/values-" + code + "/strings.xml"
		},
	}},
	platform.IOS: {
		{
			kind:    Main,
			pattern: regexp.MustCompile(`^Signal/translations/([a-zA-Z]{2,3}(?:_[A-Z]{2})?)\.lproj/Localizable\.strings$`),
			path:    func(l Language) string { return "Signal/translations/" + underscored(l) + ".lproj/Localizable.strings" },
		},
		{
			kind:    InfoPlist,
			pattern: regexp.MustCompile(`^Signal/translations/([a-zA-Z]{2,3}(?:_[A-Z]{2})?)\.lproj/InfoPlist\.strings$`),
			path:    func(l Language) string { return "Signal/translations/" + underscored(l) + ".lproj/InfoPlist.strings" },
		},
		{
			kind:    PluralAware,
			pattern: regexp.MustCompile(`^Signal/translations/([a-zA-Z]{2,3}(?:_[A-Z]{2})?)\.lproj/PluralAware\.stringsdict$`),
			path:    func(l Language) string { return "Signal/translations/" + underscored(l) + ".lproj/PluralAware.stringsdict" },
		},
		{
			kind:    AppStoreDescription,
			pattern: regexp.MustCompile(`^fastlane/metadata/([a-zA-Z]{2,3}(?:-[a-zA-Z]{2,4})?)/description\.txt$`),
			path:    func(l Language) string { return "fastlane/metadata/" + l.FullCode() + "/description.txt" },
		},
		{
			kind:    AppStoreReleaseNotes,
			pattern: regexp.MustCompile(`^fastlane/metadata/([a-zA-Z]{2,3}(?:-[a-zA-Z]{2,4})?)/release_notes\.txt$`),
			path:    func(l Language) string { return "fastlane/metadata/" + l.FullCode() + "/release_notes.txt" },
		},
	},
	platform.Desktop: {{
		kind:    Main,
		pattern: regexp.MustCompile(`^_locales/([a-zA-Z]{2,3}(?:_[A-Z]{2})?)/messages\.json$`),
		path:    func(l Language) string { return "_locales/" + underscored(l) + "/messages.json" },
	}},
	platform.Server: {{
		kind:    Main,
		pattern: regexp.MustCompile(`^service/src/main/resources/org/signal/badges/Badges_([a-zA-Z]{2,3}(?:_[A-Z]{2})?)\.properties$`),
		path: func(l Language) string {
			if l.FullCode() == "en" {
				return serverDefaultStrings
			}
			return "service/src/main/resources/org/signal/badges/Badges_" + underscored(l) + ".properties"
		},
	}},
}

// changeFromPath maps a repository path to a change, if it is a strings file.
func changeFromPath(p platform.Platform, path string) (Change, bool) {
	switch {
	case p == platform.Android && path == androidDefaultStrings,
		p == platform.Server && path == serverDefaultStrings:
		return Change{Language: English, Kind: Main}, true
	}

	for _, fp := range patterns[p] {
		m := fp.pattern.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		lang, err := ParseLanguage(m[1])
		if err != nil {
			return Change{}, false
		}
		return Change{Language: lang, Kind: fp.kind}, true
	}
	return Change{}, false
}

// filePath returns the strings file path of a change.
func filePath(p platform.Platform, c Change) string {
	for _, fp := range patterns[p] {
		if fp.kind == c.Kind {
			return fp.path(c.Language)
		}
	}
	return ""
}
