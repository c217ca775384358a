package commit

import (
	"fmt"
	"regexp"
	"strings"
)

var mentionPattern = regexp.MustCompile(`@([a-zA-Z0-9_-]+)`)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// MarkdownOptions controls how a commit line is rendered.
type MarkdownOptions struct {
	Number      int
	URL         string
	Status      Status
	ShowDetails bool
}

// Markdown renders the commit as a forum list item. The first remaining
// message line is the title; further lines are indented details, or "[…]"
// when details are hidden.
func (c Commit) Markdown(opts MarkdownOptions) string {
	var lines []string
	for _, line := range strings.Split(c.Message, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "co-authored-by") || strings.Contains(lower, "this reverts commit") {
			continue
		}
		line = mentionPattern.ReplaceAllString(line, "`@$1`")
		lines = append(lines, htmlEscaper.Replace(line))
	}

	title := "*Empty commit message*"
	if len(lines) > 0 && strings.TrimSpace(lines[0]) != "" {
		title = lines[0]
	}

	var prefix, suffix string
	switch s := opts.Status.(type) {
	case Both:
		prefix, suffix = "<del>", fmt.Sprintf("</del> (reverts [%d], reverted by [%d])", s.Reverts, s.RevertedBy)
	case RevertedBy:
		prefix, suffix = "<del>", fmt.Sprintf("</del> (reverted by [%d])", s.N)
	case Reverts:
		prefix, suffix = "<ins>", fmt.Sprintf("</ins> (reverts [%d])", s.N)
	case Normal, nil:
	}

	hasDetails := len(lines) >= 2
	omitted := ""
	if hasDetails && !opts.ShowDetails {
		omitted = "[…] "
	}

	var b strings.Builder
	fmt.Fprintf(&b, "- %s%s %s[[%d]](%s)%s\n", prefix, title, omitted, opts.Number, opts.URL, suffix)
	if hasDetails && opts.ShowDetails {
		b.WriteString("\n    ")
		b.WriteString(strings.Join(lines[1:], "\n    "))
	}
	return b.String()
}
