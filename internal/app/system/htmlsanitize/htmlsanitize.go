// Package htmlsanitize cleans user-authored HTML before it is stored.
package htmlsanitize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	rich  = richPolicy()
	plain = bluemonday.StrictPolicy()
)

func richPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("u", "s", "sub", "sup", "mark")
	// syntax-highlight hints on fenced code
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+#-]+$`)).OnElements("code")
	return p
}

// Sanitize keeps formatting, links, images, lists, tables and code blocks
// and strips scripts, event handlers and unsafe URLs.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return rich.Sanitize(s)
}

// Text strips every tag and returns unescaped plain text. Used for titles,
// excerpts, comments and messages, which clients render as text.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(plain.Sanitize(s)))
}

// IsPlainText reports whether s has no markup at all.
func IsPlainText(s string) bool {
	return !strings.Contains(s, "<")
}
