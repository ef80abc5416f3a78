package generator

import (
	"regexp"
	"strings"
)

var (
	titleRe    = regexp.MustCompile(`(?m)^#{1,2}\s+(.+)$`)
	boldMetaRe = regexp.MustCompile(`^\*\*\s*META DESCRIPTION:\s*\*\*`)
)

// ParseArticle splits a composed article into its meta description and body.
// The text must start with MetaDescriptionPrefix; a bold "**META DESCRIPTION:**"
// is normalized to the plain prefix.
func ParseArticle(raw string) (Article, error) {
	text := strings.TrimSpace(raw)
	text = boldMetaRe.ReplaceAllString(text, MetaDescriptionPrefix)
	if !strings.HasPrefix(text, MetaDescriptionPrefix) {
		return Article{}, &SchemaError{Shape: "article", Reason: "missing " + MetaDescriptionPrefix + " prefix", Raw: raw}
	}

	rest := strings.TrimPrefix(text, MetaDescriptionPrefix)
	desc, body, _ := strings.Cut(rest, "\n")
	desc = strings.TrimSpace(desc)
	body = strings.TrimSpace(body)
	if desc == "" {
		// description placed on the line after the prefix
		desc, body, _ = strings.Cut(body, "\n")
		desc = strings.TrimSpace(desc)
		body = strings.TrimSpace(body)
	}
	if body == "" {
		return Article{}, &SchemaError{Shape: "article", Reason: "article body is empty", Raw: raw}
	}

	return Article{
		Text:            MetaDescriptionPrefix + " " + desc + "\n" + body,
		MetaDescription: desc,
		Title:           extractTitle(body),
		Body:            body,
	}, nil
}

func extractTitle(md string) string {
	m := titleRe.FindStringSubmatch(md)
	if len(m) >= 2 {
		return strings.Trim(strings.TrimSpace(m[1]), "*")
	}
	return ""
}
