package main

import (
	"fmt"
	"regexp"
	"strings"
)

var markdownImage = regexp.MustCompile(`!\[(.*?)\]\((.*?)\)`)

// statementText prepares a markdown statement for the terminal. Images
// cannot be drawn, so each one becomes a numbered reference and its URL
// is listed under the text.
func statementText(content string) (string, []string) {
	var urls []string
	replacer := func(match string) string {
		sub := markdownImage.FindStringSubmatch(match)
		urls = append(urls, sub[2])
		label := fmt.Sprintf("[image %d]", len(urls))
		if alt := strings.TrimSpace(sub[1]); alt != "" {
			label = fmt.Sprintf("[image %d: %s]", len(urls), alt)
		}
		return label
	}
	text := markdownImage.ReplaceAllStringFunc(content, replacer)
	return strings.TrimSpace(text), urls
}

func renderStatement(content string) string {
	text, urls := statementText(content)
	if len(urls) == 0 {
		return text
	}
	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\n")
	for i, u := range urls {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  [%d] %s", i+1, u)))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
