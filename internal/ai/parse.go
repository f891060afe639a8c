package ai

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxDescriptionRunes = 500

var (
	ErrEmptyOutput = errors.New("empty_output")
	markdownRegex  = regexp.MustCompile("[*_`#>]+")
	spaceRegex     = regexp.MustCompile(`\s+`)
)

// CleanDescription strips markdown and wrapping quotes from model output, collapses
// whitespace, and caps the result at maxDescriptionRunes.
func CleanDescription(text string) (string, error) {
	s := markdownRegex.ReplaceAllString(text, "")
	s = spaceRegex.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'“”`)
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyOutput
	}
	if utf8.RuneCountInString(s) > maxDescriptionRunes {
		r := []rune(s)
		s = strings.TrimSpace(string(r[:maxDescriptionRunes]))
	}
	return s, nil
}
