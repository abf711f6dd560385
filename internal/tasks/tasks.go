// Package tasks turns free-text project descriptions into task names.
package tasks

import "strings"

// Extractor splits a description into discrete, non-empty task strings.
type Extractor interface {
	Extract(description string) []string
}

// ExtractorFunc adapts a plain function to Extractor.
type ExtractorFunc func(string) []string

func (f ExtractorFunc) Extract(description string) []string { return f(description) }

// SentenceSplitter cuts on a delimiter (a period unless set). It does no
// linguistic segmentation: "e.g." and "v1.2" are split too.
type SentenceSplitter struct {
	Delimiter string
}

func (s SentenceSplitter) Extract(description string) []string {
	delim := s.Delimiter
	if delim == "" {
		delim = "."
	}

	out := []string{}
	for _, segment := range strings.Split(description, delim) {
		if task := strings.TrimSpace(segment); task != "" {
			out = append(out, task)
		}
	}
	return out
}
