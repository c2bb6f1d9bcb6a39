// Package language resolves the source language of a video from its
// detected subtitle texts. Detection itself is pluggable; the built-in
// detector classifies by Unicode script ranges and votes across segments.
package language

import "strings"

type entry struct {
	code    string // ISO 639-1
	display string
}

var languages = []entry{
	{"en", "English"},
	{"uk", "Ukrainian"},
	{"ru", "Russian"},
	{"de", "German"},
	{"fr", "French"},
	{"es", "Spanish"},
	{"it", "Italian"},
	{"pt", "Portuguese"},
	{"zh", "Chinese"},
	{"ja", "Japanese"},
	{"ko", "Korean"},
	{"ar", "Arabic"},
}

var byCode map[string]*entry

func init() {
	byCode = make(map[string]*entry, len(languages))
	for i := range languages {
		byCode[languages[i].code] = &languages[i]
	}
}

// Name returns the human-readable name for a language code, or the code
// itself when unknown.
func Name(code string) string {
	if e, ok := byCode[strings.ToLower(strings.TrimSpace(code))]; ok {
		return e.display
	}
	return code
}

// Detector resolves one ISO 639-1 code from a set of candidate texts,
// falling back to a configured code when detection is inconclusive.
type Detector interface {
	Detect(texts []string) string
}
