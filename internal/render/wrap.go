package render

import "strings"

// WrapText breaks text into lines of at most maxLen runes, splitting on
// whitespace. A single word longer than maxLen gets its own line rather
// than being chopped mid-word.
func WrapText(text string, maxLen int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxLen <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len([]rune(current))+1+len([]rune(word)) <= maxLen {
			current += " " + word
		} else {
			lines = append(lines, current)
			current = word
		}
	}
	return append(lines, current)
}
