// Package extract recovers structured payloads from free-form model output.
// Model replies are unreliable prose around the payload, so every extractor
// treats a missing match as a normal outcome and never fails.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedJSONPattern = regexp.MustCompile("(?s)```json(.*?)```")
	bracePattern      = regexp.MustCompile(`(?s)\{.*?\}`)
	sqlPattern        = regexp.MustCompile(`(?is)\b(?:SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP|WITH)\b.*?;`)
	sectionTagPattern = regexp.MustCompile(`\[[A-Za-z0-9_]+\]`)
)

// JSON finds the first parseable JSON object in the text. Fenced ```json
// blocks are preferred; otherwise the first brace-delimited spans are tried.
// Candidates that fail to parse are retried once with control characters
// stripped. ok is false when no candidate parses.
func JSON(text string) (map[string]any, bool) {
	var candidates []string
	for _, m := range fencedJSONPattern.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}
	if len(candidates) == 0 {
		candidates = bracePattern.FindAllString(text, -1)
	}

	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		var parsed map[string]any
		if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
			return parsed, true
		}
		cleaned := stripControl(candidate)
		if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil {
			return parsed, true
		}
	}
	return nil, false
}

// JSONInto extracts like JSON and decodes the result into out.
func JSONInto(text string, out any) bool {
	parsed, ok := JSON(text)
	if !ok {
		return false
	}
	data, err := json.Marshal(parsed)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7F {
			return -1
		}
		return r
	}, s)
}

// SQL returns every statement in the text that starts with a DDL/DML keyword
// and ends at the next semicolon, in order of appearance.
func SQL(text string) []string {
	matches := sqlPattern.FindAllString(text, -1)
	statements := make([]string, 0, len(matches))
	for _, m := range matches {
		statements = append(statements, strings.TrimSpace(m))
	}
	return statements
}

// Section returns the body following a bracket-tagged [label], up to the next
// bracket tag or end of text. An absent label yields "".
func Section(text, label string) string {
	marker := "[" + label + "]"
	idx := strings.Index(text, marker)
	if idx < 0 {
		return ""
	}
	rest := text[idx+len(marker):]
	if loc := sectionTagPattern.FindStringIndex(rest); loc != nil {
		rest = rest[:loc[0]]
	}
	return strings.TrimSpace(rest)
}
