package extraction

import (
	"regexp"
	"strings"
)

// Phones, e-mail addresses and Russian company registry numbers, in report order.
var contactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{10,11}\b`),
	regexp.MustCompile(`\b[\w.-]+@[\w.-]+\.\w+\b`),
	regexp.MustCompile(`(?i)ИНН\s*:?\s*\d{10,12}`),
	regexp.MustCompile(`(?i)ОГРН\s*:?\s*\d{13,15}`),
	regexp.MustCompile(`(?i)БИК\s*:?\s*\d{9}`),
}

// ExtractContactInfo returns every contact detail found in text joined by ", ".
func ExtractContactInfo(text string) (string, bool) {
	var found []string
	for _, re := range contactPatterns {
		found = append(found, re.FindAllString(text, -1)...)
	}
	if len(found) == 0 {
		return "", false
	}
	return strings.Join(found, ", "), true
}
