package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Name tokens stay case-sensitive; only the salutation words ignore case.
var recipientPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i:уважаемый|уважаемая|добрый день|добрый вечер|доброе утро|здравствуйте|привет)[,\s!]*([А-ЯЁ][а-яё]+)\s+([А-ЯЁ][а-яё]+)`),
	regexp.MustCompile(`([А-ЯЁ][а-яё]+)\s+([А-ЯЁ][а-яё]+)[,\s]+(?i:уважаемый|уважаемая|добрый|здравствуйте)`),
	regexp.MustCompile(`(?i:обращаюсь к) ([А-ЯЁ][а-яё]+)\s+([А-ЯЁ][а-яё]+)`),
	regexp.MustCompile(`(?m)^[^А-ЯЁ]*([А-ЯЁ][а-яё]{2,15})\s+([А-ЯЁ][а-яё]{3,20})[,\s!]`),
}

var namePairPattern = regexp.MustCompile(`([А-ЯЁ][а-яё]{2,15})\s+([А-ЯЁ][а-яё]{3,20})`)

// Organisation nouns and salutation words that look like capitalized names.
var excludedNameWords = map[string]bool{
	"банк":         true,
	"компания":     true,
	"организация":  true,
	"фирма":        true,
	"предприятие":  true,
	"учреждение":   true,
	"уважаемый":    true,
	"уважаемая":    true,
	"уважаемые":    true,
	"добрый":       true,
	"доброе":       true,
	"здравствуйте": true,
	"привет":       true,
	"обращаюсь":    true,
}

// Markers that precede the sender's own name or title rather than the recipient's.
var signatureMarkers = []string{"с уважением", "заместитель", "директор", "менеджер"}

const (
	recipientScanRunes   = 300
	recipientContextRune = 20
)

// RecipientName is the addressee found in an inbound email.
type RecipientName struct {
	First  string
	Second string
}

func (n RecipientName) String() string {
	return n.First + " " + n.Second
}

// RecipientNameExtractor locates the addressee's name for personalized greetings.
type RecipientNameExtractor struct{}

func NewRecipientNameExtractor() *RecipientNameExtractor {
	return &RecipientNameExtractor{}
}

// Extract returns the first acceptable two-token name in subject and body.
func (x *RecipientNameExtractor) Extract(subject, body string) (RecipientName, bool) {
	text := subject + " " + body

	for _, re := range recipientPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if acceptableName(m[1], m[2]) {
				return RecipientName{First: m[1], Second: m[2]}, true
			}
		}
	}

	beginning := firstRunes(text, recipientScanRunes)
	for _, loc := range namePairPattern.FindAllStringSubmatchIndex(beginning, -1) {
		first := beginning[loc[2]:loc[3]]
		second := beginning[loc[4]:loc[5]]

		before := strings.ToLower(lastRunes(beginning[:loc[0]], recipientContextRune))
		if containsAny(before, signatureMarkers) {
			continue
		}
		if acceptableName(first, second) {
			return RecipientName{First: first, Second: second}, true
		}
	}

	return RecipientName{}, false
}

// Format returns "First Second" when a name is found.
func (x *RecipientNameExtractor) Format(subject, body string) (string, bool) {
	name, ok := x.Extract(subject, body)
	if !ok {
		return "", false
	}
	return name.String(), true
}

func acceptableName(first, second string) bool {
	fl := utf8.RuneCountInString(first)
	sl := utf8.RuneCountInString(second)
	if fl < 2 || fl > 20 || sl < 2 || sl > 25 {
		return false
	}
	return !excludedNameWords[strings.ToLower(first)] && !excludedNameWords[strings.ToLower(second)]
}

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func lastRunes(s string, n int) string {
	start := len(s)
	for i := 0; i < n && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(s[:start])
		start -= size
	}
	return s[start:]
}
