package llm

import (
	"strings"

	"bizmail_server/core/domain"
)

// LogoPlaceholder marks where the client renders the bank logo.
const LogoPlaceholder = "[LOGO]"

const signatureOpener = "С уважением,"

// positionBreakWords end a line when wrapping a job title.
var positionBreakWords = map[string]bool{
	"отдела":       true,
	"управления":   true,
	"департамента": true,
}

// BuildSignature assembles the signature block for a sender.
func BuildSignature(s *domain.SenderIdentity) string {
	if s == nil {
		s = &domain.SenderIdentity{}
	}

	lines := []string{signatureOpener}
	if s.LastName != "" {
		lines = append(lines, s.LastName)
	}
	if name := strings.TrimSpace(s.FirstName + " " + s.MiddleName); name != "" {
		lines = append(lines, name, "", "")
	}
	if s.Position != "" {
		lines = append(lines, WrapPosition(s.Position)...)
		lines = append(lines, "", "")
	}
	for _, v := range []string{s.PhoneWork, s.PhoneMobile, s.Email} {
		if v != "" {
			lines = append(lines, v)
		}
	}
	if s.Address != "" {
		lines = append(lines, SplitAddress(s.Address)...)
		lines = append(lines, "", "")
	}
	for _, v := range []string{s.Hotline, s.Website} {
		if v != "" {
			lines = append(lines, v)
		}
	}
	lines = append(lines, "", LogoPlaceholder)

	return strings.TrimRight(strings.Join(lines, "\n"), " \t\n")
}

// WrapPosition breaks a job title after every "отдела", "управления" or
// "департамента", so each unit keyword ends its line.
func WrapPosition(position string) []string {
	var (
		lines   []string
		current []string
	)
	for _, word := range strings.Fields(position) {
		current = append(current, word)
		if positionBreakWords[word] {
			lines = append(lines, strings.Join(current, " "))
			current = nil
		}
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}
	if len(lines) == 0 {
		return []string{position}
	}
	return lines
}

// SplitAddress puts the part from the city marker "г." onwards on its own
// line when a comma precedes the marker.
func SplitAddress(address string) []string {
	city := strings.Index(address, "г.")
	if city < 0 {
		return []string{address}
	}
	comma := strings.LastIndex(address[:city], ",")
	if comma < 0 {
		return []string{address}
	}

	lines := []string{strings.TrimSpace(address[:comma+1])}
	if rest := strings.TrimSpace(address[comma+1:]); rest != "" {
		lines = append(lines, rest)
	}
	return lines
}

// StripSignature removes the last signature block, from its opener to the
// end of the body, along with blank lines before it.
func StripSignature(body string) string {
	lines := strings.Split(body, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if isSignatureOpener(lines[i]) {
			lines = lines[:i]
			break
		}
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimRight(strings.Join(lines, "\n"), " \t\n")
}

// InjectSignature replaces any trailing signature in body with signature,
// separated from the text by two blank lines.
func InjectSignature(body, signature string) string {
	body = StripSignature(body)
	if strings.TrimSpace(body) == "" {
		return signature
	}
	return body + "\n\n\n" + signature
}
