package llm

import (
	"regexp"
	"strings"
)

// DefaultSubject is used when the model reply carries no subject marker.
const DefaultSubject = "Заготовка ответа"

const (
	subjectMarker = "Тема:"
	bodyMarker    = "Тело:"

	// signatureWindow is the largest line distance at which two signature
	// openers are treated as one duplicated block.
	signatureWindow = 10
)

var (
	subjectPattern   = regexp.MustCompile(`Тема:[ \t]*(.*)`)
	routingPattern   = regexp.MustCompile(`(?i)^\s*направить\s+в\s+\S`)
	signaturePattern = regexp.MustCompile(`(?i)^с уважением`)
	escapedBreaks    = strings.NewReplacer(`\n`, " ", `\r`, " ")
)

// Normalize splits raw model output into a subject and a clean body.
// The body follows the first "Тело:" marker, or is the whole text when there
// is none; the subject segment is removed from it either way.
// Normalize(JoinReply(Normalize(x))) returns the same pair as Normalize(x).
func Normalize(raw string) (subject, body string) {
	subject = DefaultSubject
	text := raw

	if loc := subjectPattern.FindStringSubmatchIndex(raw); loc != nil {
		end := loc[3]
		line := raw[loc[2]:loc[3]]
		if i := strings.Index(line, bodyMarker); i >= 0 {
			line = line[:i]
			end = loc[2] + i
		}
		if s := collapseWhitespace(line); s != "" {
			subject = s
		}
		text = raw[:loc[0]] + raw[end:]
	}

	if i := strings.Index(text, bodyMarker); i >= 0 {
		text = text[i+len(bodyMarker):]
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	lines = stripRoutingMarkers(lines)
	lines = dropDuplicateSignatures(lines)
	return subject, strings.Join(trimBlankLines(lines), "\n")
}

// JoinReply renders a subject and body in the two-marker reply format.
func JoinReply(subject, body string) string {
	return subjectMarker + " " + subject + "\n" + bodyMarker + "\n" + body
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(escapedBreaks.Replace(s)), " ")
}

// stripRoutingMarkers removes "Направить в ..." lines from the end of the body.
func stripRoutingMarkers(lines []string) []string {
	end := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i] == "" {
			continue
		}
		if !routingPattern.MatchString(lines[i]) {
			break
		}
		end = i
	}
	return lines[:end]
}

// dropDuplicateSignatures keeps only the last of several signature blocks
// that start within signatureWindow lines of each other.
func dropDuplicateSignatures(lines []string) []string {
	for {
		idx := signatureLines(lines)
		if len(idx) < 2 {
			return lines
		}
		last, prev := idx[len(idx)-1], idx[len(idx)-2]
		if last-prev > signatureWindow {
			return lines
		}
		lines = append(lines[:prev:prev], lines[last:]...)
	}
}

func signatureLines(lines []string) []int {
	var idx []int
	for i, line := range lines {
		if isSignatureOpener(line) {
			idx = append(idx, i)
		}
	}
	return idx
}

func isSignatureOpener(line string) bool {
	return signaturePattern.MatchString(strings.TrimSpace(line))
}

func trimBlankLines(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
