package game

import "strings"

// ParseDirectMessage splits "@receiver rest of message" into its receiver and
// text. ok is false when the text doesn't start with a named receiver.
func ParseDirectMessage(text string) (receiver, body string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "@") {
		return "", "", false
	}

	head, rest, _ := strings.Cut(text[1:], " ")
	if head == "" {
		return "", "", false
	}
	return head, strings.TrimSpace(rest), true
}
