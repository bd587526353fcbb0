package domain

import "strings"

// ParseCommand splits a prefixed message into its command token and arguments. The second return value is false
// when text does not start with prefix. Text consisting of only the prefix yields an empty command token.
func ParseCommand(text, prefix string) (ParsedCommand, bool) {
	if text == "" || !strings.HasPrefix(text, prefix) {
		return ParsedCommand{}, false
	}

	fields := strings.Fields(strings.TrimPrefix(text, prefix))
	if len(fields) == 0 {
		return ParsedCommand{Args: []string{}}, true
	}

	return ParsedCommand{Command: fields[0], Args: fields[1:]}, true
}
