package llm

import (
	"errors"
	"strings"
)

// ErrNoJSONObject means the reply contained no balanced {...} object.
var ErrNoJSONObject = errors.New("no JSON object in model reply")

// ExtractJSONObject returns the first balanced-brace object in s. Braces inside
// JSON strings are ignored, so prose, Markdown fences and trailing chatter
// around the object are tolerated.
func ExtractJSONObject(s string) (string, error) {
	for start := strings.IndexByte(s, '{'); start != -1; {
		if end := matchBrace(s, start); end != -1 {
			return s[start : end+1], nil
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next == -1 {
			break
		}
		start += next + 1
	}
	return "", ErrNoJSONObject
}

// matchBrace returns the index of the brace closing s[start], or -1.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
