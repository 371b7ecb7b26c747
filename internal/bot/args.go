package bot

import "strings"

// splitArgs tokenizes a command argument string the way a shell would:
// whitespace separates tokens, and single or double quotes group spaces
// into one token (color="matte black"). Quotes may start mid-token.
// An unterminated quote runs to the end of the input.
func splitArgs(s string) []string {
	var parts []string
	var cur strings.Builder
	var quote rune
	inToken := false

	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case r == ' ' || r == '\t' || r == '\n':
			if inToken {
				parts = append(parts, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if inToken {
		parts = append(parts, cur.String())
	}
	return parts
}

// parseKVArgs extracts key=value pairs from a command argument string.
// Tokens without an "=" are ignored; keys are lowercased; a later
// duplicate key wins.
func parseKVArgs(s string) map[string]string {
	out := map[string]string{}
	for _, part := range splitArgs(s) {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		out[strings.ToLower(k)] = v
	}
	return out
}
