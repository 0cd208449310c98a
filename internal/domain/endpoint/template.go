package endpoint

import (
	"strings"
)

// Substitute replaces every "{key}" in template with vars[key].
// Placeholders whose key is absent stay in the output as written.
// Values are inserted verbatim, without URL escaping, and are never rescanned.
func Substitute(template string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(template, "{") {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))

	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open+1:], '}')
		if end < 0 {
			b.WriteString(rest)
			break
		}
		end += open + 1

		key := rest[open+1 : end]
		if val, ok := vars[key]; ok && !strings.Contains(key, "{") {
			b.WriteString(rest[:open])
			b.WriteString(val)
			rest = rest[end+1:]
			continue
		}

		// Not a known key: keep the brace and scan again from the next byte
		b.WriteString(rest[:open+1])
		rest = rest[open+1:]
	}

	return b.String()
}
