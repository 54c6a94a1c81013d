package httputil

import (
	"strings"
)

// ParseKeyValues parses the newline-delimited key=value body format of
// Google's account authentication endpoints. Values may themselves contain
// '=' so only the first occurrence splits. Lines without a key are skipped.
func ParseKeyValues(body string) map[string]string {
	kv := make(map[string]string)
	for line := range strings.Lines(body) {
		line = strings.TrimRight(line, "\r\n")
		pos := strings.Index(line, "=")
		if pos > 0 {
			kv[line[:pos]] = line[pos+1:]
		}
	}

	return kv
}
