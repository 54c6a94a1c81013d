package httputil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xeptore/skyjam/httputil"
)

func TestParseKeyValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		expected map[string]string
	}{
		{
			name: "AuthResponse",
			body: "SID=sid-value\nLSID=lsid-value\nAuth=auth-token\nservices=sj,mail\n",
			expected: map[string]string{
				"SID":      "sid-value",
				"LSID":     "lsid-value",
				"Auth":     "auth-token",
				"services": "sj,mail",
			},
		},
		{
			name:     "ValueContainingEquals",
			body:     "Token=abc=def==\n",
			expected: map[string]string{"Token": "abc=def=="},
		},
		{
			name:     "CRLFLineEndings",
			body:     "Auth=auth-token\r\nError=\r\n",
			expected: map[string]string{"Auth": "auth-token", "Error": ""},
		},
		{
			name:     "NoTrailingNewline",
			body:     "Auth=auth-token",
			expected: map[string]string{"Auth": "auth-token"},
		},
		{
			name:     "SkipsKeylessLines",
			body:     "=orphan\njunk\n\nAuth=auth-token\n",
			expected: map[string]string{"Auth": "auth-token"},
		},
		{
			name:     "Empty",
			body:     "",
			expected: map[string]string{},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			assert.Exactly(t, test.expected, httputil.ParseKeyValues(test.body))
		})
	}
}
