// Package sign implements the per-track request signature scheme of the
// mplay stream endpoint: a fresh 13-character nonce is mixed with the track
// identifier under a keyed SHA-1 and sent alongside fixed playback
// parameters. Everything here is pure so it can be tested in isolation.
package sign

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec
	"encoding/base64"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"
)

const (
	saltAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

	// SaltLength is the nonce length the stream endpoint expects.
	SaltLength = 13

	// AllAccessPrefix is the sentinel first character of catalog ("all
	// access") track identifiers, as opposed to uploaded library tracks.
	AllAccessPrefix = "T"
)

// Salt draws n characters uniformly from the lowercase alphanumeric
// alphabet. The server treats it as a nonce, not a secret, so math/rand is
// enough; IntN keeps the draw unbiased.
func Salt(n int) string {
	var b strings.Builder
	b.Grow(n)
	for range n {
		b.WriteByte(saltAlphabet[rand.IntN(len(saltAlphabet))]) //nolint:gosec
	}

	return b.String()
}

// Track computes the stream request signature for a track id and salt:
// unpadded URL-safe base64 of HMAC-SHA1(key, id||salt).
func Track(id string, key []byte, salt string) string {
	mac := hmac.New(sha1.New, key)
	mac.Write([]byte(id + salt))

	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// IsAllAccess reports whether id is a catalog track identifier. The
// distinction routes the id to the mjck query parameter instead of songid
// and selects the numeric source/type codes of mutation payloads.
func IsAllAccess(id string) bool {
	return strings.HasPrefix(id, AllAccessPrefix)
}

// SourceCode is the numeric "source"/"type" code accompanying mutation and
// stats payloads: 2 for catalog tracks, 1 for uploaded library tracks.
func SourceCode(id string) int {
	if IsAllAccess(id) {
		return 2
	}

	return 1
}

// StreamParams assembles the query parameters of a signed stream request.
// The track id lands under exactly one of mjck or songid.
func StreamParams(accountIndex int, id, salt, sig string) url.Values {
	qp := make(url.Values, 7)
	qp.Set("u", strconv.Itoa(accountIndex))
	qp.Set("net", "wifi")
	qp.Set("pt", "e")
	qp.Set("targetkbps", "8310")
	qp.Set("slt", salt)
	qp.Set("sig", sig)
	if IsAllAccess(id) {
		qp.Set("mjck", id)
	} else {
		qp.Set("songid", id)
	}

	return qp
}
