package auth

import (
	"encoding/base64"

	"github.com/xeptore/skyjam/must"
)

// The shared signing secret ships split across two obfuscated constants so
// it never appears as one contiguous string in distributed code. The real
// key is their byte-wise XOR. Carried verbatim from the mobile client.
const (
	keyPart1 = "VzeC4H4h+T2f0VI180nVX8x+Mb5HiTtGnKgH52Otj8ZCGDz9jRWyHb6QXK0JskSiOgzQfwTY5xgLLSdUSreaLVMsVVWfxfa8Rw=="
	keyPart2 = "ZAPnhUkYwQ6y5DdQxWThbvhJHN8msQ1rqJw0ggKdufQjelrKuiGGJI30aswkgCWTDyHkTGK9ynlqTkJ5L4CiGGUabGeo8M6JTQ=="
)

// SigningKey derives the fixed 73-byte HMAC key used for every stream
// request signature. Deterministic and account-independent; a decode
// failure is a build defect, not a runtime error.
func SigningKey() []byte {
	s1, err := base64.StdEncoding.DecodeString(keyPart1)
	must.NilErr(err)
	s2, err := base64.StdEncoding.DecodeString(keyPart2)
	must.NilErr(err)
	must.Be(len(s1) == len(s2), "obfuscated key halves must be of equal length")

	key := make([]byte, len(s1))
	for i := range s1 {
		key[i] = s1[i] ^ s2[i]
	}

	return key
}
