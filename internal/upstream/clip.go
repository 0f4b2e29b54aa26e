package upstream

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/tidwall/pretty"
)

// clipForLog compacts a JSON body and cuts it to maxBytes. The digest of the
// full body is returned only when it was cut.
func clipForLog(body []byte, maxBytes int) ([]byte, bool, int, string) {
	out := body
	if looksLikeJSON(body) {
		out = pretty.Ugly(body)
	}
	if maxBytes <= 0 || len(out) <= maxBytes {
		return out, false, len(body), ""
	}
	sum := sha256.Sum256(body)
	return out[:maxBytes], true, len(body), hex.EncodeToString(sum[:])
}

func looksLikeJSON(body []byte) bool {
	for _, b := range body {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{', '[':
			return true
		default:
			return false
		}
	}
	return false
}
