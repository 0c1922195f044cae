package cloudinary

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// signParams produces the API signature for a mutating request: all signed
// params sorted by key, joined as k=v pairs with &, with the API secret
// appended, hashed with SHA-1.
func signParams(params url.Values, apiSecret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params.Get(k))
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + apiSecret))
	return hex.EncodeToString(sum[:])
}

// encodeContext flattens key/value metadata into the pipe-delimited context
// wire form. Keys are sorted so the same metadata always signs identically;
// the separator characters are escaped inside values.
func encodeContext(metadata map[string]string) string {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+escapeContextValue(metadata[k]))
	}
	return strings.Join(pairs, "|")
}

func escapeContextValue(v string) string {
	v = strings.ReplaceAll(v, "=", `\=`)
	v = strings.ReplaceAll(v, "|", `\|`)
	return v
}
