package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// AnonymousUser is the identity used for unauthenticated requests
const AnonymousUser = "anonymous"

// RequestKey builds the deterministic fingerprint for a cached response:
// prefix, route, user identity and the request's query parameters. The same
// route/user/params always produce the same key regardless of parameter
// order.
func RequestKey(prefix, route, user string, query url.Values) string {
	if user == "" {
		user = AnonymousUser
	}

	route = strings.Trim(route, "/")
	route = strings.ReplaceAll(route, "/", ".")

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte(':')
	b.WriteString(route)
	b.WriteByte(':')
	b.WriteString(user)

	if h := hashQuery(query); h != "" {
		b.WriteByte(':')
		b.WriteString(h)
	}

	return b.String()
}

// hashQuery produces a short stable digest of the query parameters
func hashQuery(query url.Values) string {
	if len(query) == 0 {
		return ""
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		vals := append([]string(nil), query[k]...)
		sort.Strings(vals)

		for _, v := range vals {
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(v)
			b.WriteByte('&')
		}
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}
