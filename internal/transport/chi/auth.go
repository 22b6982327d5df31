package chi

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	gen "github.com/kailas-cloud/metasearch/internal/transport/generated"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// keyDigests holds the SHA-256 of every configured API key.
type keyDigests [][sha256.Size]byte

func newKeyDigests(apiKeys []string) keyDigests {
	var out keyDigests
	for _, k := range apiKeys {
		if k != "" {
			out = append(out, sha256.Sum256([]byte(k)))
		}
	}
	return out
}

// match compares the token against every key in constant time.
func (d keyDigests) match(token string) bool {
	sum := sha256.Sum256([]byte(token))
	found := 0
	for _, k := range d {
		found |= subtle.ConstantTimeCompare(k[:], sum[:])
	}
	return found == 1
}

// bearerToken extracts the credentials of a Bearer authorization header.
// The scheme is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// BearerAuthMiddleware returns a middleware that validates Bearer tokens.
// If apiKeys is empty, authentication is disabled (pass-through).
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	keys := newKeyDigests(apiKeys)

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			token, ok := bearerToken(auth)
			switch {
			case auth == "":
				unauthorized(w, "missing authorization header")
			case !ok:
				unauthorized(w, "authorization header must use Bearer scheme")
			case !keys.match(token):
				unauthorized(w, "invalid api key")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="metasearch"`)
	writeError(w, http.StatusUnauthorized, gen.ErrorCodeUnauthorized, msg)
}
