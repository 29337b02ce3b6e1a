package chi

import (
	"net/http"

	"github.com/kailas-cloud/transparencia/internal/domain"
)

// tokenParam is the query parameter carrying the access token.
const tokenParam = "token"

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// TokenAuthMiddleware returns a middleware that checks the token query
// parameter against an allow-list. An empty allow-list rejects every request.
func TokenAuthMiddleware(tokens []string) func(http.Handler) http.Handler {
	valid := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t != "" {
			valid[t] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token := r.URL.Query().Get(tokenParam)
			if _, ok := valid[token]; token == "" || !ok {
				writeError(w, http.StatusUnauthorized, domain.MsgUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
