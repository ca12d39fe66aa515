package middleware

import (
	"net/http"

	assure "github.com/assurekit/assure"
)

// RequestIDParam is the query parameter that round-trips the pending
// authorization id through the sign-in pages. It is the recovery path
// after session eviction: the id must travel with the request itself, not
// inside the (possibly dead) session.
const RequestIDParam = "request_id"

// SecurityHeaders sets the Content-Security-Policy header on every
// response, deriving the form-action directive from whatever pending
// authorization the request can resolve. The directive is recomputed per
// request; a store failure degrades to the plain 'self' policy rather
// than failing the page.
func SecurityHeaders(engine *assure.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var pending *assure.PendingAuthorization

			if requestID := r.URL.Query().Get(RequestIDParam); requestID != "" && engine != nil {
				if p, err := engine.PendingAuthorization(r.Context(), requestID); err == nil {
					pending = p
				}
			}

			w.Header().Set("Content-Security-Policy", assure.FormActionDirective(pending))
			next.ServeHTTP(w, r)
		})
	}
}
