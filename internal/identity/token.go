package identity

import (
	"net/http"
	"strings"
)

// TokenFromRequest pulls the caller's bearer credential from the standard
// Authorization header, falling back to the ?authorization query parameter
// for clients that cannot set headers. It never rejects: an empty result
// means anonymous, and requiring a credential is the endpoint's concern.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("authorization")
}

// Attach re-attaches the credential to an outbound request so downstream
// calls authenticate as the original caller, not as a service account.
func Attach(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
