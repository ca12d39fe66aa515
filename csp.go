package assure

import "net/url"

// FormActionDirective derives the Content-Security-Policy form-action
// directive from the pending authorization resolvable for the current
// request. With a pending request the directive additionally permits the
// exact origin of its redirect URI, so the eventual form submission back
// to the relying party is not blocked by the page's own policy.
//
// The function is pure: callers must recompute it per response, because
// the pending request — and therefore the permitted submission target —
// can change between page loads of the same sign-in flow.
func FormActionDirective(pending *PendingAuthorization) string {
	const self = "form-action 'self'"

	if pending == nil {
		return self
	}

	origin := redirectOrigin(pending.RedirectURI)
	if origin == "" {
		return self
	}

	return self + " " + origin
}

// redirectOrigin reduces a redirect URI to its scheme://host[:port]
// origin. Anything unparseable or schemeless yields "" and the directive
// stays at 'self'.
func redirectOrigin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
