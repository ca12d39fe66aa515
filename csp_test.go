package assure

import "testing"

func TestFormActionDirectiveWithoutPendingRequest(t *testing.T) {
	if got := FormActionDirective(nil); got != "form-action 'self'" {
		t.Fatalf("expected the bare self directive, got %q", got)
	}
}

func TestFormActionDirectiveIncludesRedirectOrigin(t *testing.T) {
	cases := []struct {
		name        string
		redirectURI string
		want        string
	}{
		{
			name:        "http with port",
			redirectURI: "http://localhost:7654/auth/result",
			want:        "form-action 'self' http://localhost:7654",
		},
		{
			name:        "https default port",
			redirectURI: "https://sp.example.com/callback?foo=bar",
			want:        "form-action 'self' https://sp.example.com",
		},
		{
			name:        "origin only",
			redirectURI: "https://sp.example.com:8443",
			want:        "form-action 'self' https://sp.example.com:8443",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FormActionDirective(&PendingAuthorization{RedirectURI: tc.redirectURI})
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestFormActionDirectiveDegradesOnBadRedirect(t *testing.T) {
	for _, uri := range []string{"", "not a url", "/relative/path", "%%%"} {
		got := FormActionDirective(&PendingAuthorization{RedirectURI: uri})
		if got != "form-action 'self'" {
			t.Fatalf("expected self-only directive for %q, got %q", uri, got)
		}
	}
}
