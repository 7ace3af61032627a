package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                              "/",
		"/metrics":                      "/metrics",
		"/v1/auth/login":                "/v1/auth/login",
		"/media/01J5ZK.pdf":             "/media/:file",
		"/v1/reports/upload":            "/v1/reports/upload",
		"/v1/reports/events":            "/v1/reports/events",
		"/v1/reports/abc":               "/v1/reports/:id",
		"/v1/reports/abc/insights":      "/v1/reports/:id/insights",
		"/v1/reports/abc/extra":         "/v1/reports/abc/extra",
		"/v1/reports/user/u1":           "/v1/reports/user/:id",
		"/v1/reports/user/u1/trends":    "/v1/reports/user/:id/trends",
		"/v1/reports/user/u1/other":     "/v1/reports/user/u1/other",
		"/v1/reports/abc?pretty=1":      "/v1/reports/:id",
		"/v1/reports/user/u1?extra=yes": "/v1/reports/user/:id",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
