package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolve_AuthenticatedFromHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/cart", nil)
	r.Header.Set(UserHeader, "42")
	w := httptest.NewRecorder()

	identity, err := Resolver{}.Resolve(w, r)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !identity.IsAuthenticated() || identity.UserID != 42 {
		t.Errorf("expected authenticated user 42, got %+v", identity)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("expected no session cookie for an authenticated request")
	}
}

func TestResolve_MalformedHeader(t *testing.T) {
	for _, v := range []string{"abc", "0", "-5"} {
		r := httptest.NewRequest(http.MethodGet, "/cart", nil)
		r.Header.Set(UserHeader, v)
		w := httptest.NewRecorder()

		if _, err := (Resolver{}).Resolve(w, r); err == nil {
			t.Errorf("expected error for header %q", v)
		}
	}
}

func TestResolve_AnonymousMintsSession(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/cart", nil)
	w := httptest.NewRecorder()

	identity, err := Resolver{}.Resolve(w, r)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if identity.IsAuthenticated() || identity.SessionID == "" {
		t.Fatalf("expected anonymous identity with session id, got %+v", identity)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName {
		t.Fatalf("expected %s cookie set, got %v", CookieName, cookies)
	}
	if cookies[0].Value != identity.SessionID {
		t.Errorf("cookie %q does not match identity session %q", cookies[0].Value, identity.SessionID)
	}
}

func TestResolve_AnonymousReusesExistingSession(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/cart", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "existing-session"})
	w := httptest.NewRecorder()

	identity, err := Resolver{}.Resolve(w, r)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if identity.SessionID != "existing-session" {
		t.Errorf("expected stable session id, got %q", identity.SessionID)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("expected no new cookie when one already exists")
	}
}

func TestSessionID_NoCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/cart", nil)
	if got := (Resolver{}).SessionID(r); got != "" {
		t.Errorf("expected empty session id, got %q", got)
	}
}

func TestClearSession(t *testing.T) {
	w := httptest.NewRecorder()
	ClearSession(w)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Fatalf("expected expired %s cookie, got %v", CookieName, cookies)
	}
}
