package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go_trial/bistro/middleware"

	"github.com/golang-jwt/jwt"
)

func issueCookie(t *testing.T, body string) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/jwt", strings.NewReader(body))
	rec := httptest.NewRecorder()
	IssueTokenHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatal("no token cookie in response")
	return nil
}

func TestIssueTokenHandler_ClaimsRoundTrip(t *testing.T) {
	cookie := issueCookie(t, `{"email":"diner@example.com","role":"customer"}`)

	if !cookie.HttpOnly {
		t.Error("token cookie should be HttpOnly")
	}
	if cookie.MaxAge != 0 {
		t.Errorf("issued cookie should have no Max-Age, got %d", cookie.MaxAge)
	}

	token, err := jwt.Parse(cookie.Value, func(token *jwt.Token) (interface{}, error) {
		return secretKey(), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("issued token does not parse as valid: %v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("token claims are not a map")
	}
	if claims["email"] != "diner@example.com" {
		t.Errorf("unexpected email claim: %v", claims["email"])
	}
	if claims["role"] != "customer" {
		t.Errorf("unexpected role claim: %v", claims["role"])
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		t.Fatal("exp claim missing")
	}
	want := time.Now().Add(7 * 24 * time.Hour).Unix()
	if got := int64(exp); got < want-60 || got > want+60 {
		t.Errorf("exp should be ~7 days out, got %d want ~%d", got, want)
	}
}

func TestIssueTokenHandler_EnvConfiguredSecret(t *testing.T) {
	// The key must be read when the token is issued so a secret loaded from
	// .env at startup signs the session, not the empty init-time value.
	t.Setenv("SECRET_KEY", "supersecret")

	cookie := issueCookie(t, `{"email":"diner@example.com"}`)

	token, err := jwt.Parse(cookie.Value, func(token *jwt.Token) (interface{}, error) {
		return []byte("supersecret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("token is not signed with the configured SECRET_KEY: %v", err)
	}

	if _, err := jwt.Parse(cookie.Value, func(token *jwt.Token) (interface{}, error) {
		return []byte(""), nil
	}); err == nil {
		t.Error("token verified against the empty key; signing ignored SECRET_KEY")
	}
}

func TestIssueTokenHandler_InvalidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/jwt", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	IssueTokenHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestRemoveCookieHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/remove_cookie", nil)
	rec := httptest.NewRecorder()
	RemoveCookieHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var cleared *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			cleared = c
		}
	}
	if cleared == nil {
		t.Fatal("no token cookie in response")
	}
	if cleared.Value != "" {
		t.Errorf("cleared cookie should be empty, got %q", cleared.Value)
	}
	// net/http reports a wire Max-Age=0 as -1.
	if cleared.MaxAge != -1 {
		t.Errorf("cleared cookie should carry Max-Age=0, parsed MaxAge %d", cleared.MaxAge)
	}
}

func TestSessionCookie_EnvironmentAttributes(t *testing.T) {
	cookie := sessionCookie("v", 0)
	if cookie.Secure {
		t.Error("cookie should not be Secure outside production")
	}
	if cookie.SameSite != http.SameSiteStrictMode {
		t.Errorf("expected SameSite=Strict outside production, got %v", cookie.SameSite)
	}

	t.Setenv("APP_ENV", "production")
	cookie = sessionCookie("v", 0)
	if !cookie.Secure {
		t.Error("cookie should be Secure in production")
	}
	if cookie.SameSite != http.SameSiteNoneMode {
		t.Errorf("expected SameSite=None in production, got %v", cookie.SameSite)
	}
}

func TestCurrentSessionHandler_ThroughMiddleware(t *testing.T) {
	cookie := issueCookie(t, `{"email":"diner@example.com"}`)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()

	middleware.VerifyToken(http.HandlerFunc(CurrentSessionHandler)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "diner@example.com") {
		t.Errorf("session claims missing from response: %s", rec.Body.String())
	}
}

func TestToCents(t *testing.T) {
	cases := []struct {
		price float64
		want  int64
	}{
		{19.99, 1999},
		{10, 1000},
		{0, 0},
		{0.1, 10},
		{-5.5, -550},
	}
	for _, c := range cases {
		if got := toCents(c.price); got != c.want {
			t.Errorf("toCents(%v) = %d, want %d", c.price, got, c.want)
		}
	}
}
