package app

import (
	"net/http"
	"testing"

	"wedloft/api/internal/auth"
)

func TestSessionGate(t *testing.T) {
	ts := newTestServer(t)

	t.Run("no cookie", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/config", nil, nil)
		payload := assertErrorBody(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
		if payload["error"] != "Not authenticated" {
			t.Errorf("error = %v, want Not authenticated", payload["error"])
		}
	})

	t.Run("garbage cookie value", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/config", nil, &http.Cookie{Name: "session", Value: "not-a-session"})
		assertErrorBody(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
	})

	t.Run("tampered signature", func(t *testing.T) {
		value, err := auth.IssueCookieValue([]byte("some-other-secret"), auth.Session{
			UserID:          "usr_x",
			WeddingConfigID: "wed_x",
			LastActivity:    1,
		})
		if err != nil {
			t.Fatal(err)
		}
		rec := ts.do(t, http.MethodGet, "/api/config", nil, &http.Cookie{Name: "session", Value: value})
		assertErrorBody(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
	})

	t.Run("payload missing wedding config id", func(t *testing.T) {
		// Signed with the server's secret but structurally incomplete.
		value, err := auth.IssueCookieValue([]byte("test-secret"), auth.Session{
			UserID:       "usr_x",
			LastActivity: 1,
		})
		if err != nil {
			t.Fatal(err)
		}
		rec := ts.do(t, http.MethodGet, "/api/config", nil, &http.Cookie{Name: "session", Value: value})
		assertErrorBody(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
	})

	t.Run("valid cookie passes", func(t *testing.T) {
		cookie := ts.signUpAndSignIn(t, "gate@example.com")
		rec := ts.do(t, http.MethodGet, "/api/config", nil, cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
	})
}

func TestSessionIntrospection(t *testing.T) {
	ts := newTestServer(t)

	t.Run("unauthenticated", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/session", nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		payload := decodeResponse(t, rec)
		if payload["authenticated"] != false {
			t.Errorf("authenticated = %v, want false", payload["authenticated"])
		}
	})

	t.Run("authenticated", func(t *testing.T) {
		cookie := ts.signUpAndSignIn(t, "intro@example.com")
		rec := ts.do(t, http.MethodGet, "/api/session", nil, cookie)
		payload := decodeResponse(t, rec)
		if payload["authenticated"] != true {
			t.Fatalf("authenticated = %v, want true", payload["authenticated"])
		}
		if payload["userId"] == "" || payload["weddingConfigId"] == "" {
			t.Errorf("expected identifiers in %v", payload)
		}
	})
}

func TestSignInRequiresVerifiedEmail(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/auth/signup", map[string]any{
		"email":       "pending@example.com",
		"password":    "password123",
		"displayName": "Pending",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/signin", map[string]any{
		"email":    "pending@example.com",
		"password": "password123",
	}, nil)
	assertErrorBody(t, rec, http.StatusForbidden, "EMAIL_NOT_VERIFIED")
}

func TestSignOutRevokesSession(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.signUpAndSignIn(t, "signout@example.com")

	rec := ts.do(t, http.MethodPost, "/api/auth/signout", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("signout status = %d, body %s", rec.Code, rec.Body.String())
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected signout to expire the session cookie")
	}

	rec = ts.do(t, http.MethodGet, "/api/config", nil, cookie)
	assertErrorBody(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestPasswordResetFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.signUpAndSignIn(t, "reset@example.com")

	rec := ts.do(t, http.MethodPost, "/api/auth/reset-password/request", map[string]any{
		"email": "reset@example.com",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("request status = %d", rec.Code)
	}
	token, _ := decodeResponse(t, rec)["devResetToken"].(string)
	if token == "" {
		t.Fatal("expected devResetToken when SMTP is unconfigured")
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/reset-password", map[string]any{
		"token":       token,
		"newPassword": "freshpassword1",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/signin", map[string]any{
		"email":    "reset@example.com",
		"password": "freshpassword1",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("signin with new password status = %d, body %s", rec.Code, rec.Body.String())
	}

	t.Run("unknown email still succeeds", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/auth/reset-password/request", map[string]any{
			"email": "nobody@example.com",
		}, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if _, ok := decodeResponse(t, rec)["devResetToken"]; ok {
			t.Error("unknown email must not leak a reset token")
		}
	})
}
