package sessiongate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventix/ticketing/internal/core/domain"
)

func TestAPIClient_CheckSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/session" {
			http.NotFound(w, r)
			return
		}
		ck, err := r.Cookie(CookieName)
		if err != nil || ck.Value != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"user","account":{"id":12,"username":"alice"}}`))
	}))
	t.Cleanup(srv.Close)

	c := NewAPIClient(srv.URL+"/", nil)

	sess, err := c.CheckSession(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, &Session{Type: domain.AccountUser, AccountID: 12}, sess)

	_, err = c.CheckSession(context.Background(), "bad")
	assert.True(t, errors.Is(err, ErrSessionRejected))
}

func TestAPIClient_IncompletePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"type":"admin","account":{"id":1}}`))
	}))
	t.Cleanup(srv.Close)

	_, err := NewAPIClient(srv.URL, nil).CheckSession(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrSessionRejected)
}

func TestAPIClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewAPIClient(url, nil).CheckSession(context.Background(), "tok")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrSessionRejected))
}

func TestAPIClient_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body loginPayload
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch {
		case r.URL.Path == "/auth/promotor/login" && body.Data == "acme" && body.Password == "pw":
			http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "promotor-token", HttpOnly: true})
			_, _ = w.Write([]byte(`{"message":"Login Success"}`))
		case body.Data == "nocookie":
			_, _ = w.Write([]byte(`{"message":"Login Success"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Login Failed"}`))
		}
	}))
	t.Cleanup(srv.Close)

	c := NewAPIClient(srv.URL, nil)

	tok, err := c.Login(context.Background(), domain.AccountPromotor, "acme", "pw")
	require.NoError(t, err)
	assert.Equal(t, "promotor-token", tok)

	_, err = c.Login(context.Background(), domain.AccountUser, "acme", "pw")
	assert.ErrorIs(t, err, ErrLoginFailed)

	_, err = c.Login(context.Background(), domain.AccountUser, "nocookie", "pw")
	assert.ErrorIs(t, err, ErrLoginFailed)
}

func TestAPIClient_Verify(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		paths = append(paths, r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/good") {
			_, _ = w.Write([]byte(`"Verify Success"`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"verify account: invalid token: expired"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewAPIClient(srv.URL, nil)

	require.NoError(t, c.Verify(context.Background(), domain.AccountUser, "good"))
	require.NoError(t, c.Verify(context.Background(), domain.AccountPromotor, "good"))

	err := c.Verify(context.Background(), domain.AccountUser, "old")
	assert.ErrorIs(t, err, ErrRequestRejected)
	assert.Contains(t, err.Error(), "expired")

	assert.Equal(t, []string{"/auth/verify/good", "/auth/promotor/verify/good", "/auth/verify/old"}, paths)
}

func TestAPIClient_ResetPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body resetPayload
		_ = json.NewDecoder(r.Body).Decode(&body)
		if r.Method == http.MethodPatch && r.URL.Path == "/auth/password/reset/tok" &&
			body.Password == "new" && body.ConfirmPassword == "new" {
			_, _ = w.Write([]byte(`{"message":"Reset Password Success"}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	c := NewAPIClient(srv.URL, nil)

	require.NoError(t, c.ResetPassword(context.Background(), "tok", "new", "new"))

	err := c.ResetPassword(context.Background(), "tok", "new", "other")
	assert.ErrorIs(t, err, ErrRequestRejected)
	assert.Contains(t, err.Error(), "status 400")
}
