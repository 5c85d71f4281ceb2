package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visiverse/internal/service"
)

// guardedRouter mounts userIdentity in front of an endpoint echoing the username.
func guardedRouter(auth *mockAuth, opts ...Option) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(&service.Service{Authorization: auth}, nil, opts...)
	r := gin.New()
	r.GET("/secure", h.userIdentity, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": c.GetString(ctxUsername)})
	})
	return r
}

func withTestSessions() Option {
	return WithSessions(NewSessionStore([]byte("0123456789abcdef0123456789abcdef"), time.Hour))
}

func TestUserIdentity_Rejects(t *testing.T) {
	cases := []struct {
		name     string
		header   string
		parseErr error
		wantMsg  string
	}{
		{name: "no credentials", wantMsg: "missing Authorization header"},
		{name: "wrong scheme", header: "Token abc", wantMsg: "invalid Authorization header format"},
		{name: "scheme only", header: "Bearer", wantMsg: "invalid Authorization header format"},
		{name: "lowercase scheme", header: "bearer abc", wantMsg: "invalid Authorization header format"},
		{name: "rejected token", header: "Bearer expired", parseErr: errors.New("expired"), wantMsg: "invalid or expired token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := guardedRouter(&mockAuth{parseErr: tc.parseErr})
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusUnauthorized, w.Code)
			var out struct {
				Error string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
			assert.Equal(t, tc.wantMsg, out.Error)
		})
	}
}

func TestUserIdentity_BearerAccepted(t *testing.T) {
	auth := &mockAuth{parseUser: "alice"}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	guardedRouter(auth).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"username":"alice"}`, w.Body.String())
	assert.Equal(t, "good-token", auth.lastParseToken)
}

func TestUserIdentity_BearerWinsOverSession(t *testing.T) {
	auth := &mockAuth{parseUser: "bob"}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: sessionName, Value: "garbage"})
	guardedRouter(auth, withTestSessions()).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "header-token", auth.lastParseToken)
}

func TestUserIdentity_TamperedSessionRejected(t *testing.T) {
	auth := &mockAuth{parseUser: "bob"}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.AddCookie(&http.Cookie{Name: sessionName, Value: "garbage"})
	guardedRouter(auth, withTestSessions()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, auth.lastParseToken)
}
