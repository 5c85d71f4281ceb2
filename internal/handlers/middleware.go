package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ctxUsername = "username"

// userIdentity authenticates the request by bearer token or, when sessions are
// enabled and no Authorization header is sent, by the session cookie.
func (h *Handler) userIdentity(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		h.sessionIdentity(c)
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}

	h.acceptToken(c, parts[1])
}

func (h *Handler) sessionIdentity(c *gin.Context) {
	var token string
	if h.sessions != nil {
		if sess, err := h.sessions.Get(c.Request, sessionName); err == nil {
			token, _ = sess.Values[sessionTokenKey].(string)
		}
	}
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}
	h.acceptToken(c, token)
}

func (h *Handler) acceptToken(c *gin.Context, token string) {
	username, err := h.services.ParseToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	// store in Gin context
	c.Set(ctxUsername, username)
	c.Next()
}
