package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var errBadID = errors.New("id must be a UUID or its 22-character base64url form")

// shortID encodes id as unpadded URL-safe base64.
func shortID(id uuid.UUID) string {
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// parseID accepts the canonical UUID text form or the short form from shortID.
func parseID(s string) (uuid.UUID, error) {
	if len(s) == base64.RawURLEncoding.EncodedLen(len(uuid.UUID{})) {
		b, err := base64.RawURLEncoding.DecodeString(s)
		if err != nil {
			return uuid.Nil, errBadID
		}
		return uuid.FromBytes(b)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errBadID
	}
	return id, nil
}

// pathID parses the :id parameter, writing a 400 on failure.
func (h *Handler) pathID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Param("id")
	id, err := parseID(raw)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errInvalidID, "bad_path_id", err, "id", raw)
		return uuid.Nil, false
	}
	return id, true
}
