package handlers

import (
	"net/http"

	"visiverse/internal/models"

	"github.com/gin-gonic/gin"
)

// mediaResponse adds the short id used in links to a media record.
type mediaResponse struct {
	models.Media
	ShortID string `json:"short_id"`
}

func toMediaResponse(m models.Media) mediaResponse {
	if m.Tags == nil {
		m.Tags = []models.Tag{}
	}
	return mediaResponse{Media: m, ShortID: shortID(m.ID)}
}

// @Summary      List media
// @Tags         library
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, media"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/media [get]
// @Security     BearerAuth
func (h *Handler) listMedia(c *gin.Context) {
	items, err := h.services.ListMedia(c.Request.Context())
	if err != nil {
		h.respondError(c, "media_list_failed", err)
		return
	}
	out := make([]mediaResponse, 0, len(items))
	for _, m := range items {
		out = append(out, toMediaResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(out),
		"media": out,
	})
}

// @Summary      Media details
// @Description  Includes tags, people, organizations and collections.
// @Tags         library
// @Produce      json
// @Param        id   path      string  true  "UUID or base64url short id"
// @Success      200  {object}  mediaResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/media/{id} [get]
// @Security     BearerAuth
func (h *Handler) getMedia(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	m, err := h.services.MediaInfo(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "media_get_failed", err, "id", id)
		return
	}
	c.JSON(http.StatusOK, toMediaResponse(*m))
}

// @Summary      Person details
// @Tags         library
// @Produce      json
// @Param        id   path      string  true  "UUID or base64url short id"
// @Success      200  {object}  models.Person
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/people/{id} [get]
// @Security     BearerAuth
func (h *Handler) getPerson(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	p, err := h.services.PersonInfo(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "person_get_failed", err, "id", id)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      Organization details
// @Tags         library
// @Produce      json
// @Param        id   path      string  true  "UUID or base64url short id"
// @Success      200  {object}  models.Organization
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/orgs/{id} [get]
// @Security     BearerAuth
func (h *Handler) getOrganization(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	o, err := h.services.OrganizationInfo(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "organization_get_failed", err, "id", id)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary      Collection details
// @Tags         library
// @Produce      json
// @Param        id   path      string  true  "UUID or base64url short id"
// @Success      200  {object}  models.Collection
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/collections/{id} [get]
// @Security     BearerAuth
func (h *Handler) getCollection(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	col, err := h.services.CollectionInfo(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "collection_get_failed", err, "id", id)
		return
	}
	c.JSON(http.StatusOK, col)
}

// @Summary      List tags
// @Tags         library
// @Produce      json
// @Success      200  {array}   models.Tag
// @Router       /api/v1/tags [get]
// @Security     BearerAuth
func (h *Handler) listTags(c *gin.Context) {
	tags, err := h.services.ListTags(c.Request.Context())
	if err != nil {
		h.respondError(c, "tags_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

// @Summary      Library scan status
// @Tags         library
// @Produce      json
// @Success      200  {object}  models.ScanState
// @Router       /api/v1/library/status [get]
// @Security     BearerAuth
func (h *Handler) getScanState(c *gin.Context) {
	st, err := h.services.GetScanState(c.Request.Context())
	if err != nil {
		h.respondError(c, "scan_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Scan the library
// @Description  Runs one import pass over the media directory and returns its outcome.
// @Tags         library
// @Produce      json
// @Success      200  {object}  models.ScanState
// @Failure      409  {object}  map[string]string  "a scan is already running"
// @Router       /api/v1/library/scan [post]
// @Security     BearerAuth
func (h *Handler) startScan(c *gin.Context) {
	st, err := h.services.Scan(c.Request.Context())
	if err != nil {
		h.respondError(c, "scan_failed", err, "user", c.GetString(ctxUsername))
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Download media file
// @Tags         files
// @Param        id   path  string  true  "UUID or base64url short id"
// @Success      200
// @Failure      404  {object}  map[string]string
// @Router       /files/media/{id} [get]
// @Security     BearerAuth
func (h *Handler) serveMedia(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	path, err := h.services.MediaFile(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "media_file_failed", err, "id", id)
		return
	}
	c.File(path)
}

// @Summary      Download thumbnail
// @Tags         files
// @Produce      jpeg
// @Param        id   path  string  true  "UUID or base64url short id"
// @Success      200
// @Failure      404  {object}  map[string]string
// @Router       /files/thumbs/{id} [get]
// @Security     BearerAuth
func (h *Handler) serveThumb(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	path, err := h.services.ThumbFile(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "thumb_file_failed", err, "id", id)
		return
	}
	c.File(path)
}
