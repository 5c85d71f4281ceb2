package handlers

import (
	"errors"
	"net/http"
	"time"

	"visiverse/internal/service"

	"github.com/gin-gonic/gin"
)

var queryTimeLayouts = []struct {
	layout   string
	dateOnly bool
}{
	{layout: time.RFC3339},
	{layout: "2006-01-02 15:04:05"},
	{layout: "2006-01-02", dateOnly: true},
}

var errBadQueryTime = errors.New("use RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'")

type logsQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
	Type string `form:"type"`
}

// filter converts the raw query into a service filter. A date-only upper bound
// covers the whole day.
func (q logsQuery) filter() (service.LogFilter, string, error) {
	var f service.LogFilter
	var err error
	if q.From != "" {
		if f.From, _, err = parseQueryTime(q.From); err != nil {
			return f, "from", err
		}
	}
	if q.To != "" {
		var dateOnly bool
		if f.To, dateOnly, err = parseQueryTime(q.To); err != nil {
			return f, "to", err
		}
		if dateOnly {
			f.To = f.To.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
	}
	f.Type = q.Type
	return f, "", nil
}

// parseQueryTime reads s as UTC and reports whether it carried a time of day.
func parseQueryTime(s string) (time.Time, bool, error) {
	for _, l := range queryTimeLayouts {
		if t, err := time.Parse(l.layout, s); err == nil {
			return t.UTC(), l.dateOnly, nil
		}
	}
	return time.Time{}, false, errBadQueryTime
}

// @Summary      List library activity
// @Description  Filter events by time (RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'). A date-only 'to' includes the whole day.
// @Tags         logs
// @Produce      json
// @Param        from  query   string  false  "Start of range"  example(2025-08-01)
// @Param        to    query   string  false  "End of range"  example(2025-08-31)
// @Param        type  query   string  false  "Event type"  Enums(SCAN,IMPORT,THUMBNAIL,ERROR)
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/logs [get]
// @Security     BearerAuth
func (h *Handler) getLogs(c *gin.Context) {
	var q logsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, "invalid query", "logs_bad_query", err)
		return
	}
	f, field, err := q.filter()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid '" + field + "' time: " + err.Error()})
		return
	}

	events, err := h.services.EventLog.List(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, "logs_list_failed", err, "from", f.From, "to", f.To, "type", f.Type)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(events), "events": events})
}
