package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visiverse/internal/models"
	"visiverse/internal/service"
)

func requestLogs(t *testing.T, logs *mockEventLog, query string) *httptest.ResponseRecorder {
	t.Helper()
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseUser: "viewer"}, EventLog: logs})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs"+query, nil)
	req.Header.Set("Authorization", "Bearer valid")
	r.ServeHTTP(w, req)
	return w
}

func TestLogsHandler_List(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	logs := &mockEventLog{resp: []models.LibraryEvent{
		{EventID: "e1", OccurredAt: now, Type: models.EventScan, Description: "library scan started"},
		{EventID: "e2", OccurredAt: now.Add(time.Second), Type: models.EventImport, Description: "imported a.mp4"},
	}}

	q := fmt.Sprintf("?from=%s&to=%s&type=import", now.Format(time.RFC3339), now.Add(2*time.Second).Format(time.RFC3339))
	w := requestLogs(t, logs, q)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		Count  int                   `json:"count"`
		Events []models.LibraryEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, 2, out.Count)
	assert.Len(t, out.Events, 2)
	assert.Equal(t, "import", logs.lastType)
	assert.True(t, logs.lastFrom.Equal(now))
}

func TestLogsHandler_QueryTimes(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode int
		wantFrom time.Time
		wantTo   time.Time
	}{
		{
			name:     "date only to covers the day",
			query:    "?from=2025-08-01&to=2025-08-31",
			wantCode: http.StatusOK,
			wantFrom: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2025, 8, 31, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC),
		},
		{
			name:     "date time without zone",
			query:    "?to=2025-08-31+10:00:00",
			wantCode: http.StatusOK,
			wantTo:   time.Date(2025, 8, 31, 10, 0, 0, 0, time.UTC),
		},
		{name: "bad from", query: "?from=notatime", wantCode: http.StatusBadRequest},
		{name: "bad to", query: "?to=31/08/2025", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := &mockEventLog{}
			w := requestLogs(t, logs, tt.query)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}
			assert.True(t, logs.lastFrom.Equal(tt.wantFrom), "from %v", logs.lastFrom)
			assert.True(t, logs.lastTo.Equal(tt.wantTo), "to %v", logs.lastTo)
		})
	}
}

func TestLogsHandler_InvalidFilterIsBadRequest(t *testing.T) {
	logs := &mockEventLog{err: fmt.Errorf("%w: unknown event type", service.ErrInvalidFilter)}
	w := requestLogs(t, logs, "?type=bogus")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogsHandler_RouteWithoutTrailingSlash(t *testing.T) {
	logs := &mockEventLog{}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseUser: "viewer"}, EventLog: logs})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs?type=scan", nil)
	req.Header.Set("Authorization", "Bearer valid")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "scan", logs.lastType)
}

func TestLogsHandler_StoreErrorIsInternal(t *testing.T) {
	logs := &mockEventLog{err: fmt.Errorf("db down")}
	w := requestLogs(t, logs, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
}
