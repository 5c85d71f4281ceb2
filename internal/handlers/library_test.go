package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"visiverse/internal/models"
	"visiverse/internal/service"

	"github.com/google/uuid"
)

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer valid")
	r.ServeHTTP(w, req)
	return w
}

func TestLibraryHandlers_Media(t *testing.T) {
	id := uuid.New()
	lib := &mockLibrary{media: []models.Media{
		{ID: id, Filename: "a.mp4", Title: "A", Type: models.MediaVideo, Tags: []models.Tag{{Name: "video"}}},
	}}
	s := &service.Service{Authorization: &mockAuth{parseUser: "u"}, Library: lib}
	r := newTestRouter(s)

	w := get(r, "/api/v1/media")
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d, body=%s", w.Code, w.Body.String())
	}
	var list struct {
		Count int             `json:"count"`
		Media []mediaResponse `json:"media"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if list.Count != 1 || list.Media[0].ID != id || list.Media[0].ShortID != shortID(id) {
		t.Fatalf("unexpected list: %+v", list)
	}

	// lookup by short id resolves to the same record
	w = get(r, "/api/v1/media/"+shortID(id))
	if w.Code != http.StatusOK {
		t.Fatalf("get status=%d, body=%s", w.Code, w.Body.String())
	}
	if lib.lastLookup != id {
		t.Fatalf("looked up %v, want %v", lib.lastLookup, id)
	}

	if w := get(r, "/api/v1/media/"+uuid.NewString()); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown media, got %d", w.Code)
	}
	if w := get(r, "/api/v1/media/nope"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", w.Code)
	}
}

func TestLibraryHandlers_Catalog(t *testing.T) {
	pid, oid, cid := uuid.New(), uuid.New(), uuid.New()
	lib := &mockLibrary{
		people: map[uuid.UUID]models.Person{pid: {ID: pid, Name: "Ada"}},
		orgs:   map[uuid.UUID]models.Organization{oid: {ID: oid, Name: "Studio"}},
		colls:  map[uuid.UUID]models.Collection{cid: {ID: cid, Name: "Season 1", Type: models.CollectionSeries}},
		tags:   []models.Tag{{Name: "audio"}},
	}
	s := &service.Service{Authorization: &mockAuth{parseUser: "u"}, Library: lib}
	r := newTestRouter(s)

	for _, path := range []string{
		"/api/v1/people/" + pid.String(),
		"/api/v1/orgs/" + shortID(oid),
		"/api/v1/collections/" + cid.String(),
		"/api/v1/tags",
	} {
		if w := get(r, path); w.Code != http.StatusOK {
			t.Fatalf("%s: status=%d, body=%s", path, w.Code, w.Body.String())
		}
	}
	if w := get(r, "/api/v1/people/"+uuid.NewString()); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestLibraryHandlers_RequireAuth(t *testing.T) {
	s := &service.Service{Authorization: &mockAuth{}, Library: &mockLibrary{}}
	r := newTestRouter(s)

	for _, path := range []string{"/api/v1/media", "/files/media/" + uuid.NewString(), "/api/v1/library/status"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, w.Code)
		}
	}
}

func TestLibraryHandlers_ScanAndStatus(t *testing.T) {
	imp := &mockImporter{scanState: models.ScanState{ID: 1, FilesSeen: 3, Imported: 2, Failed: 1}}
	mon := &mockMonitoring{state: models.ScanState{ID: 1, Imported: 2}}
	s := &service.Service{Authorization: &mockAuth{parseUser: "u"}, Importer: imp, Monitoring: mon}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/library/scan", nil)
	req.Header.Set("Authorization", "Bearer valid")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("scan status=%d, body=%s", w.Code, w.Body.String())
	}
	var st models.ScanState
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if st.Imported != 2 || st.Failed != 1 || imp.scans != 1 {
		t.Fatalf("unexpected scan result: %+v (scans=%d)", st, imp.scans)
	}

	imp.scanErr = service.ErrScanInProgress
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/library/scan", nil)
	req.Header.Set("Authorization", "Bearer valid")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 while scanning, got %d", w.Code)
	}

	if w := get(r, "/api/v1/library/status"); w.Code != http.StatusOK {
		t.Fatalf("status endpoint=%d", w.Code)
	}
	mon.err = errors.New("db down")
	if w := get(r, "/api/v1/library/status"); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestFileHandlers(t *testing.T) {
	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "a.mp3")
	thumbPath := filepath.Join(dir, "a-thumb.jpg")
	if err := os.WriteFile(mediaPath, []byte("ID3-audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(thumbPath, []byte("jpeg-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	id := uuid.New()
	lib := &mockLibrary{
		files:  map[uuid.UUID]string{id: mediaPath},
		thumbs: map[uuid.UUID]string{id: thumbPath},
	}
	s := &service.Service{Authorization: &mockAuth{parseUser: "u"}, Library: lib}
	r := newTestRouter(s)

	w := get(r, "/files/media/"+shortID(id))
	if w.Code != http.StatusOK || w.Body.String() != "ID3-audio" {
		t.Fatalf("media file: status=%d body=%q", w.Code, w.Body.String())
	}
	w = get(r, "/files/thumbs/"+id.String())
	if w.Code != http.StatusOK || w.Body.String() != "jpeg-bytes" {
		t.Fatalf("thumb file: status=%d body=%q", w.Code, w.Body.String())
	}
	if w := get(r, "/files/thumbs/"+uuid.NewString()); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing thumbnail, got %d", w.Code)
	}
}
