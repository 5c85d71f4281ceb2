package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"visiverse/internal/models"
	"visiverse/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpUser    *models.User
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseUser     string
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(ctx context.Context, username, password string) (*models.User, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpUser, m.signUpErr
}
func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (string, error) {
	m.lastParseToken = token
	return m.parseUser, m.parseErr
}

type mockLibrary struct {
	media      []models.Media
	listErr    error
	people     map[uuid.UUID]models.Person
	orgs       map[uuid.UUID]models.Organization
	colls      map[uuid.UUID]models.Collection
	tags       []models.Tag
	files      map[uuid.UUID]string
	thumbs     map[uuid.UUID]string
	lastLookup uuid.UUID
}

func (m *mockLibrary) ListMedia(ctx context.Context) ([]models.Media, error) {
	return m.media, m.listErr
}
func (m *mockLibrary) MediaInfo(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	m.lastLookup = id
	for _, md := range m.media {
		if md.ID == id {
			return &md, nil
		}
	}
	return nil, service.ErrNotFound
}
func (m *mockLibrary) PersonInfo(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	m.lastLookup = id
	if p, ok := m.people[id]; ok {
		return &p, nil
	}
	return nil, service.ErrNotFound
}
func (m *mockLibrary) OrganizationInfo(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	m.lastLookup = id
	if o, ok := m.orgs[id]; ok {
		return &o, nil
	}
	return nil, service.ErrNotFound
}
func (m *mockLibrary) CollectionInfo(ctx context.Context, id uuid.UUID) (*models.Collection, error) {
	m.lastLookup = id
	if c, ok := m.colls[id]; ok {
		return &c, nil
	}
	return nil, service.ErrNotFound
}
func (m *mockLibrary) ListTags(ctx context.Context) ([]models.Tag, error) {
	return m.tags, nil
}
func (m *mockLibrary) MediaFile(ctx context.Context, id uuid.UUID) (string, error) {
	if p, ok := m.files[id]; ok {
		return p, nil
	}
	return "", service.ErrNotFound
}
func (m *mockLibrary) ThumbFile(ctx context.Context, id uuid.UUID) (string, error) {
	if p, ok := m.thumbs[id]; ok {
		return p, nil
	}
	return "", service.ErrNotFound
}

type mockMonitoring struct {
	mu    sync.Mutex
	state models.ScanState
	err   error
	calls int
}

func (m *mockMonitoring) GetScanState(ctx context.Context) (models.ScanState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.state, m.err
}

func (m *mockMonitoring) set(st models.ScanState, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state, m.err = st, err
}

type mockEventLog struct {
	resp     []models.LibraryEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.LibraryEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

type mockImporter struct {
	scanState models.ScanState
	scanErr   error
	scans     int
}

func (m *mockImporter) ImportFile(ctx context.Context, rel string, typ models.MediaType) (models.Media, error) {
	return models.Media{Filename: rel, Type: typ}, nil
}
func (m *mockImporter) Scan(ctx context.Context) (models.ScanState, error) {
	m.scans++
	return m.scanState, m.scanErr
}
func (m *mockImporter) Run(ctx context.Context, interval time.Duration) {}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, opts ...Option) *gin.Engine {
	h := NewHandler(s, nil, opts...)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
