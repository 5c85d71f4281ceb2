package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"visiverse/internal/logger"
	"visiverse/internal/metrics"
	"visiverse/internal/models"
	"visiverse/internal/repository"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
)

// ErrScanInProgress is returned by Scan while another scan is running.
var ErrScanInProgress = errors.New("library scan already in progress")

var extTypes = map[string]models.MediaType{
	".mp4": models.MediaVideo, ".mkv": models.MediaVideo, ".webm": models.MediaVideo,
	".mov": models.MediaVideo, ".avi": models.MediaVideo, ".m4v": models.MediaVideo,
	".jpg": models.MediaImage, ".jpeg": models.MediaImage, ".png": models.MediaImage,
	".gif": models.MediaImage, ".webp": models.MediaImage,
	".mp3": models.MediaAudio, ".flac": models.MediaAudio, ".ogg": models.MediaAudio,
	".wav": models.MediaAudio, ".m4a": models.MediaAudio, ".opus": models.MediaAudio,
}

// MediaTypeFor infers the media type from a file extension.
func MediaTypeFor(name string) (models.MediaType, bool) {
	t, ok := extTypes[strings.ToLower(filepath.Ext(name))]
	return t, ok
}

type includeRule struct {
	g        glob.Glob
	fullPath bool
}

// ImporterService walks the media directory and catalogs new files.
type ImporterService struct {
	media     repository.MediaRepo
	stateRepo repository.StateRepo
	eventRepo repository.EventRepo
	tx        Transcoder
	root      string
	include   []includeRule
	log       *logger.Logger
	metrics   *metrics.Metrics

	running atomic.Bool
}

// NewImporterService compiles the include patterns. Patterns containing a slash
// match the path relative to the media directory, others match the base name.
// Matching is case-insensitive. No patterns means every file is considered.
func NewImporterService(
	media repository.MediaRepo,
	stateRepo repository.StateRepo,
	eventRepo repository.EventRepo,
	tx Transcoder,
	cfg LibraryConfig,
	log *logger.Logger,
	m *metrics.Metrics,
) (*ImporterService, error) {
	if log == nil {
		log = logger.Nop()
	}
	rules := make([]includeRule, 0, len(cfg.Include))
	for _, p := range cfg.Include {
		g, err := glob.Compile(strings.ToLower(p), '/')
		if err != nil {
			return nil, fmt.Errorf("include pattern %q: %w", p, err)
		}
		rules = append(rules, includeRule{g: g, fullPath: strings.Contains(p, "/")})
	}
	return &ImporterService{
		media:     media,
		stateRepo: stateRepo,
		eventRepo: eventRepo,
		tx:        tx,
		root:      cfg.MediaPath,
		include:   rules,
		log:       log,
		metrics:   m,
	}, nil
}

func (s *ImporterService) included(rel string) bool {
	if len(s.include) == 0 {
		return true
	}
	rel = strings.ToLower(rel)
	base := path.Base(rel)
	for _, r := range s.include {
		if r.fullPath && r.g.Match(rel) || !r.fullPath && r.g.Match(base) {
			return true
		}
	}
	return false
}

// ImportFile catalogs one file given relative to the media directory. Videos get a
// probed duration and a thumbnail; failures of either are logged as events but do
// not fail the import.
func (s *ImporterService) ImportFile(ctx context.Context, rel string, typ models.MediaType) (models.Media, error) {
	rel = filepath.ToSlash(rel)
	abs := filepath.Join(s.root, filepath.FromSlash(rel))
	base := path.Base(rel)

	m := models.Media{
		ID:       uuid.New(),
		Filename: rel,
		Title:    strings.TrimSuffix(base, path.Ext(base)),
		Type:     typ,
		Tags:     []models.Tag{{Name: string(typ)}},
	}

	if typ == models.MediaVideo {
		d, err := s.tx.VideoDuration(ctx, abs)
		if err != nil {
			s.log.Warnw("probe_failed", "file", rel, "err", err)
			s.appendEvent(ctx, models.EventError, "probe failed: "+rel, map[string]any{"file": rel, "error": err.Error()})
		} else {
			m.Duration = &d
		}
	}

	m, err := s.media.Insert(ctx, m)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			s.metrics.Import(metrics.ImportSkipped)
			return models.Media{}, err
		}
		s.metrics.Import(metrics.ImportFailed)
		s.appendEvent(ctx, models.EventError, "import failed: "+rel, map[string]any{"file": rel, "error": err.Error()})
		return models.Media{}, err
	}
	s.metrics.Import(metrics.ImportImported)
	s.appendEvent(ctx, models.EventImport, "imported "+rel, map[string]any{"id": m.ID.String(), "type": string(typ)})

	if typ == models.MediaVideo {
		thumb, err := s.tx.CreateThumbnail(ctx, m.ID, abs)
		if err != nil {
			s.log.Warnw("thumbnail_failed", "file", rel, "err", err)
			s.appendEvent(ctx, models.EventError, "thumbnail failed: "+rel, map[string]any{"id": m.ID.String(), "error": err.Error()})
		} else {
			s.appendEvent(ctx, models.EventThumbnail, "thumbnail created for "+rel, map[string]any{"id": m.ID.String(), "path": thumb})
		}
	}
	return m, nil
}

// Scan walks the media directory once and imports every included file that is not
// catalogued yet. Per-file failures are counted; a store failure or cancellation
// aborts the walk.
func (s *ImporterService) Scan(ctx context.Context) (models.ScanState, error) {
	if !s.running.CompareAndSwap(false, true) {
		return models.ScanState{}, ErrScanInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	st := models.ScanState{ID: 1, Running: true, LastScanAt: start.UTC()}
	s.saveState(ctx, st)
	s.appendEvent(ctx, models.EventScan, "library scan started", map[string]any{"path": s.root})

	walkErr := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		typ, ok := MediaTypeFor(rel)
		if !ok || !s.included(rel) {
			return nil
		}
		st.FilesSeen++

		exists, err := s.media.ExistsByFilename(ctx, rel)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", rel, err)
		}
		if exists {
			s.metrics.Import(metrics.ImportSkipped)
			return nil
		}

		if _, err := s.ImportFile(ctx, rel, typ); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return nil
			}
			st.Failed++
			st.LastError = err.Error()
			return nil
		}
		st.Imported++
		return nil
	})

	st.Running = false
	st.LastScanAt = time.Now().UTC()
	if walkErr != nil {
		st.LastError = walkErr.Error()
	}
	// the walk may have been cancelled; persist the outcome regardless
	s.saveState(context.WithoutCancel(ctx), st)
	s.metrics.ObserveScan(time.Since(start))
	s.appendEvent(context.WithoutCancel(ctx), models.EventScan, "library scan finished", map[string]any{
		"files_seen": st.FilesSeen,
		"imported":   st.Imported,
		"failed":     st.Failed,
	})
	s.log.Infow("scan_finished", "files_seen", st.FilesSeen, "imported", st.Imported, "failed", st.Failed, "err", walkErr)

	return st, walkErr
}

// Run scans immediately and then at the given interval until ctx is canceled.
// A non-positive interval scans once.
func (s *ImporterService) Run(ctx context.Context, interval time.Duration) {
	s.scanLogged(ctx)
	if interval <= 0 {
		return
	}

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.scanLogged(ctx)
		}
	}
}

func (s *ImporterService) scanLogged(ctx context.Context) {
	if _, err := s.Scan(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Errorw("scan_failed", "err", err)
	}
}

func (s *ImporterService) saveState(ctx context.Context, st models.ScanState) {
	if err := s.stateRepo.Save(ctx, st); err != nil {
		s.log.Warnw("save_scan_state_failed", "err", err)
	}
}

func (s *ImporterService) appendEvent(ctx context.Context, typ, desc string, meta map[string]any) {
	err := s.eventRepo.Append(ctx, models.LibraryEvent{
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	})
	if err != nil {
		s.log.Warnw("append_event_failed", "type", typ, "err", err)
	}
}
