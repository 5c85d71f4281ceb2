// Package transcoder wraps the ffmpeg and ffprobe binaries used to build thumbnails
// and read video durations.
package transcoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"visiverse/internal/config"

	"github.com/google/uuid"
)

const stderrTail = 512

// Runner executes an external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", filepath.Base(name), err, tail(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTail {
		s = s[len(s)-stderrTail:]
	}
	return s
}

type Transcoder struct {
	ffmpeg      string
	ffprobe     string
	seek        time.Duration
	width       int
	thumbDir    string
	thumbSuffix string
	runner      Runner
}

type Option func(*Transcoder)

// WithRunner replaces command execution, mainly for tests.
func WithRunner(r Runner) Option {
	return func(t *Transcoder) { t.runner = r }
}

func New(tc config.TranscoderConfig, sc config.StorageConfig, opts ...Option) *Transcoder {
	t := &Transcoder{
		ffmpeg:      tc.FFmpegPath,
		ffprobe:     tc.FFprobePath,
		seek:        tc.ThumbSeek,
		width:       tc.ThumbWidth,
		thumbDir:    filepath.Join(sc.Path, "thumbs"),
		thumbSuffix: sc.ThumbSuffix,
		runner:      execRunner{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ThumbFilename is where the thumbnail of media id lives.
func (t *Transcoder) ThumbFilename(id uuid.UUID) string {
	return filepath.Join(t.thumbDir, id.String()+t.thumbSuffix)
}

// CreateThumbnail grabs one frame of source, scaled to the configured width, and
// writes it to ThumbFilename(id).
func (t *Transcoder) CreateThumbnail(ctx context.Context, id uuid.UUID, source string) (string, error) {
	out := t.ThumbFilename(id)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("create thumbnail dir: %w", err)
	}

	args := []string{
		"-y",
		"-ss", formatSeconds(t.seek),
		"-i", source,
		"-vf", fmt.Sprintf("scale=%d:-1", t.width),
		"-frames:v", "1",
		out,
	}
	if _, err := t.runner.Run(ctx, t.ffmpeg, args...); err != nil {
		return "", fmt.Errorf("thumbnail %s: %w", filepath.Base(source), err)
	}
	return out, nil
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// VideoDuration returns the container duration of file rounded to whole seconds.
func (t *Transcoder) VideoDuration(ctx context.Context, file string) (int, error) {
	out, err := t.runner.Run(ctx, t.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		file,
	)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", filepath.Base(file), err)
	}
	return parseDuration(out)
}

func parseDuration(raw []byte) (int, error) {
	var p probeOutput
	if err := json.Unmarshal(raw, &p); err != nil {
		return 0, fmt.Errorf("decode ffprobe output: %w", err)
	}
	if p.Format.Duration == "" || p.Format.Duration == "N/A" {
		return 0, fmt.Errorf("ffprobe reported no duration")
	}
	secs, err := strconv.ParseFloat(p.Format.Duration, 64)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("invalid duration %q", p.Format.Duration)
	}
	return int(math.Round(secs)), nil
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
