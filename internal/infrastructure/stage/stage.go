package stage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"clipvault/internal/config"
)

// Stage holds in-flight uploads on local disk until they are durably
// persisted. Names are caller-generated (ULID based) so they never collide.
type Stage struct {
	dir string
	log zerolog.Logger
}

func New(cfg *config.Config, log zerolog.Logger) (*Stage, error) {
	dir := strings.TrimSpace(cfg.StageDir)
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "clipvault-stage")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create stage directory: %w", err)
	}
	return &Stage{
		dir: dir,
		log: log.With().Str("component", "stage").Logger(),
	}, nil
}

// Save writes the stream to disk under name and returns the absolute path.
func (s *Stage) Save(ctx context.Context, name string, body io.Reader) (string, error) {
	path := s.Path(name)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}

	written, err := io.Copy(file, body)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write staged file: %w", err)
	}

	s.log.Debug().Str("path", path).Int64("bytes", written).Msg("upload staged")
	return path, nil
}

// Path returns the absolute stage path for name. The base of name is used so
// caller-supplied data can never escape the stage directory.
func (s *Stage) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// Remove deletes one staged file.
func (s *Stage) Remove(path string) error {
	return os.Remove(path)
}
