// Package metafile persists the event-key to remote-event-id mapping as one
// flat JSON file per (user, purpose). The file is the only local record of
// which remote events this service owns, so writes replace the whole file
// atomically and reads treat corrupt state as "start fresh" rather than
// failing a pass.
package metafile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/campushub/backend/repository"
)

type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore creates a meta map store rooted at dir.
func NewStore(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}
}

var _ repository.MetaStore = (*Store)(nil)

// Load reads the meta map for (user, purpose). A missing or unparseable
// file yields an empty map: the next pass rebuilds the mapping from the
// live listing instead of aborting.
func (s *Store) Load(ctx context.Context, userID string, purpose repository.MetaPurpose) (map[string]string, error) {
	data, err := os.ReadFile(s.path(userID, purpose))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("meta file unreadable, starting fresh",
				zap.String("user_id", userID),
				zap.String("purpose", string(purpose)),
				zap.Error(err))
		}
		return map[string]string{}, nil
	}

	var meta map[string]string
	if err := json.Unmarshal(data, &meta); err != nil {
		s.logger.Warn("meta file corrupt, starting fresh",
			zap.String("user_id", userID),
			zap.String("purpose", string(purpose)),
			zap.Error(err))
		return map[string]string{}, nil
	}
	if meta == nil {
		meta = map[string]string{}
	}
	return meta, nil
}

// Save replaces the meta map on disk. The payload is written to a temp file
// and renamed into place so a crash mid-write never leaves a truncated map.
func (s *Store) Save(ctx context.Context, userID string, purpose repository.MetaPurpose, meta map[string]string) error {
	path := s.path(userID, purpose)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".meta-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (s *Store) path(userID string, purpose repository.MetaPurpose) string {
	return filepath.Join(s.dir, fmt.Sprintf("user_%s", userID), fmt.Sprintf("%s_meta.json", purpose))
}
