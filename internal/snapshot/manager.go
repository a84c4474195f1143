package snapshot

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/Deathfireofdoom/staged-kv-store/internal/kvstore"
	"github.com/Deathfireofdoom/staged-kv-store/internal/metrics"
	"github.com/pingcap/errors"
	"go.uber.org/zap"
)

// Manager owns the snapshot file at Path.
type Manager struct {
	path   string
	logger *zap.Logger
}

func NewManager(path string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{path: path, logger: logger}
}

func (m *Manager) Path() string { return m.path }

// Restore loads the snapshot. A missing file yields an empty state; a file
// that cannot be read or decoded is an error.
func (m *Manager) Restore() (*kvstore.ServerState, error) {
	start := time.Now()
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		m.logger.Info("no snapshot found, starting empty", zap.String("path", m.path))
		observe("restore", "empty", start)
		return kvstore.NewServerState(), nil
	}
	if err != nil {
		observe("restore", "error", start)
		return nil, errors.Annotatef(err, "read snapshot %s", m.path)
	}

	state, err := Decode(data)
	if err != nil {
		observe("restore", "error", start)
		return nil, errors.Annotatef(err, "decode snapshot %s", m.path)
	}
	observe("restore", "ok", start)
	m.logger.Info("snapshot restored",
		zap.String("path", m.path),
		zap.Int("bytes", len(data)),
		zap.Int("keys", state.Len()),
		zap.Int("pending", state.Pending()),
		zap.Duration("took", time.Since(start)))
	return state, nil
}

// Save replaces the snapshot file with the current contents of state. The
// bytes go to a temporary file in the same directory which is synced and
// then renamed over Path, so readers see either the old or the new file.
// The pending queue of state is drained in the process.
func (m *Manager) Save(state *kvstore.ServerState) error {
	start := time.Now()
	keys := state.Len()
	pending := state.Pending()

	var buf bytes.Buffer
	if err := Encode(&buf, state); err != nil {
		observe("save", "error", start)
		return err
	}
	if err := writeFileAtomic(m.path, buf.Bytes()); err != nil {
		observe("save", "error", start)
		return errors.Annotatef(ErrSave, "%s: %v", m.path, err)
	}
	observe("save", "ok", start)
	m.logger.Info("snapshot saved",
		zap.String("path", m.path),
		zap.Int("bytes", buf.Len()),
		zap.Int("keys", keys),
		zap.Int("pending", pending),
		zap.Duration("took", time.Since(start)))
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
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
	// the rename is only durable once the directory entry is
	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	if err := d.Sync(); err != nil {
		d.Close()
		return err
	}
	return d.Close()
}

func observe(op, result string, start time.Time) {
	metrics.SnapshotDuration.WithLabelValues(op, result).Observe(time.Since(start).Seconds())
}
