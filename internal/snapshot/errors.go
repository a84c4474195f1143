package snapshot

import "github.com/pingcap/errors"

var (
	// ErrCorrupt is the cause of every decode failure. A server must not
	// start on top of a snapshot that fails with it.
	ErrCorrupt = errors.New("snapshot is corrupt")
	// ErrSave is the cause of every failure to encode or write a snapshot.
	ErrSave = errors.New("snapshot save failed")
)
