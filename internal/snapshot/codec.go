// Package snapshot converts a ServerState to and from its on-disk form.
//
// The layout is little-endian and has no version field:
//
//	u64 entry_count
//	entry_count × (u64 key_len, key, u64 value_len, value)
//	u64 action_count
//	action_count × (u32 tag, u64 key_len, key [, u64 value_len, value if tag == set])
package snapshot

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/Deathfireofdoom/staged-kv-store/internal/kvstore"
	"github.com/Deathfireofdoom/staged-kv-store/internal/models"
	"github.com/pingcap/errors"
)

const (
	lenSize = 8
	tagSize = 4
)

// Encode writes state to w. Pending actions are consumed from the queue as
// they are written, so the queue is empty afterwards.
func Encode(w io.Writer, state *kvstore.ServerState) error {
	bw := bufio.NewWriter(w)
	enc := encoder{w: bw}

	entries := state.Store().Entries()
	enc.uint64(uint64(len(entries)))
	for _, e := range entries {
		enc.string(e.Key)
		enc.string(e.Value)
	}

	pending := state.DrainPending()
	enc.uint64(uint64(len(pending)))
	for _, a := range pending {
		enc.uint32(uint32(a.Type))
		enc.string(a.Key)
		if a.Type == models.SetAction {
			enc.string(a.Value)
		}
	}

	if enc.err != nil {
		return errors.Annotate(ErrSave, enc.err.Error())
	}
	if err := bw.Flush(); err != nil {
		return errors.Annotate(ErrSave, err.Error())
	}
	return nil
}

type encoder struct {
	w   *bufio.Writer
	buf [lenSize]byte
	err error
}

func (e *encoder) uint64(v uint64) {
	if e.err != nil {
		return
	}
	binary.LittleEndian.PutUint64(e.buf[:], v)
	_, e.err = e.w.Write(e.buf[:lenSize])
}

func (e *encoder) uint32(v uint32) {
	if e.err != nil {
		return
	}
	binary.LittleEndian.PutUint32(e.buf[:], v)
	_, e.err = e.w.Write(e.buf[:tagSize])
}

func (e *encoder) string(s string) {
	e.uint64(uint64(len(s)))
	if e.err != nil {
		return
	}
	_, e.err = e.w.WriteString(s)
}

// Decode parses a complete snapshot. Any deviation from the layout,
// including trailing bytes, is reported with ErrCorrupt as the cause.
func Decode(data []byte) (*kvstore.ServerState, error) {
	d := decoder{data: data}

	entryCount, err := d.count(2 * lenSize)
	if err != nil {
		return nil, errors.Annotate(err, "entry count")
	}
	entries := make([]models.Entry, 0, entryCount)
	for i := uint64(0); i < entryCount; i++ {
		key, err := d.string()
		if err != nil {
			return nil, errors.Annotatef(err, "entry %d key", i)
		}
		value, err := d.string()
		if err != nil {
			return nil, errors.Annotatef(err, "entry %d value", i)
		}
		entries = append(entries, models.Entry{Key: key, Value: value})
	}

	actionCount, err := d.count(tagSize + lenSize)
	if err != nil {
		return nil, errors.Annotate(err, "action count")
	}
	pending := make([]models.Action, 0, actionCount)
	for i := uint64(0); i < actionCount; i++ {
		a, err := d.action()
		if err != nil {
			return nil, errors.Annotatef(err, "action %d", i)
		}
		pending = append(pending, a)
	}

	if rest := len(d.data) - d.off; rest != 0 {
		return nil, errors.Annotatef(ErrCorrupt, "%d trailing bytes", rest)
	}
	return kvstore.Restore(entries, pending), nil
}

type decoder struct {
	data []byte
	off  int
}

func (d *decoder) remaining() uint64 {
	return uint64(len(d.data) - d.off)
}

func (d *decoder) take(n uint64) ([]byte, error) {
	if n > d.remaining() {
		return nil, errors.Annotatef(ErrCorrupt, "need %d bytes at offset %d, have %d", n, d.off, d.remaining())
	}
	b := d.data[d.off : d.off+int(n)]
	d.off += int(n)
	return b, nil
}

func (d *decoder) uint64() (uint64, error) {
	b, err := d.take(lenSize)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *decoder) uint32() (uint32, error) {
	b, err := d.take(tagSize)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// count reads an element count and rejects it if the remaining input could
// not hold that many elements of at least minSize bytes each.
func (d *decoder) count(minSize uint64) (uint64, error) {
	n, err := d.uint64()
	if err != nil {
		return 0, err
	}
	if n > d.remaining()/minSize {
		return 0, errors.Annotatef(ErrCorrupt, "count %d exceeds remaining %d bytes", n, d.remaining())
	}
	return n, nil
}

func (d *decoder) string() (string, error) {
	n, err := d.uint64()
	if err != nil {
		return "", err
	}
	b, err := d.take(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *decoder) action() (models.Action, error) {
	tag, err := d.uint32()
	if err != nil {
		return models.Action{}, err
	}
	switch models.ActionType(tag) {
	case models.SetAction:
		key, err := d.string()
		if err != nil {
			return models.Action{}, err
		}
		value, err := d.string()
		if err != nil {
			return models.Action{}, err
		}
		return models.NewSet(key, value), nil
	case models.DeleteAction:
		key, err := d.string()
		if err != nil {
			return models.Action{}, err
		}
		return models.NewDelete(key), nil
	default:
		return models.Action{}, errors.Annotatef(ErrCorrupt, "unknown action tag %d", tag)
	}
}
