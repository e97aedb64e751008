// Package checkpoint persists finished scanlines in a Badger database so an
// interrupted render can be resumed.
//
// Every render is identified by a manifest describing everything that affects
// its pixels.  Scanlines are only reused by a render with an identical
// manifest.
package checkpoint

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/dgraph-io/badger"
	"github.com/golang/glog"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Key prefixes that denote different tables in the key-value store.
const (
	KeyTypeManifest uint32 = 0
	KeyTypeScanline uint32 = 1
)

func ManifestKey(jobID uint64) []byte {
	key := make([]byte, 12)
	binary.BigEndian.PutUint32(key[0:4], KeyTypeManifest)
	binary.BigEndian.PutUint64(key[4:12], jobID)
	return key
}

func ScanlineKey(jobID uint64, row int) []byte {
	key := make([]byte, 16)
	binary.BigEndian.PutUint32(key[0:4], KeyTypeScanline)
	binary.BigEndian.PutUint64(key[4:12], jobID)
	binary.BigEndian.PutUint32(key[12:16], uint32(row))
	return key
}

func ScanlineKeyPrefixOneJob(jobID uint64) []byte {
	key := make([]byte, 12)
	binary.BigEndian.PutUint32(key[0:4], KeyTypeScanline)
	binary.BigEndian.PutUint64(key[4:12], jobID)
	return key
}

func DecodeScanlineKey(key []byte) (jobID uint64, row int, err error) {
	if len(key) != 16 {
		return 0, 0, fmt.Errorf("key has wrong length; got %d, want 16", len(key))
	}
	if kt := binary.BigEndian.Uint32(key[0:4]); kt != KeyTypeScanline {
		return 0, 0, fmt.Errorf("key has wrong type; got %d, want %d", kt, KeyTypeScanline)
	}
	jobID = binary.BigEndian.Uint64(key[4:12])
	row = int(binary.BigEndian.Uint32(key[12:16]))
	return jobID, row, nil
}

// glogLogger routes badger's logging into glog.
type glogLogger struct{}

func (glogLogger) Errorf(format string, args ...interface{}) {
	glog.ErrorDepth(1, fmt.Sprintf("badger: "+format, args...))
}

func (glogLogger) Warningf(format string, args ...interface{}) {
	glog.WarningDepth(1, fmt.Sprintf("badger: "+format, args...))
}

func (glogLogger) Infof(format string, args ...interface{}) {
	glog.V(1).Infof("badger: "+format, args...)
}

func (glogLogger) Debugf(format string, args ...interface{}) {
	glog.V(2).Infof("badger: "+format, args...)
}

type Store struct {
	DB *badger.DB
}

// Open opens the checkpoint database in dir, creating it if needed.
func Open(dir string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(glogLogger{}))
	if err != nil {
		return nil, fmt.Errorf("while opening badger kv dir %q: %w", dir, err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	if err := s.DB.Close(); err != nil {
		return fmt.Errorf("while closing database: %w", err)
	}
	return nil
}

// JobID hashes the deterministic wire encoding of manifest.
func JobID(manifest *structpb.Struct) (uint64, []byte, error) {
	manifestBytes, err := proto.MarshalOptions{Deterministic: true}.Marshal(manifest)
	if err != nil {
		return 0, nil, fmt.Errorf("while marshaling manifest: %w", err)
	}

	h := fnv.New64a()
	h.Write(manifestBytes)
	return h.Sum64(), manifestBytes, nil
}

// Job returns the checkpoint of the render described by manifest, recording
// the manifest if this is the first time it has been seen.  rowBytes is the
// length of one scanline.
func (s *Store) Job(ctx context.Context, manifest *structpb.Struct, rowBytes int) (*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	jobID, manifestBytes, err := JobID(manifest)
	if err != nil {
		return nil, err
	}

	glog.V(1).Infof("Checkpoint job %016x manifest:\n%s", jobID, prototext.Format(manifest))

	err = s.DB.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(ManifestKey(jobID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return txn.Set(ManifestKey(jobID), manifestBytes)
		} else if err != nil {
			return fmt.Errorf("while looking up manifest: %w", err)
		}

		stored := &structpb.Struct{}
		err = item.Value(func(val []byte) error {
			return proto.Unmarshal(val, stored)
		})
		if err != nil {
			return fmt.Errorf("while unmarshaling stored manifest: %w", err)
		}

		if !proto.Equal(stored, manifest) {
			return fmt.Errorf("job %016x already holds a different manifest:\n%s", jobID, prototext.Format(stored))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("while recording manifest of job %016x: %w", jobID, err)
	}

	return &Job{
		store:    s,
		ID:       jobID,
		rowBytes: rowBytes,
	}, nil
}

// Job is the checkpoint of a single render.  It is safe for concurrent use.
type Job struct {
	store    *Store
	ID       uint64
	rowBytes int
}

// LoadScanline copies saved scanline i into dst.  It returns false if the
// scanline was never saved.
func (j *Job) LoadScanline(ctx context.Context, i int, dst []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	found := false
	err := j.store.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(ScanlineKey(j.ID, i))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		} else if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			if len(val) != j.rowBytes || len(dst) != j.rowBytes {
				return fmt.Errorf("scanline has %d bytes, destination %d, want %d", len(val), len(dst), j.rowBytes)
			}
			copy(dst, val)
			found = true
			return nil
		})
	})
	if err != nil {
		return false, fmt.Errorf("while reading scanline %d of job %016x: %w", i, j.ID, err)
	}
	return found, nil
}

func (j *Job) SaveScanline(ctx context.Context, i int, src []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(src) != j.rowBytes {
		return fmt.Errorf("scanline %d has %d bytes, want %d", i, len(src), j.rowBytes)
	}

	val := append([]byte(nil), src...)
	err := j.store.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(ScanlineKey(j.ID, i), val)
	})
	if err != nil {
		return fmt.Errorf("while writing scanline %d of job %016x: %w", i, j.ID, err)
	}
	return nil
}

// Completed returns the number of scanlines saved so far.
func (j *Job) Completed() (int, error) {
	count := 0
	err := j.store.DB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := ScanlineKeyPrefixOneJob(j.ID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if _, _, err := DecodeScanlineKey(it.Item().KeyCopy(nil)); err != nil {
				return fmt.Errorf("while decoding scanline key: %w", err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("while counting scanlines of job %016x: %w", j.ID, err)
	}
	return count, nil
}

// Discard deletes the job's manifest and scanlines, once its output has been
// written somewhere durable.
func (j *Job) Discard() error {
	var keys [][]byte
	err := j.store.DB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := ScanlineKeyPrefixOneJob(j.ID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("while listing scanlines of job %016x: %w", j.ID, err)
	}
	keys = append(keys, ManifestKey(j.ID))

	err = j.store.DB.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return fmt.Errorf("while deleting key %x: %w", k, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("while discarding job %016x: %w", j.ID, err)
	}
	return nil
}
