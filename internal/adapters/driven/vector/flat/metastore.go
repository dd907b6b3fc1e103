package flat

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/custodia-labs/medivault/internal/core/domain"
)

var (
	bucketEntries = []byte("entries")
	bucketMeta    = []byte("meta")

	keyCount   = []byte("count")
	keyVersion = []byte("schema_version")
)

// metaStore persists the chunk metadata sequence in a bbolt file.
// Entries are keyed by big-endian position so cursor order is append order.
type metaStore struct {
	db *bbolt.DB
}

func openMetaStore(path string) (*metaStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketEntries); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &metaStore{db: db}, nil
}

func positionKey(pos int) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(pos))
	return k[:]
}

func putUint(b *bbolt.Bucket, key []byte, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return b.Put(key, buf[:])
}

func getUint(b *bbolt.Bucket, key []byte) uint64 {
	v := b.Get(key)
	if len(v) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(v)
}

// append stores chunks at positions start, start+1, ... and bumps the count
// in a single transaction.
func (s *metaStore) append(start int, chunks []domain.Chunk) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		entries := tx.Bucket(bucketEntries)
		meta := tx.Bucket(bucketMeta)

		if got := getUint(meta, keyCount); got != uint64(start) {
			return fmt.Errorf("%w: metadata holds %d entries, expected %d", domain.ErrCountMismatch, got, start)
		}

		for i, c := range chunks {
			pos := start + i
			data, err := json.Marshal(domain.IndexEntry{Position: pos, Chunk: c})
			if err != nil {
				return err
			}
			if err := entries.Put(positionKey(pos), data); err != nil {
				return err
			}
		}

		if err := putUint(meta, keyVersion, domain.MetadataVersion); err != nil {
			return err
		}
		return putUint(meta, keyCount, uint64(start+len(chunks)))
	})
}

// reset drops every entry and sets the count to zero.
func (s *metaStore) reset() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketEntries); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		if _, err := tx.CreateBucket(bucketEntries); err != nil {
			return err
		}
		meta := tx.Bucket(bucketMeta)
		if err := putUint(meta, keyVersion, domain.MetadataVersion); err != nil {
			return err
		}
		return putUint(meta, keyCount, 0)
	})
}

// load reads every entry in position order and checks the sequence is
// contiguous and agrees with the stored count.
func (s *metaStore) load() ([]domain.Chunk, error) {
	var chunks []domain.Chunk

	err := s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		count := getUint(meta, keyCount)
		if v := getUint(meta, keyVersion); v > domain.MetadataVersion {
			return fmt.Errorf("metadata schema version %d is newer than supported %d", v, domain.MetadataVersion)
		}

		chunks = make([]domain.Chunk, 0, count)
		c := tx.Bucket(bucketEntries).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			pos := int(binary.BigEndian.Uint64(k))
			if pos != len(chunks) {
				return fmt.Errorf("metadata entry %d out of sequence at %d", pos, len(chunks))
			}
			var entry domain.IndexEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("decode metadata entry %d: %w", pos, err)
			}
			chunks = append(chunks, entry.Chunk)
		}

		if uint64(len(chunks)) != count {
			return fmt.Errorf("%w: %d metadata entries, stored count %d", domain.ErrCountMismatch, len(chunks), count)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

func (s *metaStore) close() error {
	return s.db.Close()
}
