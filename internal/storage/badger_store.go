// internal/storage/badger_store.go
package storage

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/TheSilvus/smeagol/internal/objects"
)

var (
	// ErrObjectNotFound is returned when no object with the requested hash
	// has been stored.
	ErrObjectNotFound = errors.New("object not found")

	// ErrNoHead is returned while the store is unborn, before the first
	// commit has been made.
	ErrNoHead = errors.New("head not set")
)

const (
	objectPrefix = "object:"
	headKey      = "ref:HEAD"

	// Objects smaller than this are stored uncompressed.
	compressMin = 1024

	cacheSize = 512
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// Store is the durable object graph plus the single mutable HEAD pointer.
// Objects are append-only and content-addressed; once written they are never
// mutated, which makes the read cache trivially safe.
type Store struct {
	db    *badger.DB
	cache *lru.Cache[string, []byte]
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// Open opens (or creates) a store rooted at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging noise
	return newStore(opts)
}

// OpenInMemory opens a store that is discarded on Close. Used by tests.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return newStore(opts)
}

func newStore(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	cache, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating object cache: %w", err)
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("creating decoder: %w", err)
	}

	return &Store{db: db, cache: cache, enc: enc, dec: dec}, nil
}

func (s *Store) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}

func objectKey(hash string) []byte {
	return []byte(objectPrefix + hash)
}

// Put stores an encoded object under its hash. Storing an object that already
// exists is a no-op; identical content always produced the identical key.
func (s *Store) Put(obj objects.Object) error {
	hash := obj.Hash()
	if s.cache.Contains(hash) {
		return nil
	}

	data := obj.Data()
	stored := data
	// Encoded objects start with an ASCII kind name, never the zstd frame
	// magic, so sniffing on read cannot misfire.
	if len(data) >= compressMin {
		stored = s.enc.EncodeAll(data, nil)
	}

	key := objectKey(hash)
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return nil
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, stored)
	})
	if err != nil {
		return fmt.Errorf("storing object %s: %w", hash, err)
	}

	s.cache.Add(hash, data)
	return nil
}

// getData returns the decoded (kind, payload) of a stored object.
func (s *Store) getData(hash string) (objects.Kind, []byte, error) {
	data, ok := s.cache.Get(hash)
	if !ok {
		err := s.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get(objectKey(hash))
			if err != nil {
				return err
			}
			return item.Value(func(val []byte) error {
				if len(val) >= len(zstdMagic) && string(val[:len(zstdMagic)]) == string(zstdMagic) {
					decoded, err := s.dec.DecodeAll(val, nil)
					if err != nil {
						return fmt.Errorf("decompressing: %w", err)
					}
					data = decoded
					return nil
				}
				data = append([]byte(nil), val...)
				return nil
			})
		})
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", nil, fmt.Errorf("object %s: %w", hash, ErrObjectNotFound)
		}
		if err != nil {
			return "", nil, fmt.Errorf("reading object %s: %w", hash, err)
		}
		s.cache.Add(hash, data)
	}

	kind, payload, err := objects.Decode(data)
	if err != nil {
		return "", nil, fmt.Errorf("object %s: %w", hash, err)
	}
	return kind, payload, nil
}

// Has reports whether an object with the given hash is stored.
func (s *Store) Has(hash string) bool {
	if s.cache.Contains(hash) {
		return true
	}
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(objectKey(hash))
		return err
	})
	return err == nil
}

func (s *Store) GetBlob(hash string) (*objects.Blob, error) {
	kind, payload, err := s.getData(hash)
	if err != nil {
		return nil, err
	}
	if kind != objects.KindBlob {
		return nil, fmt.Errorf("object %s is a %s, expected blob", hash, kind)
	}
	blob := objects.NewBlob(payload)
	if blob.Hash() != hash {
		return nil, fmt.Errorf("object %s: hash mismatch, got %s", hash, blob.Hash())
	}
	return blob, nil
}

func (s *Store) GetTree(hash string) (*objects.Tree, error) {
	kind, payload, err := s.getData(hash)
	if err != nil {
		return nil, err
	}
	if kind != objects.KindTree {
		return nil, fmt.Errorf("object %s is a %s, expected tree", hash, kind)
	}
	tree, err := objects.DecodeTree(payload)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", hash, err)
	}
	if tree.Hash() != hash {
		return nil, fmt.Errorf("object %s: hash mismatch, got %s", hash, tree.Hash())
	}
	return tree, nil
}

func (s *Store) GetCommit(hash string) (*objects.Commit, error) {
	kind, payload, err := s.getData(hash)
	if err != nil {
		return nil, err
	}
	if kind != objects.KindCommit {
		return nil, fmt.Errorf("object %s is a %s, expected commit", hash, kind)
	}
	commit, err := objects.DecodeCommit(payload)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", hash, err)
	}
	if commit.Hash() != hash {
		return nil, fmt.Errorf("object %s: hash mismatch, got %s", hash, commit.Hash())
	}
	return commit, nil
}

// Head returns the hash of the current HEAD commit, or ErrNoHead if no commit
// has been made yet.
func (s *Store) Head() (string, error) {
	var hash string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(headKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			hash = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNoHead
	}
	if err != nil {
		return "", fmt.Errorf("reading head: %w", err)
	}
	return hash, nil
}

// SetHead advances HEAD to the given commit hash. This is the final, atomic
// step of a commit; everything the hash references must already be stored.
func (s *Store) SetHead(hash string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(headKey), []byte(hash))
	})
	if err != nil {
		return fmt.Errorf("updating head: %w", err)
	}
	return nil
}
