package db

import (
	"bytes"
	"fmt"
	"sync"

	bolt "go.etcd.io/bbolt"
)

// single bucket holding every prefixed key
var boltBucket = []byte("greenpledge")

// BoltProvider implements DatabaseProvider backed by bbolt. Unlike LevelDB
// it is a single file, which keeps small deployments easy to back up.
type BoltProvider struct {
	once sync.Once
	db   *bolt.DB
}

// NewBoltProvider opens (or creates) a bbolt database file at path
func NewBoltProvider(path string) (DatabaseProvider, error) {
	bdb, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt: %w", err)
	}

	err = bdb.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltProvider{db: bdb}, nil
}

func (p *BoltProvider) Get(key []byte) ([]byte, error) {
	var value []byte
	err := p.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(boltBucket).Get(key); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (p *BoltProvider) GetBatch(keys [][]byte) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	err := p.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		for _, key := range keys {
			if v := bucket.Get(key); v != nil {
				result[string(key)] = append([]byte(nil), v...)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (p *BoltProvider) Put(key, value []byte) error {
	return p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put(key, value)
	})
}

func (p *BoltProvider) Delete(key []byte) error {
	return p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete(key)
	})
}

func (p *BoltProvider) Has(key []byte) (bool, error) {
	var found bool
	err := p.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(boltBucket).Get(key) != nil
		return nil
	})
	return found, err
}

func (p *BoltProvider) Close() error {
	var err error
	p.once.Do(func() {
		err = p.db.Close()
	})
	return err
}

func (p *BoltProvider) Batch() DatabaseBatch {
	return &BoltBatch{db: p.db}
}

func (p *BoltProvider) IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error {
	return p.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(boltBucket).Cursor()
		for k, v := cursor.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cursor.Next() {
			key := append([]byte(nil), k...)
			value := append([]byte(nil), v...)
			if !callback(key, value) {
				break
			}
		}
		return nil
	})
}

type boltBatchOp struct {
	key    []byte
	value  []byte
	delete bool
}

// BoltBatch implements DatabaseBatch for bbolt. Operations are buffered and
// committed in one read-write transaction on Write.
type BoltBatch struct {
	db  *bolt.DB
	ops []boltBatchOp
}

func (b *BoltBatch) Put(key, value []byte) {
	b.ops = append(b.ops, boltBatchOp{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	})
}

func (b *BoltBatch) Delete(key []byte) {
	b.ops = append(b.ops, boltBatchOp{
		key:    append([]byte(nil), key...),
		delete: true,
	})
}

func (b *BoltBatch) Write() error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		for _, op := range b.ops {
			if op.delete {
				if err := bucket.Delete(op.key); err != nil {
					return err
				}
				continue
			}
			if err := bucket.Put(op.key, op.value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BoltBatch) Reset() {
	b.ops = b.ops[:0]
}

func (b *BoltBatch) Close() {
	b.ops = nil
}
