package db

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
)

// LevelDBProvider implements DatabaseProvider backed by LevelDB
type LevelDBProvider struct {
	once sync.Once
	db   *leveldb.DB
}

// NewLevelDBProvider opens (or creates) a LevelDB database at directory
func NewLevelDBProvider(directory string) (DatabaseProvider, error) {
	ldb, err := leveldb.OpenFile(directory, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open LevelDB: %w", err)
	}

	return &LevelDBProvider{db: ldb}, nil
}

func (p *LevelDBProvider) Get(key []byte) ([]byte, error) {
	value, err := p.db.Get(key, nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			// absent key, consistent with the provider interface
			return nil, nil
		}
		return nil, err
	}
	return value, nil
}

// GetBatch retrieves multiple values by keys. LevelDB has no native
// MultiGet, so the lookups run one by one.
func (p *LevelDBProvider) GetBatch(keys [][]byte) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		value, err := p.db.Get(key, nil)
		if err != nil {
			if err == leveldb.ErrNotFound {
				continue
			}
			return nil, err
		}
		result[string(key)] = value
	}
	return result, nil
}

func (p *LevelDBProvider) Put(key, value []byte) error {
	return p.db.Put(key, value, nil)
}

func (p *LevelDBProvider) Delete(key []byte) error {
	return p.db.Delete(key, nil)
}

func (p *LevelDBProvider) Has(key []byte) (bool, error) {
	return p.db.Has(key, nil)
}

// Close closes the underlying database. Safe to call more than once when
// several stores share the provider.
func (p *LevelDBProvider) Close() error {
	var err error
	p.once.Do(func() {
		err = p.db.Close()
	})
	return err
}

func (p *LevelDBProvider) Batch() DatabaseBatch {
	return &LevelDBBatch{
		batch: new(leveldb.Batch),
		db:    p.db,
	}
}

// IteratePrefix walks all keys starting with prefix in ascending order.
// Key and value slices are copied before the callback because the LevelDB
// iterator reuses its buffers between steps.
func (p *LevelDBProvider) IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error {
	iter := p.db.NewIterator(nil, nil)
	defer iter.Release()

	for ok := iter.Seek(prefix); ok; ok = iter.Next() {
		key := iter.Key()
		if !bytes.HasPrefix(key, prefix) {
			break
		}
		k := append([]byte(nil), key...)
		v := append([]byte(nil), iter.Value()...)
		if !callback(k, v) {
			break
		}
	}

	return iter.Error()
}

// LevelDBBatch implements DatabaseBatch for LevelDB
type LevelDBBatch struct {
	batch *leveldb.Batch
	db    *leveldb.DB
}

func (b *LevelDBBatch) Put(key, value []byte) {
	b.batch.Put(key, value)
}

func (b *LevelDBBatch) Delete(key []byte) {
	b.batch.Delete(key)
}

func (b *LevelDBBatch) Write() error {
	return b.db.Write(b.batch, nil)
}

func (b *LevelDBBatch) Reset() {
	b.batch.Reset()
}

func (b *LevelDBBatch) Close() {
	// nothing to release for a LevelDB batch
}
