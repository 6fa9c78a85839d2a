package db

import (
	"bytes"
	"sort"
	"sync"
)

// MemoryProvider implements DatabaseProvider with an in-process map. Used in
// tests and for ephemeral runs where durability does not matter.
type MemoryProvider struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemoryProvider creates an empty in-memory provider
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		data: make(map[string][]byte),
	}
}

func (p *MemoryProvider) Get(key []byte) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	value, ok := p.data[string(key)]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), value...), nil
}

func (p *MemoryProvider) GetBatch(keys [][]byte) (map[string][]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if value, ok := p.data[string(key)]; ok {
			result[string(key)] = append([]byte(nil), value...)
		}
	}
	return result, nil
}

func (p *MemoryProvider) Put(key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (p *MemoryProvider) Delete(key []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.data, string(key))
	return nil
}

func (p *MemoryProvider) Has(key []byte) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.data[string(key)]
	return ok, nil
}

func (p *MemoryProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	return nil
}

func (p *MemoryProvider) Batch() DatabaseBatch {
	return &MemoryBatch{provider: p}
}

func (p *MemoryProvider) IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error {
	p.mu.RLock()
	keys := make([]string, 0, len(p.data))
	for k := range p.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	p.mu.RUnlock()

	sort.Strings(keys)
	for _, k := range keys {
		p.mu.RLock()
		value, ok := p.data[k]
		p.mu.RUnlock()
		if !ok {
			continue
		}
		if !callback([]byte(k), append([]byte(nil), value...)) {
			break
		}
	}
	return nil
}

type memoryBatchOp struct {
	key    string
	value  []byte
	delete bool
}

// MemoryBatch implements DatabaseBatch for MemoryProvider
type MemoryBatch struct {
	provider *MemoryProvider
	ops      []memoryBatchOp
}

func (b *MemoryBatch) Put(key, value []byte) {
	b.ops = append(b.ops, memoryBatchOp{
		key:   string(key),
		value: append([]byte(nil), value...),
	})
}

func (b *MemoryBatch) Delete(key []byte) {
	b.ops = append(b.ops, memoryBatchOp{
		key:    string(key),
		delete: true,
	})
}

func (b *MemoryBatch) Write() error {
	b.provider.mu.Lock()
	defer b.provider.mu.Unlock()

	for _, op := range b.ops {
		if op.delete {
			delete(b.provider.data, op.key)
			continue
		}
		b.provider.data[op.key] = op.value
	}
	return nil
}

func (b *MemoryBatch) Reset() {
	b.ops = b.ops[:0]
}

func (b *MemoryBatch) Close() {
	b.ops = nil
}
