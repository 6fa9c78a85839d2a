package store

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/kanteakoisi/GreenPledge/db"
	"github.com/kanteakoisi/GreenPledge/jsonx"
	"github.com/kanteakoisi/GreenPledge/logx"
	"github.com/kanteakoisi/GreenPledge/types"
	"github.com/kanteakoisi/GreenPledge/utils"
)

// JournalStore persists the append-indexed mint journal.
// Keys:
// - PrefixMintRecord + <8-byte big-endian index> => serialized record
// - PrefixStateMeta + "mint_counter" => 8-byte big-endian counter
//
// Records are never deleted. The only mutation after creation goes through
// UpdateMetadata, which rewrites the metadata field and nothing else.
type JournalStore interface {
	GetRecord(index uint64) (*types.MintRecord, error)
	PutRecord(batch db.DatabaseBatch, index uint64, record *types.MintRecord) error
	GetCounter() (uint64, error)
	SetCounter(batch db.DatabaseBatch, counter uint64)
	MustClose()
}

// storedMintRecord is the serialized journal form; amounts travel as
// decimal strings like every other persisted uint256.
type storedMintRecord struct {
	Amount    string `json:"amount"`
	Recipient string `json:"recipient"`
	Metadata  string `json:"metadata"`
	Timestamp uint64 `json:"timestamp"`
}

type GenericJournalStore struct {
	mu         sync.RWMutex
	dbProvider db.DatabaseProvider
}

func NewGenericJournalStore(dbProvider db.DatabaseProvider) (*GenericJournalStore, error) {
	if dbProvider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}

	return &GenericJournalStore{
		dbProvider: dbProvider,
	}, nil
}

// GetRecord returns the record at index, or nil when no record exists there.
func (js *GenericJournalStore) GetRecord(index uint64) (*types.MintRecord, error) {
	js.mu.RLock()
	defer js.mu.RUnlock()

	data, err := js.dbProvider.Get(js.recordKey(index))
	if err != nil {
		return nil, fmt.Errorf("could not get mint record %d from db: %w", index, err)
	}
	if data == nil {
		return nil, nil
	}

	var stored storedMintRecord
	if err := jsonx.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mint record %d: %w", index, err)
	}
	return &types.MintRecord{
		Amount:    utils.Uint256FromString(stored.Amount),
		Recipient: types.Identity(stored.Recipient),
		Metadata:  stored.Metadata,
		Timestamp: stored.Timestamp,
	}, nil
}

func (js *GenericJournalStore) PutRecord(batch db.DatabaseBatch, index uint64, record *types.MintRecord) error {
	stored := storedMintRecord{
		Amount:    utils.Uint256ToString(record.Amount),
		Recipient: string(record.Recipient),
		Metadata:  record.Metadata,
		Timestamp: record.Timestamp,
	}
	data, err := jsonx.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal mint record %d: %w", index, err)
	}
	batch.Put(js.recordKey(index), data)
	return nil
}

func (js *GenericJournalStore) GetCounter() (uint64, error) {
	js.mu.RLock()
	defer js.mu.RUnlock()

	data, err := js.dbProvider.Get(js.counterKey())
	if err != nil {
		return 0, fmt.Errorf("could not get mint counter from db: %w", err)
	}
	if data == nil {
		return 0, nil
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("invalid mint counter length: %d", len(data))
	}

	counter := binary.BigEndian.Uint64(data)
	return counter, nil
}

func (js *GenericJournalStore) SetCounter(batch db.DatabaseBatch, counter uint64) {
	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, counter)
	batch.Put(js.counterKey(), value)
}

func (js *GenericJournalStore) MustClose() {
	err := js.dbProvider.Close()
	if err != nil {
		logx.Error("JOURNAL_STORE", "Failed to close db provider:", err.Error())
	}
}

func (js *GenericJournalStore) recordKey(index uint64) []byte {
	key := make([]byte, len(PrefixMintRecord)+8)
	copy(key, PrefixMintRecord)
	binary.BigEndian.PutUint64(key[len(PrefixMintRecord):], index)
	return key
}

func (js *GenericJournalStore) counterKey() []byte {
	return []byte(PrefixStateMeta + StateMetaKeyCounter)
}
