package store

import (
	"fmt"
	"path/filepath"

	"github.com/kanteakoisi/GreenPledge/db"
)

// StoreType represents the type of store implementation
type StoreType string

const (
	// LevelDBStoreType uses the LevelDB implementation
	LevelDBStoreType StoreType = "leveldb"

	// BoltStoreType uses the bbolt single-file implementation
	BoltStoreType StoreType = "bolt"

	// MemoryStoreType keeps everything in process memory (tests, dry runs)
	MemoryStoreType StoreType = "memory"
)

// StoreConfig holds configuration for creating store instances
type StoreConfig struct {
	// Type specifies which store implementation to use
	Type StoreType `json:"type" yaml:"type"`

	// Directory is the database directory path (for file-based databases)
	Directory string `json:"directory" yaml:"directory"`
}

// Validate validates the store configuration
func (sc *StoreConfig) Validate() error {
	if sc.Type == "" {
		return fmt.Errorf("store type cannot be empty")
	}

	switch sc.Type {
	case MemoryStoreType:
		return nil
	case LevelDBStoreType, BoltStoreType:
		if sc.Directory == "" {
			return fmt.Errorf("directory cannot be empty for store type %s", sc.Type)
		}
		return nil
	default:
		return fmt.Errorf("unsupported store type: %s", sc.Type)
	}
}

// StoreFactory take responsibility to create store instances
type StoreFactory struct{}

// NewStoreFactory creates a new store factory
func NewStoreFactory() *StoreFactory {
	return &StoreFactory{}
}

// CreateStoresWithProvider opens the configured backend once and builds the
// three ledger stores on top of the shared provider. Sharing one provider is
// what lets a ledger operation commit across stores in a single batch.
func (sf *StoreFactory) CreateStoresWithProvider(config *StoreConfig) (CreditStore, JournalStore, StateStore, db.IterableProvider, error) {
	if config == nil {
		return nil, nil, nil, nil, fmt.Errorf("config cannot be nil")
	}

	if err := config.Validate(); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	provider, err := sf.createProvider(config)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	creditStore, err := NewGenericCreditStore(provider)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to create credit store: %w", err)
	}

	journalStore, err := NewGenericJournalStore(provider)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to create journal store: %w", err)
	}

	stateStore, err := NewGenericStateStore(provider)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to create state store: %w", err)
	}

	return creditStore, journalStore, stateStore, provider, nil
}

func (sf *StoreFactory) createProvider(config *StoreConfig) (db.IterableProvider, error) {
	switch config.Type {
	case LevelDBStoreType:
		provider, err := db.NewLevelDBProvider(config.Directory)
		if err != nil {
			return nil, fmt.Errorf("failed to open leveldb store: %w", err)
		}
		return provider.(db.IterableProvider), nil
	case BoltStoreType:
		provider, err := db.NewBoltProvider(filepath.Join(config.Directory, "greenpledge.db"))
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt store: %w", err)
		}
		return provider.(db.IterableProvider), nil
	case MemoryStoreType:
		return db.NewMemoryProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}
