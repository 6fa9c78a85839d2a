package store

import (
	"fmt"
	"strings"
	"sync"

	"github.com/kanteakoisi/GreenPledge/db"
	"github.com/kanteakoisi/GreenPledge/logx"
	"github.com/kanteakoisi/GreenPledge/types"
)

// StateStore persists the access-control and descriptor state: the admin
// identity, the pause flag, the minter allow-list, the token URI and the
// running audit digest.
type StateStore interface {
	GetAdmin() (types.Identity, error)
	SetAdmin(batch db.DatabaseBatch, admin types.Identity)
	IsPaused() (bool, error)
	SetPaused(batch db.DatabaseBatch, paused bool)
	IsMinter(id types.Identity) (bool, error)
	SetMinter(batch db.DatabaseBatch, id types.Identity, authorized bool)
	Minters() ([]types.Identity, error)
	GetTokenURI() (string, error)
	SetTokenURI(batch db.DatabaseBatch, uri string)
	GetDigest() ([32]byte, bool, error)
	SetDigest(batch db.DatabaseBatch, digest [32]byte)
	MustClose()
}

type GenericStateStore struct {
	mu         sync.RWMutex
	dbProvider db.IterableProvider
}

func NewGenericStateStore(dbProvider db.IterableProvider) (*GenericStateStore, error) {
	if dbProvider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}

	return &GenericStateStore{
		dbProvider: dbProvider,
	}, nil
}

func (ss *GenericStateStore) GetAdmin() (types.Identity, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	data, err := ss.dbProvider.Get(ss.metaKey(StateMetaKeyAdmin))
	if err != nil {
		return "", fmt.Errorf("could not get admin from db: %w", err)
	}
	return types.Identity(data), nil
}

func (ss *GenericStateStore) SetAdmin(batch db.DatabaseBatch, admin types.Identity) {
	batch.Put(ss.metaKey(StateMetaKeyAdmin), []byte(admin))
}

func (ss *GenericStateStore) IsPaused() (bool, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	data, err := ss.dbProvider.Get(ss.metaKey(StateMetaKeyPaused))
	if err != nil {
		return false, fmt.Errorf("could not get pause flag from db: %w", err)
	}
	return string(data) == "1", nil
}

func (ss *GenericStateStore) SetPaused(batch db.DatabaseBatch, paused bool) {
	value := "0"
	if paused {
		value = "1"
	}
	batch.Put(ss.metaKey(StateMetaKeyPaused), []byte(value))
}

func (ss *GenericStateStore) IsMinter(id types.Identity) (bool, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	return ss.dbProvider.Has(ss.minterKey(id))
}

// SetMinter stages the authorization flag for id. Revocation deletes the
// key so absence keeps meaning unauthorized.
func (ss *GenericStateStore) SetMinter(batch db.DatabaseBatch, id types.Identity, authorized bool) {
	if !authorized {
		batch.Delete(ss.minterKey(id))
		return
	}
	batch.Put(ss.minterKey(id), []byte("1"))
}

func (ss *GenericStateStore) Minters() ([]types.Identity, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	var minters []types.Identity
	err := ss.dbProvider.IteratePrefix([]byte(PrefixMinter), func(key, value []byte) bool {
		minters = append(minters, types.Identity(strings.TrimPrefix(string(key), PrefixMinter)))
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("could not list minters: %w", err)
	}
	return minters, nil
}

func (ss *GenericStateStore) GetTokenURI() (string, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	data, err := ss.dbProvider.Get(ss.metaKey(StateMetaKeyTokenURI))
	if err != nil {
		return "", fmt.Errorf("could not get token uri from db: %w", err)
	}
	return string(data), nil
}

func (ss *GenericStateStore) SetTokenURI(batch db.DatabaseBatch, uri string) {
	if uri == "" {
		batch.Delete(ss.metaKey(StateMetaKeyTokenURI))
		return
	}
	batch.Put(ss.metaKey(StateMetaKeyTokenURI), []byte(uri))
}

func (ss *GenericStateStore) GetDigest() ([32]byte, bool, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	data, err := ss.dbProvider.Get(ss.metaKey(StateMetaKeyDigest))
	if err != nil {
		return [32]byte{}, false, fmt.Errorf("could not get digest from db: %w", err)
	}
	if len(data) == 0 {
		return [32]byte{}, false, nil
	}
	if len(data) != 32 {
		return [32]byte{}, false, fmt.Errorf("invalid digest length: %d", len(data))
	}
	var out [32]byte
	copy(out[:], data)
	return out, true, nil
}

func (ss *GenericStateStore) SetDigest(batch db.DatabaseBatch, digest [32]byte) {
	batch.Put(ss.metaKey(StateMetaKeyDigest), digest[:])
}

func (ss *GenericStateStore) MustClose() {
	err := ss.dbProvider.Close()
	if err != nil {
		logx.Error("STATE_STORE", "Failed to close db provider:", err.Error())
	}
}

func (ss *GenericStateStore) metaKey(name string) []byte {
	return []byte(PrefixStateMeta + name)
}

func (ss *GenericStateStore) minterKey(id types.Identity) []byte {
	return []byte(PrefixMinter + string(id))
}
