package store

import (
	"fmt"
	"strings"
	"sync"

	"github.com/holiman/uint256"

	"github.com/kanteakoisi/GreenPledge/db"
	"github.com/kanteakoisi/GreenPledge/logx"
	"github.com/kanteakoisi/GreenPledge/types"
	"github.com/kanteakoisi/GreenPledge/utils"
)

// CreditStore persists per-identity credit balances and the global supply.
// An absent balance key reads as zero.
type CreditStore interface {
	GetBalance(id types.Identity) (*uint256.Int, error)
	SetBalance(batch db.DatabaseBatch, id types.Identity, balance *uint256.Int)
	GetTotalSupply() (*uint256.Int, error)
	SetTotalSupply(batch db.DatabaseBatch, supply *uint256.Int)
	// IterateBalances visits every stored balance; the callback returns
	// false to stop early
	IterateBalances(callback func(id types.Identity, balance *uint256.Int) bool) error
	MustClose()
}

type GenericCreditStore struct {
	mu         sync.RWMutex
	dbProvider db.IterableProvider
}

func NewGenericCreditStore(dbProvider db.IterableProvider) (*GenericCreditStore, error) {
	if dbProvider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}

	return &GenericCreditStore{
		dbProvider: dbProvider,
	}, nil
}

// GetBalance returns the stored balance for id, zero when the identity has
// never held credits.
func (cs *GenericCreditStore) GetBalance(id types.Identity) (*uint256.Int, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	data, err := cs.dbProvider.Get(cs.balanceKey(id))
	if err != nil {
		return nil, fmt.Errorf("could not get balance of %s from db: %w", id, err)
	}
	if data == nil {
		return uint256.NewInt(0), nil
	}
	return utils.Uint256FromString(string(data)), nil
}

// SetBalance stages the new balance for id into batch. A zero balance is
// staged as a deletion so absence keeps meaning zero.
func (cs *GenericCreditStore) SetBalance(batch db.DatabaseBatch, id types.Identity, balance *uint256.Int) {
	if balance == nil || balance.IsZero() {
		batch.Delete(cs.balanceKey(id))
		return
	}
	batch.Put(cs.balanceKey(id), []byte(utils.Uint256ToString(balance)))
}

func (cs *GenericCreditStore) GetTotalSupply() (*uint256.Int, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	data, err := cs.dbProvider.Get(cs.supplyKey())
	if err != nil {
		return nil, fmt.Errorf("could not get total supply from db: %w", err)
	}
	if data == nil {
		return uint256.NewInt(0), nil
	}
	return utils.Uint256FromString(string(data)), nil
}

func (cs *GenericCreditStore) SetTotalSupply(batch db.DatabaseBatch, supply *uint256.Int) {
	batch.Put(cs.supplyKey(), []byte(utils.Uint256ToString(supply)))
}

func (cs *GenericCreditStore) IterateBalances(callback func(id types.Identity, balance *uint256.Int) bool) error {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	prefix := []byte(PrefixBalance)
	return cs.dbProvider.IteratePrefix(prefix, func(key, value []byte) bool {
		id := types.Identity(strings.TrimPrefix(string(key), PrefixBalance))
		return callback(id, utils.Uint256FromString(string(value)))
	})
}

func (cs *GenericCreditStore) MustClose() {
	err := cs.dbProvider.Close()
	if err != nil {
		logx.Error("CREDIT_STORE", "Failed to close db provider:", err.Error())
	}
}

func (cs *GenericCreditStore) balanceKey(id types.Identity) []byte {
	return []byte(PrefixBalance + string(id))
}

func (cs *GenericCreditStore) supplyKey() []byte {
	return []byte(PrefixStateMeta + StateMetaKeySupply)
}
