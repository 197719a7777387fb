// Package memory is an in-process ledger store for development and tests.
//
// Transactions are serialized: Execute works on a private copy of the committed state and
// swaps it in on success, so a failed or panicking callback leaves nothing behind. This
// stands in for the row locks of the postgres driver.
package memory

import (
	"bytes"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"propledger/internal/domain/entity"
	"propledger/internal/domain/repository"

	"github.com/google/uuid"
)

type ownershipKey struct {
	userID  uuid.UUID
	assetID uuid.UUID
}

type yieldKey struct {
	incomeID uuid.UUID
	userID   uuid.UUID
}

type state struct {
	users       map[uuid.UUID]entity.User
	assets      map[uuid.UUID]entity.Asset
	wallets     map[uuid.UUID]entity.Wallet
	history     []*entity.ActionHistory
	ownerships  map[ownershipKey]entity.Ownership
	collaterals map[uuid.UUID]entity.Collateral
	incomes     map[uuid.UUID]entity.RentalIncome
	yields      map[yieldKey]entity.YieldDistribution
}

func newState() *state {
	return &state{
		users:       make(map[uuid.UUID]entity.User),
		assets:      make(map[uuid.UUID]entity.Asset),
		wallets:     make(map[uuid.UUID]entity.Wallet),
		ownerships:  make(map[ownershipKey]entity.Ownership),
		collaterals: make(map[uuid.UUID]entity.Collateral),
		incomes:     make(map[uuid.UUID]entity.RentalIncome),
		yields:      make(map[yieldKey]entity.YieldDistribution),
	}
}

// clone copies every table. Rows are stored by value and history entries are never
// mutated after append, so a shallow copy of each container is enough.
func (s *state) clone() *state {
	return &state{
		users:       maps.Clone(s.users),
		assets:      maps.Clone(s.assets),
		wallets:     maps.Clone(s.wallets),
		history:     slices.Clone(s.history),
		ownerships:  maps.Clone(s.ownerships),
		collaterals: maps.Clone(s.collaterals),
		incomes:     maps.Clone(s.incomes),
		yields:      maps.Clone(s.yields),
	}
}

// Store holds the committed ledger state.
type Store struct {
	txMu  sync.Mutex   // serializes writers
	mu    sync.RWMutex // guards the committed pointer
	state *state
	now   func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		state: newState(),
		now:   time.Now,
	}
}

// view is the access path a repository uses to reach a state.
type view interface {
	read(fn func(st *state) error) error
	write(fn func(st *state) error) error
	now() time.Time
}

// committedView reads and writes the committed state outside of any transaction.
type committedView struct {
	store *Store
}

func (v committedView) read(fn func(st *state) error) error {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()

	return fn(v.store.state)
}

func (v committedView) write(fn func(st *state) error) error {
	v.store.txMu.Lock()
	defer v.store.txMu.Unlock()

	working := v.store.snapshot()
	if err := fn(working); err != nil {
		return err
	}
	v.store.commit(working)

	return nil
}

func (v committedView) now() time.Time {
	return v.store.now()
}

// txView works on the private state of a running transaction.
type txView struct {
	working *state
	clock   func() time.Time
}

func (v *txView) read(fn func(st *state) error) error {
	return fn(v.working)
}

func (v *txView) write(fn func(st *state) error) error {
	return fn(v.working)
}

func (v *txView) now() time.Time {
	return v.clock()
}

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.clone()
}

func (s *Store) commit(working *state) {
	s.mu.Lock()
	s.state = working
	s.mu.Unlock()
}

// Execute runs fn against a private copy of the state and commits it when fn returns nil.
func (s *Store) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &txView{working: s.snapshot(), clock: s.now}
	if err := fn(newFactory(tx)); err != nil {
		return err
	}

	s.commit(tx.working)

	return nil
}

// Repositories returns repositories bound to the committed state.
// Each call on them is its own atomic unit.
func (s *Store) Repositories() repository.RepositoryFactory {
	return newFactory(committedView{store: s})
}

// TransactionManager exposes the store as a repository.TransactionManager.
func (s *Store) TransactionManager() repository.TransactionManager {
	return s
}

type factory struct {
	v view
}

func newFactory(v view) *factory {
	return &factory{v: v}
}

func (f *factory) UserRepo() repository.UserRepository           { return &userRepository{v: f.v} }
func (f *factory) AssetRepo() repository.AssetRepository         { return &assetRepository{v: f.v} }
func (f *factory) WalletRepo() repository.WalletRepository       { return &walletRepository{v: f.v} }
func (f *factory) HistoryRepo() repository.HistoryRepository     { return &historyRepository{v: f.v} }
func (f *factory) OwnershipRepo() repository.OwnershipRepository { return &ownershipRepository{v: f.v} }
func (f *factory) CollateralRepo() repository.CollateralRepository {
	return &collateralRepository{v: f.v}
}
func (f *factory) RentalIncomeRepo() repository.RentalIncomeRepository {
	return &rentalIncomeRepository{v: f.v}
}
func (f *factory) YieldRepo() repository.YieldDistributionRepository {
	return &yieldRepository{v: f.v}
}

func compareUUID(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

func page[T any](rows []T, p repository.Pagination) []T {
	p = p.Normalize()
	if p.Offset >= len(rows) {
		return []T{}
	}
	end := min(p.Offset+p.Limit, len(rows))

	return rows[p.Offset:end]
}
