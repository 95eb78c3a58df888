package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/btree"

	"github.com/efreitasn/brokerage/internal/domain"
)

type balanceKey struct {
	customerID int64
	asset      string
}

// createdKey orders the created-at index: CreatedAt ascending, then
// OrderID ascending.
type createdKey struct {
	at      time.Time
	orderID string
}

func createdLess(a, b createdKey) bool {
	if !a.at.Equal(b.at) {
		return a.at.Before(b.at)
	}
	return a.orderID < b.orderID
}

// Memory is a thread-safe in-memory Store. Transactions are serialized:
// the outermost Tx holds the writer lock until it returns, and rolls back
// through an undo journal.
type Memory struct {
	writeMu sync.Mutex // held by the outermost transaction, or a single autocommit write

	mu             sync.RWMutex
	balances       map[balanceKey]*domain.Balance
	orders         map[string]*domain.Order
	customerOrders map[int64][]string // customer_id → order ids (creation order)
	sequence       []string           // all order ids (creation order)
	created        *btree.BTreeG[createdKey]
	settlements    map[string]*domain.Settlement // order_id → settlement
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		balances:       make(map[balanceKey]*domain.Balance),
		orders:         make(map[string]*domain.Order),
		customerOrders: make(map[int64][]string),
		created:        btree.NewG[createdKey](32, createdLess),
		settlements:    make(map[string]*domain.Settlement),
	}
}

func (m *Memory) Balances() BalanceStore       { return memBalances{&memSession{m: m}} }
func (m *Memory) Orders() OrderStore           { return memOrders{&memSession{m: m}} }
func (m *Memory) Settlements() SettlementStore { return memSettlements{&memSession{m: m}} }

// Tx runs fn in a new transaction.
func (m *Memory) Tx(ctx context.Context, fn func(tx Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	s := &memSession{m: m, journal: &journal{}}
	return s.run(fn, 0)
}

// journal holds undo steps for the writes of one transaction. Steps run
// with Memory.mu held.
type journal struct {
	undo []func()
}

// memSession is a Store bound to a transaction, or an autocommit handle
// when journal is nil.
type memSession struct {
	m       *Memory
	journal *journal
}

func (s *memSession) Balances() BalanceStore       { return memBalances{s} }
func (s *memSession) Orders() OrderStore           { return memOrders{s} }
func (s *memSession) Settlements() SettlementStore { return memSettlements{s} }

// Tx opens a savepoint inside the current transaction.
func (s *memSession) Tx(ctx context.Context, fn func(tx Store) error) error {
	if s.journal == nil {
		return s.m.Tx(ctx, fn)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.run(fn, len(s.journal.undo))
}

func (s *memSession) run(fn func(tx Store) error, mark int) (err error) {
	defer func() {
		if p := recover(); p != nil {
			s.rollback(mark)
			panic(p)
		}
	}()
	if err := fn(s); err != nil {
		s.rollback(mark)
		return err
	}
	return nil
}

func (s *memSession) rollback(mark int) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for i := len(s.journal.undo) - 1; i >= mark; i-- {
		s.journal.undo[i]()
	}
	s.journal.undo = s.journal.undo[:mark]
}

// write runs fn with Memory.mu held for writing. Outside a transaction it
// also takes the writer lock so autocommit writes never interleave with a
// transaction that may roll back.
func (s *memSession) write(fn func() error) error {
	if s.journal == nil {
		s.m.writeMu.Lock()
		defer s.m.writeMu.Unlock()
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return fn()
}

// onRollback registers an undo step. It must be called from within write.
func (s *memSession) onRollback(undo func()) {
	if s.journal != nil {
		s.journal.undo = append(s.journal.undo, undo)
	}
}
