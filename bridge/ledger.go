package bridge

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorevobridge/types"
)

var ErrDuplicateEntry = errors.New("ledger entry already recorded for transaction")

// Store serializes the whole bridge state to durable storage.
// A Load on a store that has never been written yields an empty
// state, not an error.
type Store interface {
	Load() (*types.BridgeState, error)
	Save(state *types.BridgeState) error
}

// Ledger is the durable record of which source transactions have been
// credited, plus the last fully-scanned block. Entries are write-once:
// once a tx hash is recorded it is never mutated or deleted. One
// orchestrator instance owns the ledger at a time; the mutex only
// covers concurrent reads from the status API.
type Ledger struct {
	mu    sync.RWMutex
	store Store
	state *types.BridgeState
}

func OpenLedger(store Store) (*Ledger, error) {
	state, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading bridge state: %w", err)
	}
	if state.ProcessedTxs == nil {
		state.ProcessedTxs = map[string]types.ProcessedTx{}
	}
	return &Ledger{store: store, state: state}, nil
}

func (l *Ledger) IsProcessed(txHash string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.state.ProcessedTxs[txHash]
	return ok
}

// Record marks txHash as credited. Callers are expected to pre-check
// with IsProcessed; the duplicate error is a defensive backstop.
func (l *Ledger) Record(txHash string, entry types.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.state.ProcessedTxs[txHash]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEntry, txHash)
	}
	l.state.ProcessedTxs[txHash] = types.ProcessedTx{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Details:   entry,
	}
	return nil
}

// AdvanceTo never moves the watermark backwards.
func (l *Ledger) AdvanceTo(blockNumber uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if blockNumber > l.state.LastBlockProcessed {
		l.state.LastBlockProcessed = blockNumber
	}
}

func (l *Ledger) LastBlockProcessed() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.LastBlockProcessed
}

func (l *Ledger) ProcessedCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.state.ProcessedTxs)
}

func (l *Ledger) Persist() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.Save(l.state)
}
