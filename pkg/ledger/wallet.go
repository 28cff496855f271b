package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

type IntentType string

const IntentDebit IntentType = "DEBIT"

// Intent records an applied balance mutation. Keyed by (txID, entryID) so a
// retried payment is a no-op instead of a double debit.
type Intent struct {
	TxID      string     `json:"tx_id"`
	EntryID   string     `json:"entry_id"`
	Type      IntentType `json:"type"`
	User      string     `json:"user"`
	Amount    float64    `json:"amount"`
	Timestamp time.Time  `json:"timestamp"`
}

type Wallet struct {
	mu       sync.Mutex
	balances map[string]float64
	intents  map[string]*Intent
}

func NewWallet() *Wallet {
	return &Wallet{
		balances: make(map[string]float64),
		intents:  make(map[string]*Intent),
	}
}

func (w *Wallet) Credit(user string, amount float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.balances[user] += amount
}

func (w *Wallet) Balance(user string) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.balances[user]
}

func intentKey(txID, entryID string) string {
	return txID + "/" + entryID
}

// Debit atomically checks and applies a DEBIT intent. A repeated call with
// the same (txID, entryID) succeeds without touching the balance again.
func (w *Wallet) Debit(user, txID, entryID string, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive, got %f", amount)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	key := intentKey(txID, entryID)
	if _, applied := w.intents[key]; applied {
		return nil
	}

	if w.balances[user] < amount {
		return fmt.Errorf("%w: user %s has %f, needs %f", ErrInsufficientFunds, user, w.balances[user], amount)
	}

	w.balances[user] -= amount
	w.intents[key] = &Intent{
		TxID:      txID,
		EntryID:   entryID,
		Type:      IntentDebit,
		User:      user,
		Amount:    amount,
		Timestamp: time.Now().UTC(),
	}

	return nil
}
