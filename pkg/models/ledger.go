package models

import (
	"errors"
	"fmt"
	"time"
)

type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusProcessed EntryStatus = "processed"
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusFailed    EntryStatus = "failed"
)

var ErrInvalidStatusTransition = errors.New("invalid ledger status transition")

// CanTransitionTo enforces the entry lifecycle. Completed and failed are
// terminal.
func (s EntryStatus) CanTransitionTo(next EntryStatus) bool {
	switch s {
	case EntryStatusPending:
		return next == EntryStatusProcessed || next == EntryStatusFailed
	case EntryStatusProcessed:
		return next == EntryStatusCompleted || next == EntryStatusFailed
	default:
		return false
	}
}

// LedgerEntry records one booked transaction and its fee breakdown.
type LedgerEntry struct {
	EntryID        string             `json:"entry_id"`
	TxID           string             `json:"tx_id"          validate:"required"`
	Timestamp      time.Time          `json:"timestamp"`
	Payer          string             `json:"payer"          validate:"required"`
	Merchant       string             `json:"merchant"`
	ProviderUUID   string             `json:"provider_uuid"`
	ServiceType    string             `json:"service_type"`
	Amount         float64            `json:"amount"`
	IGasCost       float64            `json:"igas_cost"`
	ITax           float64            `json:"itax"`
	Fees           map[string]float64 `json:"fees,omitempty"`
	Status         EntryStatus        `json:"status"`
	BookingDetails map[string]any     `json:"booking_details,omitempty"`
}

func (e *LedgerEntry) TransitionTo(next EntryStatus) error {
	if !e.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, e.Status, next)
	}

	e.Status = next

	return nil
}

// Snapshot is the immutable view of an entry published to the settlement
// stream. Fees hold the per-party split computed at forwarding time.
type Snapshot struct {
	TxID         string             `json:"tx_id"`
	Payer        string             `json:"payer"`
	Merchant     string             `json:"merchant"`
	ProviderUUID string             `json:"provider_uuid"`
	ServiceType  string             `json:"service_type"`
	Amount       float64            `json:"amount"`
	Fees         map[string]float64 `json:"fees,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
}
