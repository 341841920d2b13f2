package service

import (
	"sync"

	"golang-idea-tracker/internal/market"
)

// PriceOverlay holds the most recent live quote per stock code for the
// lifetime of the process. The poller is its only writer; dashboard reads
// happen concurrently. Apply merges a whole fetch result under one write
// lock, so a reader never observes a partially merged update.
type PriceOverlay struct {
	mu     sync.RWMutex
	quotes map[string]market.PriceSnapshot
}

// NewPriceOverlay creates an empty overlay.
func NewPriceOverlay() *PriceOverlay {
	return &PriceOverlay{
		quotes: make(map[string]market.PriceSnapshot),
	}
}

// Apply merges update into the overlay. Every key present in update
// overwrites the stored snapshot whole; codes absent from update keep their
// last-known snapshot.
func (o *PriceOverlay) Apply(update map[string]market.PriceSnapshot) {
	if len(update) == 0 {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	for stockCode, snapshot := range update {
		o.quotes[stockCode] = snapshot
	}
}

// Quote returns the stored snapshot for a stock code.
func (o *PriceOverlay) Quote(stockCode string) (market.PriceSnapshot, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	snapshot, ok := o.quotes[stockCode]
	return snapshot, ok
}

// Snapshot returns a copy of every stored quote.
func (o *PriceOverlay) Snapshot() map[string]market.PriceSnapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make(map[string]market.PriceSnapshot, len(o.quotes))
	for stockCode, snapshot := range o.quotes {
		out[stockCode] = snapshot
	}
	return out
}

// Len returns the number of stored quotes.
func (o *PriceOverlay) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.quotes)
}
