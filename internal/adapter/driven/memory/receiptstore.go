package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ericfisherdev/qabox/internal/domain/model"
	"github.com/ericfisherdev/qabox/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReceiptStore = (*ReceiptStore)(nil)

// ReceiptStore keeps question receipts in memory.
type ReceiptStore struct {
	mu       sync.RWMutex
	receipts map[string]model.Receipt
}

// NewReceiptStore returns an empty ReceiptStore.
func NewReceiptStore() *ReceiptStore {
	return &ReceiptStore{receipts: make(map[string]model.Receipt)}
}

// Save stores or replaces the receipt for its question.
func (s *ReceiptStore) Save(_ context.Context, receipt model.Receipt) error {
	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[receipt.QuestionID] = receipt
	return nil
}

// Get returns the receipt for questionID, or (nil, nil).
func (s *ReceiptStore) Get(_ context.Context, questionID string) (*model.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	receipt, ok := s.receipts[questionID]
	if !ok {
		return nil, nil
	}
	return &receipt, nil
}

// List returns receipts newest first.
func (s *ReceiptStore) List(_ context.Context) ([]model.Receipt, error) {
	s.mu.RLock()
	receipts := make([]model.Receipt, 0, len(s.receipts))
	for _, r := range s.receipts {
		receipts = append(receipts, r)
	}
	s.mu.RUnlock()

	sort.Slice(receipts, func(i, j int) bool {
		return receipts[i].CreatedAt.After(receipts[j].CreatedAt)
	})
	return receipts, nil
}

// Delete removes the receipt for questionID.
func (s *ReceiptStore) Delete(_ context.Context, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.receipts, questionID)
	return nil
}
