package driven

import (
	"context"

	"github.com/ericfisherdev/qabox/internal/domain/model"
)

// ReceiptStore persists the ownership receipts of questions submitted from
// this client so they can be listed and revoked later.
type ReceiptStore interface {
	// Save stores or replaces the receipt for its question.
	Save(ctx context.Context, receipt model.Receipt) error

	// Get returns the receipt for questionID, or (nil, nil) if none exists.
	Get(ctx context.Context, questionID string) (*model.Receipt, error)

	// List returns receipts ordered newest first.
	List(ctx context.Context) ([]model.Receipt, error)

	// Delete removes the receipt for questionID. Missing receipts are not an error.
	Delete(ctx context.Context, questionID string) error
}
