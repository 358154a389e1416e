package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/qabox/internal/domain/model"
	"github.com/ericfisherdev/qabox/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReceiptStore = (*ReceiptRepo)(nil)

// ReceiptRepo is the SQLite implementation of the ReceiptStore port.
type ReceiptRepo struct {
	db *DB
}

// NewReceiptRepo creates a new ReceiptRepo.
func NewReceiptRepo(db *DB) *ReceiptRepo {
	return &ReceiptRepo{db: db}
}

// Save stores or replaces the receipt for its question.
func (r *ReceiptRepo) Save(ctx context.Context, receipt model.Receipt) error {
	createdAt := receipt.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	const query = `INSERT OR REPLACE INTO receipts (question_id, token, created_at) VALUES (?, ?, ?)`
	_, err := r.db.Writer.ExecContext(ctx, query,
		receipt.QuestionID,
		receipt.Token,
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save receipt %s: %w", receipt.QuestionID, err)
	}
	return nil
}

// Get returns the receipt for questionID, or (nil, nil) when none is stored.
func (r *ReceiptRepo) Get(ctx context.Context, questionID string) (*model.Receipt, error) {
	const query = `SELECT question_id, token, created_at FROM receipts WHERE question_id = ?`

	receipt, err := scanReceipt(r.db.Reader.QueryRowContext(ctx, query, questionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get receipt %s: %w", questionID, err)
	}
	return &receipt, nil
}

// List returns all receipts, newest first.
func (r *ReceiptRepo) List(ctx context.Context) ([]model.Receipt, error) {
	const query = `SELECT question_id, token, created_at FROM receipts ORDER BY created_at DESC`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	receipts := []model.Receipt{}
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		receipts = append(receipts, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}
	return receipts, nil
}

// Delete removes the receipt for questionID.
func (r *ReceiptRepo) Delete(ctx context.Context, questionID string) error {
	const query = `DELETE FROM receipts WHERE question_id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, questionID); err != nil {
		return fmt.Errorf("delete receipt %s: %w", questionID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (model.Receipt, error) {
	var (
		receipt   model.Receipt
		createdAt string
	)
	if err := row.Scan(&receipt.QuestionID, &receipt.Token, &createdAt); err != nil {
		return model.Receipt{}, err
	}

	t, err := parseTime(createdAt)
	if err != nil {
		return model.Receipt{}, err
	}
	receipt.CreatedAt = t
	return receipt, nil
}
