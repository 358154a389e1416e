package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ericfisherdev/qabox/internal/domain/model"
	"github.com/ericfisherdev/qabox/internal/domain/port/driven"
)

// maxBatchIDs mirrors the backend's limit on batch lookups.
const maxBatchIDs = 100

// AskService orchestrates the public view: asking, browsing and revoking.
// Receipts of submitted questions are kept locally so the visitor can follow
// up on them.
type AskService struct {
	api      driven.QAClient
	receipts driven.ReceiptStore
	logger   *slog.Logger
}

// NewAskService creates a new AskService.
func NewAskService(api driven.QAClient, receipts driven.ReceiptStore, logger *slog.Logger) *AskService {
	return &AskService{api: api, receipts: receipts, logger: logger}
}

// Submit sends a question and remembers its receipt.
func (s *AskService) Submit(ctx context.Context, q model.NewQuestion) (model.Receipt, error) {
	receipt, err := s.api.SubmitQuestion(ctx, q)
	if err != nil {
		return model.Receipt{}, fmt.Errorf("submit question: %w", err)
	}
	if err := s.receipts.Save(ctx, receipt); err != nil {
		return receipt, fmt.Errorf("save receipt: %w", err)
	}
	s.logger.Info("question submitted", "question_id", receipt.QuestionID)
	return receipt, nil
}

// Revoke withdraws a question submitted from this client.
func (s *AskService) Revoke(ctx context.Context, questionID string) error {
	receipt, err := s.receipts.Get(ctx, questionID)
	if err != nil {
		return fmt.Errorf("load receipt: %w", err)
	}
	if receipt == nil {
		return fmt.Errorf("no receipt for question %s: %w", questionID, model.ErrNotFound)
	}

	if err := s.api.RevokeQuestion(ctx, receipt.Token); err != nil {
		return fmt.Errorf("revoke question %s: %w", questionID, err)
	}
	if err := s.receipts.Delete(ctx, questionID); err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	s.logger.Info("question revoked", "question_id", questionID)
	return nil
}

// Mine returns the current state of the most recent questions submitted from
// this client. Receipts whose questions no longer exist are dropped.
func (s *AskService) Mine(ctx context.Context) ([]model.Question, error) {
	receipts, err := s.receipts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	if len(receipts) == 0 {
		return []model.Question{}, nil
	}
	if len(receipts) > maxBatchIDs {
		receipts = receipts[:maxBatchIDs]
	}

	ids := make([]string, 0, len(receipts))
	for _, r := range receipts {
		ids = append(ids, r.QuestionID)
	}

	questions, err := s.api.GetQuestionsBatch(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch my questions: %w", err)
	}

	found := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		found[q.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; ok {
			continue
		}
		if err := s.receipts.Delete(ctx, id); err != nil {
			s.logger.Warn("failed to prune receipt", "question_id", id, "error", err)
			continue
		}
		s.logger.Info("pruned receipt for deleted question", "question_id", id)
	}

	return questions, nil
}

// Public lists answered public questions.
func (s *AskService) Public(ctx context.Context, skip, limit int) ([]model.Question, error) {
	return s.api.ListPublicQuestions(ctx, skip, limit)
}

// Get returns a single question.
func (s *AskService) Get(ctx context.Context, id string) (model.Question, error) {
	return s.api.GetQuestion(ctx, id)
}

// Upload uploads an image for use in a question or answer.
func (s *AskService) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	return s.api.UploadImage(ctx, filename, r)
}
