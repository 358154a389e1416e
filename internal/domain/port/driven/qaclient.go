package driven

import (
	"context"
	"io"

	"github.com/ericfisherdev/qabox/internal/domain/model"
)

// QAClient defines the driven port for the question/answer backend API.
// Implementations call through the intercepted transport and carry no session
// logic of their own.
type QAClient interface {
	// UploadImage uploads an image and returns its public URL path. When a
	// console credential is stored it is attached so the admin size limit applies.
	UploadImage(ctx context.Context, filename string, r io.Reader) (string, error)

	// SubmitQuestion creates a question and returns its ownership receipt.
	SubmitQuestion(ctx context.Context, q model.NewQuestion) (model.Receipt, error)

	// RevokeQuestion withdraws an unanswered question using its receipt token.
	RevokeQuestion(ctx context.Context, token string) error

	// ListPublicQuestions returns answered public questions, newest answer first.
	ListPublicQuestions(ctx context.Context, skip, limit int) ([]model.Question, error)

	// GetQuestion returns a single question by ID.
	GetQuestion(ctx context.Context, id string) (model.Question, error)

	// GetQuestionsBatch returns the questions that still exist among ids.
	GetQuestionsBatch(ctx context.Context, ids []string) ([]model.Question, error)

	// Login exchanges console credentials for a bearer token.
	Login(ctx context.Context, username, password string) (model.AdminToken, error)

	// VerifyToken checks the stored console credential.
	VerifyToken(ctx context.Context) (model.VerifyResult, error)

	// ListQuestions returns all questions for the console, newest first.
	ListQuestions(ctx context.Context, skip, limit int) ([]model.Question, error)

	// UpdateQuestion changes visibility or answered status.
	UpdateQuestion(ctx context.Context, id string, update model.QuestionUpdate) (model.Question, error)

	// AnswerQuestion answers a question.
	AnswerQuestion(ctx context.Context, id string, answer model.Answer) (model.Question, error)

	// DeleteQuestion deletes a question and returns how many images were removed.
	DeleteQuestion(ctx context.Context, id string) (int, error)
}
