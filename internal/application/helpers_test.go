package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/ericfisherdev/qabox/internal/domain/model"
)

var testNS = model.MustNamespace("/console-x7k9m", "/api")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingNavigator records redirects and moves its location to the target.
type recordingNavigator struct {
	mu        sync.Mutex
	location  string
	redirects []string
	err       error
}

func (n *recordingNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *recordingNavigator) Redirect(_ context.Context, path string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirects = append(n.redirects, path)
	if n.err != nil {
		return n.err
	}
	n.location = path
	return nil
}

func (n *recordingNavigator) Redirects() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.redirects...)
}

// failingStore fails every operation with err.
type failingStore struct {
	err error
}

func (s failingStore) Read(context.Context) (string, error) { return "", s.err }
func (s failingStore) Write(context.Context, string) error  { return s.err }
func (s failingStore) Clear(context.Context) error          { return s.err }

var errStoreDown = errors.New("store unavailable")

// mockQAClient is a driven.QAClient whose methods are overridable per test.
type mockQAClient struct {
	login       func(ctx context.Context, username, password string) (model.AdminToken, error)
	verify      func(ctx context.Context) (model.VerifyResult, error)
	list        func(ctx context.Context, skip, limit int) ([]model.Question, error)
	submit      func(ctx context.Context, q model.NewQuestion) (model.Receipt, error)
	revoke      func(ctx context.Context, token string) error
	batch       func(ctx context.Context, ids []string) ([]model.Question, error)
	deleteCalls []string
}

func (m *mockQAClient) UploadImage(_ context.Context, filename string, _ io.Reader) (string, error) {
	return "/uploads/" + filename, nil
}

func (m *mockQAClient) SubmitQuestion(ctx context.Context, q model.NewQuestion) (model.Receipt, error) {
	return m.submit(ctx, q)
}

func (m *mockQAClient) RevokeQuestion(ctx context.Context, token string) error {
	return m.revoke(ctx, token)
}

func (m *mockQAClient) ListPublicQuestions(context.Context, int, int) ([]model.Question, error) {
	return []model.Question{}, nil
}

func (m *mockQAClient) GetQuestion(_ context.Context, id string) (model.Question, error) {
	return model.Question{ID: id}, nil
}

func (m *mockQAClient) GetQuestionsBatch(ctx context.Context, ids []string) ([]model.Question, error) {
	return m.batch(ctx, ids)
}

func (m *mockQAClient) Login(ctx context.Context, username, password string) (model.AdminToken, error) {
	return m.login(ctx, username, password)
}

func (m *mockQAClient) VerifyToken(ctx context.Context) (model.VerifyResult, error) {
	return m.verify(ctx)
}

func (m *mockQAClient) ListQuestions(ctx context.Context, skip, limit int) ([]model.Question, error) {
	return m.list(ctx, skip, limit)
}

func (m *mockQAClient) UpdateQuestion(_ context.Context, id string, _ model.QuestionUpdate) (model.Question, error) {
	return model.Question{ID: id}, nil
}

func (m *mockQAClient) AnswerQuestion(_ context.Context, id string, a model.Answer) (model.Question, error) {
	return model.Question{ID: id, IsAnswered: true, AnswerContent: a.Content, IsPublic: a.IsPublic}, nil
}

func (m *mockQAClient) DeleteQuestion(_ context.Context, id string) (int, error) {
	m.deleteCalls = append(m.deleteCalls, id)
	return 0, nil
}
