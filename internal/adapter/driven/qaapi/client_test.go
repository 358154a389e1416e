package qaapi_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gregjones/httpcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/qabox/internal/adapter/driven/memory"
	"github.com/ericfisherdev/qabox/internal/adapter/driven/qaapi"
	"github.com/ericfisherdev/qabox/internal/application"
	"github.com/ericfisherdev/qabox/internal/domain/model"
	"github.com/ericfisherdev/qabox/internal/domain/port/driven"
)

const questionID = "0b6f4e0c-3f7e-4a52-9d4c-2d6a5b1f7c11"

var testNS = model.MustNamespace("/console-x7k9m", "/api")

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler, store *memory.CredentialStore) *qaapi.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	var creds driven.CredentialStore
	if store != nil {
		creds = store
	}
	client, err := qaapi.NewClient(server.Client(), server.URL+"/", testNS, creds)
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://host", "http://", "::bad"} {
		_, err := qaapi.NewClient(nil, raw, testNS, nil)
		assert.Error(t, err, raw)
	}
}

// A backend mounted under a path would put every protected endpoint outside
// the namespace, so the session transport would neither attach nor invalidate.
func TestNewClient_RejectsBaseURLWithPath(t *testing.T) {
	for _, raw := range []string{
		"http://127.0.0.1:18000/qa",
		"http://127.0.0.1:18000/qa/",
		"http://127.0.0.1:18000/?tenant=1",
	} {
		_, err := qaapi.NewClient(nil, raw, testNS, nil)
		require.Error(t, err, raw)
		assert.Contains(t, err.Error(), "without path", raw)
	}

	for _, raw := range []string{"http://127.0.0.1:18000", "http://127.0.0.1:18000/"} {
		_, err := qaapi.NewClient(nil, raw, testNS, nil)
		assert.NoError(t, err, raw)
	}
}

func TestGetQuestion_DecodesNaiveTimestampsAsUTC(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/questions/"+questionID, r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"id":             questionID,
			"content":        "How does rotation work?",
			"images":         []string{"/uploads/a.png"},
			"created_at":     "2026-03-01T10:20:30.123456",
			"is_answered":    true,
			"is_public":      true,
			"answer_content": "Via a response header.",
			"answer_images":  nil,
			"answered_at":    "2026-03-02T08:00:00",
		})
	}), nil)

	q, err := client.GetQuestion(context.Background(), questionID)
	require.NoError(t, err)

	assert.Equal(t, questionID, q.ID)
	assert.Equal(t, []string{"/uploads/a.png"}, q.Images)
	assert.Equal(t, []string{}, q.AnswerImages)
	assert.Equal(t, "Via a response header.", q.AnswerContent)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 20, 30, 123456000, time.UTC), q.CreatedAt)
	require.NotNil(t, q.AnsweredAt)
	assert.Equal(t, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), *q.AnsweredAt)
}

func TestGetQuestion_InvalidIDMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}), nil)

	_, err := client.GetQuestion(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Zero(t, hits.Load())
}

func TestSubmitQuestion_ReturnsReceipt(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/questions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, err := uuid.Parse(r.Header.Get(qaapi.RequestIDHeader))
		assert.NoError(t, err, "request id must be a UUID")

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Is this thing on?", body["content"])
		assert.Equal(t, []any{}, body["images"])

		writeJSON(t, w, http.StatusOK, map[string]string{
			"access_token": "revoke-me",
			"token_type":   "bearer",
			"question_id":  questionID,
		})
	}), nil)

	receipt, err := client.SubmitQuestion(context.Background(), model.NewQuestion{Content: "Is this thing on?"})
	require.NoError(t, err)
	assert.Equal(t, questionID, receipt.QuestionID)
	assert.Equal(t, "revoke-me", receipt.Token)
	assert.False(t, receipt.CreatedAt.IsZero())
}

func TestSubmitQuestion_RejectsBlankContent(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	}), nil)

	for _, content := range []string{"", "   "} {
		_, err := client.SubmitQuestion(context.Background(), model.NewQuestion{Content: content})
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	}
}

func TestGetQuestionsBatch(t *testing.T) {
	t.Run("sends ids as a JSON array", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/questions/batch", r.URL.Path)
			var ids []string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&ids))
			assert.Equal(t, []string{questionID}, ids)
			writeJSON(t, w, http.StatusOK, []map[string]any{{"id": questionID, "content": "q", "created_at": "2026-01-01T00:00:00"}})
		}), nil)

		qs, err := client.GetQuestionsBatch(context.Background(), []string{questionID})
		require.NoError(t, err)
		require.Len(t, qs, 1)
		assert.Equal(t, questionID, qs[0].ID)
	})

	t.Run("empty makes no request", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("no request expected")
		}), nil)

		qs, err := client.GetQuestionsBatch(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, qs)
	})

	t.Run("more than 100 ids is rejected", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("no request expected")
		}), nil)

		ids := make([]string, 101)
		for i := range ids {
			ids[i] = uuid.NewString()
		}
		_, err := client.GetQuestionsBatch(context.Background(), ids)
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})
}

func TestAPIError_MapsStatusToSentinel(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
		detail string
	}{
		{http.StatusUnauthorized, `{"detail":"Invalid token"}`, model.ErrUnauthorized, "Invalid token"},
		{http.StatusForbidden, `{"detail":"Forbidden"}`, model.ErrForbidden, "Forbidden"},
		{http.StatusNotFound, `{"detail":"Question not found"}`, model.ErrNotFound, "Question not found"},
		{http.StatusRequestEntityTooLarge, `{"detail":"File too large"}`, model.ErrTooLarge, "File too large"},
		{http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","content"]}]}`, model.ErrInvalidInput, `[{"loc":["body","content"]}]`},
		{http.StatusBadGateway, `upstream down`, model.ErrServer, "upstream down"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}), nil)

			_, err := client.ListPublicQuestions(context.Background(), 0, 10)
			require.ErrorIs(t, err, tt.want)

			var apiErr *qaapi.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.detail, apiErr.Detail)
			assert.Equal(t, "/api/public/questions", apiErr.Path)
		})
	}
}

func TestUploadImage(t *testing.T) {
	handler := func(seenAuth *string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/upload", r.URL.Path)
			*seenAuth = r.Header.Get("Authorization")

			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			data, err := io.ReadAll(file)
			require.NoError(t, err)
			assert.Equal(t, "cat.png", header.Filename)
			assert.Equal(t, "PNGDATA", string(data))

			writeJSON(t, w, http.StatusOK, map[string]string{"url": "/uploads/abc.png"})
		})
	}

	t.Run("anonymous", func(t *testing.T) {
		var seen string
		client := newTestClient(t, handler(&seen), nil)

		u, err := client.UploadImage(context.Background(), "cat.png", strings.NewReader("PNGDATA"))
		require.NoError(t, err)
		assert.Equal(t, "/uploads/abc.png", u)
		assert.Empty(t, seen)
	})

	t.Run("stored credential is attached", func(t *testing.T) {
		var seen string
		client := newTestClient(t, handler(&seen), memory.NewCredentialStore("console-token"))

		_, err := client.UploadImage(context.Background(), "/tmp/dir/cat.png", strings.NewReader("PNGDATA"))
		require.NoError(t, err)
		assert.Equal(t, "Bearer console-token", seen)
	})

	t.Run("empty store attaches nothing", func(t *testing.T) {
		var seen string
		client := newTestClient(t, handler(&seen), memory.NewCredentialStore(""))

		_, err := client.UploadImage(context.Background(), "cat.png", strings.NewReader("PNGDATA"))
		require.NoError(t, err)
		assert.Empty(t, seen)
	})
}

func TestAdminEndpoints_UseNamespacePaths(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.RequestURI())
		mu.Unlock()

		switch {
		case strings.HasSuffix(r.URL.Path, "/login"):
			writeJSON(t, w, http.StatusOK, map[string]string{"access_token": "t", "token_type": "bearer", "expires_at": "2026-12-01T00:00:00"})
		case strings.HasSuffix(r.URL.Path, "/verify"):
			writeJSON(t, w, http.StatusOK, map[string]any{"valid": true, "username": "admin", "new_token": nil})
		case r.Method == http.MethodDelete:
			writeJSON(t, w, http.StatusOK, map[string]any{"message": "deleted", "deleted_images": 3})
		case r.Method == http.MethodGet:
			writeJSON(t, w, http.StatusOK, []any{})
		default:
			writeJSON(t, w, http.StatusOK, map[string]any{"id": questionID, "content": "q", "created_at": "2026-01-01T00:00:00"})
		}
	}), nil)
	ctx := context.Background()

	tok, err := client.Login(ctx, "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, "t", tok.AccessToken)

	res, err := client.VerifyToken(ctx)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.NewToken)

	_, err = client.ListQuestions(ctx, 20, 10)
	require.NoError(t, err)

	public := true
	_, err = client.UpdateQuestion(ctx, questionID, model.QuestionUpdate{IsPublic: &public})
	require.NoError(t, err)

	_, err = client.AnswerQuestion(ctx, questionID, model.Answer{Content: "yes", IsPublic: true})
	require.NoError(t, err)

	n, err := client.DeleteQuestion(ctx, questionID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Equal(t, []string{
		"POST /api/console-x7k9m/login",
		"POST /api/console-x7k9m/verify",
		"GET /api/console-x7k9m/questions?limit=10&skip=20",
		"PUT /api/console-x7k9m/questions/" + questionID,
		"POST /api/console-x7k9m/questions/" + questionID + "/answer",
		"DELETE /api/console-x7k9m/questions/" + questionID,
	}, paths)
}

func TestUpdateQuestion_RequiresAChange(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	}), nil)

	_, err := client.UpdateQuestion(context.Background(), questionID, model.QuestionUpdate{})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestTransport_CachesPublicGETsAndStripsRotation(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Cache-Control", "max-age=60")
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set(model.RotationHeader, "stale-rotation")
		writeJSON(t, w, http.StatusOK, []any{})
	}))
	t.Cleanup(server.Close)

	httpClient := &http.Client{Transport: qaapi.NewTransport(testNS, server.Client().Transport, nil)}
	target := server.URL + "/api/public/questions"

	first, err := httpClient.Get(target)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, first.Body)
	_ = first.Body.Close()
	assert.Equal(t, "stale-rotation", first.Header.Get(model.RotationHeader))

	second, err := httpClient.Get(target)
	require.NoError(t, err)
	_ = second.Body.Close()

	assert.Equal(t, int32(1), hits.Load(), "second GET must be served from cache")
	assert.Empty(t, second.Header.Get(model.RotationHeader))
}

func TestTransport_SharedCacheServesLaterTransports(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Cache-Control", "max-age=60")
		writeJSON(t, w, http.StatusOK, []any{})
	}))
	t.Cleanup(server.Close)

	cache := httpcache.NewMemoryCache()
	get := func() *http.Response {
		httpClient := &http.Client{Transport: qaapi.NewTransport(testNS, server.Client().Transport, cache)}
		resp, err := httpClient.Get(server.URL + "/api/public/questions")
		require.NoError(t, err)
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return resp
	}

	first := get()
	second := get()

	assert.Empty(t, first.Header.Get(httpcache.XFromCache))
	assert.Equal(t, "1", second.Header.Get(httpcache.XFromCache))
	assert.Equal(t, int32(1), hits.Load())
}

func TestTransport_NamespaceAndCredentialedRequestsBypassCache(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Cache-Control", "max-age=60")
		writeJSON(t, w, http.StatusOK, []any{})
	}))
	t.Cleanup(server.Close)

	httpClient := &http.Client{Transport: qaapi.NewTransport(testNS, server.Client().Transport, nil)}

	get := func(path, auth string) {
		req, err := http.NewRequest(http.MethodGet, server.URL+path, nil)
		require.NoError(t, err)
		if auth != "" {
			req.Header.Set(model.AuthorizationHeader, auth)
		}
		resp, err := httpClient.Do(req)
		require.NoError(t, err)
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}

	get("/api/console-x7k9m/questions", "")
	get("/api/console-x7k9m/questions", "")
	get("/api/questions/"+questionID, "Bearer x")
	get("/api/questions/"+questionID, "Bearer x")

	assert.Equal(t, int32(4), hits.Load())
}

// stubNavigator is a fixed-location Navigator that records redirects.
type stubNavigator struct {
	mu        sync.Mutex
	location  string
	redirects []string
}

func (n *stubNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *stubNavigator) Redirect(_ context.Context, path string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirects = append(n.redirects, path)
	n.location = path
	return nil
}

func newSessionClient(t *testing.T, handler http.Handler, store *memory.CredentialStore, nav *stubNavigator) *qaapi.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.DiscardHandler)
	transport := application.NewAuthTransport(
		qaapi.NewTransport(testNS, server.Client().Transport, nil),
		application.NewRequestInterceptor(testNS, store),
		application.NewResponseInterceptor(testNS),
		application.NewSession(store, nav, logger),
		nav,
		logger,
	)
	client, err := qaapi.NewClient(&http.Client{Transport: transport}, server.URL, testNS, store)
	require.NoError(t, err)
	return client
}

func TestSessionTransport_RotatesCredentialThroughFacade(t *testing.T) {
	store := memory.NewCredentialStore("old-token")
	nav := &stubNavigator{location: "/console-x7k9m"}

	client := newSessionClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer old-token", r.Header.Get("Authorization"))
		w.Header().Set(model.RotationHeader, "new-token")
		writeJSON(t, w, http.StatusOK, map[string]any{"valid": true, "username": "admin"})
	}), store, nav)

	_, err := client.VerifyToken(context.Background())
	require.NoError(t, err)

	got, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-token", got)
	assert.Empty(t, nav.redirects)
}

func TestSessionTransport_UnauthorizedClearsAndRedirects(t *testing.T) {
	store := memory.NewCredentialStore("expired")
	nav := &stubNavigator{location: "/console-x7k9m"}

	client := newSessionClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
	}), store, nav)

	_, err := client.ListQuestions(context.Background(), 0, 100)
	require.ErrorIs(t, err, model.ErrUnauthorized)

	got, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, []string{"/console-x7k9m/login"}, nav.redirects)
}

func TestSessionTransport_PublicUnauthorizedKeepsCredential(t *testing.T) {
	store := memory.NewCredentialStore("keep-me")
	nav := &stubNavigator{location: "/"}

	client := newSessionClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer keep-me", r.Header.Get("Authorization"), "upload carve-out")
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"detail": "nope"})
	}), store, nav)

	_, err := client.UploadImage(context.Background(), "a.png", strings.NewReader("x"))
	require.ErrorIs(t, err, model.ErrUnauthorized)

	got, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "keep-me", got)
	assert.Empty(t, nav.redirects)
}
