// Package qaapi implements the QAClient port against the question/answer
// backend's JSON API.
package qaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/qabox/internal/domain/model"
	"github.com/ericfisherdev/qabox/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.QAClient = (*Client)(nil)

// RequestIDHeader correlates a facade call with backend logs.
const RequestIDHeader = "X-Request-ID"

// uploadField is the multipart field name the backend reads the image from.
const uploadField = "file"

// Client implements driven.QAClient. Session handling lives in the transport
// the http.Client was built with; the only credential Client touches itself is
// the upload carve-out in attachElevatedCredential.
type Client struct {
	http    *http.Client
	baseURL string
	ns      model.Namespace
	store   driven.CredentialStore
}

// NewClient creates a backend client. baseURL is the backend origin, e.g.
// "http://127.0.0.1:18000"; a URL with a path is rejected. store may be nil, in which case uploads never carry
// a console credential.
func NewClient(httpClient *http.Client, baseURL string, ns model.Namespace, store driven.CredentialStore) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL %q: missing host", baseURL)
	}
	// The session transport matches request paths against the namespace from
	// the root; a base path would hide every protected request from it.
	if strings.Trim(u.Path, "/") != "" || u.RawQuery != "" || u.Fragment != "" {
		return nil, fmt.Errorf("base URL %q: must be an origin without path, query or fragment", baseURL)
	}
	if ns.IsZero() {
		return nil, errors.New("namespace is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(u.String(), "/"),
		ns:      ns,
		store:   store,
	}, nil
}

// UploadImage posts r as a multipart image upload and returns its URL path.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	filename = path.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == "/" {
		return "", fmt.Errorf("upload filename is required: %w", model.ErrInvalidInput)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(uploadField, filename)
	if err != nil {
		return "", fmt.Errorf("creating multipart part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("reading upload %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finishing multipart body: %w", err)
	}

	endpoint := c.ns.APIBase() + "/upload"
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, nil, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	if err := c.attachElevatedCredential(ctx, req); err != nil {
		return "", err
	}

	var out uploadResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// attachElevatedCredential is the one place outside the namespace where the
// console credential is sent: the public upload endpoint grants a larger size
// limit to an authenticated console. A missing credential is not an error.
func (c *Client) attachElevatedCredential(ctx context.Context, req *http.Request) error {
	if c.store == nil {
		return nil
	}
	token, err := c.store.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading credential for upload: %w", err)
	}
	if token != "" {
		req.Header.Set(model.AuthorizationHeader, model.BearerValue(token))
	}
	return nil
}

// SubmitQuestion creates a question and returns the receipt needed to revoke it.
func (c *Client) SubmitQuestion(ctx context.Context, q model.NewQuestion) (model.Receipt, error) {
	in := submitQuestionRequest{Content: q.Content, Images: nonNil(q.Images)}
	if err := in.Validate(); err != nil {
		return model.Receipt{}, wrapValidationError(err)
	}

	var out submitQuestionResponse
	if err := c.doJSON(ctx, http.MethodPost, c.ns.APIBase()+"/questions", nil, in, &out); err != nil {
		return model.Receipt{}, err
	}
	if out.QuestionID == "" || out.AccessToken == "" {
		return model.Receipt{}, fmt.Errorf("submit question: incomplete receipt in response: %w", model.ErrServer)
	}

	return model.Receipt{
		QuestionID: out.QuestionID,
		Token:      out.AccessToken,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// RevokeQuestion withdraws a question using its receipt token.
func (c *Client) RevokeQuestion(ctx context.Context, token string) error {
	in := revokeRequest{Token: token}
	if err := in.Validate(); err != nil {
		return wrapValidationError(err)
	}
	return c.doJSON(ctx, http.MethodPost, c.ns.APIBase()+"/questions/revoke", nil, in, nil)
}

// ListPublicQuestions returns a page of answered public questions.
func (c *Client) ListPublicQuestions(ctx context.Context, skip, limit int) ([]model.Question, error) {
	var out []questionResponse
	if err := c.doJSON(ctx, http.MethodGet, c.ns.APIBase()+"/public/questions", pageQuery(skip, limit), nil, &out); err != nil {
		return nil, err
	}
	return toQuestions(out), nil
}

// GetQuestion returns a single question by ID.
func (c *Client) GetQuestion(ctx context.Context, id string) (model.Question, error) {
	if err := validateID(id); err != nil {
		return model.Question{}, err
	}
	var out questionResponse
	if err := c.doJSON(ctx, http.MethodGet, c.ns.APIBase()+"/questions/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return model.Question{}, err
	}
	return out.toModel(), nil
}

// GetQuestionsBatch returns the questions that still exist among ids. An empty
// ids slice makes no request.
func (c *Client) GetQuestionsBatch(ctx context.Context, ids []string) ([]model.Question, error) {
	in := batchRequest{IDs: ids}
	if err := in.Validate(); err != nil {
		return nil, wrapValidationError(err)
	}
	if len(ids) == 0 {
		return []model.Question{}, nil
	}

	var out []questionResponse
	if err := c.doJSON(ctx, http.MethodPost, c.ns.APIBase()+"/questions/batch", nil, in.IDs, &out); err != nil {
		return nil, err
	}
	return toQuestions(out), nil
}

// Login exchanges console credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (model.AdminToken, error) {
	in := loginRequest{Username: username, Password: password}
	if err := in.Validate(); err != nil {
		return model.AdminToken{}, wrapValidationError(err)
	}

	var out loginResponse
	if err := c.doJSON(ctx, http.MethodPost, c.ns.APIPrefix()+"/login", nil, in, &out); err != nil {
		return model.AdminToken{}, err
	}
	return model.AdminToken{
		AccessToken: out.AccessToken,
		TokenType:   out.TokenType,
		ExpiresAt:   out.ExpiresAt,
	}, nil
}

// VerifyToken checks the credential the transport attaches.
func (c *Client) VerifyToken(ctx context.Context) (model.VerifyResult, error) {
	var out verifyResponse
	if err := c.doJSON(ctx, http.MethodPost, c.ns.APIPrefix()+"/verify", nil, nil, &out); err != nil {
		return model.VerifyResult{}, err
	}
	result := model.VerifyResult{Valid: out.Valid, Username: out.Username}
	if out.NewToken != nil {
		result.NewToken = *out.NewToken
	}
	return result, nil
}

// ListQuestions returns a page of all questions for the console.
func (c *Client) ListQuestions(ctx context.Context, skip, limit int) ([]model.Question, error) {
	var out []questionResponse
	if err := c.doJSON(ctx, http.MethodGet, c.ns.APIPrefix()+"/questions", pageQuery(skip, limit), nil, &out); err != nil {
		return nil, err
	}
	return toQuestions(out), nil
}

// UpdateQuestion changes visibility or answered status.
func (c *Client) UpdateQuestion(ctx context.Context, id string, update model.QuestionUpdate) (model.Question, error) {
	if err := validateID(id); err != nil {
		return model.Question{}, err
	}
	in := updateRequest{IsPublic: update.IsPublic, IsAnswered: update.IsAnswered}
	if err := in.Validate(); err != nil {
		return model.Question{}, wrapValidationError(err)
	}

	var out questionResponse
	if err := c.doJSON(ctx, http.MethodPut, c.ns.APIPrefix()+"/questions/"+url.PathEscape(id), nil, in, &out); err != nil {
		return model.Question{}, err
	}
	return out.toModel(), nil
}

// AnswerQuestion answers a question.
func (c *Client) AnswerQuestion(ctx context.Context, id string, answer model.Answer) (model.Question, error) {
	if err := validateID(id); err != nil {
		return model.Question{}, err
	}
	in := answerRequest{
		AnswerContent: answer.Content,
		AnswerImages:  nonNil(answer.Images),
		IsPublic:      answer.IsPublic,
	}
	if err := in.Validate(); err != nil {
		return model.Question{}, wrapValidationError(err)
	}

	var out questionResponse
	endpoint := c.ns.APIPrefix() + "/questions/" + url.PathEscape(id) + "/answer"
	if err := c.doJSON(ctx, http.MethodPost, endpoint, nil, in, &out); err != nil {
		return model.Question{}, err
	}
	return out.toModel(), nil
}

// DeleteQuestion deletes a question and returns how many images were removed.
func (c *Client) DeleteQuestion(ctx context.Context, id string) (int, error) {
	if err := validateID(id); err != nil {
		return 0, err
	}
	var out deleteResponse
	if err := c.doJSON(ctx, http.MethodDelete, c.ns.APIPrefix()+"/questions/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return 0, err
	}
	return out.DeletedImages, nil
}

// doJSON sends in (if non-nil) as a JSON body and decodes the response into
// out (if non-nil).
func (c *Client) doJSON(ctx context.Context, method, endpoint string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", method, endpoint, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, method, endpoint, query, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, query url.Values, body io.Reader) (*http.Request, error) {
	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s request: %w", method, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(req.Method, req.URL.Path, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func pageQuery(skip, limit int) url.Values {
	q := url.Values{}
	if skip > 0 {
		q.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}
