package qaapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/ericfisherdev/qabox/internal/domain/model"
)

// maxBatchIDs mirrors the backend's batch lookup limit.
const maxBatchIDs = 100

// isUUID validates question IDs, which the backend issues as UUIDs.
var isUUID = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_uuid_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if _, err := uuid.Parse(s); err != nil {
		return validation.NewError("validation_uuid", "must be a valid UUID")
	}
	return nil
})

// wrapValidationError turns a validation failure into model.ErrInvalidInput.
func wrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", err.Error(), model.ErrInvalidInput)
}

func validateID(id string) error {
	return wrapValidationError(validation.Validate(id, validation.Required.Error("question id is required"), isUUID))
}

// apiTime parses the backend's timestamps, which are ISO-8601 without a zone
// and are UTC.
type apiTime struct {
	time.Time
}

var apiTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func (t *apiTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	for _, layout := range apiTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

type questionResponse struct {
	ID            string   `json:"id"`
	Content       string   `json:"content"`
	Images        []string `json:"images"`
	CreatedAt     apiTime  `json:"created_at"`
	IsAnswered    bool     `json:"is_answered"`
	IsPublic      bool     `json:"is_public"`
	AnswerContent *string  `json:"answer_content"`
	AnswerImages  []string `json:"answer_images"`
	AnsweredAt    *apiTime `json:"answered_at"`
}

func (r questionResponse) toModel() model.Question {
	q := model.Question{
		ID:           r.ID,
		Content:      r.Content,
		Images:       nonNil(r.Images),
		CreatedAt:    r.CreatedAt.Time,
		IsAnswered:   r.IsAnswered,
		IsPublic:     r.IsPublic,
		AnswerImages: nonNil(r.AnswerImages),
	}
	if r.AnswerContent != nil {
		q.AnswerContent = *r.AnswerContent
	}
	if r.AnsweredAt != nil && !r.AnsweredAt.IsZero() {
		t := r.AnsweredAt.Time
		q.AnsweredAt = &t
	}
	return q
}

func toQuestions(in []questionResponse) []model.Question {
	out := make([]model.Question, 0, len(in))
	for _, r := range in {
		out = append(out, r.toModel())
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type submitQuestionRequest struct {
	Content string   `json:"content"`
	Images  []string `json:"images"`
}

func (r submitQuestionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content,
			validation.Required.Error("content is required"),
			validation.By(notBlank("content")),
		),
	)
}

type submitQuestionResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	QuestionID  string `json:"question_id"`
}

type revokeRequest struct {
	Token string `json:"token"`
}

func (r revokeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required.Error("revoke token is required")),
	)
}

type batchRequest struct {
	IDs []string
}

func (r batchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IDs,
			validation.Length(0, maxBatchIDs).Error(fmt.Sprintf("at most %d ids per batch", maxBatchIDs)),
			validation.Each(isUUID),
		),
	)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required.Error("username is required")),
		validation.Field(&r.Password, validation.Required.Error("password is required")),
	)
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
}

type verifyResponse struct {
	Valid    bool    `json:"valid"`
	Username string  `json:"username"`
	NewToken *string `json:"new_token"`
}

type updateRequest struct {
	IsPublic   *bool `json:"is_public,omitempty"`
	IsAnswered *bool `json:"is_answered,omitempty"`
}

func (r updateRequest) Validate() error {
	if r.IsPublic == nil && r.IsAnswered == nil {
		return errors.New("update must change is_public or is_answered")
	}
	return nil
}

type answerRequest struct {
	AnswerContent string   `json:"answer_content"`
	AnswerImages  []string `json:"answer_images"`
	IsPublic      bool     `json:"is_public"`
}

func (r answerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AnswerContent,
			validation.Required.Error("answer content is required"),
			validation.By(notBlank("answer content")),
		),
	)
}

type deleteResponse struct {
	Message       string `json:"message"`
	DeletedImages int    `json:"deleted_images"`
}

type uploadResponse struct {
	URL string `json:"url"`
}

func notBlank(field string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != "" && strings.TrimSpace(s) == "" {
			return validation.NewError("validation_blank", field+" must not be blank")
		}
		return nil
	}
}
