package model

import "time"

// Question is a visitor question as returned by the backend.
type Question struct {
	ID            string
	Content       string
	Images        []string
	CreatedAt     time.Time
	IsAnswered    bool
	IsPublic      bool
	AnswerContent string
	AnswerImages  []string
	AnsweredAt    *time.Time
}

// NewQuestion is the payload for submitting a question.
type NewQuestion struct {
	Content string
	Images  []string
}

// Answer is the console payload for answering a question. IsPublic controls
// whether the answered question is listed publicly.
type Answer struct {
	Content  string
	Images   []string
	IsPublic bool
}

// QuestionUpdate carries optional status changes; nil fields are left as-is.
type QuestionUpdate struct {
	IsPublic   *bool
	IsAnswered *bool
}

// Receipt is the ownership proof issued when a question is submitted. Token is
// required to revoke the question later.
type Receipt struct {
	QuestionID string
	Token      string
	CreatedAt  time.Time
}

// AdminToken is the console login result.
type AdminToken struct {
	AccessToken string
	TokenType   string
	ExpiresAt   string
}

// VerifyResult reports whether the current console credential is accepted.
// NewToken is set when the backend renewed the credential.
type VerifyResult struct {
	Valid    bool
	Username string
	NewToken string
}
