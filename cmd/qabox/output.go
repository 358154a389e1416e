package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ericfisherdev/qabox/internal/domain/model"
)

// printer renders command results as text or JSON.
type printer struct {
	w    io.Writer
	json bool
}

type questionJSON struct {
	ID            string     `json:"id"`
	Content       string     `json:"content"`
	Images        []string   `json:"images"`
	CreatedAt     time.Time  `json:"created_at"`
	IsAnswered    bool       `json:"is_answered"`
	IsPublic      bool       `json:"is_public"`
	AnswerContent string     `json:"answer_content,omitempty"`
	AnswerImages  []string   `json:"answer_images"`
	AnsweredAt    *time.Time `json:"answered_at,omitempty"`
}

func toQuestionJSON(q model.Question) questionJSON {
	return questionJSON{
		ID:            q.ID,
		Content:       q.Content,
		Images:        q.Images,
		CreatedAt:     q.CreatedAt,
		IsAnswered:    q.IsAnswered,
		IsPublic:      q.IsPublic,
		AnswerContent: q.AnswerContent,
		AnswerImages:  q.AnswerImages,
		AnsweredAt:    q.AnsweredAt,
	}
}

func (p printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p printer) questions(qs []model.Question) error {
	if p.json {
		out := make([]questionJSON, 0, len(qs))
		for _, q := range qs {
			out = append(out, toQuestionJSON(q))
		}
		return p.encode(out)
	}

	if len(qs) == 0 {
		_, err := fmt.Fprintln(p.w, "no questions")
		return err
	}

	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tVISIBILITY\tCREATED\tQUESTION")
	for _, q := range qs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			q.ID, status(q), visibility(q), q.CreatedAt.Local().Format(time.DateTime), truncate(q.Content, 60))
	}
	return tw.Flush()
}

func (p printer) question(q model.Question) error {
	if p.json {
		return p.encode(toQuestionJSON(q))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  [%s, %s]  %s\n\n", q.ID, status(q), visibility(q), q.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintln(&b, q.Content)
	for _, img := range q.Images {
		fmt.Fprintf(&b, "  image: %s\n", img)
	}
	if q.IsAnswered {
		fmt.Fprintln(&b)
		if q.AnsweredAt != nil {
			fmt.Fprintf(&b, "Answer (%s):\n", q.AnsweredAt.Local().Format(time.DateTime))
		} else {
			fmt.Fprintln(&b, "Answer:")
		}
		fmt.Fprintln(&b, q.AnswerContent)
		for _, img := range q.AnswerImages {
			fmt.Fprintf(&b, "  image: %s\n", img)
		}
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

func (p printer) receipt(r model.Receipt) error {
	if p.json {
		return p.encode(map[string]string{"question_id": r.QuestionID})
	}
	_, err := fmt.Fprintf(p.w, "submitted %s\nrevoke with: qabox revoke %s\n", r.QuestionID, r.QuestionID)
	return err
}

func (p printer) message(format string, args ...any) error {
	if p.json {
		return p.encode(map[string]string{"message": fmt.Sprintf(format, args...)})
	}
	_, err := fmt.Fprintf(p.w, format+"\n", args...)
	return err
}

func (p printer) value(key, v string) error {
	if p.json {
		return p.encode(map[string]string{key: v})
	}
	_, err := fmt.Fprintln(p.w, v)
	return err
}

func status(q model.Question) string {
	if q.IsAnswered {
		return "answered"
	}
	return "pending"
}

func visibility(q model.Question) string {
	if q.IsPublic {
		return "public"
	}
	return "private"
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
