package model

import (
	"strings"
	"time"
)

// Document is the persisted unit of user content.
// Timestamps are Unix milliseconds.
type Document struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// DisplayTitle is the title shown in the document selector.
func (d Document) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	short := d.ID
	if len(short) > 4 {
		short = short[:4]
	}
	return "Documento " + short
}

// DocumentMetadata is a document without its content, as listed to clients.
type DocumentMetadata struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	UpdatedAt int64  `json:"updatedAt"`
	Snippet   string `json:"snippet"`
}

type CreateDocRequest struct {
	Title string `json:"title"`
}

type CreateDocResponse struct {
	DocID string `json:"document_id"`
}

type PreferencesRequest struct {
	Theme       *string `json:"theme,omitempty"`
	RulerColumn *int    `json:"rulerColumn,omitempty"`
}

type PreferencesResponse struct {
	Theme       string `json:"theme"`
	RulerColumn int    `json:"rulerColumn"`
	LastDocID   string `json:"lastDocId,omitempty"`
}

// Millis converts t to Unix milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

const snippetLength = 100

// Metadata drops the content, keeping a one-line snippet of it.
func (d Document) Metadata() DocumentMetadata {
	return DocumentMetadata{
		ID:        d.ID,
		Title:     d.DisplayTitle(),
		UpdatedAt: d.UpdatedAt,
		Snippet:   snippet(d.Content),
	}
}

func snippet(content string) string {
	res := strings.TrimSpace(content)
	res = strings.ReplaceAll(res, "\n", " ")
	runes := []rune(res)
	if len(runes) > snippetLength {
		return string(runes[:snippetLength]) + "..."
	}
	return res
}
