package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"naskahlokal/internal/document/model"
	"naskahlokal/internal/export"
	"naskahlokal/internal/session"
	"naskahlokal/pkg/logger"
	"naskahlokal/socket"
)

var ErrNotFound = errors.New("document not found")

// DocumentService serves the document catalog to the REST API and the CLI.
// Editing and autosave go through a session instead.
type DocumentService struct {
	Repo  session.DocumentStore
	Hub   *socket.Hub
	Now   func() time.Time
	NewID func() string
}

func NewDocumentService(repo session.DocumentStore, hub *socket.Hub) *DocumentService {
	return &DocumentService{
		Repo:  repo,
		Hub:   hub,
		Now:   time.Now,
		NewID: func() string { return uuid.New().String() },
	}
}

// GetDocuments lists every document, most recently updated first.
func (s *DocumentService) GetDocuments(ctx context.Context) ([]model.DocumentMetadata, error) {
	docs, err := s.Repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].UpdatedAt != docs[j].UpdatedAt {
			return docs[i].UpdatedAt > docs[j].UpdatedAt
		}
		return docs[i].ID < docs[j].ID
	})
	out := make([]model.DocumentMetadata, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Metadata())
	}
	return out, nil
}

func (s *DocumentService) GetDocument(ctx context.Context, docID string) (*model.Document, error) {
	doc, err := s.Repo.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}

// CreateDocument stores an empty document. A blank title is rejected.
func (s *DocumentService) CreateDocument(ctx context.Context, title string) (model.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Document{}, session.ErrNoTitle
	}
	now := model.Millis(s.Now())
	doc := model.Document{
		ID:        s.NewID(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Put(ctx, doc); err != nil {
		return model.Document{}, err
	}
	logger.Sugar.Infof("Created document %s (%q)", doc.ID, title)
	s.notify()
	return doc, nil
}

// DeleteDocument removes a document. Deleting an unknown id succeeds.
func (s *DocumentService) DeleteDocument(ctx context.Context, docID string) error {
	if err := s.Repo.Delete(ctx, docID); err != nil {
		return err
	}
	logger.Sugar.Infof("Deleted document %s", docID)
	s.notify()
	return nil
}

// ExportDocument returns the download name and text of a document.
func (s *DocumentService) ExportDocument(ctx context.Context, docID string) (string, string, error) {
	doc, err := s.GetDocument(ctx, docID)
	if err != nil {
		return "", "", err
	}
	return export.Filename(doc.DisplayTitle()), doc.Content, nil
}

func (s *DocumentService) notify() {
	if s.Hub != nil {
		s.Hub.DocumentsChanged(nil)
	}
}
