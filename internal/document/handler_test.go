package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"naskahlokal/config/database"
	"naskahlokal/internal/document/model"
	"naskahlokal/internal/document/repository"
	"naskahlokal/internal/document/service"
)

func newTestRouter(t *testing.T) (*mux.Router, *service.DocumentService) {
	t.Helper()
	h := database.NewHandle("sqlite", ":memory:")
	t.Cleanup(func() { h.Close() })

	svc := service.NewDocumentService(repository.NewDocumentRepository(h), nil)
	dh := NewDocumentHandler(svc)

	r := mux.NewRouter()
	r.HandleFunc("/api/documents", dh.GetDocuments).Methods("GET")
	r.HandleFunc("/api/documents", dh.CreateDocument).Methods("POST")
	r.HandleFunc("/api/documents/{id}", dh.GetDocument).Methods("GET")
	r.HandleFunc("/api/documents/{id}", dh.DeleteDocument).Methods("DELETE")
	r.HandleFunc("/api/documents/{id}/export", dh.ExportDocument).Methods("GET")
	return r, svc
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestCreateAndFetchDocument(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(r, http.MethodPost, "/api/documents", `{"title":"Carta"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.CreateDocResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.DocID)

	rec = do(r, http.MethodGet, "/api/documents/"+created.DocID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var doc model.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Carta", doc.Title)
	assert.Equal(t, doc.CreatedAt, doc.UpdatedAt)

	rec = do(r, http.MethodGet, "/api/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.DocumentMetadata
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.DocID, list[0].ID)
}

func TestCreateDocumentValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/documents", `{"title":"  "}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/documents", `not json`).Code)
}

func TestListIsEmptyArray(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(r, http.MethodGet, "/api/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetMissingDocument(t *testing.T) {
	r, _ := newTestRouter(t)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/documents/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/documents/nope/export", "").Code)
}

func TestDeleteDocument(t *testing.T) {
	r, svc := newTestRouter(t)
	doc, err := svc.CreateDocument(context.Background(), "Rascunho")
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/api/documents/"+doc.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/documents/"+doc.ID, "").Code)
}

func TestExportDocument(t *testing.T) {
	r, svc := newTestRouter(t)
	require.NoError(t, svc.Repo.Put(context.Background(), model.Document{ID: "e1", Title: "Meu Diário", Content: "querido diário", CreatedAt: 1, UpdatedAt: 1}))

	rec := do(r, http.MethodGet, "/api/documents/e1/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "querido diário", rec.Body.String())
	assert.Equal(t, `attachment; filename="meu_di_rio.txt"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
}
