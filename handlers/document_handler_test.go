package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/storefront-assistant/models"
	"github.com/upb/storefront-assistant/repositories"
	"go.uber.org/zap"
)

// MockDocumentRepository is a mock implementation of repositories.DocumentRepository
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *models.PolicyDocument) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id int64) (*models.PolicyDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PolicyDocument), args.Error(1)
}

func (m *MockDocumentRepository) List(ctx context.Context) ([]*models.PolicyDocument, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PolicyDocument), args.Error(1)
}

func (m *MockDocumentRepository) SearchByTerms(ctx context.Context, terms []string, limit int) ([]*models.PolicyDocument, error) {
	args := m.Called(ctx, terms, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PolicyDocument), args.Error(1)
}

func (m *MockDocumentRepository) ListWithEmbeddings(ctx context.Context) ([]*models.PolicyDocument, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PolicyDocument), args.Error(1)
}

func (m *MockDocumentRepository) UpdateEmbedding(ctx context.Context, id int64, embedding string) error {
	return m.Called(ctx, id, embedding).Error(0)
}

func routeDocuments(h *DocumentHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/documents", h.HandleListDocuments)
	r.Get("/documents/{id}", h.HandleGetDocument)
	return r
}

func TestHandleListDocuments(t *testing.T) {
	t.Run("lists documents", func(t *testing.T) {
		repo := new(MockDocumentRepository)
		vec := "[0.1,0.2]"
		repo.On("List", mock.Anything).Return([]*models.PolicyDocument{
			{ID: 1, Title: "Returns", Body: "Returns accepted within 30 days"},
			{ID: 2, Title: "Shipping", Body: "Ships in 2 days", EmbeddingVector: &vec},
		}, nil)

		w := httptest.NewRecorder()
		routeDocuments(NewDocumentHandler(repo, zap.NewNop())).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents", nil))

		assert.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Data []DocumentResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		require.Len(t, body.Data, 2)
		assert.False(t, body.Data[0].HasEmbedding)
		assert.True(t, body.Data[1].HasEmbedding)
		assert.NotContains(t, w.Body.String(), "0.1")
	})

	t.Run("store failure", func(t *testing.T) {
		repo := new(MockDocumentRepository)
		repo.On("List", mock.Anything).Return(nil, errors.New("connection reset"))

		w := httptest.NewRecorder()
		routeDocuments(NewDocumentHandler(repo, zap.NewNop())).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHandleGetDocument(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo := new(MockDocumentRepository)
		repo.On("GetByID", mock.Anything, int64(1)).Return(&models.PolicyDocument{ID: 1, Title: "Returns"}, nil)

		w := httptest.NewRecorder()
		routeDocuments(NewDocumentHandler(repo, zap.NewNop())).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents/1", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Returns")
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockDocumentRepository)
		repo.On("GetByID", mock.Anything, int64(404)).
			Return(nil, fmt.Errorf("policy document 404: %w", repositories.ErrNotFound))

		w := httptest.NewRecorder()
		routeDocuments(NewDocumentHandler(repo, zap.NewNop())).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents/404", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		repo := new(MockDocumentRepository)

		w := httptest.NewRecorder()
		routeDocuments(NewDocumentHandler(repo, zap.NewNop())).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents/x", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}
