package repositories

import (
	"context"
	"errors"

	"github.com/upb/storefront-assistant/models"
)

var (
	// ErrNotFound is returned when a requested row does not exist
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned when a compare-and-swap update lost the race
	ErrVersionConflict = errors.New("version conflict")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// DocumentRepository handles policy document storage
type DocumentRepository interface {
	// Create inserts a document and sets its ID
	Create(ctx context.Context, doc *models.PolicyDocument) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id int64) (*models.PolicyDocument, error)

	// List returns every document in storage order
	List(ctx context.Context) ([]*models.PolicyDocument, error)

	// SearchByTerms returns documents whose title or body contains any of the
	// terms, case-insensitively, in storage order, at most limit rows
	SearchByTerms(ctx context.Context, terms []string, limit int) ([]*models.PolicyDocument, error)

	// ListWithEmbeddings returns every document carrying a stored embedding
	ListWithEmbeddings(ctx context.Context) ([]*models.PolicyDocument, error)

	// UpdateEmbedding stores a serialized embedding for a document
	UpdateEmbedding(ctx context.Context, id int64, embedding string) error
}

// ConversationRepository handles per-user conversation transcripts
type ConversationRepository interface {
	// GetOrCreate returns the user's conversation, creating an empty one on first access
	GetOrCreate(ctx context.Context, userID int64) (*models.Conversation, error)

	// CompareAndSwap persists conv only if the stored version still equals
	// conv.Version, then bumps conv.Version. Returns ErrVersionConflict otherwise.
	CompareAndSwap(ctx context.Context, conv *models.Conversation) error
}

// CatalogRepository reads products owned by the storefront CRUD layer
type CatalogRepository interface {
	// RecommendByHistory returns the products the user ordered most often
	RecommendByHistory(ctx context.Context, userID int64, limit int) ([]models.ProductSummary, error)

	// TopDiscounted returns products ordered by discount, highest first
	TopDiscounted(ctx context.Context, limit int) ([]models.ProductSummary, error)

	// Discounts returns products with a positive discount
	Discounts(ctx context.Context, limit int) ([]models.Discount, error)

	// Search returns products matching the filter
	Search(ctx context.Context, filter models.ProductFilter) ([]models.ProductSummary, error)

	// RecentPurchases returns the user's most recently ordered products
	RecentPurchases(ctx context.Context, userID int64, limit int) ([]models.PurchasedItem, error)
}

// FeedbackRepository handles product feedback
type FeedbackRepository interface {
	// Create inserts feedback and sets its ID and CreatedAt
	Create(ctx context.Context, fb *models.Feedback) error
}

// ChatMessageRepository handles the assistant message log
type ChatMessageRepository interface {
	// Create inserts a message and sets its ID
	Create(ctx context.Context, msg *models.ChatMessage) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Documents     DocumentRepository
	Conversations ConversationRepository
	Catalog       CatalogRepository
	Feedback      FeedbackRepository
	ChatMessages  ChatMessageRepository
}
