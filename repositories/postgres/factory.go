package postgres

import (
	"github.com/upb/storefront-assistant/config"
	"github.com/upb/storefront-assistant/repositories"
	"go.uber.org/zap"
)

// RepositoryFactory owns the connection pool shared by every repository
type RepositoryFactory struct {
	db     *DB
	logger *zap.Logger
}

// NewRepositoryFactory opens the pool described by cfg.Database
func NewRepositoryFactory(cfg *config.Config, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return NewRepositoryFactoryFromDB(db, logger), nil
}

// NewRepositoryFactoryFromDB wraps a pool the caller already opened (sqlmock in tests)
func NewRepositoryFactoryFromDB(db *DB, logger *zap.Logger) *RepositoryFactory {
	return &RepositoryFactory{db: db, logger: logger.Named("postgres")}
}

// NewRepositories builds the assistant's repositories over the shared pool
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		Documents:     NewDocumentRepository(f.db, f.logger),
		Conversations: NewConversationRepository(f.db, f.logger),
		Catalog:       NewCatalogRepository(f.db, f.logger),
		Feedback:      NewFeedbackRepository(f.db, f.logger),
		ChatMessages:  NewChatMessageRepository(f.db, f.logger),
	}
}

func (f *RepositoryFactory) GetTransactionManager() repositories.TransactionManager {
	return NewTxManager(f.db, f.logger)
}

func (f *RepositoryFactory) GetDB() *DB {
	return f.db
}

// Close releases the pool; repositories built from this factory stop working
func (f *RepositoryFactory) Close() error {
	return f.db.Close()
}
