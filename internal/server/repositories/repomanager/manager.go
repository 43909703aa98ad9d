// Package repomanager vends the repositories the server runs on, backed
// either by PostgreSQL or by process memory.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/storefront/internal/server/repositories/collections"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Users() users.Repository
	Collections() collections.Repository
	Close() error
}

// MemoryRepositoryManager keeps everything in memory; data is lost on exit.
type MemoryRepositoryManager struct {
	users       *users.MemoryRepository
	collections *collections.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:       users.NewMemoryRepository(),
		collections: collections.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Users() users.Repository { return m.users }

func (m *MemoryRepositoryManager) Collections() collections.Repository { return m.collections }

func (m *MemoryRepositoryManager) Close() error { return nil }
