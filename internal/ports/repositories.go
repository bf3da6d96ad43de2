package ports

import (
	"context"

	"github.com/pagemarket/marketplace/internal/domain"
)

type SaleRepository interface {
	List(ctx context.Context) ([]domain.Sale, error)
	GetByID(ctx context.Context, id int64) (domain.Sale, error)
	ListByBook(ctx context.Context, bookID int64) ([]domain.Sale, error)
	ListBySeller(ctx context.Context, username string) ([]domain.Sale, error)
	Create(ctx context.Context, sale domain.Sale) (domain.Sale, error)
	Update(ctx context.Context, sale domain.Sale) (domain.Sale, error)
	Delete(ctx context.Context, id int64) error
}

type BookRepository interface {
	List(ctx context.Context) ([]domain.Book, error)
	GetByID(ctx context.Context, id int64) (domain.Book, error)
	Create(ctx context.Context, book domain.Book) (domain.Book, error)
	Update(ctx context.Context, book domain.Book) (domain.Book, error)
	Delete(ctx context.Context, id int64) error
}

// DirectoryRepository backs both the seller and the user directory. Save is an
// upsert: a second save under the same username silently overwrites, which is
// the contract the user-created consumer relies on.
type DirectoryRepository interface {
	List(ctx context.Context) ([]domain.DirectoryEntry, error)
	GetByUsername(ctx context.Context, username string) (domain.DirectoryEntry, error)
	Save(ctx context.Context, entry domain.DirectoryEntry) error
}

type NewsRepository interface {
	List(ctx context.Context) ([]domain.NewsEntry, error)
	GetBySale(ctx context.Context, saleID int64) (domain.NewsEntry, error)
	Save(ctx context.Context, entry domain.NewsEntry) error
	DeleteBySale(ctx context.Context, saleID int64) error
}

type AuthUserRepository interface {
	GetByUsername(ctx context.Context, username string) (domain.AuthUser, error)
	Create(ctx context.Context, user domain.AuthUser) error
}
