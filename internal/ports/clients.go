package ports

import (
	"context"

	"github.com/pagemarket/marketplace/internal/schema"
)

// BookClient resolves a book reference with a blocking request/response call
// to the book-server. A 4xx from the remote comes back as *domain.UpstreamError
// so the caller can propagate the status to its own caller.
type BookClient interface {
	GetBook(ctx context.Context, id int64) (schema.BookDto, error)
}

// SellerClient resolves a seller reference against the seller-server.
type SellerClient interface {
	GetSeller(ctx context.Context, username string) (schema.SellerDto, error)
}
