package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pagemarket/marketplace/internal/domain"
	"github.com/pagemarket/marketplace/internal/ports"
	"github.com/pagemarket/marketplace/internal/schema"
)

const latestFeedSize = 10

// NewsService keeps the human-readable feed of sale snapshots. Entries are
// created from sale-created (resolving the book title with a synchronous
// lookup), overwritten in place by sale-updated and removed by sale-deleted.
// Any failure while applying an event drops that event.
type NewsService struct {
	logger *slog.Logger
	news   ports.NewsRepository
	books  ports.BookClient
}

func NewNewsService(logger *slog.Logger, news ports.NewsRepository, books ports.BookClient) *NewsService {
	return &NewsService{logger: logger, news: news, books: books}
}

// ListNews returns the whole feed in insertion order, or the ten newest
// entries (newest first) when latest is set.
func (s *NewsService) ListNews(ctx context.Context, latest bool) ([]schema.NewsDto, error) {
	entries, err := s.news.List(ctx)
	if err != nil {
		return nil, err
	}
	if latest {
		if len(entries) > latestFeedSize {
			entries = entries[len(entries)-latestFeedSize:]
		}
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}
	out := make([]schema.NewsDto, 0, len(entries))
	for _, e := range entries {
		out = append(out, toNewsDto(e))
	}
	return out, nil
}

// HandleSaleCreated builds a feed entry from the sale snapshot. The book
// title comes from a blocking lookup to the book-server; if the book cannot
// be resolved the event is dropped.
func (s *NewsService) HandleSaleCreated(ctx context.Context, payload []byte) error {
	dto, err := decodeSale(payload)
	if err != nil {
		return err
	}
	if dto.Book == nil || dto.Price == nil || dto.Condition == nil {
		return fmt.Errorf("%w: sale-created without book, price or condition", domain.ErrInvalidInput)
	}
	book, err := s.books.GetBook(ctx, *dto.Book)
	if err != nil {
		return fmt.Errorf("resolve book %d: %w", *dto.Book, err)
	}
	entry := domain.NewsEntry{
		Sale:          *dto.ID,
		SellerName:    *dto.Seller,
		BookPrice:     *dto.Price,
		BookCondition: *dto.Condition,
	}
	if book.Title != nil {
		entry.BookTitle = *book.Title
	}
	return s.news.Save(ctx, entry)
}

// HandleSaleUpdated overwrites price and condition of the entry matching the
// sale id. A missing entry drops the event; no entry is created.
func (s *NewsService) HandleSaleUpdated(ctx context.Context, payload []byte) error {
	dto, err := decodeSale(payload)
	if err != nil {
		return err
	}
	entry, err := s.news.GetBySale(ctx, *dto.ID)
	if err != nil {
		return fmt.Errorf("lookup news for sale %d: %w", *dto.ID, err)
	}
	if dto.Price != nil {
		entry.BookPrice = *dto.Price
	}
	if dto.Condition != nil {
		entry.BookCondition = *dto.Condition
	}
	return s.news.Save(ctx, entry)
}

func (s *NewsService) HandleSaleDeleted(ctx context.Context, payload []byte) error {
	dto, err := decodeSale(payload)
	if err != nil {
		return err
	}
	return s.news.DeleteBySale(ctx, *dto.ID)
}

func toNewsDto(entry domain.NewsEntry) schema.NewsDto {
	dto := schema.NewsDto{
		Sale:          schema.Ptr(entry.Sale),
		SellerName:    schema.Ptr(entry.SellerName),
		BookPrice:     schema.Ptr(entry.BookPrice),
		BookCondition: schema.Ptr(entry.BookCondition),
	}
	if entry.BookTitle != "" {
		dto.BookTitle = schema.Ptr(entry.BookTitle)
	}
	return dto
}
