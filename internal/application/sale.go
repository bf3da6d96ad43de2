package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pagemarket/marketplace/internal/domain"
	"github.com/pagemarket/marketplace/internal/ports"
	"github.com/pagemarket/marketplace/internal/schema"
)

// SaleService owns the Sale records and embeds the publisher side of the
// replication protocol: every committed mutation is announced on the bus with
// a full post-mutation snapshot. Publishing is best-effort; a bus failure
// never rolls back the local write.
type SaleService struct {
	logger    *slog.Logger
	sales     ports.SaleRepository
	books     ports.BookClient
	publisher ports.EventPublisher
}

func NewSaleService(logger *slog.Logger, sales ports.SaleRepository, books ports.BookClient, publisher ports.EventPublisher) *SaleService {
	return &SaleService{logger: logger, sales: sales, books: books, publisher: publisher}
}

func (s *SaleService) ListSales(ctx context.Context) ([]schema.SaleDto, error) {
	sales, err := s.sales.List(ctx)
	if err != nil {
		return nil, err
	}
	return toSaleDtos(sales), nil
}

func (s *SaleService) GetSale(ctx context.Context, id int64) (schema.SaleDto, error) {
	sale, err := s.sales.GetByID(ctx, id)
	if err != nil {
		return schema.SaleDto{}, err
	}
	return toSaleDto(sale), nil
}

func (s *SaleService) ListSalesForBook(ctx context.Context, bookID int64) ([]schema.SaleDto, error) {
	sales, err := s.sales.ListByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	return toSaleDtos(sales), nil
}

func (s *SaleService) ListSalesForSeller(ctx context.Context, username string) ([]schema.SaleDto, error) {
	sales, err := s.sales.ListBySeller(ctx, username)
	if err != nil {
		return nil, err
	}
	return toSaleDtos(sales), nil
}

// CreateSale validates the request, resolves the book reference with a
// blocking lookup against the book-server, persists, then publishes
// sale-created. An upstream 4xx propagates to the caller unchanged.
func (s *SaleService) CreateSale(ctx context.Context, principal string, dto schema.SaleDto) (schema.SaleDto, error) {
	if dto.ID != nil {
		return schema.SaleDto{}, fmt.Errorf("%w: id should not be specified", domain.ErrInvalidInput)
	}
	if dto.Seller != nil {
		return schema.SaleDto{}, fmt.Errorf("%w: seller should not be specified", domain.ErrInvalidInput)
	}
	if dto.Book == nil {
		return schema.SaleDto{}, fmt.Errorf("%w: book is required", domain.ErrInvalidInput)
	}
	if dto.Price == nil || dto.Condition == nil {
		return schema.SaleDto{}, fmt.Errorf("%w: price and condition are required", domain.ErrInvalidInput)
	}
	if err := domain.ValidateSaleInput(*dto.Price, *dto.Condition); err != nil {
		return schema.SaleDto{}, err
	}

	book, err := s.books.GetBook(ctx, *dto.Book)
	if err != nil {
		return schema.SaleDto{}, err
	}

	sale, err := s.sales.Create(ctx, domain.Sale{
		Seller:    principal,
		Book:      *book.ID,
		Price:     *dto.Price,
		Condition: *dto.Condition,
	})
	if err != nil {
		return schema.SaleDto{}, err
	}
	s.publishSale(ctx, schema.TopicSaleCreated, sale)
	return toSaleDto(sale), nil
}

// UpdateSale mutates price and/or condition. A body id that contradicts the
// path id is a conflict; only the owning seller may update.
func (s *SaleService) UpdateSale(ctx context.Context, principal string, id int64, dto schema.SaleDto) error {
	if dto.ID != nil && *dto.ID != id {
		return fmt.Errorf("%w: body id does not match path id", domain.ErrConflict)
	}
	sale, err := s.sales.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sale.Seller != principal {
		return fmt.Errorf("%w: sale belongs to another seller", domain.ErrForbidden)
	}
	if dto.Price != nil {
		sale.Price = *dto.Price
	}
	if dto.Condition != nil {
		sale.Condition = *dto.Condition
	}
	if err := domain.ValidateSaleInput(sale.Price, sale.Condition); err != nil {
		return err
	}
	updated, err := s.sales.Update(ctx, sale)
	if err != nil {
		return err
	}
	s.publishSale(ctx, schema.TopicSaleUpdated, updated)
	return nil
}

// DeleteSale removes the sale and announces the just-deleted snapshot; its id
// is authoritative for downstream removal.
func (s *SaleService) DeleteSale(ctx context.Context, principal string, id int64) error {
	sale, err := s.sales.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sale.Seller != principal {
		return fmt.Errorf("%w: sale belongs to another seller", domain.ErrForbidden)
	}
	if err := s.sales.Delete(ctx, id); err != nil {
		return err
	}
	s.publishSale(ctx, schema.TopicSaleDeleted, sale)
	return nil
}

func (s *SaleService) publishSale(ctx context.Context, topic string, sale domain.Sale) {
	payload, err := json.Marshal(toSaleDto(sale))
	if err == nil {
		err = s.publisher.Publish(ctx, topic, payload)
	}
	if err != nil {
		// The local write is the source of truth; replication is best-effort.
		s.logger.WarnContext(ctx, "event publish failed",
			"module", "application.sale",
			"operation", "publish",
			"outcome", "dropped",
			"topic", topic,
			"sale_id", sale.ID,
			"error", err,
		)
	}
}

func toSaleDto(sale domain.Sale) schema.SaleDto {
	return schema.SaleDto{
		ID:        schema.Ptr(sale.ID),
		Seller:    schema.Ptr(sale.Seller),
		Book:      schema.Ptr(sale.Book),
		Price:     schema.Ptr(sale.Price),
		Condition: schema.Ptr(sale.Condition),
	}
}

func toSaleDtos(sales []domain.Sale) []schema.SaleDto {
	out := make([]schema.SaleDto, 0, len(sales))
	for _, sale := range sales {
		out = append(out, toSaleDto(sale))
	}
	return out
}
