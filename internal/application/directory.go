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

// DirectoryService backs both the seller-server and the user-server: a
// read-only REST surface over a denormalized directory, maintained by
// consuming user-created, sale-created and sale-deleted.
//
// The event handlers return an error for any message they cannot apply; the
// consumer loop logs and discards it. In particular a sale-created that
// arrives before the seller's user-created is dropped outright, with no retry
// and no dead-letter. The sales-list append is a read-modify-write with no
// cross-operation lock, so it is last-write-wins under concurrency, and
// replaying the same sale-created appends the id again.
type DirectoryService struct {
	logger  *slog.Logger
	entries ports.DirectoryRepository
}

func NewDirectoryService(logger *slog.Logger, entries ports.DirectoryRepository) *DirectoryService {
	return &DirectoryService{logger: logger, entries: entries}
}

func (s *DirectoryService) ListEntries(ctx context.Context) ([]schema.SellerDto, error) {
	entries, err := s.entries.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]schema.SellerDto, 0, len(entries))
	for _, e := range entries {
		out = append(out, toSellerDto(e))
	}
	return out, nil
}

func (s *DirectoryService) GetEntry(ctx context.Context, username string) (schema.SellerDto, error) {
	entry, err := s.entries.GetByUsername(ctx, username)
	if err != nil {
		return schema.SellerDto{}, err
	}
	return toSellerDto(entry), nil
}

// HandleUserCreated creates a directory entry with an empty sales list. Save
// is an upsert, so a duplicate announcement silently overwrites the entry.
func (s *DirectoryService) HandleUserCreated(ctx context.Context, payload []byte) error {
	var dto schema.SellerDto
	if err := json.Unmarshal(payload, &dto); err != nil {
		return fmt.Errorf("decode user-created: %w", err)
	}
	if dto.Username == nil {
		return fmt.Errorf("%w: user-created without username", domain.ErrInvalidInput)
	}
	entry := domain.DirectoryEntry{
		Username: *dto.Username,
		Sales:    []int64{},
	}
	if dto.Name != nil {
		entry.Name = *dto.Name
	}
	if dto.Email != nil {
		entry.Email = *dto.Email
	}
	return s.entries.Save(ctx, entry)
}

// HandleSaleCreated appends the sale id to the owning entry's list. The
// append is deliberately not deduplicated, and a missing entry fails the
// whole update.
func (s *DirectoryService) HandleSaleCreated(ctx context.Context, payload []byte) error {
	dto, err := decodeSale(payload)
	if err != nil {
		return err
	}
	entry, err := s.entries.GetByUsername(ctx, *dto.Seller)
	if err != nil {
		return fmt.Errorf("lookup seller %q: %w", *dto.Seller, err)
	}
	entry.Sales = append(entry.Sales, *dto.ID)
	return s.entries.Save(ctx, entry)
}

// HandleSaleDeleted removes the sale id from the owning entry's list. An id
// that is not present leaves the list unchanged.
func (s *DirectoryService) HandleSaleDeleted(ctx context.Context, payload []byte) error {
	dto, err := decodeSale(payload)
	if err != nil {
		return err
	}
	entry, err := s.entries.GetByUsername(ctx, *dto.Seller)
	if err != nil {
		return fmt.Errorf("lookup seller %q: %w", *dto.Seller, err)
	}
	kept := entry.Sales[:0]
	for _, id := range entry.Sales {
		if id != *dto.ID {
			kept = append(kept, id)
		}
	}
	entry.Sales = kept
	return s.entries.Save(ctx, entry)
}

func decodeSale(payload []byte) (schema.SaleDto, error) {
	var dto schema.SaleDto
	if err := json.Unmarshal(payload, &dto); err != nil {
		return schema.SaleDto{}, fmt.Errorf("decode sale event: %w", err)
	}
	if dto.ID == nil || dto.Seller == nil {
		return schema.SaleDto{}, fmt.Errorf("%w: sale event without id or seller", domain.ErrInvalidInput)
	}
	return dto, nil
}

func toSellerDto(entry domain.DirectoryEntry) schema.SellerDto {
	dto := schema.SellerDto{
		Username: schema.Ptr(entry.Username),
		Sales:    entry.Sales,
	}
	if entry.Name != "" {
		dto.Name = schema.Ptr(entry.Name)
	}
	if entry.Email != "" {
		dto.Email = schema.Ptr(entry.Email)
	}
	return dto
}
