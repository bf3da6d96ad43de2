package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/pagemarket/marketplace/internal/domain"
)

func toDomainBook(rec bookModel) domain.Book {
	return domain.Book{
		ID:        rec.ID,
		Title:     rec.Title,
		Author:    rec.Author,
		Condition: rec.Condition,
	}
}

func toDomainSale(rec saleModel) domain.Sale {
	return domain.Sale{
		ID:        rec.ID,
		Seller:    rec.Seller,
		Book:      rec.Book,
		Price:     rec.Price,
		Condition: rec.Condition,
	}
}

func toDomainSales(recs []saleModel) []domain.Sale {
	out := make([]domain.Sale, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomainSale(rec))
	}
	return out
}

func toDomainDirectoryEntry(rec directoryEntryModel) (domain.DirectoryEntry, error) {
	sales := []int64{}
	if rec.Sales != "" {
		if err := json.Unmarshal([]byte(rec.Sales), &sales); err != nil {
			return domain.DirectoryEntry{}, fmt.Errorf("decode sales list for %s: %w", rec.Username, err)
		}
	}
	return domain.DirectoryEntry{
		Username: rec.Username,
		Name:     rec.Name,
		Email:    rec.Email,
		Sales:    sales,
	}, nil
}

func toDomainNewsEntry(rec newsEntryModel) domain.NewsEntry {
	return domain.NewsEntry{
		Sale:          rec.Sale,
		SellerName:    rec.SellerName,
		BookTitle:     rec.BookTitle,
		BookPrice:     rec.BookPrice,
		BookCondition: rec.BookCondition,
	}
}

func toDomainAuthUser(rec authUserModel) (domain.AuthUser, error) {
	roles := []string{}
	if rec.Roles != "" {
		if err := json.Unmarshal([]byte(rec.Roles), &roles); err != nil {
			return domain.AuthUser{}, fmt.Errorf("decode roles for %s: %w", rec.Username, err)
		}
	}
	return domain.AuthUser{
		Username:     rec.Username,
		PasswordHash: rec.PasswordHash,
		Name:         rec.Name,
		Email:        rec.Email,
		Roles:        roles,
	}, nil
}
