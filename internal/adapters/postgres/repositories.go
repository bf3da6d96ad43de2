package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pagemarket/marketplace/internal/domain"
	"github.com/pagemarket/marketplace/internal/ports"
)

type Repositories struct {
	Books     ports.BookRepository
	Sales     ports.SaleRepository
	Directory ports.DirectoryRepository
	News      ports.NewsRepository
	AuthUsers ports.AuthUserRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Books:     &bookRepository{db: db},
		Sales:     &saleRepository{db: db},
		Directory: &directoryRepository{db: db},
		News:      &newsRepository{db: db},
		AuthUsers: &authUserRepository{db: db},
	}
}

type bookRepository struct {
	db *gorm.DB
}

func (r *bookRepository) List(ctx context.Context) ([]domain.Book, error) {
	var recs []bookModel
	if err := r.db.WithContext(ctx).Order("id").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Book, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomainBook(rec))
	}
	return out, nil
}

func (r *bookRepository) GetByID(ctx context.Context, id int64) (domain.Book, error) {
	var rec bookModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Book{}, domain.ErrNotFound
		}
		return domain.Book{}, err
	}
	return toDomainBook(rec), nil
}

func (r *bookRepository) Create(ctx context.Context, book domain.Book) (domain.Book, error) {
	rec := bookModel{Title: book.Title, Author: book.Author, Condition: book.Condition}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Book{}, err
	}
	return toDomainBook(rec), nil
}

func (r *bookRepository) Update(ctx context.Context, book domain.Book) (domain.Book, error) {
	rec := bookModel{
		ID:        book.ID,
		Title:     book.Title,
		Author:    book.Author,
		Condition: book.Condition,
	}
	res := r.db.WithContext(ctx).Model(&bookModel{}).Where("id = ?", rec.ID).Updates(map[string]any{
		"title":     rec.Title,
		"author":    rec.Author,
		"condition": rec.Condition,
	})
	if res.Error != nil {
		return domain.Book{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Book{}, domain.ErrNotFound
	}
	return toDomainBook(rec), nil
}

func (r *bookRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&bookModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type saleRepository struct {
	db *gorm.DB
}

func (r *saleRepository) List(ctx context.Context) ([]domain.Sale, error) {
	var recs []saleModel
	if err := r.db.WithContext(ctx).Order("id").Find(&recs).Error; err != nil {
		return nil, err
	}
	return toDomainSales(recs), nil
}

func (r *saleRepository) GetByID(ctx context.Context, id int64) (domain.Sale, error) {
	var rec saleModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Sale{}, domain.ErrNotFound
		}
		return domain.Sale{}, err
	}
	return toDomainSale(rec), nil
}

func (r *saleRepository) ListByBook(ctx context.Context, bookID int64) ([]domain.Sale, error) {
	var recs []saleModel
	if err := r.db.WithContext(ctx).Where("book = ?", bookID).Order("id").Find(&recs).Error; err != nil {
		return nil, err
	}
	return toDomainSales(recs), nil
}

func (r *saleRepository) ListBySeller(ctx context.Context, username string) ([]domain.Sale, error) {
	var recs []saleModel
	if err := r.db.WithContext(ctx).Where("seller = ?", username).Order("id").Find(&recs).Error; err != nil {
		return nil, err
	}
	return toDomainSales(recs), nil
}

func (r *saleRepository) Create(ctx context.Context, sale domain.Sale) (domain.Sale, error) {
	rec := saleModel{
		Seller:    sale.Seller,
		Book:      sale.Book,
		Price:     sale.Price,
		Condition: sale.Condition,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Sale{}, err
	}
	return toDomainSale(rec), nil
}

func (r *saleRepository) Update(ctx context.Context, sale domain.Sale) (domain.Sale, error) {
	res := r.db.WithContext(ctx).Model(&saleModel{}).Where("id = ?", sale.ID).Updates(map[string]any{
		"price":     sale.Price,
		"condition": sale.Condition,
	})
	if res.Error != nil {
		return domain.Sale{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Sale{}, domain.ErrNotFound
	}
	return sale, nil
}

func (r *saleRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&saleModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type directoryRepository struct {
	db *gorm.DB
}

func (r *directoryRepository) List(ctx context.Context) ([]domain.DirectoryEntry, error) {
	var recs []directoryEntryModel
	if err := r.db.WithContext(ctx).Order("username").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.DirectoryEntry, 0, len(recs))
	for _, rec := range recs {
		entry, err := toDomainDirectoryEntry(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

func (r *directoryRepository) GetByUsername(ctx context.Context, username string) (domain.DirectoryEntry, error) {
	var rec directoryEntryModel
	if err := r.db.WithContext(ctx).Where("username = ?", username).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.DirectoryEntry{}, domain.ErrNotFound
		}
		return domain.DirectoryEntry{}, err
	}
	return toDomainDirectoryEntry(rec)
}

// Save replaces the whole row. Concurrent consumers that both read the sales
// list before writing will overwrite each other; the row carries no version.
func (r *directoryRepository) Save(ctx context.Context, entry domain.DirectoryEntry) error {
	sales := entry.Sales
	if sales == nil {
		sales = []int64{}
	}
	raw, err := json.Marshal(sales)
	if err != nil {
		return fmt.Errorf("encode sales list: %w", err)
	}
	rec := directoryEntryModel{
		Username: entry.Username,
		Name:     entry.Name,
		Email:    entry.Email,
		Sales:    string(raw),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "sales"}),
	}).Create(&rec).Error
}

type newsRepository struct {
	db *gorm.DB
}

func (r *newsRepository) List(ctx context.Context) ([]domain.NewsEntry, error) {
	var recs []newsEntryModel
	if err := r.db.WithContext(ctx).Order("position").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.NewsEntry, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomainNewsEntry(rec))
	}
	return out, nil
}

func (r *newsRepository) GetBySale(ctx context.Context, saleID int64) (domain.NewsEntry, error) {
	var rec newsEntryModel
	if err := r.db.WithContext(ctx).Where("sale = ?", saleID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewsEntry{}, domain.ErrNotFound
		}
		return domain.NewsEntry{}, err
	}
	return toDomainNewsEntry(rec), nil
}

// Save upserts on the sale id; an update keeps the entry's original feed
// position.
func (r *newsRepository) Save(ctx context.Context, entry domain.NewsEntry) error {
	rec := newsEntryModel{
		Sale:          entry.Sale,
		SellerName:    entry.SellerName,
		BookTitle:     entry.BookTitle,
		BookPrice:     entry.BookPrice,
		BookCondition: entry.BookCondition,
	}
	return r.db.WithContext(ctx).Omit("position").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sale"}},
		DoUpdates: clause.AssignmentColumns([]string{"seller_name", "book_title", "book_price", "book_condition"}),
	}).Create(&rec).Error
}

func (r *newsRepository) DeleteBySale(ctx context.Context, saleID int64) error {
	res := r.db.WithContext(ctx).Where("sale = ?", saleID).Delete(&newsEntryModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type authUserRepository struct {
	db *gorm.DB
}

func (r *authUserRepository) GetByUsername(ctx context.Context, username string) (domain.AuthUser, error) {
	var rec authUserModel
	if err := r.db.WithContext(ctx).Where("username = ?", username).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.AuthUser{}, domain.ErrNotFound
		}
		return domain.AuthUser{}, err
	}
	return toDomainAuthUser(rec)
}

func (r *authUserRepository) Create(ctx context.Context, user domain.AuthUser) error {
	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	raw, err := json.Marshal(roles)
	if err != nil {
		return fmt.Errorf("encode roles: %w", err)
	}
	rec := authUserModel{
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Name:         user.Name,
		Email:        user.Email,
		Roles:        string(raw),
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
