package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pagemarket/marketplace/internal/domain"
	"github.com/pagemarket/marketplace/internal/ports"
	"github.com/pagemarket/marketplace/internal/schema"
)

type BookService struct {
	logger *slog.Logger
	books  ports.BookRepository
}

func NewBookService(logger *slog.Logger, books ports.BookRepository) *BookService {
	return &BookService{logger: logger, books: books}
}

func (s *BookService) ListBooks(ctx context.Context) ([]schema.BookDto, error) {
	books, err := s.books.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]schema.BookDto, 0, len(books))
	for _, b := range books {
		out = append(out, toBookDto(b))
	}
	return out, nil
}

func (s *BookService) GetBook(ctx context.Context, id int64) (schema.BookDto, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return schema.BookDto{}, err
	}
	return toBookDto(book), nil
}

func (s *BookService) CreateBook(ctx context.Context, dto schema.BookDto) (schema.BookDto, error) {
	if dto.ID != nil {
		return schema.BookDto{}, fmt.Errorf("%w: id should not be specified", domain.ErrInvalidInput)
	}
	book := domain.Book{}
	if dto.Title != nil {
		book.Title = *dto.Title
	}
	if dto.Author != nil {
		book.Author = *dto.Author
	}
	if dto.Condition != nil {
		book.Condition = *dto.Condition
	}
	if err := domain.ValidateBookInput(book.Title, book.Author); err != nil {
		return schema.BookDto{}, err
	}
	created, err := s.books.Create(ctx, book)
	if err != nil {
		return schema.BookDto{}, err
	}
	return toBookDto(created), nil
}

func (s *BookService) UpdateBook(ctx context.Context, id int64, dto schema.BookDto) error {
	if dto.ID != nil && *dto.ID != id {
		return fmt.Errorf("%w: body id does not match path id", domain.ErrConflict)
	}
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if dto.Title != nil {
		book.Title = *dto.Title
	}
	if dto.Author != nil {
		book.Author = *dto.Author
	}
	if dto.Condition != nil {
		book.Condition = *dto.Condition
	}
	if err := domain.ValidateBookInput(book.Title, book.Author); err != nil {
		return err
	}
	_, err = s.books.Update(ctx, book)
	return err
}

func (s *BookService) DeleteBook(ctx context.Context, id int64) error {
	return s.books.Delete(ctx, id)
}

func toBookDto(book domain.Book) schema.BookDto {
	dto := schema.BookDto{
		ID:     schema.Ptr(book.ID),
		Title:  schema.Ptr(book.Title),
		Author: schema.Ptr(book.Author),
	}
	if book.Condition != "" {
		dto.Condition = schema.Ptr(book.Condition)
	}
	return dto
}
