package books

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexis077/bookshelf/pkg"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrBookNotFound = errors.New("book not found")
	ErrUnknownOwner = errors.New("book owner does not exist")
)

var _ bookRepo = (*Repo)(nil)
var _ bookRepo = (*repoMock)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

const bookColumns = `id, title, subtitle, author, description, published_date,
	publisher, isbn, page_count, image_url, google_books_id, user_id, created_at, updated_at`

func scanBook(row pgx.Row) (*Book, error) {
	var b Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Subtitle, &b.Author, &b.Description, &b.PublishedDate,
		&b.Publisher, &b.ISBN, &b.PageCount, &b.ImageURL, &b.GoogleBooksID,
		&b.UserID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *Repo) Add(ctx context.Context, book *Book) (*Book, error) {
	if book.Title == "" || book.Author == "" || book.UserID == "" {
		return nil, errors.New("book title, author or owner empty")
	}

	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = now

	_, err := r.db.Exec(
		ctx,
		`INSERT INTO book (id, title, subtitle, author, description, published_date,
			publisher, isbn, page_count, image_url, google_books_id, user_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);`,
		book.ID, book.Title, book.Subtitle, book.Author, book.Description, book.PublishedDate,
		book.Publisher, book.ISBN, book.PageCount, book.ImageURL, book.GoogleBooksID,
		book.UserID, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return nil, ErrUnknownOwner
		}
		return nil, fmt.Errorf("insert book: %w", err)
	}

	return book, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Book, error) {
	return scanBook(r.db.QueryRow(
		ctx,
		`SELECT `+bookColumns+` FROM book WHERE id = $1;`,
		id,
	))
}

func (r *Repo) List(ctx context.Context) ([]Book, error) {
	return r.list(ctx, `SELECT `+bookColumns+` FROM book ORDER BY created_at DESC;`)
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Book, error) {
	return r.list(ctx, `SELECT `+bookColumns+` FROM book WHERE user_id = $1 ORDER BY created_at DESC;`, userID)
}

func (r *Repo) list(ctx context.Context, query string, args ...any) ([]Book, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return all, nil
}

func (r *Repo) Update(ctx context.Context, id string, params UpdateBookParams) (*Book, error) {
	book, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	applyBookUpdate(book, params)
	book.UpdatedAt = time.Now()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE book SET title = $1, subtitle = $2, author = $3, description = $4,
			published_date = $5, publisher = $6, isbn = $7, page_count = $8,
			image_url = $9, updated_at = $10
			WHERE id = $11;`,
		book.Title, book.Subtitle, book.Author, book.Description,
		book.PublishedDate, book.Publisher, book.ISBN, book.PageCount,
		book.ImageURL, book.UpdatedAt, book.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrBookNotFound
	}

	return book, nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM book WHERE id = $1;`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBookNotFound
	}
	return nil
}

func applyBookUpdate(book *Book, params UpdateBookParams) {
	if params.Title != nil {
		book.Title = *params.Title
	}
	if params.Subtitle != nil {
		book.Subtitle = *params.Subtitle
	}
	if params.Author != nil {
		book.Author = *params.Author
	}
	if params.Description != nil {
		book.Description = *params.Description
	}
	if params.PublishedDate != nil {
		book.PublishedDate = *params.PublishedDate
	}
	if params.Publisher != nil {
		book.Publisher = *params.Publisher
	}
	if params.ISBN != nil {
		book.ISBN = *params.ISBN
	}
	if params.PageCount != nil {
		book.PageCount = *params.PageCount
	}
	if params.ImageURL != nil {
		book.ImageURL = *params.ImageURL
	}
}
