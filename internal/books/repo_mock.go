package books

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type repoMock struct {
	mutex sync.Mutex
	Books map[string]*Book
}

func NewRepoMock() *repoMock {
	return &repoMock{
		Books: make(map[string]*Book),
	}
}

func (r *repoMock) BooksCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.Books)
}

func (r *repoMock) Add(_ context.Context, book *Book) (*Book, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = now

	r.Books[book.ID] = book
	bookCopy := *book
	return &bookCopy, nil
}

func (r *repoMock) Get(_ context.Context, id string) (*Book, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	b, ok := r.Books[id]
	if !ok {
		return nil, ErrBookNotFound
	}
	bookCopy := *b
	return &bookCopy, nil
}

func (r *repoMock) List(_ context.Context) ([]Book, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.sorted(func(*Book) bool { return true }), nil
}

func (r *repoMock) ListByUser(_ context.Context, userID string) ([]Book, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.sorted(func(b *Book) bool { return b.UserID == userID }), nil
}

func (r *repoMock) sorted(include func(*Book) bool) []Book {
	var all []Book
	for _, b := range r.Books {
		if include(b) {
			all = append(all, *b)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all
}

func (r *repoMock) Update(_ context.Context, id string, params UpdateBookParams) (*Book, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	b, ok := r.Books[id]
	if !ok {
		return nil, ErrBookNotFound
	}

	applyBookUpdate(b, params)
	b.UpdatedAt = time.Now()

	bookCopy := *b
	return &bookCopy, nil
}

func (r *repoMock) Delete(_ context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Books[id]; !ok {
		return ErrBookNotFound
	}
	delete(r.Books, id)
	return nil
}
