package books

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alexis077/bookshelf/internal/middleware"
	"github.com/alexis077/bookshelf/internal/telemetry/metrics"
	"github.com/alexis077/bookshelf/internal/telemetry/tracing"
	"github.com/alexis077/bookshelf/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type bookRepo interface {
	Add(ctx context.Context, book *Book) (*Book, error)
	Get(ctx context.Context, id string) (*Book, error)
	List(ctx context.Context) ([]Book, error)
	ListByUser(ctx context.Context, userID string) ([]Book, error)
	Update(ctx context.Context, id string, params UpdateBookParams) (*Book, error)
	Delete(ctx context.Context, id string) error
}

type newBookRequest struct {
	Title         string `json:"title"`
	Subtitle      string `json:"subtitle"`
	Author        string `json:"author"`
	Description   string `json:"description"`
	PublishedDate string `json:"published_date"`
	Publisher     string `json:"publisher"`
	ISBN          string `json:"isbn"`
	PageCount     int    `json:"page_count"`
	ImageURL      string `json:"image_url"`
	GoogleBooksID string `json:"google_books_id"`
}

type updateBookRequest struct {
	Title         *string `json:"title"`
	Subtitle      *string `json:"subtitle"`
	Author        *string `json:"author"`
	Description   *string `json:"description"`
	PublishedDate *string `json:"published_date"`
	Publisher     *string `json:"publisher"`
	ISBN          *string `json:"isbn"`
	PageCount     *int    `json:"page_count"`
	ImageURL      *string `json:"image_url"`
}

type Handler struct {
	repo    bookRepo
	metrics *metrics.Manager
}

func NewHandler(repo bookRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

// SetupRoutes registers the public and the guarded book routes. The
// guard applies only to the protected subrouter; listing and getting
// single books stays open, matching the external search routes.
func (handler *Handler) SetupRoutes(
	router *mux.Router,
	authMiddleware *middleware.AuthMiddlewareHandler,
) {
	publicRouter := router.PathPrefix("/api/books").Subrouter()
	publicRouter.HandleFunc("", handler.handleList).Methods("GET", "OPTIONS").Name("list-books")
	publicRouter.HandleFunc("/{id}", handler.handleGet).Methods("GET", "OPTIONS").Name("get-book")

	protectedRouter := router.PathPrefix("/api/books").Subrouter()
	protectedRouter.HandleFunc("", handler.handleAdd).Methods("POST", "OPTIONS").Name("new-book")
	protectedRouter.HandleFunc("/user/books", handler.handleMyBooks).Methods("GET", "OPTIONS").Name("my-books")
	protectedRouter.HandleFunc("/{id}", handler.handleUpdate).Methods("PUT", "OPTIONS").Name("update-book")
	protectedRouter.HandleFunc("/{id}", handler.handleDelete).Methods("DELETE", "OPTIONS").Name("delete-book")
	protectedRouter.Use(authMiddleware.Authenticate())
}

func (handler *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "booksHandler.add")
	defer span.End()

	claims := middleware.AuthorizedUserFromContext(ctx)
	if claims == nil {
		pkg.WriteAPIError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var newBookReq newBookRequest
	if err := json.NewDecoder(r.Body).Decode(&newBookReq); err != nil {
		log.Errorf("new book, unmarshal json params: %s", err)
		pkg.WriteAPIError(w, "add book failed", http.StatusBadRequest)
		return
	}

	if newBookReq.Title == "" {
		pkg.WriteAPIError(w, "error, title empty", http.StatusBadRequest)
		return
	}
	if newBookReq.Author == "" {
		pkg.WriteAPIError(w, "error, author empty", http.StatusBadRequest)
		return
	}

	addedBook, err := handler.repo.Add(ctx, &Book{
		Title:         newBookReq.Title,
		Subtitle:      newBookReq.Subtitle,
		Author:        newBookReq.Author,
		Description:   newBookReq.Description,
		PublishedDate: newBookReq.PublishedDate,
		Publisher:     newBookReq.Publisher,
		ISBN:          newBookReq.ISBN,
		PageCount:     newBookReq.PageCount,
		ImageURL:      newBookReq.ImageURL,
		GoogleBooksID: newBookReq.GoogleBooksID,
		UserID:        claims.UserID,
	})
	if err != nil {
		log.Errorf("add new book [%s] failed: %s", newBookReq.Title, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "add-book-failed")
		pkg.WriteAPIError(w, "add book failed", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterBooksAdded.Inc()

	log.Tracef("new book added: [%s] by [%s]: %s", addedBook.Title, addedBook.Author, addedBook.ID)
	span.SetStatus(codes.Ok, "book-added")
	pkg.WriteAPIData(w, addedBook, http.StatusCreated)
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "booksHandler.list")
	defer span.End()

	all, err := handler.repo.List(ctx)
	if err != nil {
		log.Errorf("list books error: %s", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "list-books-failed")
		pkg.WriteAPIError(w, "failed to get books", http.StatusInternalServerError)
		return
	}

	if all == nil {
		all = []Book{}
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteAPIData(w, all, http.StatusOK)
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "booksHandler.get")
	defer span.End()

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		pkg.WriteAPIError(w, "error, id empty", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("book.id", id))

	book, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookNotFound) {
			span.SetStatus(codes.Error, "book-not-found")
			pkg.WriteAPIError(w, "book not found", http.StatusNotFound)
			return
		}
		log.Errorf("get book %s error: %s", id, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "get-book-failed")
		pkg.WriteAPIError(w, "failed to get book", http.StatusInternalServerError)
		return
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteAPIData(w, book, http.StatusOK)
}

func (handler *Handler) handleMyBooks(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "booksHandler.myBooks")
	defer span.End()

	claims := middleware.AuthorizedUserFromContext(ctx)
	if claims == nil {
		pkg.WriteAPIError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	myBooks, err := handler.repo.ListByUser(ctx, claims.UserID)
	if err != nil {
		log.Errorf("list user %s books error: %s", claims.UserID, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "list-user-books-failed")
		pkg.WriteAPIError(w, "failed to get user books", http.StatusInternalServerError)
		return
	}

	if myBooks == nil {
		myBooks = []Book{}
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteAPIData(w, myBooks, http.StatusOK)
}

func (handler *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "booksHandler.update")
	defer span.End()

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		pkg.WriteAPIError(w, "error, id empty", http.StatusBadRequest)
		return
	}

	var updateReq updateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&updateReq); err != nil {
		log.Errorf("update book, unmarshal json params: %s", err)
		pkg.WriteAPIError(w, "update book failed", http.StatusBadRequest)
		return
	}

	if updateReq.Title != nil && *updateReq.Title == "" {
		pkg.WriteAPIError(w, "error, title cannot be empty", http.StatusBadRequest)
		return
	}
	if updateReq.Author != nil && *updateReq.Author == "" {
		pkg.WriteAPIError(w, "error, author cannot be empty", http.StatusBadRequest)
		return
	}

	updatedBook, err := handler.repo.Update(ctx, id, UpdateBookParams{
		Title:         updateReq.Title,
		Subtitle:      updateReq.Subtitle,
		Author:        updateReq.Author,
		Description:   updateReq.Description,
		PublishedDate: updateReq.PublishedDate,
		Publisher:     updateReq.Publisher,
		ISBN:          updateReq.ISBN,
		PageCount:     updateReq.PageCount,
		ImageURL:      updateReq.ImageURL,
	})
	if err != nil {
		if errors.Is(err, ErrBookNotFound) {
			span.SetStatus(codes.Error, "book-not-found")
			pkg.WriteAPIError(w, "book not found", http.StatusNotFound)
			return
		}
		log.Errorf("update book %s failed: %s", id, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "update-book-failed")
		pkg.WriteAPIError(w, "update book failed", http.StatusInternalServerError)
		return
	}

	log.Tracef("book updated: [%s]: %s", updatedBook.Title, updatedBook.ID)
	span.SetStatus(codes.Ok, "book-updated")
	pkg.WriteAPIData(w, updatedBook, http.StatusOK)
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "booksHandler.delete")
	defer span.End()

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		pkg.WriteAPIError(w, "error, id empty", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrBookNotFound) {
			span.SetStatus(codes.Error, "book-not-found")
			pkg.WriteAPIError(w, "book not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete book %s failed: %s", id, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete-book-failed")
		pkg.WriteAPIError(w, "delete book failed", http.StatusInternalServerError)
		return
	}

	span.SetStatus(codes.Ok, "book-deleted")
	pkg.WriteAPIData(w, "book deleted successfully", http.StatusOK)
}
