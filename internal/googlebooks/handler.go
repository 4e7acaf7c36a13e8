package googlebooks

import (
	"errors"
	"net/http"

	"github.com/alexis077/bookshelf/internal/telemetry/metrics"
	"github.com/alexis077/bookshelf/internal/telemetry/tracing"
	"github.com/alexis077/bookshelf/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type Handler struct {
	api     *Api
	metrics *metrics.Manager
}

func NewHandler(api *Api, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		api:     api,
		metrics: metricsManager,
	}
}

// SetupRoutes registers the external catalog routes. They live under
// /api/books and must be registered before the catalog's own /{id}
// route so that "search" and "external" are not read as book ids.
func (handler *Handler) SetupRoutes(router *mux.Router) {
	searchRouter := router.PathPrefix("/api/books").Subrouter()
	searchRouter.HandleFunc("/search", handler.handleSearch).Methods("GET", "OPTIONS").Name("search-books")
	searchRouter.HandleFunc("/external/{id}", handler.handleGetVolume).Methods("GET", "OPTIONS").Name("get-external-book")
}

func (handler *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "googleBooksHandler.search")
	defer span.End()

	query := r.URL.Query().Get("q")
	if query == "" {
		pkg.WriteAPIError(w, "search query is required", http.StatusBadRequest)
		return
	}

	handler.metrics.CounterCatalogLookups.Inc()

	found := handler.api.Search(ctx, query)
	if found == nil {
		found = []CatalogBook{}
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteAPIData(w, found, http.StatusOK)
}

func (handler *Handler) handleGetVolume(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "googleBooksHandler.getVolume")
	defer span.End()

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		pkg.WriteAPIError(w, "error, id empty", http.StatusBadRequest)
		return
	}

	handler.metrics.CounterCatalogLookups.Inc()

	catalogBook, err := handler.api.GetVolume(ctx, id)
	if err != nil {
		if errors.Is(err, ErrVolumeNotFound) {
			span.SetStatus(codes.Error, "volume-not-found")
			pkg.WriteAPIError(w, "book not found", http.StatusNotFound)
			return
		}
		log.Errorf("get external book %s error: %s", id, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "get-volume-failed")
		pkg.WriteAPIError(w, "error fetching book from external service", http.StatusInternalServerError)
		return
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteAPIData(w, catalogBook, http.StatusOK)
}
