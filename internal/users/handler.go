package users

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alexis077/bookshelf/internal/telemetry/tracing"
	"github.com/alexis077/bookshelf/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type setRoleRequest struct {
	Role string `json:"role"`
}

// Handler exposes the admin-only account management routes.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{
		store: store,
	}
}

// SetupRoutes registers the admin routes; both the guard and the admin
// role gate are expected to be layered on adminRouter by the caller.
func (handler *Handler) SetupRoutes(adminRouter *mux.Router) {
	adminRouter.HandleFunc("/users", handler.handleList).Methods("GET", "OPTIONS").Name("list-users")
	adminRouter.HandleFunc("/users/{id}/role", handler.handleSetRole).Methods("PUT", "OPTIONS").Name("set-user-role")
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "usersHandler.list")
	defer span.End()

	all, err := handler.store.List(ctx)
	if err != nil {
		log.Errorf("list users error: %s", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "list-users-failed")
		pkg.WriteAPIError(w, "failed to get users", http.StatusInternalServerError)
		return
	}

	sanitized := make([]SanitizedUser, 0, len(all))
	for i := range all {
		sanitized = append(sanitized, all[i].Sanitized())
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteAPIData(w, sanitized, http.StatusOK)
}

func (handler *Handler) handleSetRole(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "usersHandler.setRole")
	defer span.End()

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		pkg.WriteAPIError(w, "error, id empty", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("user.id", id))

	var setRoleReq setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&setRoleReq); err != nil {
		log.Errorf("set user role, unmarshal json params: %s", err)
		pkg.WriteAPIError(w, "invalid request", http.StatusBadRequest)
		return
	}

	if setRoleReq.Role != RoleUser && setRoleReq.Role != RoleAdmin {
		pkg.WriteAPIError(w, "error, unknown role", http.StatusBadRequest)
		return
	}

	updated, err := handler.store.Update(ctx, id, UpdateUserParams{
		Role: &setRoleReq.Role,
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			span.SetStatus(codes.Error, "user-not-found")
			pkg.WriteAPIError(w, "user not found", http.StatusNotFound)
			return
		}
		log.Errorf("set role for user %s failed: %s", id, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "set-role-failed")
		pkg.WriteAPIError(w, "failed to update user", http.StatusInternalServerError)
		return
	}

	log.Tracef("user %s role set to %s", updated.ID, updated.Role)
	span.SetStatus(codes.Ok, "role-updated")
	pkg.WriteAPIData(w, updated.Sanitized(), http.StatusOK)
}
