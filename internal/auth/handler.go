package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alexis077/bookshelf/internal/telemetry/metrics"
	"github.com/alexis077/bookshelf/internal/telemetry/tracing"
	"github.com/alexis077/bookshelf/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Handler struct {
	service *Service
	metrics *metrics.Manager
}

func NewHandler(service *Service, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service: service,
		metrics: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	authRouter := router.PathPrefix("/api/auth").Subrouter()
	authRouter.HandleFunc("/register", handler.handleRegister).Methods("POST", "OPTIONS").Name("register")
	authRouter.HandleFunc("/login", handler.handleLogin).Methods("POST", "OPTIONS").Name("login")
}

func (handler *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.register")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var registerReq registerRequest
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&registerReq); err != nil {
			log.Errorf("register, unmarshal json params: %s", err)
			pkg.WriteAPIError(w, "invalid request", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("register failed, parse form error: %s", err)
			pkg.WriteAPIError(w, "invalid request", http.StatusBadRequest)
			return
		}
		registerReq = registerRequest{
			Name:     r.Form.Get("name"),
			Email:    r.Form.Get("email"),
			Password: r.Form.Get("password"),
		}
	}

	if registerReq.Name == "" {
		pkg.WriteAPIError(w, "error, name empty", http.StatusBadRequest)
		return
	}
	if registerReq.Email == "" {
		pkg.WriteAPIError(w, "error, email empty", http.StatusBadRequest)
		return
	}
	if len(registerReq.Password) < 6 {
		pkg.WriteAPIError(w, "error, password must be at least 6 characters long", http.StatusBadRequest)
		return
	}

	// the plaintext password lives only in this request scope
	// and must never be logged
	created, err := handler.service.Register(ctx, registerReq.Name, registerReq.Email, registerReq.Password)
	if err != nil {
		if errors.Is(err, ErrDuplicateAccount) {
			span.SetStatus(codes.Error, "duplicate-account")
			pkg.WriteAPIError(w, ErrDuplicateAccount.Error(), http.StatusBadRequest)
			return
		}
		log.Errorf("register account failed: %s", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "register-failed")
		pkg.WriteAPIError(w, "registration failed", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterRegistrations.Inc()

	log.Tracef("new account registered: %s", created.ID)
	span.SetStatus(codes.Ok, "registered")
	pkg.WriteAPIData(w, created, http.StatusCreated)
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.login")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var loginReq loginRequest
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
			log.Errorf("login, unmarshal json params: %s", err)
			pkg.WriteAPIError(w, "invalid request", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("login failed, parse form error: %s", err)
			pkg.WriteAPIError(w, "invalid request", http.StatusBadRequest)
			return
		}
		loginReq = loginRequest{
			Email:    r.Form.Get("email"),
			Password: r.Form.Get("password"),
		}
	}

	if loginReq.Email == "" {
		pkg.WriteAPIError(w, "error, email empty", http.StatusBadRequest)
		return
	}
	if loginReq.Password == "" {
		pkg.WriteAPIError(w, "error, password empty", http.StatusBadRequest)
		return
	}

	loggedIn, err := handler.service.Login(ctx, loginReq.Email, loginReq.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			// same message for unknown email and wrong password
			handler.metrics.CounterFailedLogins.Inc()
			log.Tracef("failed login attempt for: %s", loginReq.Email)
			span.SetStatus(codes.Error, "invalid-credentials")
			pkg.WriteAPIError(w, ErrInvalidCredentials.Error(), http.StatusUnauthorized)
			return
		}
		log.Errorf("login failed: %s", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "login-failed")
		pkg.WriteAPIError(w, "login failed", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterLogins.Inc()

	log.Trace("new login success")
	span.SetStatus(codes.Ok, "logged-in")
	pkg.WriteAPIData(w, loggedIn, http.StatusOK)
}
