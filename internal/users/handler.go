package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"

	"github.com/2beens/workout-tracker/internal/auth"
	"github.com/2beens/workout-tracker/internal/middleware"
	"github.com/2beens/workout-tracker/internal/telemetry/metrics"
	"github.com/2beens/workout-tracker/internal/telemetry/tracing"
	"github.com/2beens/workout-tracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type usersRepo interface {
	Add(ctx context.Context, user User) (*User, error)
	Get(ctx context.Context, id int) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*User, error)
	Delete(ctx context.Context, id int) error
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

type MeResponse struct {
	User User `json:"user"`
}

type Handler struct {
	repo           usersRepo
	authService    *auth.Service
	metricsManager *metrics.Manager
}

func NewHandler(repo usersRepo, authService *auth.Service, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		authService:    authService,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	rateLimitAllowedPerMin int,
	metricsManager *metrics.Manager,
) {
	authSubrouter := mainRouter.PathPrefix("/auth").Subrouter()
	authSubrouter.
		HandleFunc("/register", handler.HandleRegister).
		Methods("POST", "OPTIONS").Name("register")
	authSubrouter.
		HandleFunc("/login", handler.HandleLogin).
		Methods("POST", "OPTIONS").Name("login")
	authSubrouter.
		HandleFunc("/me", handler.HandleMe).
		Methods("GET", "OPTIONS").Name("me")
	authSubrouter.
		HandleFunc("/me", handler.HandleDeleteAccount).
		Methods("DELETE").Name("delete-account")

	// rate limit the register and login endpoints to prevent abuse
	authSubrouter.Use(middleware.RateLimit(rateLimiter, "auth", rateLimitAllowedPerMin, metricsManager))
}

func (handler *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "usersHandler.register")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		pkg.WriteJSONError(w, pkg.ErrTypeValidation, "invalid content type", http.StatusBadRequest)
		return
	}

	var registerReq RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&registerReq); err != nil {
		log.Tracef("register, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, pkg.ErrTypeValidation, "invalid request body", http.StatusBadRequest)
		return
	}

	if len(registerReq.Username) < 3 {
		pkg.WriteJSONError(w, pkg.ErrTypeValidation, "Username must be at least 3 characters long", http.StatusBadRequest)
		return
	}
	if _, err := mail.ParseAddress(registerReq.Email); err != nil {
		pkg.WriteJSONError(w, pkg.ErrTypeValidation, "Invalid email address", http.StatusBadRequest)
		return
	}
	if len(registerReq.Password) < 6 {
		pkg.WriteJSONError(w, pkg.ErrTypeValidation, "Password must be at least 6 characters long", http.StatusBadRequest)
		return
	}

	span.SetAttributes(attribute.String("username", registerReq.Username))

	if _, err := handler.repo.GetByUsername(ctx, registerReq.Username); err == nil {
		pkg.WriteJSONError(w, pkg.ErrTypeConflict, "Username already registered", http.StatusConflict)
		return
	} else if !errors.Is(err, ErrUserNotFound) {
		log.Errorf("register, check username [%s]: %s", registerReq.Username, err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "registration failed", http.StatusInternalServerError)
		return
	}
	if _, err := handler.repo.GetByEmail(ctx, registerReq.Email); err == nil {
		pkg.WriteJSONError(w, pkg.ErrTypeConflict, "Email already registered", http.StatusConflict)
		return
	} else if !errors.Is(err, ErrUserNotFound) {
		log.Errorf("register, check email: %s", err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "registration failed", http.StatusInternalServerError)
		return
	}

	passwordHash, err := pkg.HashPassword(registerReq.Password)
	if err != nil {
		log.Errorf("register, hash password: %s", err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "registration failed", http.StatusInternalServerError)
		return
	}

	addedUser, err := handler.repo.Add(ctx, User{
		Username:     registerReq.Username,
		Email:        registerReq.Email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		// the pre-checks above race with concurrent registrations, the
		// unique constraints in the DB have the final word
		if pkg.IsUniqueViolationError(err) {
			pkg.WriteJSONError(w, pkg.ErrTypeConflict, "Username or email already registered", http.StatusConflict)
			return
		}
		log.Errorf("register, add user [%s]: %s", registerReq.Username, err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "registration failed", http.StatusInternalServerError)
		return
	}

	token, err := handler.authService.CreateToken(addedUser.ID, addedUser.Username)
	if err != nil {
		log.Errorf("register, create token for [%s]: %s", addedUser.Username, err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "registration failed", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterRegisteredUsers.Inc()
	log.Debugf("new user registered: %s [id %d]", addedUser.Username, addedUser.ID)

	handler.writeAuthResponse(w, AuthResponse{
		Message:     "User registered successfully",
		AccessToken: token,
		User:        *addedUser,
	}, http.StatusCreated)
}

func (handler *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "usersHandler.login")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		pkg.WriteJSONError(w, pkg.ErrTypeValidation, "invalid content type", http.StatusBadRequest)
		return
	}

	var loginReq LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		log.Tracef("login, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, pkg.ErrTypeValidation, "invalid request body", http.StatusBadRequest)
		return
	}

	if loginReq.Username == "" || loginReq.Password == "" {
		pkg.WriteJSONError(w, pkg.ErrTypeValidation, "username and password required", http.StatusBadRequest)
		return
	}

	// the identifier can be either the username or the email
	user, err := handler.repo.GetByUsernameOrEmail(ctx, loginReq.Username)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			log.Errorf("login, get user [%s]: %s", loginReq.Username, err)
			pkg.WriteJSONError(w, pkg.ErrTypeInternal, "login failed", http.StatusInternalServerError)
			return
		}
		log.Tracef("[unknown user] failed login attempt: %s", loginReq.Username)
		handler.metricsManager.CounterFailedLogins.Inc()
		pkg.WriteJSONError(w, pkg.ErrTypeUnauthorized, "Incorrect username or password", http.StatusUnauthorized)
		return
	}

	if !pkg.CheckPasswordHash(loginReq.Password, user.PasswordHash) {
		log.Tracef("[wrong password] failed login attempt: %s", loginReq.Username)
		handler.metricsManager.CounterFailedLogins.Inc()
		pkg.WriteJSONError(w, pkg.ErrTypeUnauthorized, "Incorrect username or password", http.StatusUnauthorized)
		return
	}

	token, err := handler.authService.CreateToken(user.ID, user.Username)
	if err != nil {
		log.Errorf("login, create token for [%s]: %s", user.Username, err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "login failed", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterLogins.Inc()

	handler.writeAuthResponse(w, AuthResponse{
		Message:     "Login successful",
		AccessToken: token,
		User:        *user,
	}, http.StatusOK)
}

func (handler *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "usersHandler.me")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, pkg.ErrTypeUnauthorized, "auth token required", http.StatusUnauthorized)
		return
	}

	user, err := handler.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// account deleted while the token was still valid
			pkg.WriteJSONError(w, pkg.ErrTypeUnauthorized, "account not found", http.StatusUnauthorized)
			return
		}
		log.Errorf("get current user [%d]: %s", userID, err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "failed to get user info", http.StatusInternalServerError)
		return
	}

	respBytes, err := json.Marshal(MeResponse{User: *user})
	if err != nil {
		log.Errorf("marshal current user [%d]: %s", userID, err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "failed to get user info", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}

func (handler *Handler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "usersHandler.deleteAccount")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, pkg.ErrTypeUnauthorized, "auth token required", http.StatusUnauthorized)
		return
	}

	span.SetAttributes(attribute.Int("user.id", userID))

	// workout sets are removed by the FK cascade
	if err := handler.repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			pkg.WriteJSONError(w, pkg.ErrTypeUnauthorized, "account not found", http.StatusUnauthorized)
			return
		}
		log.Errorf("delete account [%d]: %s", userID, err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "failed to delete account", http.StatusInternalServerError)
		return
	}

	log.Debugf("account deleted: %d", userID)
	pkg.WriteJSONResponseOK(w, `{"message":"Account deleted successfully"}`)
}

func (handler *Handler) writeAuthResponse(w http.ResponseWriter, resp AuthResponse, statusCode int) {
	respBytes, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal auth response for [%s]: %s", resp.User.Username, err)
		pkg.WriteJSONError(w, pkg.ErrTypeInternal, "unexpected error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respBytes, statusCode)
}
