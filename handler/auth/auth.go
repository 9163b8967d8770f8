package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/remotecollab/api/domain"
	"github.com/remotecollab/api/token"
	"github.com/remotecollab/api/util"
	"github.com/remotecollab/api/util/middleware"
)

const minPasswordLen = 6

// uniqueViolation is the postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

type AuthHandler struct {
	userRepo     domain.UserRepository
	activityRepo domain.ActivityRepository
	tokens       *token.Service
	authCache    domain.AuthCache
	router       *mux.Router
}

// Middleware gates protected routes on a valid, unrevoked bearer token.
func (a *AuthHandler) Middleware(h http.Handler) http.Handler {
	return middleware.AuthMiddleware(a.tokens, a.authCache, a.userRepo, h)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

func (a *AuthHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := util.ReadJson(w, r, &req); err != nil {
		util.WriteError(w, http.StatusBadRequest, "bad json")
		return
	}

	user := &domain.User{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(strings.ToLower(req.Email)),
		Role:  req.Role,
	}
	if verr := user.Validate(); verr != nil {
		util.WriteValidationError(w, verr)
		return
	}
	if len(req.Password) < minPasswordLen {
		util.WriteValidationError(w, domain.NewValidationError(map[string]string{
			"password": fmt.Sprintf("password must be at least %d characters", minPasswordLen),
		}))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Println(err)
		util.WriteInternalServerError(w)
		return
	}
	user.PasswordHash = string(hash)

	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	if err := a.userRepo.Insert(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			util.WriteError(w, http.StatusConflict, "email already registered")
		} else {
			log.Println(err)
			util.WriteInternalServerError(w)
		}
		return
	}

	a.recordActivity(domain.ActivityUserRegistered, fmt.Sprintf("%s joined as %s", user.Name, user.Role))

	raw, _, err := a.tokens.Issue(user.ID)
	if err != nil {
		log.Println(err)
		util.WriteInternalServerError(w)
		return
	}
	util.WriteCreated(w, &authResponse{User: user, Token: raw})
}

func (a *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := util.ReadJson(w, r, &req); err != nil || req.Email == "" || req.Password == "" {
		util.WriteError(w, http.StatusBadRequest, "bad json")
		return
	}

	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	user, err := a.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		// Unknown email and wrong password answer identically.
		if errors.Is(err, pgx.ErrNoRows) {
			util.WriteError(w, http.StatusBadRequest, "invalid credentials")
		} else {
			log.Println(err)
			util.WriteInternalServerError(w)
		}
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		util.WriteError(w, http.StatusBadRequest, "invalid credentials")
		return
	}

	raw, _, err := a.tokens.Issue(user.ID)
	if err != nil {
		log.Println(err)
		util.WriteInternalServerError(w)
		return
	}
	util.WriteJson(w, &authResponse{User: user, Token: raw})
}

// LogoutHandler denylists the presented token until its natural expiry, so a
// logged-out token cannot be replayed.
func (a *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	authUser := r.Context().Value("user").(middleware.AuthUserValue)

	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	if err := a.authCache.Revoke(ctx, authUser.JTI, time.Until(authUser.ExpiresAt)); err != nil {
		log.Println(err)
		util.WriteInternalServerError(w)
		return
	}
	util.WriteOK(w)
}

func (a *AuthHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	authUser := r.Context().Value("user").(middleware.AuthUserValue)

	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	user, err := a.userRepo.GetByID(ctx, authUser.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			util.WriteStatus(w, http.StatusNotFound)
		} else {
			log.Println(err)
			util.WriteInternalServerError(w)
		}
		return
	}
	util.WriteJson(w, user)
}

// RefreshHandler exchanges a still-valid token for a fresh one.
func (a *AuthHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	authUser := r.Context().Value("user").(middleware.AuthUserValue)

	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	user, err := a.userRepo.GetByID(ctx, authUser.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			util.WriteStatus(w, http.StatusNotFound)
		} else {
			log.Println(err)
			util.WriteInternalServerError(w)
		}
		return
	}
	raw, _, err := a.tokens.Issue(user.ID)
	if err != nil {
		log.Println(err)
		util.WriteInternalServerError(w)
		return
	}
	util.WriteJson(w, &authResponse{User: user, Token: raw})
}

func (a *AuthHandler) recordActivity(kind, description string) {
	ctx, cancel := util.GetContextWithTimeout(context.Background())
	defer cancel()
	if err := a.activityRepo.Insert(ctx, &domain.Activity{Type: kind, Description: description}); err != nil {
		log.Println("activity:", err)
	}
}

func NewAuthHandler(
	r *mux.Router,
	userRepo domain.UserRepository,
	activityRepo domain.ActivityRepository,
	tokens *token.Service,
	authCache domain.AuthCache,
	prefix string,
) *AuthHandler {
	a := &AuthHandler{
		userRepo:     userRepo,
		activityRepo: activityRepo,
		tokens:       tokens,
		authCache:    authCache,
	}

	a.router = r.PathPrefix(prefix).Subrouter()
	a.router.HandleFunc("/register", a.RegisterHandler).Methods("POST")
	a.router.HandleFunc("/login", a.LoginHandler).Methods("POST")

	protected := a.router.NewRoute().Subrouter()
	protected.Use(a.Middleware)
	protected.HandleFunc("/logout", a.LogoutHandler).Methods("POST")
	protected.HandleFunc("/me", a.MeHandler).Methods("GET")
	protected.HandleFunc("/refresh", a.RefreshHandler).Methods("POST")

	return a
}
