package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/remotecollab/api/domain"
	"github.com/remotecollab/api/token"
	"github.com/remotecollab/api/util"
)

type AuthUserValue struct {
	ID        int
	Name      string
	Email     string
	Role      string
	Token     string
	JTI       string
	ExpiresAt time.Time
}

// AuthMiddleware verifies the bearer token, rejects revoked tokens and
// resolves the embedded user id against the credential store.
func AuthMiddleware(tokens *token.Service, authCache domain.AuthCache, userRepo domain.UserRepository, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.Split(header, " ")

		if len(parts) < 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Println("bad Authorization header")
			util.WriteUnauthorized(w)
			return
		}
		raw := parts[1]

		claims, err := tokens.Verify(raw)
		if err != nil {
			util.WriteUnauthorized(w)
			return
		}

		ctx, cancel := util.GetContextWithTimeout(r.Context())
		defer cancel()
		revoked, err := authCache.IsRevoked(ctx, claims.JTI)
		if err != nil {
			log.Println(err)
			util.WriteInternalServerError(w)
			return
		}
		if revoked {
			util.WriteUnauthorized(w)
			return
		}

		ctx, cancel = util.GetContextWithTimeout(r.Context())
		defer cancel()
		user, err := userRepo.GetByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				util.WriteStatus(w, http.StatusNotFound)
			} else {
				log.Println(err)
				util.WriteInternalServerError(w)
			}
			return
		}

		rctx := context.WithValue(r.Context(), "user", AuthUserValue{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Role:      user.Role,
			Token:     raw,
			JTI:       claims.JTI,
			ExpiresAt: claims.ExpiresAt,
		})
		next.ServeHTTP(w, r.WithContext(rctx))
	})
}
