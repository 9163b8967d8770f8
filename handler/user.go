package handler

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/remotecollab/api/domain"
	"github.com/remotecollab/api/util"
)

// UserHandler serves the team roster. Accounts are created through
// registration, so the surface here is read-only.
type UserHandler struct {
	repo   domain.UserRepository
	router *mux.Router
}

func (u *UserHandler) GetAllUsersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	users, err := u.repo.GetAll(ctx)
	if err != nil {
		log.Println(err)
		util.WriteInternalServerError(w)
		return
	}
	util.WriteJson(w, users)
}

func (u *UserHandler) CountUsersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	count, err := u.repo.Count(ctx)
	if err != nil {
		log.Println(err)
		util.WriteInternalServerError(w)
		return
	}
	util.WriteJson(w, map[string]int{"count": count})
}

func NewUserHandler(r *mux.Router, authMiddleware mux.MiddlewareFunc, repo domain.UserRepository, prefix string) *UserHandler {
	u := &UserHandler{
		repo: repo,
	}

	u.router = r.PathPrefix(prefix).Subrouter()
	u.router.Use(authMiddleware)
	u.router.HandleFunc("", u.GetAllUsersHandler).Methods("GET")
	u.router.HandleFunc("/count", u.CountUsersHandler).Methods("GET")
	return u
}
