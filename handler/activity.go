package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/remotecollab/api/domain"
	"github.com/remotecollab/api/util"
)

const defaultActivityLimit = 20

// ActivityHandler exposes the append-only activity feed, most recent first.
type ActivityHandler struct {
	repo   domain.ActivityRepository
	router *mux.Router
}

func (a *ActivityHandler) GetRecentActivitiesHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultActivityLimit
	if raw := util.GetUrlQueryParam(r, "limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			util.WriteError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	activities, err := a.repo.GetRecent(ctx, limit)
	if err != nil {
		log.Println(err)
		util.WriteInternalServerError(w)
		return
	}
	util.WriteJson(w, activities)
}

func NewActivityHandler(r *mux.Router, authMiddleware mux.MiddlewareFunc, repo domain.ActivityRepository, prefix string) *ActivityHandler {
	a := &ActivityHandler{
		repo: repo,
	}

	a.router = r.PathPrefix(prefix).Subrouter()
	a.router.Use(authMiddleware)
	a.router.HandleFunc("", a.GetRecentActivitiesHandler).Methods("GET")
	return a
}
