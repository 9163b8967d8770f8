package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v4"

	"github.com/remotecollab/api/domain"
	"github.com/remotecollab/api/util"
	"github.com/remotecollab/api/util/middleware"
)

type DocumentHandler struct {
	docRepo      domain.DocumentRepository
	prRepo       domain.ProjectRepository
	activityRepo domain.ActivityRepository
	router       *mux.Router
}

type documentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	ProjectID   int    `json:"projectId"`
}

func (dr *DocumentHandler) GetAllDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	docs, err := dr.docRepo.GetAll(ctx)
	if err != nil {
		log.Println(err)
		util.WriteInternalServerError(w)
		return
	}
	util.WriteJson(w, docs)
}

func (dr *DocumentHandler) CountDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	count, err := dr.docRepo.Count(ctx)
	if err != nil {
		log.Println(err)
		util.WriteInternalServerError(w)
		return
	}
	util.WriteJson(w, map[string]int{"count": count})
}

func (dr *DocumentHandler) GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		util.WriteStatus(w, http.StatusBadRequest)
		return
	}
	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	doc, err := dr.docRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			util.WriteStatus(w, http.StatusNotFound)
		} else {
			log.Println(err)
			util.WriteInternalServerError(w)
		}
		return
	}
	util.WriteJson(w, doc)
}

func (dr *DocumentHandler) CreateDocumentHandler(w http.ResponseWriter, r *http.Request) {
	authUser := r.Context().Value("user").(middleware.AuthUserValue)

	var req documentRequest
	if err := util.ReadJson(w, r, &req); err != nil {
		util.WriteError(w, http.StatusBadRequest, "bad json")
		return
	}
	doc := &domain.Document{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Type:        strings.TrimSpace(req.Type),
		URL:         strings.TrimSpace(req.URL),
		ProjectID:   req.ProjectID,
	}
	if verr := doc.Validate(); verr != nil {
		util.WriteValidationError(w, verr)
		return
	}

	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	if _, err := dr.prRepo.GetByID(ctx, doc.ProjectID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			util.WriteError(w, http.StatusNotFound, fmt.Sprintf("project %d does not exist", doc.ProjectID))
		} else {
			log.Println(err)
			util.WriteInternalServerError(w)
		}
		return
	}

	ctx, cancel = util.GetContextWithTimeout(r.Context())
	defer cancel()
	if err := dr.docRepo.Insert(ctx, doc); err != nil {
		log.Println(err)
		util.WriteStatus(w, http.StatusBadRequest)
		return
	}
	recordActivity(dr.activityRepo, domain.ActivityDocumentCreated,
		fmt.Sprintf("%s added document %q", authUser.Name, doc.Title))
	util.WriteCreated(w, doc)
}

func (dr *DocumentHandler) UpdateDocumentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		util.WriteStatus(w, http.StatusBadRequest)
		return
	}
	var req documentRequest
	if err := util.ReadJson(w, r, &req); err != nil {
		util.WriteError(w, http.StatusBadRequest, "bad json")
		return
	}

	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	existing, err := dr.docRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			util.WriteStatus(w, http.StatusNotFound)
		} else {
			log.Println(err)
			util.WriteInternalServerError(w)
		}
		return
	}

	doc := &domain.Document{
		ID:          existing.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Type:        strings.TrimSpace(req.Type),
		URL:         strings.TrimSpace(req.URL),
		ProjectID:   existing.ProjectID,
	}
	if verr := doc.Validate(); verr != nil {
		util.WriteValidationError(w, verr)
		return
	}

	ctx, cancel = util.GetContextWithTimeout(r.Context())
	defer cancel()
	if err := dr.docRepo.Update(ctx, doc); err != nil {
		log.Println(err)
		util.WriteStatus(w, http.StatusBadRequest)
		return
	}
	util.WriteOK(w)
}

func (dr *DocumentHandler) DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	authUser := r.Context().Value("user").(middleware.AuthUserValue)

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		util.WriteStatus(w, http.StatusBadRequest)
		return
	}
	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	doc, err := dr.docRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			util.WriteStatus(w, http.StatusNotFound)
		} else {
			log.Println(err)
			util.WriteInternalServerError(w)
		}
		return
	}

	ctx, cancel = util.GetContextWithTimeout(r.Context())
	defer cancel()
	if err := dr.docRepo.Delete(ctx, id); err != nil {
		log.Println(err)
		util.WriteInternalServerError(w)
		return
	}
	recordActivity(dr.activityRepo, domain.ActivityDocumentDeleted,
		fmt.Sprintf("%s removed document %q", authUser.Name, doc.Title))
	util.WriteOK(w)
}

func NewDocumentHandler(
	r *mux.Router,
	authMiddleware mux.MiddlewareFunc,
	docRepo domain.DocumentRepository,
	prRepo domain.ProjectRepository,
	activityRepo domain.ActivityRepository,
	prefix string,
) *DocumentHandler {
	d := &DocumentHandler{
		docRepo:      docRepo,
		prRepo:       prRepo,
		activityRepo: activityRepo,
	}

	d.router = r.PathPrefix(prefix).Subrouter()
	d.router.Use(authMiddleware)
	d.router.HandleFunc("", d.GetAllDocumentsHandler).Methods("GET")
	d.router.HandleFunc("/count", d.CountDocumentsHandler).Methods("GET")
	d.router.HandleFunc("", d.CreateDocumentHandler).Methods("POST")
	d.router.HandleFunc("/{id:[0-9]+}", d.GetDocumentHandler).Methods("GET")
	d.router.HandleFunc("/{id:[0-9]+}", d.UpdateDocumentHandler).Methods("PUT")
	d.router.HandleFunc("/{id:[0-9]+}", d.DeleteDocumentHandler).Methods("DELETE")
	return d
}
