package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v4"

	"github.com/remotecollab/api/domain"
	"github.com/remotecollab/api/util"
	"github.com/remotecollab/api/util/middleware"
)

type ProjectHandler struct {
	prRepo       domain.ProjectRepository
	userRepo     domain.UserRepository
	activityRepo domain.ActivityRepository
	router       *mux.Router
}

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Status      string `json:"status"`
	Team        []int  `json:"team"`
}

// parseDate accepts plain dates and RFC3339 timestamps.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func (pr *ProjectHandler) toProject(req *projectRequest, ownerID int) (*domain.Project, *domain.ValidationError) {
	fields := map[string]string{}
	start, ok := parseDate(req.StartDate)
	if !ok {
		fields["startDate"] = "start date is malformed"
	}
	end, ok := parseDate(req.EndDate)
	if !ok {
		fields["endDate"] = "end date is malformed"
	}
	if len(fields) > 0 {
		return nil, domain.NewValidationError(fields)
	}
	status := req.Status
	if status == "" {
		status = domain.ProjectStatusNotStarted
	}
	project := &domain.Project{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		OwnerID:     ownerID,
		StartDate:   start,
		EndDate:     end,
		Status:      status,
		Team:        req.Team,
	}
	if verr := project.Validate(); verr != nil {
		return nil, verr
	}
	return project, nil
}

func (pr *ProjectHandler) GetAllProjectsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	projects, err := pr.prRepo.GetAll(ctx)
	if err != nil {
		log.Println(err)
		util.WriteInternalServerError(w)
		return
	}
	util.WriteJson(w, projects)
}

func (pr *ProjectHandler) CountProjectsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	count, err := pr.prRepo.Count(ctx)
	if err != nil {
		log.Println(err)
		util.WriteInternalServerError(w)
		return
	}
	util.WriteJson(w, map[string]int{"count": count})
}

func (pr *ProjectHandler) GetProjectHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		util.WriteStatus(w, http.StatusBadRequest)
		return
	}
	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	project, err := pr.prRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			util.WriteStatus(w, http.StatusNotFound)
		} else {
			log.Println(err)
			util.WriteInternalServerError(w)
		}
		return
	}
	util.WriteJson(w, project)
}

func (pr *ProjectHandler) CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	authUser := r.Context().Value("user").(middleware.AuthUserValue)

	var req projectRequest
	if err := util.ReadJson(w, r, &req); err != nil {
		util.WriteError(w, http.StatusBadRequest, "bad json")
		return
	}
	project, verr := pr.toProject(&req, authUser.ID)
	if verr != nil {
		util.WriteValidationError(w, verr)
		return
	}

	// Team members must exist before they can be added.
	for _, uid := range project.Team {
		ctx, cancel := util.GetContextWithTimeout(r.Context())
		defer cancel()
		if _, err := pr.userRepo.GetByID(ctx, uid); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				util.WriteValidationError(w, domain.NewValidationError(map[string]string{
					"team": fmt.Sprintf("user %d does not exist", uid),
				}))
			} else {
				log.Println(err)
				util.WriteInternalServerError(w)
			}
			return
		}
	}

	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	if err := pr.prRepo.Insert(ctx, project); err != nil {
		log.Println(err)
		util.WriteStatus(w, http.StatusBadRequest)
		return
	}
	recordActivity(pr.activityRepo, domain.ActivityProjectCreated,
		fmt.Sprintf("%s created project %q", authUser.Name, project.Name))
	util.WriteCreated(w, project)
}

func (pr *ProjectHandler) UpdateProjectHandler(w http.ResponseWriter, r *http.Request) {
	authUser := r.Context().Value("user").(middleware.AuthUserValue)

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		util.WriteStatus(w, http.StatusBadRequest)
		return
	}
	var req projectRequest
	if err := util.ReadJson(w, r, &req); err != nil {
		util.WriteError(w, http.StatusBadRequest, "bad json")
		return
	}
	project, verr := pr.toProject(&req, authUser.ID)
	if verr != nil {
		util.WriteValidationError(w, verr)
		return
	}

	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	existing, err := pr.prRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			util.WriteStatus(w, http.StatusNotFound)
		} else {
			log.Println(err)
			util.WriteInternalServerError(w)
		}
		return
	}

	project.ID = existing.ID
	project.OwnerID = existing.OwnerID
	ctx, cancel = util.GetContextWithTimeout(r.Context())
	defer cancel()
	if err := pr.prRepo.Update(ctx, project); err != nil {
		log.Println(err)
		util.WriteStatus(w, http.StatusBadRequest)
		return
	}
	util.WriteOK(w)
}

func (pr *ProjectHandler) DeleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	authUser := r.Context().Value("user").(middleware.AuthUserValue)

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		util.WriteStatus(w, http.StatusBadRequest)
		return
	}
	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	project, err := pr.prRepo.GetByID(ctx, id)
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
	if err := pr.prRepo.Delete(ctx, id); err != nil {
		log.Println(err)
		util.WriteInternalServerError(w)
		return
	}
	recordActivity(pr.activityRepo, domain.ActivityProjectDeleted,
		fmt.Sprintf("%s deleted project %q", authUser.Name, project.Name))
	util.WriteOK(w)
}

type memberRequest struct {
	UserID int `json:"userId"`
}

func (pr *ProjectHandler) AddMemberHandler(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		util.WriteStatus(w, http.StatusBadRequest)
		return
	}
	var req memberRequest
	if err := util.ReadJson(w, r, &req); err != nil || req.UserID <= 0 {
		util.WriteError(w, http.StatusBadRequest, "bad json")
		return
	}

	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	if _, err := pr.prRepo.GetByID(ctx, projectID); err != nil {
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
	if _, err := pr.userRepo.GetByID(ctx, req.UserID); err != nil {
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
	if err := pr.prRepo.AddMember(ctx, projectID, req.UserID); err != nil {
		log.Println(err)
		util.WriteInternalServerError(w)
		return
	}
	util.WriteOK(w)
}

func (pr *ProjectHandler) RemoveMemberHandler(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		util.WriteStatus(w, http.StatusBadRequest)
		return
	}
	userID, err := strconv.Atoi(mux.Vars(r)["userId"])
	if err != nil {
		util.WriteStatus(w, http.StatusBadRequest)
		return
	}

	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	if err := pr.prRepo.RemoveMember(ctx, projectID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			util.WriteStatus(w, http.StatusNotFound)
		} else {
			log.Println(err)
			util.WriteInternalServerError(w)
		}
		return
	}
	util.WriteOK(w)
}

func recordActivity(repo domain.ActivityRepository, kind, description string) {
	ctx, cancel := util.GetContextWithTimeout(context.Background())
	defer cancel()
	if err := repo.Insert(ctx, &domain.Activity{Type: kind, Description: description}); err != nil {
		log.Println("activity:", err)
	}
}

func NewProjectHandler(
	r *mux.Router,
	authMiddleware mux.MiddlewareFunc,
	prRepo domain.ProjectRepository,
	userRepo domain.UserRepository,
	activityRepo domain.ActivityRepository,
	prefix string,
) *ProjectHandler {
	p := &ProjectHandler{
		prRepo:       prRepo,
		userRepo:     userRepo,
		activityRepo: activityRepo,
	}

	p.router = r.PathPrefix(prefix).Subrouter()
	p.router.Use(authMiddleware)
	p.router.HandleFunc("", p.GetAllProjectsHandler).Methods("GET")
	p.router.HandleFunc("/count", p.CountProjectsHandler).Methods("GET")
	p.router.HandleFunc("", p.CreateProjectHandler).Methods("POST")
	p.router.HandleFunc("/{id:[0-9]+}", p.GetProjectHandler).Methods("GET")
	p.router.HandleFunc("/{id:[0-9]+}", p.UpdateProjectHandler).Methods("PUT")
	p.router.HandleFunc("/{id:[0-9]+}", p.DeleteProjectHandler).Methods("DELETE")
	p.router.HandleFunc("/{id:[0-9]+}/members", p.AddMemberHandler).Methods("POST")
	p.router.HandleFunc("/{id:[0-9]+}/members/{userId:[0-9]+}", p.RemoveMemberHandler).Methods("DELETE")
	return p
}
