package handler

import (
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

type TaskHandler struct {
	taskRepo     domain.TaskRepository
	prRepo       domain.ProjectRepository
	userRepo     domain.UserRepository
	activityRepo domain.ActivityRepository
	router       *mux.Router
}

type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ProjectID   int    `json:"projectId"`
	AssigneeID  int    `json:"assigneeId"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	DueDate     string `json:"dueDate"`
}

func (tr *TaskHandler) toTask(req *taskRequest) (*domain.Task, *domain.ValidationError) {
	due, ok := parseDate(req.DueDate)
	if !ok {
		return nil, domain.NewValidationError(map[string]string{"dueDate": "due date is malformed"})
	}
	status := req.Status
	if status == "" {
		status = domain.TaskStatusTodo
	}
	priority := req.Priority
	if priority == "" {
		priority = domain.TaskPriorityMedium
	}
	task := &domain.Task{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		ProjectID:   req.ProjectID,
		AssigneeID:  req.AssigneeID,
		Status:      status,
		Priority:    priority,
		DueDate:     due,
	}
	if verr := task.Validate(); verr != nil {
		return nil, verr
	}
	return task, nil
}

// checkReferences resolves the task's project and assignee, writing the error
// response itself when either is missing. Nothing is inserted and no counter
// moves when a reference dangles.
func (tr *TaskHandler) checkReferences(w http.ResponseWriter, r *http.Request, task *domain.Task) bool {
	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	if _, err := tr.prRepo.GetByID(ctx, task.ProjectID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			util.WriteError(w, http.StatusNotFound, fmt.Sprintf("project %d does not exist", task.ProjectID))
		} else {
			log.Println(err)
			util.WriteInternalServerError(w)
		}
		return false
	}
	ctx, cancel = util.GetContextWithTimeout(r.Context())
	defer cancel()
	if _, err := tr.userRepo.GetByID(ctx, task.AssigneeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			util.WriteError(w, http.StatusNotFound, fmt.Sprintf("user %d does not exist", task.AssigneeID))
		} else {
			log.Println(err)
			util.WriteInternalServerError(w)
		}
		return false
	}
	return true
}

func (tr *TaskHandler) GetAllTasksHandler(w http.ResponseWriter, r *http.Request) {
	sort := util.GetUrlQueryParam(r, "sort")
	if sort != "" && sort != domain.TaskSortLatest && sort != domain.TaskSortDeadline {
		util.WriteError(w, http.StatusBadRequest, "sort must be latest or deadline")
		return
	}
	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	tasks, err := tr.taskRepo.GetAll(ctx, sort)
	if err != nil {
		log.Println(err)
		util.WriteInternalServerError(w)
		return
	}
	util.WriteJson(w, tasks)
}

func (tr *TaskHandler) CountTasksHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	count, err := tr.taskRepo.Count(ctx)
	if err != nil {
		log.Println(err)
		util.WriteInternalServerError(w)
		return
	}
	util.WriteJson(w, map[string]int{"count": count})
}

func (tr *TaskHandler) GetTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		util.WriteStatus(w, http.StatusBadRequest)
		return
	}
	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	task, err := tr.taskRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			util.WriteStatus(w, http.StatusNotFound)
		} else {
			log.Println(err)
			util.WriteInternalServerError(w)
		}
		return
	}
	util.WriteJson(w, task)
}

func (tr *TaskHandler) CreateTaskHandler(w http.ResponseWriter, r *http.Request) {
	authUser := r.Context().Value("user").(middleware.AuthUserValue)

	var req taskRequest
	if err := util.ReadJson(w, r, &req); err != nil {
		util.WriteError(w, http.StatusBadRequest, "bad json")
		return
	}
	task, verr := tr.toTask(&req)
	if verr != nil {
		util.WriteValidationError(w, verr)
		return
	}
	if !tr.checkReferences(w, r, task) {
		return
	}

	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	if err := tr.taskRepo.Insert(ctx, task); err != nil {
		log.Println(err)
		util.WriteStatus(w, http.StatusBadRequest)
		return
	}
	recordActivity(tr.activityRepo, domain.ActivityTaskCreated,
		fmt.Sprintf("%s created task %q", authUser.Name, task.Title))
	util.WriteCreated(w, task)
}

func (tr *TaskHandler) UpdateTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		util.WriteStatus(w, http.StatusBadRequest)
		return
	}
	var req taskRequest
	if err := util.ReadJson(w, r, &req); err != nil {
		util.WriteError(w, http.StatusBadRequest, "bad json")
		return
	}

	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	existing, err := tr.taskRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			util.WriteStatus(w, http.StatusNotFound)
		} else {
			log.Println(err)
			util.WriteInternalServerError(w)
		}
		return
	}

	// The task stays in its project; only the assignee can move.
	req.ProjectID = existing.ProjectID
	task, verr := tr.toTask(&req)
	if verr != nil {
		util.WriteValidationError(w, verr)
		return
	}
	if !tr.checkReferences(w, r, task) {
		return
	}

	task.ID = existing.ID
	ctx, cancel = util.GetContextWithTimeout(r.Context())
	defer cancel()
	if err := tr.taskRepo.Update(ctx, task); err != nil {
		log.Println(err)
		util.WriteStatus(w, http.StatusBadRequest)
		return
	}
	util.WriteOK(w)
}

func (tr *TaskHandler) DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	authUser := r.Context().Value("user").(middleware.AuthUserValue)

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		util.WriteStatus(w, http.StatusBadRequest)
		return
	}
	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	task, err := tr.taskRepo.GetByID(ctx, id)
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
	if err := tr.taskRepo.Delete(ctx, id); err != nil {
		log.Println(err)
		util.WriteInternalServerError(w)
		return
	}
	recordActivity(tr.activityRepo, domain.ActivityTaskDeleted,
		fmt.Sprintf("%s deleted task %q", authUser.Name, task.Title))
	util.WriteOK(w)
}

// UpcomingTasksHandler lists unfinished tasks due within the next 7 days,
// soonest first. Overdue tasks stay on the list until they are completed.
func (tr *TaskHandler) UpcomingTasksHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := util.GetContextWithTimeout(r.Context())
	defer cancel()
	tasks, err := tr.taskRepo.GetAll(ctx, domain.TaskSortDeadline)
	if err != nil {
		log.Println(err)
		util.WriteInternalServerError(w)
		return
	}
	cutoff := time.Now().AddDate(0, 0, 7)
	upcoming := make([]domain.Task, 0)
	for _, t := range tasks {
		if t.Status != domain.TaskStatusCompleted && !t.DueDate.IsZero() && !t.DueDate.After(cutoff) {
			upcoming = append(upcoming, t)
		}
	}
	util.WriteJson(w, upcoming)
}

func NewTaskHandler(
	r *mux.Router,
	authMiddleware mux.MiddlewareFunc,
	taskRepo domain.TaskRepository,
	prRepo domain.ProjectRepository,
	userRepo domain.UserRepository,
	activityRepo domain.ActivityRepository,
	prefix string,
) *TaskHandler {
	t := &TaskHandler{
		taskRepo:     taskRepo,
		prRepo:       prRepo,
		userRepo:     userRepo,
		activityRepo: activityRepo,
	}

	t.router = r.PathPrefix(prefix).Subrouter()
	t.router.Use(authMiddleware)
	t.router.HandleFunc("", t.GetAllTasksHandler).Methods("GET")
	t.router.HandleFunc("/count", t.CountTasksHandler).Methods("GET")
	t.router.HandleFunc("/upcoming", t.UpcomingTasksHandler).Methods("GET")
	t.router.HandleFunc("", t.CreateTaskHandler).Methods("POST")
	t.router.HandleFunc("/{id:[0-9]+}", t.GetTaskHandler).Methods("GET")
	t.router.HandleFunc("/{id:[0-9]+}", t.UpdateTaskHandler).Methods("PUT")
	t.router.HandleFunc("/{id:[0-9]+}", t.DeleteTaskHandler).Methods("DELETE")
	return t
}
