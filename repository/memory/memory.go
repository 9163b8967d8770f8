// Package memory implements the domain repositories on an in-process map
// store. It honors the same contracts as the postgres layer, including
// atomic task-counter maintenance and pgx.ErrNoRows for missing rows, and
// backs the handler and client tests.
package memory

import (
	"sync"
	"time"

	"github.com/remotecollab/api/domain"
)

type Store struct {
	mu         sync.Mutex
	nextID     int
	users      map[int]*domain.User
	projects   map[int]*domain.Project
	members    map[int]map[int]bool
	tasks      map[int]*domain.Task
	documents  map[int]*domain.Document
	activities []domain.Activity
}

func NewStore() *Store {
	return &Store{
		users:     map[int]*domain.User{},
		projects:  map[int]*domain.Project{},
		members:   map[int]map[int]bool{},
		tasks:     map[int]*domain.Task{},
		documents: map[int]*domain.Document{},
	}
}

func (s *Store) id() int {
	s.nextID++
	return s.nextID
}

func (s *Store) now() time.Time {
	return time.Now().UTC()
}

// recountTasks recomputes the task counters the way the postgres layer does
// inside its transaction. Caller holds the lock.
func (s *Store) recountTasks(projectID, assigneeID int) {
	if p, ok := s.projects[projectID]; ok {
		n := 0
		for _, t := range s.tasks {
			if t.ProjectID == projectID {
				n++
			}
		}
		p.TasksCount = n
	}
	if u, ok := s.users[assigneeID]; ok {
		n := 0
		for _, t := range s.tasks {
			if t.AssigneeID == assigneeID {
				n++
			}
		}
		u.TasksCount = n
	}
}

func (s *Store) Users() *UserRepository         { return &UserRepository{s} }
func (s *Store) Projects() *ProjectRepository   { return &ProjectRepository{s} }
func (s *Store) Tasks() *TaskRepository         { return &TaskRepository{s} }
func (s *Store) Documents() *DocumentRepository { return &DocumentRepository{s} }
func (s *Store) Activities() *ActivityRepository {
	return &ActivityRepository{s}
}
