// Package repotest provides in-memory stores with the same method sets as the
// MongoDB repositories, for tests that need real query semantics without a
// database.
package repotest

import (
	"context"
	"sort"
	"sync"

	"taskmanager/backend/models"
	"taskmanager/backend/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskStore keeps tasks in memory. Returned tasks are copies, so callers only
// change stored state through SaveTask. When Err is set, every read fails
// with it; FailOn fails a single read method, keyed by its name.
type TaskStore struct {
	Err    error
	FailOn map[string]error

	mu    sync.Mutex
	tasks map[primitive.ObjectID]models.Task
	saves int
}

func NewTaskStore(tasks ...models.Task) *TaskStore {
	s := &TaskStore{tasks: map[primitive.ObjectID]models.Task{}}
	for _, t := range tasks {
		if t.ID.IsZero() {
			t.ID = primitive.NewObjectID()
		}
		s.tasks[t.ID] = cloneTask(t)
	}
	return s
}

func cloneTask(t models.Task) models.Task {
	if t.AssignedTo != nil {
		t.AssignedTo = append([]primitive.ObjectID{}, t.AssignedTo...)
	}
	if t.Attachments != nil {
		t.Attachments = append([]string{}, t.Attachments...)
	}
	if t.TodoChecklist != nil {
		t.TodoChecklist = append([]models.ChecklistItem{}, t.TodoChecklist...)
	}
	return t
}

func (s *TaskStore) readErr(method string) error {
	if err := s.FailOn[method]; err != nil {
		return err
	}
	return s.Err
}

// Get returns a copy of the stored task.
func (s *TaskStore) Get(id primitive.ObjectID) models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTask(s.tasks[id])
}

// Len is the number of stored tasks.
func (s *TaskStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Saves counts successful SaveTask calls.
func (s *TaskStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *TaskStore) matching(q repositories.TaskQuery) []models.Task {
	var out []models.Task
	for _, t := range s.tasks {
		t := t
		if q.Matches(&t) {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *TaskStore) FindTasks(ctx context.Context, q repositories.TaskQuery) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readErr("FindTasks"); err != nil {
		return nil, err
	}
	out := s.matching(q)
	if out == nil {
		out = []models.Task{}
	}
	return out, nil
}

func (s *TaskStore) FindTask(ctx context.Context, id primitive.ObjectID, q repositories.TaskQuery) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readErr("FindTask"); err != nil {
		return nil, err
	}
	t, ok := s.tasks[id]
	if !ok || !q.Matches(&t) {
		return nil, repositories.ErrNotFound
	}
	c := cloneTask(t)
	return &c, nil
}

func (s *TaskStore) CountTasks(ctx context.Context, q repositories.TaskQuery) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readErr("CountTasks"); err != nil {
		return 0, err
	}
	return int64(len(s.matching(q))), nil
}

func (s *TaskStore) CountTasksBy(ctx context.Context, field repositories.GroupField, q repositories.TaskQuery) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readErr("CountTasksBy"); err != nil {
		return nil, err
	}
	counts := map[string]int64{}
	for _, t := range s.matching(q) {
		t := t
		counts[field.ValueOf(&t)]++
	}
	return counts, nil
}

func (s *TaskStore) RecentTasks(ctx context.Context, q repositories.TaskQuery, limit int64) ([]models.RecentTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readErr("RecentTasks"); err != nil {
		return nil, err
	}
	recent := []models.RecentTask{}
	for _, t := range s.matching(q) {
		if int64(len(recent)) == limit {
			break
		}
		recent = append(recent, models.RecentTask{
			ID: t.ID, Title: t.Title, Status: t.Status, Priority: t.Priority, DueDate: t.DueDate, CreatedAt: t.CreatedAt,
		})
	}
	return recent, nil
}

func (s *TaskStore) InsertTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	s.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (s *TaskStore) SaveTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.saves++
	s.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (s *TaskStore) DeleteTask(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

// UserStore keeps users in memory and enforces unique emails.
type UserStore struct {
	mu    sync.Mutex
	users []models.User
}

func NewUserStore(users ...models.User) *UserStore {
	s := &UserStore{}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		s.users = append(s.users, u)
	}
	return s
}

func (s *UserStore) index(id primitive.ObjectID) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *UserStore) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return nil, repositories.ErrNotFound
	}
	u := s.users[i]
	return &u, nil
}

func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *UserStore) FindUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if i := s.index(id); i >= 0 {
			out = append(out, s.users[i])
		}
	}
	return out, nil
}

func (s *UserStore) FindUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for _, u := range s.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *UserStore) InsertUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.users = append(s.users, *user)
	return nil
}

func (s *UserStore) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email && u.ID != user.ID {
			return repositories.ErrDuplicate
		}
	}
	i := s.index(user.ID)
	if i < 0 {
		return repositories.ErrNotFound
	}
	s.users[i] = *user
	return nil
}

func (s *UserStore) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return repositories.ErrNotFound
	}
	s.users = append(s.users[:i], s.users[i+1:]...)
	return nil
}
