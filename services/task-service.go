package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"taskmanager/backend/apperrors"
	"taskmanager/backend/logging"
	"taskmanager/backend/metrics"
	"taskmanager/backend/models"
	"taskmanager/backend/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskStore is the persistence the task lifecycle needs. *repositories.TaskRepo
// satisfies it.
type TaskStore interface {
	FindTasks(ctx context.Context, q repositories.TaskQuery) ([]models.Task, error)
	FindTask(ctx context.Context, id primitive.ObjectID, q repositories.TaskQuery) (*models.Task, error)
	CountTasks(ctx context.Context, q repositories.TaskQuery) (int64, error)
	InsertTask(ctx context.Context, task *models.Task) error
	SaveTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id primitive.ObjectID) error
}

// UserLookup resolves assignee references.
type UserLookup interface {
	FindUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

type TaskService struct {
	tasks   TaskStore
	users   UserLookup
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewTaskService(tasks TaskStore, users UserLookup, m *metrics.Metrics) *TaskService {
	return &TaskService{
		tasks:   tasks,
		users:   users,
		metrics: m,
		now:     time.Now,
	}
}

// visibleTo is the base query for what caller may see: everything for an
// admin, only assigned tasks for anyone else.
func visibleTo(caller models.Caller) repositories.TaskQuery {
	if caller.IsAdmin() {
		return repositories.TaskQuery{}
	}
	return repositories.TaskQuery{}.Scoped(caller.ID)
}

func parseTaskID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperrors.NewNotFound("Task not found")
	}
	return oid, nil
}

// ListTasks returns the tasks visible to caller, optionally filtered by
// status, with a summary of how the caller's whole scope splits by status.
func (s *TaskService) ListTasks(ctx context.Context, caller models.Caller, status models.TaskStatus) (*models.TaskList, error) {
	scope := visibleTo(caller)
	listQuery := scope.WithStatus(status)

	tasks, err := s.tasks.FindTasks(ctx, listQuery)
	if err != nil {
		return nil, err
	}
	views, err := s.populate(ctx, tasks)
	if err != nil {
		return nil, err
	}

	items := make([]models.TaskListItem, len(tasks))
	for i := range tasks {
		items[i] = models.TaskListItem{
			TaskView:           views[i],
			CompletedTodoCount: tasks[i].CompletedTodoCount(),
		}
	}

	summary, err := s.statusSummary(ctx, scope, listQuery)
	if err != nil {
		return nil, err
	}
	return &models.TaskList{Tasks: items, StatusSummary: *summary}, nil
}

// statusSummary counts "all" over the bare scope, and each status over the
// list query with its status replaced.
func (s *TaskService) statusSummary(ctx context.Context, scope, listQuery repositories.TaskQuery) (*models.StatusSummary, error) {
	all, err := s.tasks.CountTasks(ctx, scope)
	if err != nil {
		return nil, err
	}
	counts := make(map[models.TaskStatus]int64, len(models.TaskStatuses))
	for _, st := range models.TaskStatuses {
		n, err := s.tasks.CountTasks(ctx, listQuery.WithStatus(st))
		if err != nil {
			return nil, err
		}
		counts[st] = n
	}
	return &models.StatusSummary{
		All:             all,
		PendingTasks:    counts[models.StatusPending],
		InProgressTasks: counts[models.StatusInProgress],
		CompletedTasks:  counts[models.StatusCompleted],
	}, nil
}

// load fetches one task within caller's visibility. Anything outside it is
// reported exactly like a missing task.
func (s *TaskService) load(ctx context.Context, caller models.Caller, id string) (*models.Task, error) {
	oid, err := parseTaskID(id)
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.FindTask(ctx, oid, visibleTo(caller))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NewNotFound("Task not found")
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) GetTask(ctx context.Context, caller models.Caller, id string) (*models.TaskView, error) {
	task, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, task)
}

// CreateTask stores a new Pending task owned by caller. Progress starts at 0
// regardless of the initial checklist.
func (s *TaskService) CreateTask(ctx context.Context, caller models.Caller, input models.CreateTaskInput) (*models.TaskView, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.NewAuthorization("Access denied, admin only")
	}
	assignees, present, err := parseAssignees(input.AssignedTo)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, apperrors.NewValidation("assignedTo must be an array of user IDs")
	}
	if input.DueDate == nil {
		return nil, apperrors.NewValidation("Due date is required")
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidation("Priority must be one of [Low, Medium, High]")
	}

	now := s.now()
	task := &models.Task{
		Title:         input.Title,
		Description:   input.Description,
		Priority:      priority,
		Status:        models.StatusPending,
		DueDate:       *input.DueDate,
		AssignedTo:    assignees,
		CreatedBy:     caller.ID,
		Attachments:   nonNilStrings(input.Attachments),
		TodoChecklist: nonNilChecklist(input.TodoChecklist),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.tasks.InsertTask(ctx, task); err != nil {
		return nil, err
	}

	s.metrics.TaskMutation("create")
	s.metrics.StatusTransition(string(task.Status))
	logging.Logger.WithField("taskId", task.ID.Hex()).
		Infof("Event ID: TASK_CREATED, Description: Task '%s' created by %s", task.Title, caller.ID.Hex())
	return s.view(ctx, task)
}

// UpdateTask applies the fields present in input. A replaced checklist
// re-derives progress and status. A malformed assignedTo rejects the whole
// update before anything is written.
func (s *TaskService) UpdateTask(ctx context.Context, caller models.Caller, id string, input models.UpdateTaskInput) (*models.TaskView, error) {
	task, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	assignees, replaceAssignees, err := parseAssignees(input.AssignedTo)
	if err != nil {
		return nil, err
	}
	dueDate, replaceDueDate, err := parseDueDate(input.DueDate)
	if err != nil {
		return nil, err
	}
	if input.Priority != "" && !input.Priority.Valid() {
		return nil, apperrors.NewValidation("Priority must be one of [Low, Medium, High]")
	}

	if input.Title != "" {
		task.Title = input.Title
	}
	if input.Description != "" {
		task.Description = input.Description
	}
	if input.Priority != "" {
		task.Priority = input.Priority
	}
	if replaceDueDate {
		task.DueDate = dueDate
	}
	if input.Attachments != nil {
		task.Attachments = input.Attachments
	}
	if input.TodoChecklist != nil {
		replaceChecklist(task, input.TodoChecklist)
	}
	if replaceAssignees {
		task.AssignedTo = assignees
	}
	task.UpdatedAt = s.now()

	if err := s.save(ctx, task, "update"); err != nil {
		return nil, err
	}
	return s.view(ctx, task)
}

// UpdateTaskStatus writes a status directly. Completed forces the checklist
// done; other statuses leave checklist and progress alone.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, caller models.Caller, id string, status models.TaskStatus) (*models.TaskView, error) {
	task, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, apperrors.NewValidation("Status must be one of [Pending, In Progress, Completed]")
	}

	setStatus(task, status)
	task.UpdatedAt = s.now()

	if err := s.save(ctx, task, "status"); err != nil {
		return nil, err
	}
	return s.view(ctx, task)
}

// UpdateTaskChecklist replaces the checklist and re-derives progress and
// status from it.
func (s *TaskService) UpdateTaskChecklist(ctx context.Context, caller models.Caller, id string, items []models.ChecklistItem) (*models.TaskView, error) {
	task, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	replaceChecklist(task, items)
	task.UpdatedAt = s.now()

	if err := s.save(ctx, task, "checklist"); err != nil {
		return nil, err
	}
	return s.view(ctx, task)
}

func (s *TaskService) DeleteTask(ctx context.Context, caller models.Caller, id string) error {
	if !caller.IsAdmin() {
		return apperrors.NewAuthorization("Access denied, admin only")
	}
	oid, err := parseTaskID(id)
	if err != nil {
		return err
	}
	if err := s.tasks.DeleteTask(ctx, oid); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NewNotFound("Task not found")
		}
		return err
	}

	s.metrics.TaskMutation("delete")
	logging.Logger.WithField("taskId", id).
		Infof("Event ID: TASK_DELETED, Description: Task deleted by %s", caller.ID.Hex())
	return nil
}

func (s *TaskService) save(ctx context.Context, task *models.Task, operation string) error {
	if err := s.tasks.SaveTask(ctx, task); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NewNotFound("Task not found")
		}
		return err
	}
	s.metrics.TaskMutation(operation)
	s.metrics.StatusTransition(string(task.Status))
	logging.Logger.WithField("taskId", task.ID.Hex()).
		Infof("Event ID: TASK_UPDATED, Description: Task %s (%s) is now %s at %d%%", operation, task.Title, task.Status, task.Progress)
	return nil
}

func (s *TaskService) view(ctx context.Context, task *models.Task) (*models.TaskView, error) {
	views, err := s.populate(ctx, []models.Task{*task})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// populate resolves assignees for a batch of tasks with a single lookup.
// References to users that no longer exist are dropped.
func (s *TaskService) populate(ctx context.Context, tasks []models.Task) ([]models.TaskView, error) {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, task := range tasks {
		for _, id := range task.AssignedTo {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	byID := make(map[primitive.ObjectID]models.UserSummary, len(ids))
	if len(ids) > 0 {
		users, err := s.users.FindUsersByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range users {
			byID[users[i].ID] = models.NewUserSummary(&users[i])
		}
	}

	views := make([]models.TaskView, len(tasks))
	for i, task := range tasks {
		assigned := make([]models.UserSummary, 0, len(task.AssignedTo))
		for _, id := range task.AssignedTo {
			if summary, ok := byID[id]; ok {
				assigned = append(assigned, summary)
			}
		}
		views[i] = models.TaskView{
			ID:            task.ID,
			Title:         task.Title,
			Description:   task.Description,
			Priority:      task.Priority,
			Status:        task.Status,
			DueDate:       task.DueDate,
			AssignedTo:    assigned,
			CreatedBy:     task.CreatedBy,
			Attachments:   nonNilStrings(task.Attachments),
			TodoChecklist: nonNilChecklist(task.TodoChecklist),
			Progress:      task.Progress,
			CreatedAt:     task.CreatedAt,
			UpdatedAt:     task.UpdatedAt,
		}
	}
	return views, nil
}

// parseAssignees decodes a raw assignedTo value. present is false for an
// absent or falsy value (null, "", 0, false); any other non-array is
// rejected, as is an element that is not an ObjectId.
func parseAssignees(raw json.RawMessage) (ids []primitive.ObjectID, present bool, err error) {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", `""`, "0", "false":
		return nil, false, nil
	}
	if raw[0] != '[' {
		return nil, false, apperrors.NewValidation("assignedTo must be an array of user IDs")
	}

	var hexIDs []string
	if err := json.Unmarshal(raw, &hexIDs); err != nil {
		return nil, false, apperrors.NewValidation("assignedTo must be an array of user IDs")
	}
	ids = make([]primitive.ObjectID, 0, len(hexIDs))
	for _, h := range hexIDs {
		oid, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, false, apperrors.NewValidation("Invalid user ID %q in assignedTo", h)
		}
		ids = append(ids, oid)
	}
	return ids, true, nil
}

// parseDueDate decodes a raw dueDate value. present is false for an absent
// or falsy value (null, "", 0, false); anything else must be an RFC 3339
// string.
func parseDueDate(raw json.RawMessage) (due time.Time, present bool, err error) {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", `""`, "0", "false":
		return time.Time{}, false, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return time.Time{}, false, apperrors.NewValidation("dueDate must be a date string")
	}
	due, err = time.Parse(time.RFC3339, text)
	if err != nil {
		return time.Time{}, false, apperrors.NewValidation("Invalid dueDate %q, expected RFC 3339", text)
	}
	return due, true, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilChecklist(items []models.ChecklistItem) []models.ChecklistItem {
	if items == nil {
		return []models.ChecklistItem{}
	}
	return items
}
