package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

// TaskStatuses lists every status in display order.
var TaskStatuses = []TaskStatus{StatusPending, StatusInProgress, StatusCompleted}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type ChecklistItem struct {
	Text      string `json:"text" bson:"text" validate:"required"`
	Completed bool   `json:"completed" bson:"completed"`
}

// Task is the stored document.
type Task struct {
	ID            primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Title         string               `json:"title" bson:"title"`
	Description   string               `json:"description" bson:"description"`
	Priority      Priority             `json:"priority" bson:"priority"`
	Status        TaskStatus           `json:"status" bson:"status"`
	DueDate       time.Time            `json:"dueDate" bson:"dueDate"`
	AssignedTo    []primitive.ObjectID `json:"assignedTo" bson:"assignedTo"`
	CreatedBy     primitive.ObjectID   `json:"createdBy" bson:"createdBy"`
	Attachments   []string             `json:"attachments" bson:"attachments"`
	TodoChecklist []ChecklistItem      `json:"todoChecklist" bson:"todoChecklist"`
	Progress      int                  `json:"progress" bson:"progress"`
	CreatedAt     time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// CompletedTodoCount counts checklist items marked completed.
func (t *Task) CompletedTodoCount() int {
	n := 0
	for _, item := range t.TodoChecklist {
		if item.Completed {
			n++
		}
	}
	return n
}

// TaskView is a task as returned to clients, with assignees resolved.
type TaskView struct {
	ID            primitive.ObjectID `json:"_id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	Priority      Priority           `json:"priority"`
	Status        TaskStatus         `json:"status"`
	DueDate       time.Time          `json:"dueDate"`
	AssignedTo    []UserSummary      `json:"assignedTo"`
	CreatedBy     primitive.ObjectID `json:"createdBy"`
	Attachments   []string           `json:"attachments"`
	TodoChecklist []ChecklistItem    `json:"todoChecklist"`
	Progress      int                `json:"progress"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// TaskListItem adds the completed checklist count shown in task lists.
type TaskListItem struct {
	TaskView
	CompletedTodoCount int `json:"completedTodoCount"`
}

type StatusSummary struct {
	All             int64 `json:"all"`
	PendingTasks    int64 `json:"pendingTasks"`
	InProgressTasks int64 `json:"inProgressTasks"`
	CompletedTasks  int64 `json:"completedTasks"`
}

type TaskList struct {
	Tasks         []TaskListItem `json:"tasks"`
	StatusSummary StatusSummary  `json:"statusSummary"`
}

// RecentTask is the trimmed projection used by dashboards.
type RecentTask struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	Title     string             `json:"title" bson:"title"`
	Status    TaskStatus         `json:"status" bson:"status"`
	Priority  Priority           `json:"priority" bson:"priority"`
	DueDate   time.Time          `json:"dueDate" bson:"dueDate"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// CreateTaskInput is the body of POST /api/tasks. AssignedTo stays raw so
// that a non-array value can be told apart from a missing one.
type CreateTaskInput struct {
	Title         string          `json:"title" validate:"required,min=4,max=100"`
	Description   string          `json:"description" validate:"max=1000"`
	Priority      Priority        `json:"priority" validate:"omitempty,oneof=Low Medium High"`
	DueDate       *time.Time      `json:"dueDate" validate:"required"`
	AssignedTo    json.RawMessage `json:"assignedTo"`
	Attachments   []string        `json:"attachments" validate:"omitempty,dive,url"`
	TodoChecklist []ChecklistItem `json:"todoChecklist" validate:"omitempty,dive"`
}

// UpdateTaskInput is a partial update. Empty strings and nil slices mean
// "leave unchanged". DueDate and AssignedTo stay raw so that falsy JSON
// values (null, "", 0, false) also leave the field unchanged.
type UpdateTaskInput struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Priority      Priority        `json:"priority"`
	DueDate       json.RawMessage `json:"dueDate"`
	AssignedTo    json.RawMessage `json:"assignedTo"`
	Attachments   []string        `json:"attachments"`
	TodoChecklist []ChecklistItem `json:"todoChecklist"`
}

type UpdateStatusInput struct {
	Status TaskStatus `json:"status"`
}

type UpdateChecklistInput struct {
	TodoChecklist []ChecklistItem `json:"todoChecklist"`
}
