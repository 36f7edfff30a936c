package repositories

import (
	"errors"
	"time"

	"taskmanager/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slices"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

// TaskQuery describes a task filter independently of the store. The zero
// value matches every task.
type TaskQuery struct {
	Status     models.TaskStatus
	NotStatus  models.TaskStatus
	AssignedTo *primitive.ObjectID
	DueBefore  *time.Time
}

// Scoped returns q restricted to tasks assigned to the given user.
func (q TaskQuery) Scoped(userID primitive.ObjectID) TaskQuery {
	q.AssignedTo = &userID
	return q
}

// WithStatus returns q with its status replaced.
func (q TaskQuery) WithStatus(status models.TaskStatus) TaskQuery {
	q.Status = status
	return q
}

// Filter renders the query as a MongoDB filter document.
func (q TaskQuery) Filter() bson.M {
	filter := bson.M{}
	switch {
	case q.Status != "" && q.NotStatus != "":
		filter["status"] = bson.M{"$eq": q.Status, "$ne": q.NotStatus}
	case q.Status != "":
		filter["status"] = q.Status
	case q.NotStatus != "":
		filter["status"] = bson.M{"$ne": q.NotStatus}
	}
	if q.AssignedTo != nil {
		filter["assignedTo"] = *q.AssignedTo
	}
	if q.DueBefore != nil {
		filter["dueDate"] = bson.M{"$lt": *q.DueBefore}
	}
	return filter
}

// Matches evaluates the query against a task in memory, with the same
// semantics as Filter.
func (q TaskQuery) Matches(t *models.Task) bool {
	if q.Status != "" && t.Status != q.Status {
		return false
	}
	if q.NotStatus != "" && t.Status == q.NotStatus {
		return false
	}
	if q.AssignedTo != nil && !slices.Contains(t.AssignedTo, *q.AssignedTo) {
		return false
	}
	if q.DueBefore != nil && !t.DueDate.Before(*q.DueBefore) {
		return false
	}
	return true
}

// GroupField names a task field that can be counted by value.
type GroupField string

const (
	GroupByStatus   GroupField = "status"
	GroupByPriority GroupField = "priority"
)

// ValueOf returns the grouped value of t for this field.
func (f GroupField) ValueOf(t *models.Task) string {
	switch f {
	case GroupByStatus:
		return string(t.Status)
	case GroupByPriority:
		return string(t.Priority)
	}
	return ""
}
