package services

import (
	"context"
	"strings"
	"time"

	"taskmanager/backend/models"
	"taskmanager/backend/repositories"
)

const recentTaskLimit = 10

// TaskStats is the read side the dashboards aggregate over.
type TaskStats interface {
	CountTasks(ctx context.Context, q repositories.TaskQuery) (int64, error)
	CountTasksBy(ctx context.Context, field repositories.GroupField, q repositories.TaskQuery) (map[string]int64, error)
	RecentTasks(ctx context.Context, q repositories.TaskQuery, limit int64) ([]models.RecentTask, error)
}

type DashboardService struct {
	tasks TaskStats
	now   func() time.Time
}

func NewDashboardService(tasks TaskStats) *DashboardService {
	return &DashboardService{tasks: tasks, now: time.Now}
}

// AdminDashboard aggregates over every task for an admin and over the
// caller's assigned tasks for anyone else.
func (s *DashboardService) AdminDashboard(ctx context.Context, caller models.Caller) (*models.DashboardData, error) {
	return s.build(ctx, visibleTo(caller))
}

// UserDashboard always aggregates over the caller's assigned tasks.
func (s *DashboardService) UserDashboard(ctx context.Context, caller models.Caller) (*models.DashboardData, error) {
	return s.build(ctx, repositories.TaskQuery{}.Scoped(caller.ID))
}

func (s *DashboardService) build(ctx context.Context, scope repositories.TaskQuery) (*models.DashboardData, error) {
	now := s.now()

	total, err := s.tasks.CountTasks(ctx, scope)
	if err != nil {
		return nil, err
	}
	pending, err := s.tasks.CountTasks(ctx, scope.WithStatus(models.StatusPending))
	if err != nil {
		return nil, err
	}
	completed, err := s.tasks.CountTasks(ctx, scope.WithStatus(models.StatusCompleted))
	if err != nil {
		return nil, err
	}
	overdueQuery := scope
	overdueQuery.NotStatus = models.StatusCompleted
	overdueQuery.DueBefore = &now
	overdue, err := s.tasks.CountTasks(ctx, overdueQuery)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.tasks.CountTasksBy(ctx, repositories.GroupByStatus, scope)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.tasks.CountTasksBy(ctx, repositories.GroupByPriority, scope)
	if err != nil {
		return nil, err
	}

	recent, err := s.tasks.RecentTasks(ctx, scope, recentTaskLimit)
	if err != nil {
		return nil, err
	}

	return &models.DashboardData{
		Statistics: models.Statistics{
			TotalTasks:     total,
			PendingTasks:   pending,
			CompletedTasks: completed,
			OverdueTasks:   overdue,
		},
		Charts: models.Charts{
			TaskDistribution:   statusDistribution(byStatus, total),
			TaskPriorityLevels: priorityDistribution(byPriority),
		},
		RecentTasks: recent,
	}, nil
}

// statusDistribution keys every status with its spaces removed, zero-filled,
// plus "All" for the scope total.
func statusDistribution(counts map[string]int64, total int64) map[string]int64 {
	dist := make(map[string]int64, len(models.TaskStatuses)+1)
	for _, st := range models.TaskStatuses {
		dist[distributionKey(string(st))] = counts[string(st)]
	}
	dist["All"] = total
	return dist
}

func priorityDistribution(counts map[string]int64) map[string]int64 {
	dist := make(map[string]int64, len(models.Priorities))
	for _, p := range models.Priorities {
		dist[string(p)] = counts[string(p)]
	}
	return dist
}

func distributionKey(value string) string {
	return strings.Join(strings.Fields(value), "")
}
