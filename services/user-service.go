package services

import (
	"context"
	"errors"

	"taskmanager/backend/apperrors"
	"taskmanager/backend/logging"
	"taskmanager/backend/models"
	"taskmanager/backend/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// memberCountWorkers bounds how many members have their task counts
// computed at once.
const memberCountWorkers = 8

// UserStore is the persistence the user directory and auth flows need.
// *repositories.UserRepo satisfies it.
type UserStore interface {
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	FindUsers(ctx context.Context, role models.Role) ([]models.User, error)
	InsertUser(ctx context.Context, user *models.User) error
	SaveUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
}

// TaskCounter counts tasks matching a query.
type TaskCounter interface {
	CountTasks(ctx context.Context, q repositories.TaskQuery) (int64, error)
}

type UserService struct {
	users UserStore
	tasks TaskCounter
}

func NewUserService(users UserStore, tasks TaskCounter) *UserService {
	return &UserService{users: users, tasks: tasks}
}

// ListMembers returns every member with the number of their assigned tasks
// in each status. Admins are not listed.
func (s *UserService) ListMembers(ctx context.Context) ([]models.MemberWithCounts, error) {
	users, err := s.users.FindUsers(ctx, models.RoleMember)
	if err != nil {
		return nil, err
	}

	members := make([]models.MemberWithCounts, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(memberCountWorkers)
	for i := range users {
		i := i
		g.Go(func() error {
			counts, err := s.countByStatus(gctx, users[i].ID)
			if err != nil {
				return err
			}
			members[i] = models.MemberWithCounts{
				UserView:       models.NewUserView(&users[i]),
				PendingTask:    counts[models.StatusPending],
				InProgressTask: counts[models.StatusInProgress],
				CompletedTask:  counts[models.StatusCompleted],
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return members, nil
}

func (s *UserService) countByStatus(ctx context.Context, userID primitive.ObjectID) (map[models.TaskStatus]int64, error) {
	counts := make(map[models.TaskStatus]int64, len(models.TaskStatuses))
	for _, st := range models.TaskStatuses {
		n, err := s.tasks.CountTasks(ctx, repositories.TaskQuery{Status: st}.Scoped(userID))
		if err != nil {
			return nil, err
		}
		counts[st] = n
	}
	return counts, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.UserView, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	view := models.NewUserView(user)
	return &view, nil
}

// DeleteUser removes the account. Tasks keep their references to it; those
// are dropped when assignees are resolved.
func (s *UserService) DeleteUser(ctx context.Context, caller models.Caller, id string) error {
	if !caller.IsAdmin() {
		return apperrors.NewAuthorization("Access denied, admin only")
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperrors.NewNotFound("User not found")
	}
	if err := s.users.DeleteUser(ctx, oid); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NewNotFound("User not found")
		}
		return err
	}
	logging.Logger.WithField("userId", id).
		Infof("Event ID: USER_DELETED, Description: User deleted by %s", caller.ID.Hex())
	return nil
}

func (s *UserService) find(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.NewNotFound("User not found")
	}
	user, err := s.users.FindUserByID(ctx, oid)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NewNotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
