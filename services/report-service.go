package services

import (
	"context"
	"fmt"
	"strings"

	"taskmanager/backend/models"
	"taskmanager/backend/repositories"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	tasksSheet = "Tasks Report"
	usersSheet = "User Task Report"
)

// ReportSource is what the exports read.
type ReportSource interface {
	FindTasks(ctx context.Context, q repositories.TaskQuery) ([]models.Task, error)
}

// ReportUsers lists users for the exports.
type ReportUsers interface {
	FindUsers(ctx context.Context, role models.Role) ([]models.User, error)
}

type ReportService struct {
	tasks ReportSource
	users ReportUsers
}

func NewReportService(tasks ReportSource, users ReportUsers) *ReportService {
	return &ReportService{tasks: tasks, users: users}
}

// ExportTasks renders every task as one spreadsheet row.
func (s *ReportService) ExportTasks(ctx context.Context) ([]byte, error) {
	tasks, err := s.tasks.FindTasks(ctx, repositories.TaskQuery{})
	if err != nil {
		return nil, err
	}
	users, err := s.users.FindUsers(ctx, "")
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	header := []interface{}{"Task ID", "Title", "Description", "Priority", "Status", "Due Date", "Assigned To"}
	rows := make([][]interface{}, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, []interface{}{
			task.ID.Hex(),
			task.Title,
			task.Description,
			string(task.Priority),
			string(task.Status),
			task.DueDate.UTC().Format("2006-01-02"),
			assigneeLabel(task.AssignedTo, byID),
		})
	}
	return renderSheet(tasksSheet, header, []float64{28, 30, 50, 12, 15, 15, 40}, rows)
}

// ExportUsers renders one row per user with their assigned task counts.
func (s *ReportService) ExportUsers(ctx context.Context) ([]byte, error) {
	users, err := s.users.FindUsers(ctx, "")
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.FindTasks(ctx, repositories.TaskQuery{})
	if err != nil {
		return nil, err
	}

	type tally struct{ total, pending, inProgress, completed int }
	tallies := make(map[primitive.ObjectID]*tally, len(users))
	for i := range users {
		tallies[users[i].ID] = &tally{}
	}
	for _, task := range tasks {
		for _, id := range task.AssignedTo {
			t, ok := tallies[id]
			if !ok {
				continue
			}
			t.total++
			switch task.Status {
			case models.StatusPending:
				t.pending++
			case models.StatusInProgress:
				t.inProgress++
			case models.StatusCompleted:
				t.completed++
			}
		}
	}

	header := []interface{}{"User Name", "Email", "Total Assigned Tasks", "Pending Tasks", "In Progress Tasks", "Completed Tasks"}
	rows := make([][]interface{}, 0, len(users))
	for _, u := range users {
		t := tallies[u.ID]
		rows = append(rows, []interface{}{u.Name, u.Email, t.total, t.pending, t.inProgress, t.completed})
	}
	return renderSheet(usersSheet, header, []float64{30, 40, 20, 20, 20, 20}, rows)
}

func assigneeLabel(ids []primitive.ObjectID, byID map[primitive.ObjectID]*models.User) string {
	labels := make([]string, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			labels = append(labels, fmt.Sprintf("%s (%s)", u.Name, u.Email))
		}
	}
	if len(labels) == 0 {
		return "Unassigned"
	}
	return strings.Join(labels, ", ")
}

func renderSheet(name string, header []interface{}, widths []float64, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", name); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(name, col, col, w); err != nil {
			return nil, fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetCellStyle(name, "A1", lastCol+"1", bold); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
