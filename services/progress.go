package services

import (
	"taskmanager/backend/models"
)

// ChecklistProgress is round(100 * completed / total), or 0 for an empty
// checklist. Halves round up.
func ChecklistProgress(items []models.ChecklistItem) int {
	total := len(items)
	if total == 0 {
		return 0
	}
	completed := 0
	for _, item := range items {
		if item.Completed {
			completed++
		}
	}
	return (200*completed + total) / (2 * total)
}

// StatusForProgress maps checklist progress onto a status.
func StatusForProgress(progress int) models.TaskStatus {
	switch {
	case progress >= 100:
		return models.StatusCompleted
	case progress > 0:
		return models.StatusInProgress
	default:
		return models.StatusPending
	}
}

// replaceChecklist swaps the whole checklist and re-derives progress and
// status from it.
func replaceChecklist(task *models.Task, items []models.ChecklistItem) {
	if items == nil {
		items = []models.ChecklistItem{}
	}
	task.TodoChecklist = items
	task.Progress = ChecklistProgress(items)
	task.Status = StatusForProgress(task.Progress)
}

// setStatus writes a status directly. Completing a task forces every
// checklist item to completed and progress to 100; no other status touches
// the checklist.
func setStatus(task *models.Task, status models.TaskStatus) {
	if status != "" {
		task.Status = status
	}
	if task.Status == models.StatusCompleted {
		for i := range task.TodoChecklist {
			task.TodoChecklist[i].Completed = true
		}
		task.Progress = 100
	}
}
