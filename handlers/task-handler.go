package handlers

import (
	"net/http"

	"taskmanager/backend/models"
	"taskmanager/backend/response"
	"taskmanager/backend/services"
	"taskmanager/backend/validation"

	"github.com/gorilla/mux"
)

type TaskHandler struct {
	tasks      *services.TaskService
	dashboards *services.DashboardService
	resp       *response.Responder
}

func NewTaskHandler(tasks *services.TaskService, dashboards *services.DashboardService, resp *response.Responder) *TaskHandler {
	return &TaskHandler{tasks: tasks, dashboards: dashboards, resp: resp}
}

func (h *TaskHandler) GetDashboardData(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	data, err := h.dashboards.AdminDashboard(r.Context(), caller)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.Success(w, http.StatusOK, "Get dashboard data successfully", data)
}

func (h *TaskHandler) GetUserDashboardData(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	data, err := h.dashboards.UserDashboard(r.Context(), caller)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.Success(w, http.StatusOK, "Get user dashboard data successfully", data)
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	status := models.TaskStatus(r.URL.Query().Get("status"))
	list, err := h.tasks.ListTasks(r.Context(), caller, status)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.Success(w, http.StatusOK, "Get tasks successfully", list)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	task, err := h.tasks.GetTask(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.Success(w, http.StatusOK, "Get task successfully", task)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	var input models.CreateTaskInput
	if err := decodeJSON(w, r, &input); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if err := validation.Struct(input); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	task, err := h.tasks.CreateTask(r.Context(), caller, input)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.Success(w, http.StatusCreated, "Create task successfully", task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	var input models.UpdateTaskInput
	if err := decodeJSON(w, r, &input); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	task, err := h.tasks.UpdateTask(r.Context(), caller, mux.Vars(r)["id"], input)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.Success(w, http.StatusOK, "Update task successfully", task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.tasks.DeleteTask(r.Context(), caller, id); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.Success(w, http.StatusOK, "Delete task successfully", map[string]string{
		"message": "Task with ID " + id + " deleted successfully",
	})
}

func (h *TaskHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	var input models.UpdateStatusInput
	if err := decodeOptionalJSON(w, r, &input); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	task, err := h.tasks.UpdateTaskStatus(r.Context(), caller, mux.Vars(r)["id"], input.Status)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.Success(w, http.StatusOK, "Update task status successfully", task)
}

func (h *TaskHandler) UpdateTaskChecklist(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	var input models.UpdateChecklistInput
	if err := decodeJSON(w, r, &input); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	task, err := h.tasks.UpdateTaskChecklist(r.Context(), caller, mux.Vars(r)["id"], input.TodoChecklist)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.Success(w, http.StatusOK, "Update task checklist successfully", task)
}
