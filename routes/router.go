// Package routes mounts every endpoint on a gorilla/mux router.
package routes

import (
	"net/http"

	"taskmanager/backend/handlers"
	"taskmanager/backend/metrics"
	"taskmanager/backend/middleware"
	"taskmanager/backend/response"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Auth    *handlers.AuthHandler
	Tasks   *handlers.TaskHandler
	Users   *handlers.UserHandler
	Reports *handlers.ReportHandler
}

type Options struct {
	Authenticator  middleware.Authenticator
	Responder      *response.Responder
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	ClientURL      string
}

func NewRouter(h Handlers, opts Options) *mux.Router {
	r := mux.NewRouter()
	r.Use(opts.Metrics.Middleware)
	r.Use(middleware.CORS(opts.ClientURL))

	protect := middleware.Protect(opts.Authenticator, opts.Responder)
	adminOnly := middleware.AdminOnly(opts.Responder)
	authed := func(fn http.HandlerFunc) http.Handler { return protect(fn) }
	admin := func(fn http.HandlerFunc) http.Handler { return protect(adminOnly(fn)) }

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		opts.Responder.Success(w, http.StatusOK, "OK", nil)
	}).Methods(http.MethodGet)
	if opts.MetricsHandler != nil {
		r.Handle("/metrics", opts.MetricsHandler).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", h.Auth.Register).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/auth/login", h.Auth.Login).Methods(http.MethodPost, http.MethodOptions)
	api.Handle("/auth/profile", authed(h.Auth.GetProfile)).Methods(http.MethodGet, http.MethodOptions)
	api.Handle("/auth/profile", authed(h.Auth.UpdateProfile)).Methods(http.MethodPut)
	api.Handle("/auth/upload-image", authed(h.Auth.UploadImage)).Methods(http.MethodPost, http.MethodOptions)

	api.Handle("/users", admin(h.Users.GetUsers)).Methods(http.MethodGet, http.MethodOptions)
	api.Handle("/users/{id}", authed(h.Users.GetUser)).Methods(http.MethodGet, http.MethodOptions)
	api.Handle("/users/{id}", admin(h.Users.DeleteUser)).Methods(http.MethodDelete)

	// Fixed paths go before /tasks/{id} so they are not taken as ids.
	api.Handle("/tasks/dashboard-data", authed(h.Tasks.GetDashboardData)).Methods(http.MethodGet, http.MethodOptions)
	api.Handle("/tasks/user-dashboard-data", authed(h.Tasks.GetUserDashboardData)).Methods(http.MethodGet, http.MethodOptions)
	api.Handle("/tasks", authed(h.Tasks.GetTasks)).Methods(http.MethodGet, http.MethodOptions)
	api.Handle("/tasks", admin(h.Tasks.CreateTask)).Methods(http.MethodPost)
	api.Handle("/tasks/{id}", authed(h.Tasks.GetTask)).Methods(http.MethodGet, http.MethodOptions)
	api.Handle("/tasks/{id}", authed(h.Tasks.UpdateTask)).Methods(http.MethodPut)
	api.Handle("/tasks/{id}", admin(h.Tasks.DeleteTask)).Methods(http.MethodDelete)
	api.Handle("/tasks/{id}/status", authed(h.Tasks.UpdateTaskStatus)).Methods(http.MethodPut, http.MethodOptions)
	api.Handle("/tasks/{id}/todo", authed(h.Tasks.UpdateTaskChecklist)).Methods(http.MethodPut, http.MethodOptions)

	api.Handle("/reports/export/tasks", admin(h.Reports.ExportTasks)).Methods(http.MethodGet, http.MethodOptions)
	api.Handle("/reports/export/users", admin(h.Reports.ExportUsers)).Methods(http.MethodGet, http.MethodOptions)

	return r
}
