package handlers

import (
	"context"
	"fmt"
	"net/http"

	"taskmanager/backend/logging"
	"taskmanager/backend/response"
	"taskmanager/backend/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	reports *services.ReportService
	resp    *response.Responder
}

func NewReportHandler(reports *services.ReportService, resp *response.Responder) *ReportHandler {
	return &ReportHandler{reports: reports, resp: resp}
}

func (h *ReportHandler) ExportTasks(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, "tasks_report.xlsx", h.reports.ExportTasks)
}

func (h *ReportHandler) ExportUsers(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, "users_report.xlsx", h.reports.ExportUsers)
}

func (h *ReportHandler) send(w http.ResponseWriter, r *http.Request, filename string, render func(context.Context) ([]byte, error)) {
	data, err := render(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logging.Logger.Errorf("Event ID: REPORT_WRITE_FAILED, Description: Failed to send %s: %v", filename, err)
	}
}
