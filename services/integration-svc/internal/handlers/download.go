package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"montecarlo/pkg/api"
	"montecarlo/pkg/apperror"
	"montecarlo/pkg/interceptors"
	"montecarlo/pkg/logger"
)

// DownloadPath GET маршрут отчёта для браузера: ?run_ids=a,b&format=pdf&title=...
const DownloadPath = "/reports/download"

// Download отдаёт отчёт файлом с Content-Disposition
func (h *IntegrationHandler) Download(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	req := &api.ReportRequest{
		Format: q.Get("format"),
		Title:  q.Get("title"),
	}
	for _, id := range strings.Split(q.Get("run_ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			req.RunIDs = append(req.RunIDs, id)
		}
	}

	if err := interceptors.ValidateRequest(req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.svc.Report(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", resp.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resp.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(resp.Content); err != nil {
		logger.WithContext(r.Context()).Debug("Failed to write report", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = apperror.Wrap(err, apperror.CodeInternal, "internal error")
	}

	status := http.StatusInternalServerError
	switch {
	case apperror.IsInvalidInput(appErr):
		status = http.StatusBadRequest
	case appErr.Code == apperror.CodeNotFound:
		status = http.StatusNotFound
	case appErr.Code == apperror.CodeRateLimited:
		status = http.StatusTooManyRequests
	}
	if status == http.StatusInternalServerError {
		logger.WithContext(r.Context()).Error("Report download failed", "error", err)
	}

	w.Header().Set(apperror.CodeHeader, string(appErr.Code))
	if appErr.Field != "" {
		w.Header().Set(apperror.FieldHeader, appErr.Field)
	}
	http.Error(w, appErr.Message, status)
}
