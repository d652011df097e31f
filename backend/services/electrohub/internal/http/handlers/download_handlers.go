package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

// FileLocator resolves a report name to a path on disk.
type FileLocator interface {
	Path(name string) (string, error)
}

// DownloadHandlers serves generated PDF reports.
type DownloadHandlers struct {
	files  FileLocator
	logger *zap.Logger
}

// NewDownloadHandlers returns handler.
func NewDownloadHandlers(files FileLocator, logger *zap.Logger) *DownloadHandlers {
	return &DownloadHandlers{files: files, logger: logger}
}

// Download handles GET /download/{file} and /api/download-pdf/{file}.
func (h *DownloadHandlers) Download(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	path, err := h.files.Path(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, path)
}
