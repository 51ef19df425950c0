package handlers

import (
	"embed"
	"html/template"
	"net/http"
	"os"

	"go.uber.org/zap"
)

//go:embed templates/*
var templatesFS embed.FS

var loginTemplate = template.Must(template.ParseFS(templatesFS, "templates/login.html"))

// FrontendHandlers serves the single page application shell
type FrontendHandlers struct {
	indexOverride string
	logger        *zap.Logger
}

// NewFrontendHandlers creates the frontend handlers. When indexOverride is
// set the page is read from that file on every request, so edits show up
// without a restart.
func NewFrontendHandlers(indexOverride string, logger *zap.Logger) *FrontendHandlers {
	return &FrontendHandlers{
		indexOverride: indexOverride,
		logger:        logger.Named("frontend"),
	}
}

// Home handles GET /
func (h *FrontendHandlers) Home(w http.ResponseWriter, r *http.Request) {
	page, err := h.indexPage()
	if err != nil {
		h.logger.Error("Failed to read main page template",
			zap.String("path", h.indexOverride),
			zap.Error(err),
		)
		status := http.StatusInternalServerError
		if os.IsNotExist(err) {
			http.Error(w, "Internal error: main page template not found.", status)
			return
		}
		http.Error(w, "Internal error while loading the page.", status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(page); err != nil {
		h.logger.Debug("Failed to write main page", zap.Error(err))
	}
}

func (h *FrontendHandlers) indexPage() ([]byte, error) {
	if h.indexOverride != "" {
		return os.ReadFile(h.indexOverride)
	}
	return templatesFS.ReadFile("templates/index.html")
}
