package api

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/dashboard.html
var staticFiles embed.FS

const dashboardPage = "static/dashboard.html"

// dashboardHandler serves the embedded admin page. The page itself reads
// the roster, tiers and rankings from the JSON API.
type dashboardHandler struct {
	files fs.FS
}

func newDashboardHandler() *dashboardHandler {
	return &dashboardHandler{files: staticFiles}
}

// HandleDashboard handles GET /dashboard.
func (h *dashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFileFS(w, r, h.files, dashboardPage)
}
