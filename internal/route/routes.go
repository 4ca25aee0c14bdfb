package route

import (
	"net/http"
	"os"
	"path/filepath"

	"bpmonitor/internal/config"
	"bpmonitor/internal/handler"
	"bpmonitor/internal/logger"
	"bpmonitor/internal/middleware"
	"bpmonitor/internal/service"
)

// dynamicHTMLHandler serves /path as <staticDir>/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+path)+".html")
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers HTTP routes, static file serving and API endpoints,
// and wraps the mux with the request-id and authentication middleware.
func SetupRoutes(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDirectory))))

	// API endpoints
	mux.HandleFunc("/api/measure", handler.MeasureHandler(manager, cfg, logger))
	mux.HandleFunc("/api/recognize", handler.RecognizeHandler(manager, cfg, logger))
	mux.HandleFunc("/api/judge", handler.JudgeHandler(manager, logger))
	mux.HandleFunc("/api/history", handler.HistoryHandler(manager, logger))
	mux.HandleFunc("/api/history/import", handler.ImportHistoryHandler(manager, cfg, logger))
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(manager, logger))

	// Log endpoints
	for _, name := range []string{"info", "warning", "error"} {
		file := name + ".log"
		mux.HandleFunc("/logs/"+name, handler.ShowLogsHandler(logger, file))
		mux.HandleFunc("/logs/"+name+"/clear", handler.ClearLogsHandler(logger, file))
	}

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, logger))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	mux.HandleFunc("/healthz", handler.HealthHandler(manager, logger))

	// Automatic HTML handler mapping for example: /settings -> static/settings.html
	mux.HandleFunc("/", dynamicHTMLHandler(cfg.StaticDirectory))

	return middleware.RequestIDMiddleware(logger, middleware.AuthMiddleware(mux))
}
