package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"rentacars/internal/auth"
	"rentacars/internal/metrics"
)

const resourcePath = "/{resource:clientes|carros|rentas}"

// NewRouter builds the console HTTP surface. accessLog may be nil.
func NewRouter(sessions *auth.ConsoleSessions, m *metrics.Collector, logger *slog.Logger, accessLog io.Writer) (http.Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	render, err := NewRenderer(logger)
	if err != nil {
		return nil, err
	}
	authHandler := NewAuthHandler(render)
	resourceHandler := NewResourceHandler(render, logger)

	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}).Methods("GET")
	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods("GET")
	}

	// Console pages
	console := r.PathPrefix("/").Subrouter()
	console.Use(sessions.Middleware)
	console.HandleFunc("/", authHandler.Home).Methods("GET")
	console.HandleFunc("/login", authHandler.LoginPage).Methods("GET")
	console.HandleFunc("/login", authHandler.Login).Methods("POST")
	console.HandleFunc("/register", authHandler.RegisterPage).Methods("GET")
	console.HandleFunc("/register", authHandler.Register).Methods("POST")
	console.HandleFunc("/logout", authHandler.Logout).Methods("POST")

	// Resource pages (logged in)
	resources := console.PathPrefix(resourcePath).Subrouter()
	resources.Use(sessions.RequireLogin)
	resources.HandleFunc("", resourceHandler.Show).Methods("GET")
	resources.HandleFunc("", resourceHandler.Create).Methods("POST")
	resources.HandleFunc("/new", resourceHandler.ToggleCreate).Methods("POST")
	resources.HandleFunc("/{id}", resourceHandler.Update).Methods("POST")
	resources.HandleFunc("/{id}/edit", resourceHandler.BeginEdit).Methods("POST")
	resources.HandleFunc("/{id}/cancel", resourceHandler.CancelEdit).Methods("POST")
	resources.HandleFunc("/{id}/delete", resourceHandler.Delete).Methods("POST")

	var h http.Handler = r
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)),
		handlers.PrintRecoveryStack(true),
	)(h)
	if accessLog != nil {
		h = handlers.CombinedLoggingHandler(accessLog, h)
	}
	return handlers.ProxyHeaders(h), nil
}
