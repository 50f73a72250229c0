package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/leaf/leaf/backend-go/internal/asset"
	"github.com/leaf/leaf/backend-go/internal/auth"
	"github.com/leaf/leaf/backend-go/internal/collab"
	"github.com/leaf/leaf/backend-go/internal/config"
	"github.com/leaf/leaf/backend-go/internal/engine"
	"github.com/leaf/leaf/backend-go/internal/export"
	"github.com/leaf/leaf/backend-go/internal/logging"
	mw "github.com/leaf/leaf/backend-go/internal/middleware"
	"github.com/leaf/leaf/backend-go/internal/project"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logCloser := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer logCloser.Close()

	authService := auth.NewService(cfg.JWTSecret, cfg.ProjectTTL)

	// Session events are routed to the hub; timer expiries arrive this way.
	var hub *collab.Hub
	projectService := project.NewService(project.Options{
		CanvasWidth:     cfg.CanvasWidth,
		CanvasHeight:    cfg.CanvasHeight,
		ReferenceHeight: cfg.ExportReferenceHeight,
		ConfirmTimeout:  cfg.ConfirmTimeout,
		TTL:             cfg.ProjectTTL,
		OnEvent: func(projectID string, ev engine.Event) {
			hub.Notify(projectID, ev)
		},
	})
	projectHandler := project.NewHandler(projectService, authService)

	hub = collab.NewHub(projectService.Session)
	go hub.Run()

	assetHandler := asset.NewHandler(cfg.AssetDir)
	exportHandler := export.NewHandler(cfg.ExportReferenceHeight)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.HandleFunc("/assets/{assetId}", assetHandler.Remove).Methods("DELETE", "OPTIONS")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	r.HandleFunc("/export/html", exportHandler.ExportHTML).Methods("POST", "OPTIONS")

	// Project creation hands out the token that guards the routes below.
	r.HandleFunc("/api/projects", projectHandler.List).Methods("GET")
	r.HandleFunc("/api/projects", projectHandler.Create).Methods("POST", "OPTIONS")

	api := r.PathPrefix("/api/projects/{projectId}").Subrouter()
	api.Use(authService.ProjectAccess)

	api.HandleFunc("", projectHandler.Get).Methods("GET")
	api.HandleFunc("", projectHandler.Delete).Methods("DELETE")
	api.HandleFunc("/forest", projectHandler.Forest).Methods("GET")
	api.HandleFunc("/export", projectHandler.Export).Methods("GET")

	// WebSocket endpoint
	wsLimits := collab.Limits{
		WriteTimeout: cfg.WSWriteTimeout,
		PingInterval: cfg.WSPingInterval,
		ReadLimit:    cfg.WSReadLimit,
	}
	r.HandleFunc("/ws/project/{projectId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, projectService, originPatterns(cfg.Origins()), wsLimits)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, projects *project.Service, origins []string, limits collab.Limits) {
	projectID := mux.Vars(r)["projectId"]

	// Browsers cannot set headers on a WebSocket upgrade, so the token
	// travels in the query string.
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	subject, err := authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	if subject != projectID {
		http.Error(w, "token not valid for this project", http.StatusForbidden)
		return
	}
	if _, err := projects.Get(projectID); err != nil {
		http.Error(w, "project not found", http.StatusNotFound)
		return
	}

	displayName := r.URL.Query().Get("name")
	if displayName == "" {
		displayName = "Guest"
	}
	userID := "user-" + uuid.New().String()[:8]

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, userID, displayName, projectID, clientID)

	hub.Register(client)
	client.Serve(r.Context(), limits)
}

// originPatterns strips the scheme from configured origins; the WebSocket
// origin check matches on host.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}
