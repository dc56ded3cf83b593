package cmd

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rubiojr/hnsearch/cmd/web/components"
	"github.com/rubiojr/hnsearch/cmd/web/components/types"
	"github.com/rubiojr/hnsearch/pkg/api"
	"github.com/rubiojr/hnsearch/pkg/config"
	"github.com/rubiojr/hnsearch/pkg/log"
	"github.com/rubiojr/hnsearch/pkg/metrics"
	"github.com/rubiojr/hnsearch/pkg/version"
	"github.com/rubiojr/hnsearch/pkg/view"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

//go:embed web/static/*
var staticFS embed.FS

var webLog = log.ForService("web")

// WebCommand creates the web command with both API and UI
func WebCommand() *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Start web server with the search UI and session API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides web.port)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to (overrides web.host)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return startWebServer(ctx, c.String("config"), c.String("host"), c.Int("port"))
		},
	}
}

// WebServer holds the server configuration and dependencies
type WebServer struct {
	mu        sync.RWMutex
	config    *config.Config
	metrics   *metrics.Metrics
	sessions  *api.Sessions
	apiServer *api.Server
}

func newWebServer(cfg *config.Config) (*WebServer, error) {
	m := metrics.New()
	factory, err := newSessionFactory(cfg, m)
	if err != nil {
		return nil, err
	}
	sessions := api.NewSessions(factory, cfg.Web.MaxSessions, cfg.Web.SessionTTL.Duration)
	return &WebServer{
		config:    cfg,
		metrics:   m,
		sessions:  sessions,
		apiServer: api.NewServer(sessions),
	}, nil
}

// Handler returns the root handler with every route registered
func (s *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// API routes
	s.apiServer.RegisterRoutes(mux)

	// Web UI routes
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /static/", s.handleStatic)
	mux.Handle("GET /metrics", s.metrics.Handler())

	compressed := gzhttp.GzipHandler(mux)
	return api.CorsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Websocket handshakes need the raw connection.
		if r.URL.Path == "/api/session/ws" {
			mux.ServeHTTP(w, r)
			return
		}
		compressed.ServeHTTP(w, r)
	}))
}

// startWebServer starts the web server with both API and UI
func startWebServer(ctx context.Context, configPath, host string, port int) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if host != "" {
		cfg.Web.Host = host
	}
	if port != 0 {
		cfg.Web.Port = port
	}

	webServer, err := newWebServer(cfg)
	if err != nil {
		return err
	}
	defer webServer.sessions.Close()

	server := &http.Server{
		Addr:              cfg.Web.Addr(),
		Handler:           webServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		webLog.Infof("Starting web server on http://%s", cfg.Web.Addr())
		webLog.Infof("Searching %s", cfg.Endpoint)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		webLog.Infof("Shutting down web server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		webServer.watchConfig(gCtx, configPath)
		return nil
	})

	return g.Wait()
}

// watchConfig reloads the configuration when the file changes. Reloaded
// settings apply to sessions created afterwards.
func (s *WebServer) watchConfig(ctx context.Context, configPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		webLog.Warnf("failed to create config file watcher: %v", err)
		return
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			webLog.Warnf("failed to close config file watcher: %v", err)
		}
	}()

	if err := watcher.Add(configPath); err != nil {
		webLog.Warnf("failed to watch config file %s: %v", configPath, err)
		return
	}
	webLog.Infof("Watching config file for changes: %s", configPath)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			// React to write, create, rename, and remove events (editors often use atomic writes)
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			webLog.Infof("Config file changed: %s (event: %s), reloading configuration...", event.Name, event.Op.String())

			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				// Small delay to ensure the new file is fully written
				time.Sleep(200 * time.Millisecond)
				if _, err := os.Stat(configPath); os.IsNotExist(err) {
					webLog.Warnf("Config file was removed and not replaced, skipping reload")
					continue
				}
				if err := watcher.Add(configPath); err != nil {
					webLog.Warnf("failed to re-add config file to watcher after rename/remove: %v", err)
				}
			} else {
				time.Sleep(100 * time.Millisecond)
			}

			if err := s.reloadConfig(configPath); err != nil {
				webLog.Errorf("Failed to reload configuration: %v", err)
			} else {
				webLog.Infof("Configuration reloaded successfully")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			webLog.Warnf("Config file watcher error: %v", err)
		}
	}
}

// reloadConfig swaps the session factory for one built from the file at
// configPath. Listener settings are not reloaded.
func (s *WebServer) reloadConfig(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading new config: %w", err)
	}
	factory, err := newSessionFactory(cfg, s.metrics)
	if err != nil {
		return err
	}

	s.mu.Lock()
	cfg.Web = s.config.Web
	s.config = cfg
	s.mu.Unlock()

	s.sessions.SetFactory(factory)
	return nil
}

func (s *WebServer) currentConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Web UI Handlers

// handleHome serves the page shell
func (s *WebServer) handleHome(w http.ResponseWriter, r *http.Request) {
	cfg := s.currentConfig()

	columns := make([]types.Column, 0, len(sortColumns))
	for _, key := range sortColumns {
		columns = append(columns, types.Column{Key: string(key), Label: columnTitle(key, view.Sorter{})})
	}

	data := types.PageData{
		Title:        "Hacker News Search",
		DefaultQuery: cfg.DefaultQuery,
		Columns:      columns,
		Version:      version.APIVersion(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := components.Page(data).Render(r.Context(), w); err != nil {
		http.Error(w, fmt.Sprintf("Template error: %v", err), http.StatusInternalServerError)
	}
}

// handleStatic serves static assets from embedded files
func (s *WebServer) handleStatic(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	// Remove /static/ prefix and add web/static/ prefix for embedded filesystem
	filePath := "web/static/" + strings.TrimPrefix(path, "/static/")

	content, err := staticFS.ReadFile(filePath)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	// Set appropriate content type
	if strings.HasSuffix(path, ".css") {
		w.Header().Set("Content-Type", "text/css")
	} else if strings.HasSuffix(path, ".js") {
		w.Header().Set("Content-Type", "application/javascript")
	}

	// Set cache headers for static assets
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if _, err := w.Write(content); err != nil {
		webLog.Warnf("Error writing static content: %v", err)
	}
}
