package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/queue"
	"github.com/sells-group/identity-resolver/internal/store"
)

var servePort int

// buildRouter wires the inbound Enqueue/Session/Progress/health API of
// spec.md §6 onto a chi router, grounded on the teacher's cmd/serve.go
// health-endpoint/JSON-decoding pattern, upgraded to chi for route groups
// and middleware (request id, recoverer, CORS for the external web UI).
func buildRouter(st store.Store, q queue.Queue, bus *queue.Bus) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		depth, err := q.Depth(req.Context())
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
		if err := st.Ping(req.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "queue_depth": depth})
	})

	r.Post("/enqueue", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			TenantID    string                  `json:"tenant_id"`
			CandidateID string                  `json:"candidate_id"`
			JobType     model.JobType           `json:"job_type"`
			RoleType    model.RoleType          `json:"role_type,omitempty"`
			Priority    int                     `json:"priority,omitempty"`
			Budget      *model.EnrichmentBudget `json:"budget,omitempty"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if body.TenantID == "" || body.CandidateID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tenant_id and candidate_id are required"})
			return
		}
		if body.JobType == "" {
			body.JobType = model.JobEnrich
		}

		candidate, err := st.GetCandidate(req.Context(), body.TenantID, body.CandidateID)
		if err != nil || candidate.TenantID != body.TenantID {
			writeJSON(w, http.StatusPreconditionFailed, map[string]string{"error": "precondition_failed"})
			return
		}

		sessionID := uuid.NewString()
		jobReq := model.JobRequest{
			SessionID: sessionID, TenantID: body.TenantID, CandidateID: body.CandidateID,
			JobType: body.JobType, RoleType: body.RoleType, Budget: body.Budget, Priority: body.Priority,
		}
		if err := q.Enqueue(req.Context(), jobReq); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"session_id": sessionID, "job_id": sessionID})
	})

	r.Get("/sessions/{id}", func(w http.ResponseWriter, req *http.Request) {
		session, err := q.Session(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		writeJSON(w, http.StatusOK, session)
	})

	r.Get("/candidates/{id}/sessions", func(w http.ResponseWriter, req *http.Request) {
		sessions, err := st.GetRecentSessions(req.Context(), chi.URLParam(req, "id"), 10)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, sessions)
	})

	r.Get("/sessions/{id}/events", func(w http.ResponseWriter, req *http.Request) {
		sseHandler(bus, chi.URLParam(req, "id"))(w, req)
	})

	return r
}

// sseHandler streams ProgressEvents published on bus for sessionID as
// `{type, node, platform?, data, timestamp}` SSE frames (spec.md §6).
func sseHandler(bus *queue.Bus, sessionID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		events, unsub := bus.Subscribe(sessionID)
		defer unsub()

		for {
			select {
			case <-r.Context().Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				payload, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				_, _ = w.Write([]byte("data: "))
				_, _ = w.Write(payload)
				_, _ = w.Write([]byte("\n\n"))
				flusher.Flush()
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the enqueue/session/progress HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		handler := buildRouter(env.Store, env.Queue, env.Bus)
		return startServer(ctx, handler, resolvePort(servePort, cfg.Server.Port))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// startServer runs the HTTP server until ctx is cancelled, then drains
// gracefully within a 15s deadline.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

func resolvePort(flagPort, configPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return configPort
}
