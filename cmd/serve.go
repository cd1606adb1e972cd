package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/insight-pipeline/internal/model"
	"github.com/sells-group/insight-pipeline/internal/pipeline"
)

var servePort int

// pipelineAPI is the subset of the pipeline service the HTTP layer calls.
type pipelineAPI interface {
	CreateInsight(ctx context.Context, actor model.Actor, in pipeline.CreateInsightInput) (*pipeline.CreateInsightResult, error)
	ApproveInsight(ctx context.Context, actor model.Actor, insightID string) (*pipeline.ApprovalResult, error)
	CreateCampaign(ctx context.Context, actor model.Actor, in pipeline.CreateCampaignInput) (*model.Campaign, error)
	SubmitResponse(ctx context.Context, actor model.Actor, campaignID string, in pipeline.SubmitResponseInput) (*pipeline.SubmitResponseResult, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for insight and campaign submission",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env.Pipeline),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(context.Background())
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(api pipelineAPI) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-User-Id", "X-User-Role", "X-User-Team"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/insights", func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromRequest(w, r)
		if !ok {
			return
		}
		var in pipeline.CreateInsightInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		result, err := api.CreateInsight(r.Context(), actor, in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	})

	r.Post("/insights/{id}/approve", func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromRequest(w, r)
		if !ok {
			return
		}
		result, err := api.ApproveInsight(r.Context(), actor, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	r.Post("/campaigns", func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromRequest(w, r)
		if !ok {
			return
		}
		var in pipeline.CreateCampaignInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		campaign, err := api.CreateCampaign(r.Context(), actor, in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, campaign)
	})

	r.Post("/campaigns/{id}/respond", func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromRequest(w, r)
		if !ok {
			return
		}
		var in pipeline.SubmitResponseInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		result, err := api.SubmitResponse(r.Context(), actor, chi.URLParam(r, "id"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	})

	return r
}

// actorFromRequest builds the acting identity from the gateway-supplied
// headers. The upstream gateway authenticates; this layer only carries the
// identity through.
func actorFromRequest(w http.ResponseWriter, r *http.Request) (model.Actor, bool) {
	actor := model.Actor{
		ID:   r.Header.Get("X-User-Id"),
		Role: r.Header.Get("X-User-Role"),
		Team: r.Header.Get("X-User-Team"),
	}
	if actor.ID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing X-User-Id header"})
		return model.Actor{}, false
	}
	return actor, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the pipeline error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case pipeline.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, pipeline.ErrNotPermitted):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not permitted"})
	case pipeline.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case pipeline.IsEnrichment(err):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "enrichment failed"})
	default:
		zap.L().Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
