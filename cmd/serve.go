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
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ruvia-hq/ruvia-cli/internal/credits"
	"github.com/ruvia-hq/ruvia-cli/internal/model"
	"github.com/ruvia-hq/ruvia-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(env),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func newRouter(env *appEnv) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", handleAnalyze(env))
		r.Post("/critique", handleCritique(env))
		r.Get("/analyses", handleListAnalyses(env))
		r.Get("/analyses/{id}", handleGetAnalysis(env))
		r.Post("/bookmarks", handleCreateBookmark(env))
		r.Get("/bookmarks", handleListBookmarks(env))
	})

	return r
}

func handleAnalyze(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL  string `json:"url"`
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if (req.URL == "") == (req.Text == "") {
			writeError(w, http.StatusBadRequest, "exactly one of url or text is required")
			return
		}

		ctx := r.Context()
		if err := env.Ledger.Reserve(ctx); err != nil {
			if eris.Is(err, credits.ErrInsufficient) {
				writeError(w, http.StatusPaymentRequired, "out of credits")
				return
			}
			serverError(w, err, "reserve credit")
			return
		}

		var (
			report *model.AuthenticityReport
			input  string
			err    error
		)
		if req.URL != "" {
			input = req.URL
			report, err = env.Jobs.AnalyzeURL(ctx, req.URL)
		} else {
			input = "inline text"
			report, err = env.Jobs.AnalyzeText(ctx, req.Text)
		}
		if err != nil {
			serverError(w, err, "analyze")
			return
		}

		analysis, err := persistAnalysis(ctx, env, model.KindJobPosting, input, report.Provenance, report)
		if err != nil {
			if eris.Is(err, credits.ErrInsufficient) {
				writeError(w, http.StatusPaymentRequired, "out of credits")
				return
			}
			serverError(w, err, "persist analysis")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"id":     analysis.ID,
			"report": report,
		})
	}
}

func handleCritique(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Resume         string `json:"resume"`
			JobDescription string `json:"job_description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Resume == "" || req.JobDescription == "" {
			writeError(w, http.StatusBadRequest, "resume and job_description are required")
			return
		}

		ctx := r.Context()
		if err := env.Ledger.Reserve(ctx); err != nil {
			if eris.Is(err, credits.ErrInsufficient) {
				writeError(w, http.StatusPaymentRequired, "out of credits")
				return
			}
			serverError(w, err, "reserve credit")
			return
		}

		critique, err := env.Resumes.CritiqueText(ctx, req.Resume, req.JobDescription)
		if err != nil {
			serverError(w, err, "critique")
			return
		}

		analysis, err := persistAnalysis(ctx, env, model.KindResume, "api request", critique.Provenance, critique)
		if err != nil {
			if eris.Is(err, credits.ErrInsufficient) {
				writeError(w, http.StatusPaymentRequired, "out of credits")
				return
			}
			serverError(w, err, "persist analysis")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"id":       analysis.ID,
			"critique": critique,
		})
	}
}

func handleListAnalyses(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := store.AnalysisFilter{
			Kind: model.AnalysisKind(r.URL.Query().Get("kind")),
		}
		analyses, err := env.Store.ListAnalyses(r.Context(), filter)
		if err != nil {
			serverError(w, err, "list analyses")
			return
		}
		if analyses == nil {
			analyses = []model.Analysis{}
		}
		writeJSON(w, http.StatusOK, analyses)
	}
}

func handleGetAnalysis(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		analysis, err := env.Store.GetAnalysis(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "analysis not found")
			return
		}
		writeJSON(w, http.StatusOK, analysis)
	}
}

func handleCreateBookmark(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var b model.Bookmark
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if b.AnalysisID == "" || b.URL == "" {
			writeError(w, http.StatusBadRequest, "analysis_id and url are required")
			return
		}
		if err := env.Store.CreateBookmark(r.Context(), &b); err != nil {
			serverError(w, err, "create bookmark")
			return
		}
		writeJSON(w, http.StatusCreated, b)
	}
}

func handleListBookmarks(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookmarks, err := env.Store.ListBookmarks(r.Context())
		if err != nil {
			serverError(w, err, "list bookmarks")
			return
		}
		if bookmarks == nil {
			bookmarks = []model.Bookmark{}
		}
		writeJSON(w, http.StatusOK, bookmarks)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func serverError(w http.ResponseWriter, err error, action string) {
	zap.L().Error("request failed", zap.String("action", action), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
