package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/market-scout/internal/model"
	"github.com/sells-group/market-scout/internal/resilience"
	"github.com/sells-group/market-scout/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analysis HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initAnalyzer(ctx)
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
			Handler: buildRouter(env),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// buildRouter assembles the HTTP API.
func buildRouter(env *analyzerEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/analyze", handleAnalyze(env))
	r.Get("/api/reports", handleListReports(env))
	r.Get("/api/reports/{id}", handleGetReport(env))

	return r
}

func handleAnalyze(env *analyzerEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		report, err := env.Analyzer.Analyze(r.Context(), req)
		if err != nil {
			zap.L().Error("analysis failed",
				zap.String("term", req.BusinessTerm),
				zap.String("kind", resilience.KindOf(err).String()),
				zap.Error(err),
			)
			writeError(w, statusForKind(resilience.KindOf(err)), userMessage(err))
			return
		}

		// Persistence is best effort; the caller still gets the report.
		if saved, err := env.Store.SaveReport(r.Context(), req.BusinessTerm, *report); err != nil {
			zap.L().Warn("report save failed", zap.Error(err))
		} else {
			w.Header().Set("X-Report-ID", saved.ID)
		}

		writeJSON(w, http.StatusOK, report)
	}
}

func handleListReports(env *analyzerEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := store.ReportFilter{
			BusinessTerm: q.Get("term"),
		}
		if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
			filter.Limit = n
		}
		if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
			filter.Offset = n
		}
		reports, err := env.Store.ListReports(r.Context(), filter)
		if err != nil {
			zap.L().Error("list reports failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not list reports")
			return
		}
		if reports == nil {
			reports = []model.SavedReport{}
		}
		writeJSON(w, http.StatusOK, reports)
	}
}

func handleGetReport(env *analyzerEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sr, err := env.Store.GetReport(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if resilience.KindOf(err) == resilience.KindNotFound {
				writeError(w, http.StatusNotFound, "report not found")
				return
			}
			zap.L().Error("get report failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not load report")
			return
		}
		writeJSON(w, http.StatusOK, sr)
	}
}

func statusForKind(kind resilience.Kind) int {
	switch kind {
	case resilience.KindValidation:
		return http.StatusBadRequest
	case resilience.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// userMessage maps an analysis failure to the message shown to API callers.
// Validation and not-found messages pass through; backend failures get a
// stable generic phrasing.
func userMessage(err error) string {
	switch resilience.KindOf(err) {
	case resilience.KindValidation, resilience.KindNotFound:
		var rerr *resilience.Error
		if errors.As(err, &rerr) {
			return rerr.Err.Error()
		}
		return err.Error()
	case resilience.KindDemographicUnavailable:
		return "Unable to fetch demographic data for this location. The zip code may be invalid."
	case resilience.KindCompetitorQuery:
		return "Unable to fetch competitor data. Please try again in a moment."
	default:
		return "An error occurred while analyzing the market. Please try again."
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
