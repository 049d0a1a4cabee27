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
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dashin-hq/inventory-cli/internal/enrich"
	"github.com/dashin-hq/inventory-cli/internal/flagging"
	"github.com/dashin-hq/inventory-cli/internal/inventory"
	"github.com/dashin-hq/inventory-cli/internal/model"
	"github.com/dashin-hq/inventory-cli/internal/store"
	"github.com/dashin-hq/inventory-cli/internal/usage"
)

var servePort int

// serverEnv bundles the services the API handlers share.
type serverEnv struct {
	store    store.Store
	repo     *inventory.Repository
	detector *flagging.Detector
	resolver *flagging.Resolver
	ledger   *usage.Ledger
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the inventory HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		env := &serverEnv{
			store:    st,
			repo:     inventory.NewRepository(st),
			detector: flagging.NewDetector(st).WithMinTokenLen(cfg.Flags.MinTokenLen),
			resolver: flagging.NewResolver(st),
			ledger:   usage.New(st),
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(env, rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutCtx)
		})
		return g.Wait()
	},
}

func buildRouter(env *serverEnv, limit rate.Limit, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Tenant-ID"},
		MaxAge:         300,
	}))
	r.Use(rateLimiter(limit, burst))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(requireTenantHeader)

		r.Post("/leads", env.handleUpsertLead)
		r.Post("/leads/import", env.handleImportLeads)
		r.Get("/leads/export", env.handleExport)
		r.Post("/leads/{id}/reject", env.handleReject)

		r.Post("/flags/detect", env.handleDetect)
		r.Get("/flags", env.handleListFlags)
		r.Get("/flags/summary", env.handleFlagSummary)
		r.Post("/flags/{id}/resolve", env.handleResolveFlag)

		r.Post("/usage", env.handleRecordUsage)
		r.Post("/usage/check", env.handleCheckUsage)
	})
	return r
}

// rateLimiter applies one shared token bucket to the whole API.
func rateLimiter(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type tenantKey struct{}

func requireTenantHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := r.Header.Get("X-Tenant-ID")
		if tenant == "" {
			writeError(w, http.StatusBadRequest, "X-Tenant-ID header is required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tenantKey{}, tenant)))
	})
}

func tenantFrom(r *http.Request) string {
	t, _ := r.Context().Value(tenantKey{}).(string)
	return t
}

func (env *serverEnv) handleUpsertLead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Company  string `json:"company"`
		Title    string `json:"title"`
		Persona  string `json:"persona"`
		Source   string `json:"source"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		LinkedIn string `json:"linkedin"`
		Country  string `json:"country"`
		Industry string `json:"industry"`
		Event    string `json:"event"`
		By       string `json:"by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	source := model.SourceType(req.Source)
	if req.Source == "" {
		source = model.SourceManual
	}
	if !source.Valid() {
		writeError(w, http.StatusBadRequest, "unknown source type")
		return
	}

	res, err := env.repo.Upsert(r.Context(), tenantFrom(r), inventory.UpsertInput{
		FullName: req.Name,
		Company:  req.Company,
		Title:    req.Title,
		Persona:  req.Persona,
		Source:   source,
		Enrichment: enrich.Update{
			Email:       req.Email,
			Phone:       req.Phone,
			LinkedInURL: req.LinkedIn,
			Country:     req.Country,
			Industry:    req.Industry,
		},
		EnrichedBy: req.By,
		Appearance: inventory.Appearance{EventName: req.Event},
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusOK
	if res.WasNew {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

func (env *serverEnv) handleImportLeads(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source   string `json:"source"`
		Event    string `json:"event"`
		EventURL string `json:"event_url"`
		Category string `json:"category"`
		By       string `json:"by"`
		NoFlags  bool   `json:"no_flags"`
		Rows     []struct {
			Name     string `json:"name"`
			Company  string `json:"company"`
			Title    string `json:"title"`
			Persona  string `json:"persona"`
			Email    string `json:"email"`
			Phone    string `json:"phone"`
			LinkedIn string `json:"linkedin"`
			Country  string `json:"country"`
			Industry string `json:"industry"`
		} `json:"rows"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Rows) == 0 {
		writeError(w, http.StatusBadRequest, "rows is required")
		return
	}
	source := model.SourceType(req.Source)
	if req.Source == "" {
		source = model.SourceCSVUpload
	}
	if !source.Valid() {
		writeError(w, http.StatusBadRequest, "unknown source type")
		return
	}

	rows := make([]inventory.Row, len(req.Rows))
	for i, in := range req.Rows {
		rows[i] = inventory.Row{
			FullName: in.Name,
			Company:  in.Company,
			Title:    in.Title,
			Persona:  in.Persona,
			Email:    in.Email,
			Phone:    in.Phone,
			LinkedIn: in.LinkedIn,
			Country:  in.Country,
			Industry: in.Industry,
		}
	}
	importer := inventory.NewImporter(env.repo, env.detector)
	res, err := importer.Import(r.Context(), tenantFrom(r), rows, inventory.ImportOptions{
		Source:      source,
		EventName:   req.Event,
		EventURL:    req.EventURL,
		Category:    req.Category,
		EnrichedBy:  req.By,
		DetectFlags: !req.NoFlags,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (env *serverEnv) handleExport(w http.ResponseWriter, r *http.Request) {
	records, err := env.store.ExportLeads(r.Context(), tenantFrom(r), nil)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": records, "count": len(records)})
}

func (env *serverEnv) handleReject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
		Note   string `json:"note"`
		By     string `json:"by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	reason := model.RejectReason(req.Reason)
	if !reason.Valid() {
		writeError(w, http.StatusBadRequest, "unknown reject reason")
		return
	}
	if err := env.repo.Reject(r.Context(), tenantFrom(r), chi.URLParam(r, "id"), reason, req.Note, req.By); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (env *serverEnv) handleDetect(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)
	lists, err := env.detector.LoadLists(r.Context(), tenant)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	leads, err := env.store.ListLeadDetails(r.Context(), tenant)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	flagged := 0
	for i := range leads {
		flagged += len(env.detector.Detect(r.Context(), &leads[i].Lead, leads[i].Email, leads[i].CompanyName, lists))
	}
	writeJSON(w, http.StatusOK, map[string]int{"leads": len(leads), "new_flags": flagged})
}

func (env *serverEnv) handleListFlags(w http.ResponseWriter, r *http.Request) {
	entries, err := env.store.ListUnresolvedFlags(r.Context(), tenantFrom(r), r.URL.Query().Get("lead_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"flags": entries, "count": len(entries)})
}

func (env *serverEnv) handleFlagSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := env.store.FlagSummary(r.Context(), tenantFrom(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (env *serverEnv) handleResolveFlag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		By      string `json:"by"`
		Note    string `json:"note"`
		NoLearn bool   `json:"no_learn"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.By == "" {
		writeError(w, http.StatusBadRequest, "by is required")
		return
	}
	if err := env.resolver.Resolve(r.Context(), tenantFrom(r), chi.URLParam(r, "id"), req.By, req.Note, !req.NoLearn); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

func (env *serverEnv) handleRecordUsage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LeadID     string `json:"lead_id"`
		ClientID   string `json:"client_id"`
		CampaignID string `json:"campaign_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.LeadID == "" || req.ClientID == "" {
		writeError(w, http.StatusBadRequest, "lead_id and client_id are required")
		return
	}
	reused, err := env.ledger.Record(r.Context(), tenantFrom(r), req.LeadID, req.ClientID, req.CampaignID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"already_recorded": reused})
}

func (env *serverEnv) handleCheckUsage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID string   `json:"client_id"`
		LeadIDs  []string `json:"lead_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ClientID == "" {
		writeError(w, http.StatusBadRequest, "client_id is required")
		return
	}
	report, err := env.ledger.Conflicts(r.Context(), tenantFrom(r), req.ClientID, req.LeadIDs)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case eris.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case eris.Is(err, store.ErrMissingTenant):
		writeError(w, http.StatusBadRequest, "tenant is required")
	case eris.Is(err, inventory.ErrSkippedRow):
		writeError(w, http.StatusUnprocessableEntity, "row cannot be normalized")
	default:
		zap.L().Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
