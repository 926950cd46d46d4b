package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/AngelCh415/crm-dashboard/internal/config"
	"github.com/AngelCh415/crm-dashboard/internal/fields"
	"github.com/AngelCh415/crm-dashboard/internal/models"
	"github.com/AngelCh415/crm-dashboard/internal/store"
	"github.com/AngelCh415/crm-dashboard/internal/telemetry"
	"github.com/AngelCh415/crm-dashboard/internal/utils"
)

// Refresher runs one ETL pass for a filter.
type Refresher interface {
	Run(ctx context.Context, filter models.DateFilter) (*models.Snapshot, error)
}

type handler struct {
	log *slog.Logger
	st  *store.MemoryStore
	etl Refresher
}

func NewRouter(log *slog.Logger, st *store.MemoryStore, etl Refresher, tel *telemetry.Metrics, cfg config.Config) (http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(cfg.RefreshRate)
	if err != nil {
		return nil, fmt.Errorf("refresh rate: %w", err)
	}
	refreshLimit := stdlibmw.NewMiddleware(limiter.New(memory.NewStore(), rate))

	h := &handler{log: log, st: st, etl: etl}

	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", utils.RequestIDHeader},
		ExposedHeaders: []string{utils.RequestIDHeader},
		MaxAge:         300,
	}))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !st.Ready() {
			http.Error(w, string(st.State().Status), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
		w.Write([]byte("ready"))
	})
	mux.Method(http.MethodGet, "/metrics", tel.Handler())

	mux.Get("/dashboard", h.dashboard)
	mux.With(refreshLimit.Handler).Post("/ingest/run", h.refresh)
	mux.Put("/team/{id}/role", h.setRole)
	mux.Get("/goals", h.goals)
	mux.Put("/goals", h.setGoals)

	return mux, nil
}

// dashboard serves the current state. A new filter, a missing snapshot or
// refresh=true triggers a synchronous refresh first.
func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := filterFrom(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if q.Get("refresh") == "true" || !h.st.Ready() || h.st.Filter() != f {
		h.st.SetFilter(f)
		// a client hanging up must not cancel the refresh it started
		if _, err := h.etl.Run(context.WithoutCancel(r.Context()), f); err != nil && !h.st.Ready() {
			writeError(w, http.StatusBadGateway, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, h.st.State())
}

// refresh reruns the ETL with the stored filter, or with the one in the query
// when given.
func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	f := h.st.Filter()
	if q := r.URL.Query(); q.Has("preset") || q.Has("start") || q.Has("end") {
		var err error
		if f, err = filterFrom(q); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		h.st.SetFilter(f)
	}
	if _, err := h.etl.Run(context.WithoutCancel(r.Context()), f); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, h.st.State())
}

type roleRequest struct {
	Role models.Role `json:"role" validate:"required,crm_role"`
}

func (h *handler) setRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req roleRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.st.SetRole(id, req.Role); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.log.Info("role updated", slog.String("member", id), slog.String("role", string(req.Role)), slog.String("rid", utils.RID(r.Context())))
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "role": req.Role})
}

func (h *handler) goals(w http.ResponseWriter, r *http.Request) {
	if g, ok := h.st.Goals(); ok {
		writeJSON(w, http.StatusOK, g)
		return
	}
	if snap := h.st.Snapshot(); snap != nil {
		writeJSON(w, http.StatusOK, snap.Goals)
		return
	}
	http.Error(w, "no goals yet", http.StatusNotFound)
}

// setGoals applies from the next refresh on.
func (h *handler) setGoals(w http.ResponseWriter, r *http.Request) {
	var g models.Goals
	if err := decode(w, r, &g); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.st.SetGoals(g)
	h.log.Info("goals updated", slog.Float64("revenue", g.RevenueTarget), slog.Int("contracts", g.ContractsTarget))
	writeJSON(w, http.StatusOK, g)
}

func filterFrom(q url.Values) (models.DateFilter, error) {
	p, err := models.ParsePreset(q.Get("preset"))
	if err != nil {
		return models.DateFilter{}, err
	}
	start, end := q.Get("start"), q.Get("end")
	for _, d := range []string{start, end} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(fields.DayLayout, d); err != nil {
			return models.DateFilter{}, fmt.Errorf("bad date %q (YYYY-MM-DD)", d)
		}
	}
	if q.Get("preset") == "" && start != "" && end != "" {
		p = models.PresetCustom
	}
	if p == models.PresetCustom && (start == "" || end == "") {
		return models.DateFilter{}, fmt.Errorf("custom preset requires start and end")
	}
	return models.DateFilter{Preset: p, StartDate: start, EndDate: end}, nil
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("bad body: %w", err)
	}
	return config.ValidateStruct(dst)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
