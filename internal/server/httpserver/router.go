package httpserver

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/yndnr/ledgerd/internal/core/domain"
	"github.com/yndnr/ledgerd/internal/infra/buildinfo"
)

// Ledger is what the admin endpoints read from the ledger.
type Ledger interface {
	Count() int
	Export(w io.Writer) (int, error)
}

// Pinger checks the cache backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig holds the dependencies of the admin routes.
type RouterConfig struct {
	Ledger  Ledger
	Cache   Pinger
	Metrics http.Handler
	Logger  *slog.Logger

	// AllowList guards the export route. See NetworkACL.
	AllowList []string

	// PingTimeout bounds the cache check of /healthz. Defaults to 2s.
	PingTimeout time.Duration
}

// NewRouter builds the admin handler.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 2 * time.Second
	}

	h := &handlers{cfg: cfg}
	common := []Middleware{RequestID(), AccessLog(cfg.Logger), Recover(cfg.Logger)}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", Chain(http.HandlerFunc(h.health), common...))
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics, common...))
	}
	mux.Handle("GET /v1/accounts/export", Chain(http.HandlerFunc(h.export),
		append(common, NetworkACL(cfg.AllowList, cfg.Logger))...))

	return mux
}

type handlers struct {
	cfg RouterConfig
}

type healthResponse struct {
	Status   string         `json:"status"`
	Cache    string         `json:"cache"`
	Accounts int            `json:"accounts"`
	Build    buildinfo.Info `json:"build"`
	Time     string         `json:"time"`
}

// health reports 503 when the cache is unreachable. The ledger keeps
// serving from memory in that case, so the body still carries the count.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Cache:    "ok",
		Accounts: h.cfg.Ledger.Count(),
		Build:    buildinfo.Get(),
		Time:     time.Now().UTC().Format(time.RFC3339),
	}

	status := http.StatusOK
	if h.cfg.Cache != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.cfg.PingTimeout)
		defer cancel()
		if err := h.cfg.Cache.Ping(ctx); err != nil {
			h.cfg.Logger.Warn("health check: cache unreachable", "error", err)
			resp.Status = "degraded"
			resp.Cache = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, resp)
}

func (h *handlers) export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	count, err := h.cfg.Ledger.Export(&buf)
	if err != nil {
		h.cfg.Logger.Error("export failed", "error", err)
		writeError(w, http.StatusInternalServerError, domain.ErrInternal.WithDetails("export failed"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="accounts.json"`)
	w.Header().Set("X-Account-Count", strconv.Itoa(count))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
