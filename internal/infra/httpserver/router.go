package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	appai "github.com/bryanwahyu/decision-ledger/internal/application/ai"
	appscans "github.com/bryanwahyu/decision-ledger/internal/application/scans"
	domai "github.com/bryanwahyu/decision-ledger/internal/domain/ai"
	"github.com/bryanwahyu/decision-ledger/internal/domain/findings"
	domain "github.com/bryanwahyu/decision-ledger/internal/domain/scans"
	"github.com/bryanwahyu/decision-ledger/internal/infra/tabular"
	"github.com/bryanwahyu/decision-ledger/internal/middleware"
)

// Options configures the HTTP surface around the scan service.
type Options struct {
	APIKey      string
	CORSOrigins []string
	RateLimit   int // scan requests per minute per client, 0 disables
	MaxUploadMB int
	Metrics     *middleware.Metrics
	Health      map[string]middleware.HealthChecker
}

type Router struct {
	scansSvc  *appscans.Service
	maxUpload int64
}

var errNotFound = errors.New("not found")

// badRequest marks client input errors.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

func NewRouter(scansSvc *appscans.Service, opts Options) http.Handler {
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = 10
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	r := &Router{scansSvc: scansSvc, maxUpload: int64(opts.MaxUploadMB) << 20}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID, chimw.Recoverer)
	if opts.Metrics != nil {
		mux.Use(opts.Metrics.Middleware)
	}
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/healthz", middleware.HealthHandler(opts.Health))
	if opts.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	mux.Route("/v1", func(rt chi.Router) {
		rt.Use(middleware.APIKeyAuth(opts.APIKey))
		rt.Use(middleware.MaxBodySize(opts.MaxUploadMB))

		rt.Group(func(scan chi.Router) {
			scan.Use(middleware.RateLimitMiddleware(opts.RateLimit))
			scan.Post("/scans", r.wrap(r.handleRunAll))
			scan.Post("/scans/{kind}", r.wrap(r.handleRun))
			scan.Post("/scans/{kind}/stream", r.wrap(r.handleRunStream))
		})

		rt.Get("/scans/{kind}", r.wrap(r.handleLatest))
		rt.Get("/dashboard", r.wrap(r.handleDashboard))
		rt.Post("/findings/{id}/toggle", r.wrap(r.handleToggle))
		rt.Delete("/resolved", r.wrap(r.handleClearResolved))
		rt.Get("/export.pdf", r.wrap(r.handleExport))
		rt.Post("/parse/{kind}", r.wrap(r.handleParse))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status := statusFor(err)
			if status >= 500 {
				log.Error().Err(err).Str("path", req.URL.Path).Msg("request failed")
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
		}
	}
}

func statusFor(err error) int {
	var br badRequest
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, errNotFound), errors.Is(err, findings.ErrUnknownFinding):
		return http.StatusNotFound
	case errors.Is(err, domai.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &br),
		errors.Is(err, domain.ErrUnknownKind),
		errors.Is(err, domain.ErrNoInput),
		errors.Is(err, tabular.ErrEmptySheet):
		return http.StatusBadRequest
	case errors.Is(err, domai.ErrUpstream), errors.Is(err, domai.ErrEmptyResponse):
		return http.StatusBadGateway
	case errors.Is(err, appai.ErrNoLiveClient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// scanInput is the JSON body of the scan routes.
type scanInput struct {
	Text   string         `json:"text"`
	Tables []domain.Table `json:"tables"`
	Mode   string         `json:"mode"`
}

// decodeScan reads a JSON body or a multipart form with CSV "file" parts,
// a "text" field and a "mode" field. ?mode= overrides both.
func (r *Router) decodeScan(req *http.Request, kind domai.Kind) (appscans.RunCommand, error) {
	var in scanInput
	ct, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	switch ct {
	case "multipart/form-data":
		if err := req.ParseMultipartForm(r.maxUpload); err != nil {
			return appscans.RunCommand{}, badRequest{fmt.Errorf("invalid multipart body: %w", err)}
		}
		in.Text = req.FormValue("text")
		in.Mode = req.FormValue("mode")
		for _, fh := range req.MultipartForm.File["file"] {
			f, err := fh.Open()
			if err != nil {
				return appscans.RunCommand{}, err
			}
			t, err := tabular.DecodeCSV(fh.Filename, f)
			f.Close()
			if err != nil {
				return appscans.RunCommand{}, badRequest{err}
			}
			in.Tables = append(in.Tables, t)
		}
	default:
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return appscans.RunCommand{}, err
			}
			return appscans.RunCommand{}, badRequest{fmt.Errorf("invalid JSON body: %w", err)}
		}
	}
	if q := req.URL.Query().Get("mode"); q != "" {
		in.Mode = q
	}
	mode, err := middleware.ValidateMode(in.Mode)
	if err != nil {
		return appscans.RunCommand{}, badRequest{err}
	}
	return appscans.RunCommand{Kind: kind, Text: middleware.SanitizeString(in.Text), Tables: in.Tables, Mode: mode}, nil
}

func kindParam(req *http.Request) (domai.Kind, error) {
	return middleware.ValidateKind(chi.URLParam(req, "kind"))
}

// POST /v1/scans/{kind}
func (r *Router) handleRun(w http.ResponseWriter, req *http.Request) error {
	kind, err := kindParam(req)
	if err != nil {
		return err
	}
	cmd, err := r.decodeScan(req, kind)
	if err != nil {
		return err
	}
	res, err := r.scansSvc.Run(req.Context(), cmd)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

// POST /v1/scans
func (r *Router) handleRunAll(w http.ResponseWriter, req *http.Request) error {
	cmd, err := r.decodeScan(req, "")
	if err != nil {
		return err
	}
	results, err := r.scansSvc.RunAll(req.Context(), cmd)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
	return nil
}

// POST /v1/scans/{kind}/stream
// Response is text/event-stream: "delta" events carry JSON-encoded text
// chunks, then one "result" or "error" event closes the stream.
func (r *Router) handleRunStream(w http.ResponseWriter, req *http.Request) error {
	kind, err := kindParam(req)
	if err != nil {
		return err
	}
	cmd, err := r.decodeScan(req, kind)
	if err != nil {
		return err
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		return errors.New("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	res, err := r.scansSvc.RunStream(req.Context(), cmd, func(delta string) {
		writeEvent(w, "delta", delta)
		flusher.Flush()
	})
	if err != nil {
		writeEvent(w, "error", map[string]any{"error": err.Error(), "status": statusFor(err)})
	} else {
		writeEvent(w, "result", res)
	}
	flusher.Flush()
	return nil
}

func writeEvent(w http.ResponseWriter, event string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		b = []byte(`{"error":"encode failed"}`)
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b)
}

// GET /v1/scans/{kind}
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	kind, err := kindParam(req)
	if err != nil {
		return err
	}
	scan, err := r.scansSvc.Latest(req.Context(), kind)
	if err != nil {
		return err
	}
	if scan == nil {
		return fmt.Errorf("%w: no %s scan yet", errNotFound, kind)
	}
	writeJSON(w, http.StatusOK, appscans.Result{Scan: scan, Structured: scan.Structured()})
	return nil
}

// GET /v1/dashboard
func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) error {
	d, err := r.scansSvc.Dashboard(req.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, d)
	return nil
}

// POST /v1/findings/{id}/toggle
func (r *Router) handleToggle(w http.ResponseWriter, req *http.Request) error {
	id, err := middleware.ValidateFindingID(chi.URLParam(req, "id"))
	if err != nil {
		return badRequest{err}
	}
	resolved, err := r.scansSvc.ToggleResolved(req.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "resolved": resolved})
	return nil
}

// DELETE /v1/resolved
func (r *Router) handleClearResolved(w http.ResponseWriter, req *http.Request) error {
	if err := r.scansSvc.ClearResolved(req.Context()); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/export.pdf
func (r *Router) handleExport(w http.ResponseWriter, req *http.Request) error {
	out, err := r.scansSvc.ExportPDF(req.Context())
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="decision-ledger.pdf"`)
	_, err = w.Write(out)
	return err
}

// POST /v1/parse/{kind}
// Body: {"text": "...", "resolved": [1,3]} or the raw response as text/plain.
func (r *Router) handleParse(w http.ResponseWriter, req *http.Request) error {
	kind, err := kindParam(req)
	if err != nil {
		return err
	}
	var body struct {
		Text     string `json:"text"`
		Resolved []int  `json:"resolved"`
	}
	if ct, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type")); strings.HasPrefix(ct, "text/") {
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			return err
		}
		body.Text = string(raw)
	} else if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest{fmt.Errorf("invalid JSON body: %w", err)}
	}

	res, err := appscans.Parse(kind, body.Text, findings.NewResolvedSet(body.Resolved...))
	if err != nil {
		return badRequest{err}
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}
