package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aradsms/smsreader/internal/sms_reader_service/app"
	"github.com/aradsms/smsreader/internal/sms_reader_service/domain"
)

const maxBodyBytes = 64 << 10

// Reader is the pipeline driven by the HTTP surface.
type Reader interface {
	Running() bool
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Process(ctx context.Context, msg domain.InboundMessage) (app.ProcessResult, error)
	ClearLogs(ctx context.Context) error
}

// LogReader serves the persisted log.
type LogReader interface {
	GetAll(ctx context.Context) ([]domain.SMSLogEntry, error)
	Cap() int
}

// SampleSource produces simulated messages on demand.
type SampleSource interface {
	Next() domain.InboundMessage
}

type SMSReaderHandler struct {
	reader   Reader
	logs     LogReader
	samples  SampleSource
	source   string
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewSMSReaderHandler creates the handler. source names the active inbound source.
func NewSMSReaderHandler(reader Reader, logs LogReader, samples SampleSource, source string, validate *validator.Validate, logger *slog.Logger) *SMSReaderHandler {
	return &SMSReaderHandler{
		reader:   reader,
		logs:     logs,
		samples:  samples,
		source:   source,
		validate: validate,
		logger:   logger.With("handler", "sms_reader"),
		now:      time.Now,
	}
}

// NewRouter mounts every route. An empty jwtSecret leaves /api/v1 open.
func NewRouter(h *SMSReaderHandler, hub http.Handler, jwtSecret string, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(chi_middleware.RequestID)
	r.Use(chi_middleware.RealIP)
	r.Use(chi_middleware.Recoverer)
	r.Use(PrometheusMetricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	if hub != nil {
		r.Handle("/ws", hub)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(JWTAuthMiddleware(jwtSecret, logger))

		r.Get("/service/status", h.GetStatus)
		r.Post("/service/start", h.StartService)
		r.Post("/service/stop", h.StopService)

		r.Post("/sms/simulate", h.SimulateSMS)
		r.Post("/sms/inbound", h.ReceiveSMS)
		r.Get("/sms/logs", h.ListLogs)
		r.Delete("/sms/logs", h.ClearLogs)
	})
	return r
}

func (h *SMSReaderHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

func (h *SMSReaderHandler) StartService(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, true)
}

func (h *SMSReaderHandler) StopService(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, false)
}

func (h *SMSReaderHandler) toggle(w http.ResponseWriter, r *http.Request, start bool) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var err error
	if start {
		err = h.reader.Start(ctx)
	} else {
		err = h.reader.Stop(ctx)
	}
	if err != nil {
		logger.WarnContext(ctx, "Service toggle aborted", "error", err, "start", start)
		writeError(w, http.StatusServiceUnavailable, "Service toggle aborted")
		return
	}
	writeJSON(w, http.StatusOK, h.status())
}

// SimulateSMS feeds one random sample through the pipeline.
func (h *SMSReaderHandler) SimulateSMS(w http.ResponseWriter, r *http.Request) {
	if !h.reader.Running() {
		writeError(w, http.StatusConflict, domain.ErrServiceStopped.Error())
		return
	}
	h.process(w, r, h.samples.Next())
}

// ReceiveSMS feeds a caller-supplied SMS through the pipeline.
func (h *SMSReaderHandler) ReceiveSMS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to read request body", "error", err)
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	defer r.Body.Close()

	var req InboundSMSRequest
	if err := json.Unmarshal(body, &req); err != nil {
		logger.WarnContext(ctx, "Failed to decode inbound SMS JSON", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		logger.WarnContext(ctx, "Inbound SMS validation failed", "error", err)
		writeError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	h.process(w, r, domain.InboundMessage{
		Sender:     req.Sender,
		Message:    req.Message,
		Source:     app.SourceManual,
		ReceivedAt: h.now(),
	})
}

func (h *SMSReaderHandler) process(w http.ResponseWriter, r *http.Request, msg domain.InboundMessage) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	res, err := h.reader.Process(ctx, msg)
	switch {
	case errors.Is(err, domain.ErrServiceStopped):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, domain.ErrNotPaymentSender):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		logger.ErrorContext(ctx, "Failed to process SMS", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process SMS")
		return
	}

	now := h.now()
	writeJSON(w, http.StatusCreated, ProcessResponse{
		Entry:     newLogEntryView(res.Entry, now),
		Logs:      newLogEntryViews(res.Logs, now),
		WebhookOK: res.NotifyErr == nil,
		Stored:    res.StoreErr == nil,
	})
}

// ListLogs returns the log newest first. Storage errors are logged and served as
// an empty list.
func (h *SMSReaderHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.logs.GetAll(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "Serving empty log after read failure", "error", err,
			"request_id", chi_middleware.GetReqID(ctx))
	}
	writeJSON(w, http.StatusOK, LogsResponse{
		Logs:       newLogEntryViews(entries, h.now()),
		MaxEntries: h.logs.Cap(),
	})
}

func (h *SMSReaderHandler) ClearLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.reader.ClearLogs(ctx); err != nil {
		h.logger.ErrorContext(ctx, "Failed to clear logs", "error", err,
			"request_id", chi_middleware.GetReqID(ctx))
		writeError(w, http.StatusInternalServerError, "Failed to clear logs")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SMSReaderHandler) status() ServiceStatusResponse {
	return ServiceStatusResponse{
		Running:    h.reader.Running(),
		Source:     h.source,
		MaxEntries: h.logs.Cap(),
	}
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, errorResponse{Error: message})
}
