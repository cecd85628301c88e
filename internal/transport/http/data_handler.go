package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"travelcli/pkg/contracts/domain"
)

// DataHandler serves the merged dataset's read-only endpoints.
type DataHandler struct {
	service DataService
	logger  *slog.Logger
}

// NewDataHandler creates a data handler.
func NewDataHandler(service DataService, logger *slog.Logger) *DataHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataHandler{
		service: service,
		logger:  logger.With(slog.String("component", "data_handler")),
	}
}

// Routes returns the data routes.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/summary", h.GetSummary)
	r.Get("/records", h.GetRecords)
	r.Get("/months", h.GetMonths)
	r.Get("/roster", h.GetRoster)

	return r
}

// Router assembles the full application router.
func Router(service DataService, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		render.Status(req, http.StatusOK)
		render.JSON(w, req, map[string]string{"status": "ok"})
	})

	r.Mount("/api/data", NewDataHandler(service, logger).Routes())

	return r
}

// GetSummary handles GET /api/data/summary.
func (h *DataHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.service.Dataset(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"lastUpdate": dataset.LastUpdate,
		"months":     dataset.Months,
		"sources":    dataset.Sources,
		"summary":    dataset.Summary,
	})
}

// GetRecords handles GET /api/data/records. Records can be narrowed by the
// dept, type, month, employee and source query parameters; multiple
// parameters intersect. Filtering walks the inverted indexes rather than
// the record list.
func (h *DataHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.service.Dataset(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	positions, filtered := filterPositions(dataset, r.URL.Query())

	records := dataset.Records
	if filtered {
		records = make([]domain.TravelRecord, 0, len(positions))
		for _, p := range positions {
			records = append(records, dataset.Records[p])
		}
	}
	if records == nil {
		records = []domain.TravelRecord{}
	}

	render.JSON(w, r, map[string]interface{}{
		"total":   len(records),
		"records": records,
	})
}

// GetMonths handles GET /api/data/months.
func (h *DataHandler) GetMonths(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.service.Dataset(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"months": dataset.Months,
	})
}

// GetRoster handles GET /api/data/roster.
func (h *DataHandler) GetRoster(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.service.Dataset(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	roster := dataset.Roster
	if roster == nil {
		roster = domain.NewEmployeeIndex()
	}
	render.JSON(w, r, roster)
}

func (h *DataHandler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "dataset unavailable",
		slog.String("error", err.Error()))
	render.Status(r, http.StatusServiceUnavailable)
	render.JSON(w, r, map[string]string{"error": "dataset not available"})
}
