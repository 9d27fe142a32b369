// Package chi exposes property search and ingestion over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/propsales/internal/domain"
	"github.com/kailas-cloud/propsales/internal/domain/period"
	domprop "github.com/kailas-cloud/propsales/internal/domain/property"
	"github.com/kailas-cloud/propsales/internal/domain/search/query"
	logpkg "github.com/kailas-cloud/propsales/internal/logger"
	"github.com/kailas-cloud/propsales/internal/metrics"
	healthuc "github.com/kailas-cloud/propsales/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/propsales/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/propsales/internal/usecase/search"
)

// Searcher answers property searches.
type Searcher interface {
	Search(ctx context.Context, p query.Params) (searchuc.Page, error)
}

// Ingester runs one ingestion for a period.
type Ingester interface {
	Run(ctx context.Context, p period.Period) (ingestuc.Outcome, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers.
type Server struct {
	search Searcher
	ingest Ingester
	health HealthChecker
	logger *zap.Logger
	now    func() time.Time
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, ingest Ingester, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		search: search,
		ingest: ingest,
		health: health,
		logger: logger,
		now:    time.Now,
	}
}

// Router mounts every route with the standard middleware chain. Only
// /private routes require a bearer token.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/public/properties", s.SearchProperties)
	r.Route("/private", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiKeys))
		r.Get("/download", s.Download)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})
	return r
}

// SearchProperties handles GET /public/properties.
func (s *Server) SearchProperties(w http.ResponseWriter, r *http.Request) {
	params, err := searchParamsFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	res, err := s.search.Search(r.Context(), params)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, ve.Error())
			return
		}
		logpkg.FromContext(r.Context()).Error("search failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, genericErrorMessage)
		return
	}

	writeJSON(w, http.StatusOK, searchPageToResponse(&res))
}

// Download handles GET /private/download. date (YYYY-MM-DD) picks the month
// to ingest and defaults to the current one.
func (s *Server) Download(w http.ResponseWriter, r *http.Request) {
	p := period.Of(s.now().UTC())
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		t, err := time.Parse(query.DateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
				fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", raw))
			return
		}
		p = period.Of(t)
	}

	out, err := s.ingest.Run(r.Context(), p)
	if err != nil {
		logpkg.FromContext(r.Context()).Error("ingestion failed",
			zap.String("period", p.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrorCodeIngestFailed, ingestFailureMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, DownloadResponse{
		DownloadURL:      out.SourceURL,
		NumRowsInserted:  out.RowsInserted,
		TotalTimeSeconds: out.Elapsed.Seconds(),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// ingestFailureMessage names the failed stage without leaking store or
// network detail.
func ingestFailureMessage(err error) string {
	var se *domain.StageError
	if !errors.As(err, &se) {
		return genericErrorMessage
	}
	msg := "ingestion failed at " + string(se.Stage) + " stage"

	var pe *domain.ParseError
	var ie *domain.InsertError
	switch {
	case errors.As(err, &pe):
		msg += ": " + pe.Error()
	case errors.As(err, &ie):
		msg += " after " + strconv.Itoa(ie.Inserted) + " rows"
	}
	return msg
}

func searchParamsFromQuery(r *http.Request) (query.Params, error) {
	q := r.URL.Query()
	p := query.NewParams()

	p.Address = optionalString(q.Get("address"))
	p.County = optionalString(q.Get("county"))
	p.StartDate = optionalString(q.Get("start_date"))
	p.EndDate = optionalString(q.Get("end_date"))

	var err error
	if p.MinPrice, err = optionalFloat(q, "min_price"); err != nil {
		return p, err
	}
	if p.MaxPrice, err = optionalFloat(q, "max_price"); err != nil {
		return p, err
	}
	if p.IsSecondHand, err = optionalBool(q, "is_second_hand"); err != nil {
		return p, err
	}

	desc, err := optionalBool(q, "is_descending")
	if err != nil {
		return p, err
	}
	if desc != nil {
		p.Descending = *desc
	}

	if raw := q.Get("page_num"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, domain.NewValidationError("page_num", raw, errors.New("must be an integer"))
		}
		p.PageNum = n
	}
	return p, nil
}

func optionalString(raw string) *string {
	if raw == "" {
		return nil
	}
	return &raw
}

func optionalFloat(q url.Values, key string) (*float64, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, domain.NewValidationError(key, raw, errors.New("must be a number"))
	}
	return &v, nil
}

func optionalBool(q url.Values, key string) (*bool, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, domain.NewValidationError(key, raw, errors.New("must be true or false"))
	}
	return &v, nil
}

func searchPageToResponse(p *searchuc.Page) SearchResponse {
	results := make([]PropertyResponse, len(p.Results))
	for i := range p.Results {
		results[i] = propertyToResponse(&p.Results[i])
	}
	return SearchResponse{
		TotalNumDocuments:    p.Meta.Total,
		HasNextPage:          p.Meta.HasNext,
		NextPageNum:          p.Meta.NextPage,
		NumDocumentsReturned: len(results),
		Results:              results,
	}
}

func propertyToResponse(r *domprop.Result) PropertyResponse {
	return PropertyResponse{
		SaleDate:                r.SaleDate,
		Address:                 r.Address,
		County:                  r.County,
		Eircode:                 r.Eircode,
		Price:                   r.Price,
		IsFullMarketPrice:       r.IsFullMarketPrice,
		VATExclusive:            r.VATExclusive,
		PropertySizeDescription: r.PropertySizeDescription,
		IsSecondHand:            r.IsSecondHand,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
