// Package api serves the catalog and the import trigger as JSON over HTTP.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapio"

	"github.com/ib-77/cellarfeed/pkg/catalog"
	"github.com/ib-77/cellarfeed/pkg/importer"
)

// Imports starts and looks up import runs.
type Imports interface {
	Start() (*importer.Run, error)
	Get(id uuid.UUID) (*importer.Run, bool)
}

type options struct {
	logger   *zap.Logger
	gatherer prometheus.Gatherer
	origins  []string
}

type Option func(*options)

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithGatherer serves g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(o *options) {
		o.gatherer = g
	}
}

// WithAllowedOrigins enables CORS for the given origins.
func WithAllowedOrigins(origins []string) Option {
	return func(o *options) {
		o.origins = origins
	}
}

func Handler(svc *catalog.Service, imports Imports, opts ...Option) http.Handler {
	o := options{
		logger:   zap.NewNop(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &server{
		catalog: svc,
		imports: imports,
		logger:  o.logger,
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.getHealth).Methods("GET").Name("GetHealth")
	router.Handle("/metrics", promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{})).Methods("GET").Name("GetMetrics")

	router.HandleFunc("/producers", s.postProducers).Methods("POST").Name("PostProducers")
	router.HandleFunc("/producers/{id}/products", s.getProducerProducts).Methods("GET").Name("GetProducerProducts")
	router.HandleFunc("/products", s.postProducts).Methods("POST").Name("PostProducts")
	router.HandleFunc("/products", s.deleteProducts).Methods("DELETE").Name("DeleteProducts")
	router.HandleFunc("/products/{id}", s.getProduct).Methods("GET").Name("GetProduct")
	router.HandleFunc("/products/{id}", s.patchProduct).Methods("PATCH").Name("PatchProduct")

	router.HandleFunc("/imports", s.postImport).Methods("POST").Name("PostImport")
	router.HandleFunc("/imports/{id}", s.getImport).Methods("GET").Name("GetImport")

	var h http.Handler = router
	if len(o.origins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(o.origins),
			handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE"}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
		)(h)
	}
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(zap.NewStdLog(o.logger)))(h)
	return handlers.CombinedLoggingHandler(&zapio.Writer{Log: o.logger, Level: zap.DebugLevel}, h)
}

type server struct {
	catalog *catalog.Service
	imports Imports
	logger  *zap.Logger
}

// ProductOutput is a product with its producer resolved.
type ProductOutput struct {
	catalog.Product
	Producer *catalog.Producer `json:"producer,omitempty"`
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

// GET /health
func (s *server) getHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// POST /producers
func (s *server) postProducers(w http.ResponseWriter, r *http.Request) {
	var in []catalog.ProducerInput
	if !s.decode(w, r, &in) {
		return
	}

	out := make([]catalog.Producer, 0, len(in))
	for _, p := range in {
		created, err := s.catalog.AddProducer(r.Context(), p)
		if err != nil {
			s.fail(w, err)
			return
		}
		out = append(out, created)
	}
	s.respond(w, http.StatusOK, out)
}

// GET /producers/{id}/products
func (s *server) getProducerProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	products, err := s.catalog.ProductsByProducer(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	producer, ok, err := s.catalog.GetProducer(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}

	out := make([]ProductOutput, 0, len(products))
	for _, p := range products {
		po := ProductOutput{Product: p}
		if ok {
			po.Producer = &producer
		}
		out = append(out, po)
	}
	s.respond(w, http.StatusOK, out)
}

// POST /products
func (s *server) postProducts(w http.ResponseWriter, r *http.Request) {
	var in []catalog.ProductInput
	if !s.decode(w, r, &in) {
		return
	}

	out := make([]ProductOutput, 0, len(in))
	for _, p := range in {
		created, err := s.catalog.AddProduct(r.Context(), p)
		if err != nil {
			s.fail(w, err)
			return
		}
		full, err := s.withProducer(r, created)
		if err != nil {
			s.fail(w, err)
			return
		}
		out = append(out, full)
	}
	s.respond(w, http.StatusOK, out)
}

// GET /products/{id}
func (s *server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	p, err := s.catalog.RequireProduct(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	full, err := s.withProducer(r, p)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, full)
}

// PATCH /products/{id}
func (s *server) patchProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var u catalog.ProductUpdate
	if !s.decode(w, r, &u) {
		return
	}

	p, err := s.catalog.UpdateProduct(r.Context(), id, u)
	if err != nil {
		s.fail(w, err)
		return
	}
	full, err := s.withProducer(r, p)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, full)
}

// DELETE /products
func (s *server) deleteProducts(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if !s.decode(w, r, &req) {
		return
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.badRequest(w, errors.Wrapf(err, "id %q", raw))
			return
		}
		ids = append(ids, id)
	}

	for _, id := range ids {
		if err := s.catalog.RemoveProduct(r.Context(), id); err != nil {
			s.fail(w, err)
			return
		}
	}
	s.respond(w, http.StatusOK, true)
}

// POST /imports
func (s *server) postImport(w http.ResponseWriter, r *http.Request) {
	run, err := s.imports.Start()
	switch {
	case errors.Is(err, importer.ErrRunInProgress):
		s.respond(w, http.StatusConflict, run.Snapshot())
	case err != nil:
		s.fail(w, err)
	default:
		s.respond(w, http.StatusAccepted, run.Snapshot())
	}
}

// GET /imports/{id}
func (s *server) getImport(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	run, ok := s.imports.Get(id)
	if !ok {
		s.fail(w, errors.Wrapf(catalog.ErrNotFound, "import %s", id))
		return
	}
	s.respond(w, http.StatusOK, run.Snapshot())
}

func (s *server) withProducer(r *http.Request, p catalog.Product) (ProductOutput, error) {
	producer, ok, err := s.catalog.GetProducer(r.Context(), p.ProducerID)
	if err != nil {
		return ProductOutput{}, err
	}
	out := ProductOutput{Product: p}
	if ok {
		out.Producer = &producer
	}
	return out, nil
}

func (s *server) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		s.badRequest(w, errors.Wrapf(err, "id %q", raw))
		return uuid.Nil, false
	}
	return id, true
}

func (s *server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.badRequest(w, errors.Wrap(err, "decoding body"))
		return false
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) badRequest(w http.ResponseWriter, err error) {
	s.respond(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func (s *server) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		s.respond(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	s.logger.Error("request failed", zap.Error(err))
	s.respond(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func (s *server) respond(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("writing response", zap.Error(err))
	}
}
