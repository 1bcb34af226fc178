package importer

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ib-77/cellarfeed/pkg/feed"
	"github.com/ib-77/cellarfeed/pkg/ingest"
)

// ErrRunInProgress is returned by Start while another run has not finished.
var ErrRunInProgress = errors.New("import already running")

// Opener opens the feed body. *feed.Client is the production implementation.
type Opener interface {
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// DefaultRetention is the number of runs kept for lookup by id.
const DefaultRetention = 100

type options struct {
	retain   int
	url      string
	logger   *zap.Logger
	registry prometheus.Registerer
}

type Option func(*options)

// WithURL overrides feed.DefaultURL.
func WithURL(url string) Option {
	return func(o *options) {
		o.url = url
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRetention keeps at most n runs for Get. Older finished runs are
// forgotten first; the active run is always kept.
func WithRetention(n int) Option {
	return func(o *options) {
		o.retain = n
	}
}

// WithRegistry registers the importer metrics with reg instead of a private
// registry.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// Importer starts feed imports and keeps their handles. At most one run is
// active at a time.
type Importer struct {
	opener   Opener
	url      string
	retain   int
	logger   *zap.Logger
	metrics  *Metrics
	pipeline *ingest.Pipeline[feed.Record]

	mu     sync.Mutex
	runs   map[uuid.UUID]*Run
	order  []uuid.UUID
	active *Run
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(opener Opener, persist ingest.PersistFunc[feed.Record], opts ...Option) *Importer {
	o := options{
		retain: DefaultRetention,
		url:    feed.DefaultURL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.retain < 1 {
		o.retain = 1
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	metrics := NewMetrics(o.registry)
	return &Importer{
		opener:  opener,
		url:     o.url,
		retain:  o.retain,
		logger:  o.logger,
		metrics: metrics,
		pipeline: ingest.New(persist,
			ingest.WithObserver(metrics),
			ingest.WithLogger(o.logger)),
		runs: make(map[uuid.UUID]*Run),
	}
}

// Start launches a run in the background and returns its handle without
// waiting. If a run is active it is returned together with ErrRunInProgress.
func (im *Importer) Start() (*Run, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if im.active != nil {
		return im.active, ErrRunInProgress
	}

	run, err := im.begin()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	im.active, im.cancel = run, cancel

	im.wg.Add(1)
	go func() {
		defer im.wg.Done()
		defer cancel()
		im.execute(ctx, run)
	}()
	return run, nil
}

// Import runs one import in the calling goroutine and returns when it is
// terminal. Cancelling ctx fails the run.
func (im *Importer) Import(ctx context.Context) (*Run, error) {
	im.mu.Lock()
	if im.active != nil {
		active := im.active
		im.mu.Unlock()
		return active, ErrRunInProgress
	}
	run, err := im.begin()
	if err != nil {
		im.mu.Unlock()
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	im.active, im.cancel = run, cancel
	im.mu.Unlock()

	im.execute(ctx, run)
	return run, nil
}

// begin registers a new running run. Callers hold im.mu.
func (im *Importer) begin() (*Run, error) {
	run := newRun()
	if !run.start() {
		return nil, errors.Errorf("run %s did not start", run.ID())
	}
	im.runs[run.ID()] = run
	im.order = append(im.order, run.ID())
	im.evict()
	return run, nil
}

// evict drops the oldest finished runs beyond the retention. Callers hold
// im.mu.
func (im *Importer) evict() {
	excess := len(im.order) - im.retain
	if excess <= 0 {
		return
	}

	kept := im.order[:0]
	for _, id := range im.order {
		if excess > 0 && im.runs[id].State().Terminal() {
			delete(im.runs, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	im.order = kept
}

func (im *Importer) execute(ctx context.Context, run *Run) {
	log := im.logger.With(zap.Stringer("run", run.ID()))
	log.Info("import started", zap.String("url", im.url))

	outcome := im.importFeed(ctx)
	im.metrics.runFinished(outcome.State)

	// a run is released before Done fires so a new one can start right away
	im.mu.Lock()
	if im.active == run {
		im.active, im.cancel = nil, nil
	}
	im.mu.Unlock()
	run.finish(outcome)

	fields := []zap.Field{
		zap.Stringer("state", outcome.State),
		zap.Duration("elapsed", run.FinishedAt().Sub(run.StartedAt())),
	}
	if outcome.Err != nil {
		log.Error("import failed", append(fields, zap.Error(outcome.Err))...)
		return
	}
	log.Info("import completed", fields...)
}

func (im *Importer) importFeed(ctx context.Context) ingest.Outcome {
	body, err := im.opener.Open(ctx, im.url)
	if err != nil {
		return ingest.Outcome{State: ingest.Failed, Err: err}
	}
	defer body.Close()

	return im.pipeline.Run(ctx, feed.NewDecoder(body).WithURL(im.url).Records())
}

// Get returns the run with the given id, finished ones included.
func (im *Importer) Get(id uuid.UUID) (*Run, bool) {
	im.mu.Lock()
	defer im.mu.Unlock()
	run, ok := im.runs[id]
	return run, ok
}

// Active returns the running run, if any.
func (im *Importer) Active() (*Run, bool) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.active, im.active != nil
}

// Shutdown cancels the active run and waits for background runs to finish or
// for ctx to end.
func (im *Importer) Shutdown(ctx context.Context) error {
	im.mu.Lock()
	if im.cancel != nil {
		im.cancel()
	}
	im.mu.Unlock()

	done := make(chan struct{})
	go func() {
		im.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for import to stop")
	}
}
