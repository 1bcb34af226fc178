package importer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/cellarfeed/pkg/catalog"
	"github.com/ib-77/cellarfeed/pkg/feed"
	"github.com/ib-77/cellarfeed/pkg/ingest"
)

func feedCSV(n int) string {
	var b strings.Builder
	b.WriteString(strings.Join(feed.Columns, ",") + "\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "2018,Wine %d,Producer %d,France,,Red,6,75cl,120,IB,In stock,,\n", i, i)
	}
	return b.String()
}

type openerFunc func(ctx context.Context, url string) (io.ReadCloser, error)

func (f openerFunc) Open(ctx context.Context, url string) (io.ReadCloser, error) { return f(ctx, url) }

func staticOpener(body string) Opener {
	return openerFunc(func(context.Context, string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(body)), nil
	})
}

// stallingReader blocks until its context ends.
type stallingReader struct{ ctx context.Context }

func (r stallingReader) Read([]byte) (int, error) {
	<-r.ctx.Done()
	return 0, r.ctx.Err()
}

// stallingOpener closes opened on the first Open.
func stallingOpener(opened chan<- struct{}) Opener {
	var once sync.Once
	return openerFunc(func(ctx context.Context, _ string) (io.ReadCloser, error) {
		once.Do(func() { close(opened) })
		return io.NopCloser(stallingReader{ctx: ctx}), nil
	})
}

func waitDone(t *testing.T, run *Run) {
	t.Helper()
	select {
	case <-run.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}
}

func TestImporter_StartCompletes(t *testing.T) {
	store := catalog.NewMemoryStore()
	svc := catalog.NewService(store, nil)
	reg := prometheus.NewRegistry()

	im := New(staticOpener(feedCSV(150)), svc.ImportRecord, WithRegistry(reg))
	run, err := im.Start()
	require.NoError(t, err)
	waitDone(t, run)

	assert.Equal(t, ingest.Completed, run.State())
	assert.NoError(t, run.Err())
	assert.False(t, run.FinishedAt().Before(run.StartedAt()))

	producers, products := store.Counts()
	assert.Equal(t, 150, producers)
	assert.Equal(t, 150, products)

	assert.Equal(t, 1.0, testutil.ToFloat64(im.metrics.runs.WithLabelValues("completed")))
	assert.Equal(t, 150.0, testutil.ToFloat64(im.metrics.persisted))
	assert.Equal(t, 2.0, testutil.ToFloat64(im.metrics.batches))

	got, ok := im.Get(run.ID())
	require.True(t, ok)
	assert.Same(t, run, got)

	_, active := im.Active()
	assert.False(t, active)
}

func TestImporter_SecondStartWhileRunning(t *testing.T) {
	opened := make(chan struct{})
	im := New(stallingOpener(opened), func(context.Context, feed.Record) error { return nil })

	first, err := im.Start()
	require.NoError(t, err)
	<-opened

	second, err := im.Start()
	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.Same(t, first, second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, im.Shutdown(ctx))

	waitDone(t, first)
	assert.Equal(t, ingest.Failed, first.State())
	assert.ErrorIs(t, first.Err(), context.Canceled)

	third, err := im.Start()
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), third.ID())
	require.NoError(t, im.Shutdown(ctx))
}

func TestImporter_OpenFailure(t *testing.T) {
	srcErr := &feed.SourceError{URL: "http://feed", Err: errors.New("status 503")}
	im := New(openerFunc(func(context.Context, string) (io.ReadCloser, error) {
		return nil, srcErr
	}), func(context.Context, feed.Record) error { return nil })

	run, err := im.Start()
	require.NoError(t, err)
	waitDone(t, run)

	assert.Equal(t, ingest.Failed, run.State())
	var se *feed.SourceError
	assert.ErrorAs(t, run.Err(), &se)
	assert.Equal(t, 1.0, testutil.ToFloat64(im.metrics.runs.WithLabelValues("failed")))

	snap := run.Snapshot()
	assert.Equal(t, "failed", snap.State)
	assert.Contains(t, snap.Error, "status 503")
	assert.NotNil(t, snap.FinishedAt)
}

func TestImporter_PersistFailure(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("write refused")
	persist := func(_ context.Context, rec feed.Record) error {
		calls.Add(1)
		if rec.Get(feed.ColProductName) == "Wine 56" {
			return boom
		}
		return nil
	}

	im := New(staticOpener(feedCSV(300)), persist)
	run, err := im.Import(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ingest.Failed, run.State())
	assert.ErrorIs(t, run.Err(), boom)
	var pe *ingest.PersistError
	require.ErrorAs(t, run.Err(), &pe)
	assert.Equal(t, 57, pe.Position)
	assert.Equal(t, int32(100), calls.Load())
}

func TestImporter_ImportCancelled(t *testing.T) {
	opened := make(chan struct{})
	im := New(stallingOpener(opened), func(context.Context, feed.Record) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-opened
		cancel()
	}()

	run, err := im.Import(ctx)
	require.NoError(t, err)
	assert.Equal(t, ingest.Failed, run.State())
	assert.ErrorIs(t, run.Err(), context.Canceled)
}

func TestImporter_GetUnknown(t *testing.T) {
	im := New(staticOpener(""), func(context.Context, feed.Record) error { return nil })

	_, ok := im.Get(uuid.New())
	assert.False(t, ok)
}

func TestImporter_ShutdownIdle(t *testing.T) {
	im := New(staticOpener(""), func(context.Context, feed.Record) error { return nil })

	assert.NoError(t, im.Shutdown(context.Background()))
}

func TestRun_SnapshotBeforeStart(t *testing.T) {
	run := newRun()

	snap := run.Snapshot()
	assert.Equal(t, "idle", snap.State)
	assert.Nil(t, snap.StartedAt)
	assert.Nil(t, snap.FinishedAt)
	assert.Empty(t, snap.Error)

	require.True(t, run.start())
	assert.False(t, run.start())
	assert.True(t, run.finish(ingest.Outcome{State: ingest.Completed}))
	assert.False(t, run.finish(ingest.Outcome{State: ingest.Failed, Err: errors.New("late")}))
	assert.Equal(t, ingest.Completed, run.State())
	assert.NoError(t, run.Err())
}

func TestImporter_ShutdownCancelsActiveRun(t *testing.T) {
	persisting := make(chan struct{})
	var once sync.Once
	persist := func(ctx context.Context, _ feed.Record) error {
		once.Do(func() { close(persisting) })
		<-ctx.Done()
		return ctx.Err()
	}

	im := New(staticOpener(feedCSV(10)), persist)
	run, err := im.Start()
	require.NoError(t, err)

	select {
	case <-persisting:
	case <-time.After(5 * time.Second):
		t.Fatal("persist was never called")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, im.Shutdown(ctx))

	select {
	case <-run.Done():
	default:
		t.Fatal("run not finished after Shutdown returned")
	}
	assert.Equal(t, ingest.Failed, run.State())
	assert.ErrorIs(t, run.Err(), context.Canceled)

	_, active := im.Active()
	assert.False(t, active)
}

func TestImporter_RetainsRecentRuns(t *testing.T) {
	im := New(staticOpener(feedCSV(1)), func(context.Context, feed.Record) error { return nil },
		WithRetention(2))

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		run, err := im.Import(context.Background())
		require.NoError(t, err)
		require.Equal(t, ingest.Completed, run.State())
		ids = append(ids, run.ID())
	}

	_, ok := im.Get(ids[0])
	assert.False(t, ok)
	for _, id := range ids[1:] {
		_, ok := im.Get(id)
		assert.True(t, ok)
	}
}

func TestImporter_RetentionKeepsActiveRun(t *testing.T) {
	opened := make(chan struct{})
	im := New(stallingOpener(opened), func(context.Context, feed.Record) error { return nil },
		WithRetention(1))

	run, err := im.Start()
	require.NoError(t, err)
	<-opened

	im.mu.Lock()
	im.evict()
	im.mu.Unlock()

	got, ok := im.Get(run.ID())
	require.True(t, ok)
	assert.Same(t, run, got)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, im.Shutdown(ctx))
}
