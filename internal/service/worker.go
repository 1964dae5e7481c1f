package service

import (
	"cmp"
	"context"
	"time"

	"github.com/hktouw/formtree/internal/config"
	"github.com/hktouw/formtree/internal/logging"
	"github.com/hktouw/formtree/internal/metrics"
)

var (
	defaultInterval = 30 * time.Second
	errorInterval   = 10 * time.Second
)

type ReloadState int

const (
	ReloadPending ReloadState = iota
	ReloadChanged
	ReloadUnchanged
	ReloadFailed
)

func (s ReloadState) String() string {
	switch s {
	case ReloadChanged:
		return "changed"
	case ReloadUnchanged:
		return "unchanged"
	case ReloadFailed:
		return "failed"
	default:
		return "pending"
	}
}

type Status struct {
	State   ReloadState
	Message string
}

// LoadFunc reads the catalog from its sources.
type LoadFunc func(ctx context.Context) (*config.Root, error)

// CatalogWorker reloads the catalog of a service. It is meant to run as a
// task on a deadline pool: each Execute reloads once, swaps the catalog when
// it changed, and returns when it wants to run next.
type CatalogWorker struct {
	service    *Service
	load       LoadFunc
	onChange   func(ctx context.Context, root *config.Root)
	warm       bool
	singleShot bool
	interval   time.Duration
	log        *logging.Logger
	status     Status
	loaded     bool
	done       chan struct{}
}

func NewCatalogWorker(s *Service, load LoadFunc, logger *logging.Logger) *CatalogWorker {
	return &CatalogWorker{
		service:  s,
		load:     load,
		log:      logger,
		interval: defaultInterval,
		done:     make(chan struct{}),
	}
}

// WithWarm makes the worker rebuild every target after a change.
func (w *CatalogWorker) WithWarm(warm bool) *CatalogWorker {
	w.warm = warm
	return w
}

func (w *CatalogWorker) WithSingleShot(singleShot bool) *CatalogWorker {
	w.singleShot = singleShot
	return w
}

func (w *CatalogWorker) WithInterval(d time.Duration) *CatalogWorker {
	w.interval = cmp.Or(d, defaultInterval)
	return w
}

// WithOnChange registers fn to be called after each catalog swap.
func (w *CatalogWorker) WithOnChange(fn func(ctx context.Context, root *config.Root)) *CatalogWorker {
	w.onChange = fn
	return w
}

func (w *CatalogWorker) Status() Status {
	return w.status
}

// Done returns a channel closed when the worker has left the pool.
func (w *CatalogWorker) Done() <-chan struct{} {
	return w.done
}

// Execute runs one reload iteration.
func (w *CatalogWorker) Execute(ctx context.Context) time.Time {
	if ctx.Err() != nil {
		return w.die()
	}

	root, err := w.load(ctx)
	if err != nil {
		w.log.Warnf("failed to load catalog: %v", err)
		return w.report(ReloadFailed, err)
	}

	// The first successful load counts as a change even when it matches the
	// service's current catalog, so OnChange always sees it.
	if !w.service.SetCatalog(root) && w.loaded {
		w.log.Debugf("catalog unchanged")
		return w.report(ReloadUnchanged, nil)
	}
	w.loaded = true

	w.log.Infof("catalog changed: %d trees, %d patch sets", len(root.Trees), len(root.PatchSets))

	if w.warm {
		if err := w.service.Warm(ctx); err != nil {
			w.log.Warnf("failed to warm trees: %v", err)
			return w.report(ReloadFailed, err)
		}
	}

	if w.onChange != nil {
		w.onChange(ctx, root)
	}

	return w.report(ReloadChanged, nil)
}

func (w *CatalogWorker) report(state ReloadState, err error) time.Time {
	interval := w.interval
	w.status.State = state
	w.status.Message = ""
	if err != nil {
		interval = min(errorInterval, w.interval) // faster retry on error
		w.status.Message = err.Error()
	}

	metrics.CatalogReload.WithLabelValues(state.String()).Inc()

	if w.singleShot {
		return w.die()
	}

	return time.Now().Add(interval)
}

func (w *CatalogWorker) die() time.Time {
	select {
	case <-w.done:
	default:
		close(w.done)
	}

	var zero time.Time
	return zero
}
