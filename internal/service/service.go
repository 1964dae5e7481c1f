package service

import (
	"context"
	"runtime"
	"slices"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/errgroup"

	"github.com/hktouw/formtree/internal/config"
	"github.com/hktouw/formtree/internal/logging"
	"github.com/hktouw/formtree/internal/metrics"
	"github.com/hktouw/formtree/pkg/tree"
)

const defaultCacheSize = 256

// Service builds patched trees from the current catalog. Built trees are
// immutable, so they are cached per (tree, region) and shared between
// callers until the catalog changes.
type Service struct {
	mu         sync.RWMutex
	root       *config.Root
	generation uint64
	cache      *lru.Cache
	log        *logging.Logger
}

type cacheKey struct {
	generation uint64
	tree       string
	region     tree.RegionKey
}

// Result is a built tree with its application report. Results may be
// shared; callers must not modify the report.
type Result struct {
	Tree   string
	Region tree.RegionKey
	Root   *tree.Node
	Report tree.Report
	Cached bool
}

func New() *Service {
	cache, _ := lru.New(defaultCacheSize)
	return &Service{
		root:  &config.Root{},
		cache: cache,
		log:   logging.NewNoop(),
	}
}

func (s *Service) WithLogger(log *logging.Logger) *Service {
	s.log = log
	return s
}

// WithCacheSize sets the number of built trees kept. Zero disables caching.
func (s *Service) WithCacheSize(n int) *Service {
	s.cache = nil
	if n > 0 {
		s.cache, _ = lru.New(n)
	}
	return s
}

func (s *Service) WithCatalog(root *config.Root) *Service {
	s.SetCatalog(root)
	return s
}

// Catalog returns the current catalog.
func (s *Service) Catalog() *config.Root {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// SetCatalog swaps the catalog and drops cached trees. It reports false and
// keeps the cache when root equals the current catalog.
func (s *Service) SetCatalog(root *config.Root) bool {
	if root == nil {
		root = &config.Root{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.root.Equal(root) {
		return false
	}
	s.root = root
	s.generation++
	if s.cache != nil {
		s.cache.Purge()
	}
	return true
}

func (s *Service) snapshot() (*config.Root, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root, s.generation
}

// BuildTree returns the named tree patched for key.
func (s *Service) BuildTree(ctx context.Context, name string, key tree.RegionKey) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, generation := s.snapshot()
	ck := cacheKey{generation: generation, tree: name, region: key}
	if s.cache != nil {
		if v, ok := s.cache.Get(ck); ok {
			metrics.CacheRequests.WithLabelValues("hit").Inc()
			res := *v.(*Result)
			res.Cached = true
			return &res, nil
		}
		metrics.CacheRequests.WithLabelValues("miss").Inc()
	}

	startTime := time.Now()
	res, err := s.build(root, name, key)
	if err != nil {
		s.log.Warnf("failed to build tree %q for %s: %v", name, key, err)
		metrics.TreeBuildFailure(name)
		return nil, err
	}
	metrics.TreeBuildSucceeded(name, key.String(), len(res.Report.Applied), len(res.Report.Unused), startTime)

	if s.cache != nil {
		s.cache.Add(ck, res)
	}
	return res, nil
}

func (s *Service) build(root *config.Root, name string, key tree.RegionKey) (*Result, error) {
	t, err := root.Tree(name)
	if err != nil {
		return nil, err
	}

	b, err := root.Builder(name, key, func(d tree.Descriptor, err error) {
		s.log.Warnf("tree %q, region %s: skipping patch: %v", name, key, err)
		metrics.PatchSkipped.WithLabelValues(d.RawKind).Inc()
	})
	if err != nil {
		return nil, err
	}

	base, err := t.Base()
	if err != nil {
		return nil, err
	}

	run, err := b.Run(base)
	if err != nil {
		return nil, err
	}

	for _, i := range run.Report.Unused {
		s.log.Debugf("tree %q, region %s: patch %d matched no node", name, key, i)
	}
	s.log.Debugf("tree %q built for %s with %d patch applications", name, key, len(run.Report.Applied))

	return &Result{Tree: name, Region: key, Root: run.Root, Report: run.Report}, nil
}

// BaseTree returns the named tree without any patches.
func (s *Service) BaseTree(ctx context.Context, name string) (*tree.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, _ := s.snapshot()
	t, err := root.Tree(name)
	if err != nil {
		return nil, err
	}
	base, err := t.Base()
	if err != nil {
		return nil, err
	}
	return tree.Materialize(base)
}

// Target is one (tree, region) pair of the catalog.
type Target struct {
	Tree   string
	Region tree.RegionKey
}

// Targets lists every tree with the unspecified region and each region
// registered for it, in tree then region order.
func (s *Service) Targets() ([]Target, error) {
	root, _ := s.snapshot()

	var targets []Target
	for _, t := range root.SortedTrees() {
		reg, err := root.Registry(t.Name)
		if err != nil {
			return nil, err
		}
		regions := reg.Regions()
		if !slices.Contains(regions, tree.Unspecified) {
			regions = append([]tree.RegionKey{tree.Unspecified}, regions...)
		}
		for _, key := range regions {
			targets = append(targets, Target{Tree: t.Name, Region: key})
		}
	}
	return targets, nil
}

// Warm builds every target concurrently and fills the cache. The first
// failure cancels the remaining builds.
func (s *Service) Warm(ctx context.Context) error {
	targets, err := s.Targets()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, target := range targets {
		g.Go(func() error {
			_, err := s.BuildTree(ctx, target.Tree, target.Region)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.log.Debugf("warmed %d trees", len(targets))
	return nil
}
