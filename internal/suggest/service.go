// Package suggest merges the local destination catalog, the result cache,
// and governed external geocoding lookups into one ranked suggestion list
// with graceful degradation when the outside world misbehaves.
package suggest

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"tripplanner/internal/cache"
	"tripplanner/internal/catalog"
	"tripplanner/internal/governor"
	"tripplanner/internal/models"
	"tripplanner/internal/upstream"
)

// ErrStaleQuery marks a completion that resolved after a newer query was
// issued for the same identity. Its results must not be shown or cached.
var ErrStaleQuery = errors.New("suggestion superseded by a newer query")

const suggestEndpoint = "suggest"

// GeoSearcher is the external lookup collaborator.
type GeoSearcher interface {
	Search(ctx context.Context, query string, limit int, lang string) ([]models.EnhancedResult, error)
}

// Admitter gates external lookups. *governor.Governor satisfies it.
type Admitter interface {
	Admit(identity string, sizeBytes int, endpoint string) governor.Decision
}

// Result is one completed suggestion request.
type Result struct {
	Results   []models.EnhancedResult
	Source    models.ResultSource
	FromCache bool
	Degraded  bool // External lookup failed; results are local-only
	Err       error
}

// Service orchestrates suggestion lookups.
type Service struct {
	cfg     models.SuggestConfig
	catalog *catalog.Catalog
	cache   *cache.ResultCache
	geo     GeoSearcher
	admit   Admitter
	logger  *slog.Logger

	mu  sync.Mutex
	seq map[string]uint64 // Latest issued query sequence per identity
}

func NewService(cfg models.SuggestConfig, cat *catalog.Catalog, resultCache *cache.ResultCache, geo GeoSearcher, admit Admitter, logger *slog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		catalog: cat,
		cache:   resultCache,
		geo:     geo,
		admit:   admit,
		logger:  logger.With("component", "suggest"),
		seq:     make(map[string]uint64),
	}
}

// Suggest resolves one query for one identity.
//
// Short queries get curated top entries, cache hits short-circuit, local
// fuzzy matches are always computed, and the external lookup runs only when
// it is enabled, needed, and admitted by the governor. An external failure
// degrades to local results when possible instead of failing the request.
func (s *Service) Suggest(ctx context.Context, identity string, req models.SuggestRequest) (Result, error) {
	req.Normalize(s.cfg.MaxResults)

	if len([]rune(req.Query)) < s.cfg.MinQueryLength {
		return Result{
			Results: s.catalog.TopByPopularity(req.MaxResults),
			Source:  models.SourceLocal,
		}, nil
	}

	key := cache.Key(req.Query, req.MaxResults)
	if cached, ok := s.cacheGet(key); ok {
		return Result{Results: cached, Source: models.SourceCache, FromCache: true}, nil
	}

	local := s.catalog.Search(req.Query, req.MaxResults)

	if !s.cfg.ExternalLookup || s.geo == nil || len(local) >= req.MaxResults {
		s.cacheSet(key, local)
		return Result{Results: local, Source: models.SourceLocal}, nil
	}

	seq := s.issueSequence(identity)

	external, err := s.lookupExternal(ctx, identity, req)

	// A newer query for the same identity supersedes this one. Stale
	// completions are dropped even when they resolve successfully.
	if !s.sequenceCurrent(identity, seq) {
		return Result{}, ErrStaleQuery
	}

	if err != nil {
		if s.cfg.FallbackToLocal && len(local) > 0 {
			s.logger.Warn("external lookup failed, serving local results",
				"query", req.Query, "error", err)
			s.cacheSet(key, local)
			return Result{Results: local, Source: models.SourceLocal, Degraded: true, Err: err}, nil
		}
		return Result{}, err
	}

	merged := rank(dedupe(local, external), req.MaxResults)
	s.cacheSet(key, merged)

	source := models.SourceMixed
	if len(local) == 0 {
		source = models.SourceAPI
	}
	return Result{Results: merged, Source: source}, nil
}

// cacheGet and cacheSet tolerate a nil cache so deployments can disable
// result caching entirely.
func (s *Service) cacheGet(key string) ([]models.EnhancedResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(key)
}

func (s *Service) cacheSet(key string, results []models.EnhancedResult) {
	if s.cache == nil {
		return
	}
	s.cache.Set(key, results, 0)
}

func (s *Service) lookupExternal(ctx context.Context, identity string, req models.SuggestRequest) ([]models.EnhancedResult, error) {
	if s.admit != nil {
		if decision := s.admit.Admit(identity, len(req.Query), suggestEndpoint); !decision.Allowed {
			return nil, upstream.FromDecision(decision)
		}
	}
	return s.geo.Search(ctx, req.Query, req.MaxResults, req.Language)
}

func (s *Service) issueSequence(identity string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[identity]++
	return s.seq[identity]
}

func (s *Service) sequenceCurrent(identity string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq[identity] == seq
}

// dedupe collapses duplicates sharing a normalized (name, country) key,
// keeping the higher-confidence entry. Local entries win ties so catalog
// metadata (popularity, type) survives the merge.
func dedupe(local, external []models.EnhancedResult) []models.EnhancedResult {
	merged := make([]models.EnhancedResult, 0, len(local)+len(external))
	index := make(map[string]int, len(local)+len(external))

	for _, result := range local {
		index[dedupeKey(result)] = len(merged)
		merged = append(merged, result)
	}
	for _, result := range external {
		key := dedupeKey(result)
		if at, ok := index[key]; ok {
			if result.Confidence > merged[at].Confidence {
				merged[at] = result
			}
			continue
		}
		index[key] = len(merged)
		merged = append(merged, result)
	}
	return merged
}

func dedupeKey(r models.EnhancedResult) string {
	return catalog.Normalize(r.Name) + "|" + catalog.Normalize(r.Country)
}

// rank orders results: local exact matches first, then descending
// confidence, then descending popularity, truncated to limit.
func rank(results []models.EnhancedResult, limit int) []models.EnhancedResult {
	sort.SliceStable(results, func(i, j int) bool {
		iExact := results[i].Source == models.SourceLocal && results[i].Confidence >= 100
		jExact := results[j].Source == models.SourceLocal && results[j].Confidence >= 100
		if iExact != jExact {
			return iExact
		}
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].Popularity > results[j].Popularity
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
