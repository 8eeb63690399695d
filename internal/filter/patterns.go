package filter

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/bebsworthy/pmdgate/pkg/config"
)

// PatternCache holds compiled suppress patterns. A gate shares one cache
// across runs, so each pattern is compiled once per gate.
type PatternCache struct {
	cache map[string]*regexp.Regexp
	mu    sync.RWMutex
	stats *CacheStats
}

// CacheStats tracks pattern cache hits and misses
type CacheStats struct {
	Hits   int64
	Misses int64
	mu     sync.Mutex
}

// NewPatternCache creates a new pattern cache
func NewPatternCache() *PatternCache {
	return &PatternCache{
		cache: make(map[string]*regexp.Regexp),
		stats: &CacheStats{},
	}
}

// GetOrCompile retrieves a compiled pattern from cache or compiles it
func (pc *PatternCache) GetOrCompile(pattern *config.RegexPattern) (*regexp.Regexp, error) {
	if pattern == nil {
		return nil, fmt.Errorf("pattern cannot be nil")
	}

	key := cacheKey(pattern)

	pc.mu.RLock()
	if compiled, exists := pc.cache[key]; exists {
		pc.mu.RUnlock()
		pc.record(true)
		return compiled, nil
	}
	pc.mu.RUnlock()

	pc.mu.Lock()
	defer pc.mu.Unlock()

	// Another goroutine may have compiled it between the locks
	if compiled, exists := pc.cache[key]; exists {
		pc.record(true)
		return compiled, nil
	}

	pc.record(false)
	compiled, err := pattern.Compile()
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern %q: %w", pattern.Pattern, err)
	}

	pc.cache[key] = compiled
	return compiled, nil
}

// Size returns the number of cached patterns
func (pc *PatternCache) Size() int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return len(pc.cache)
}

// GetStats returns cache statistics
func (pc *PatternCache) GetStats() CacheStats {
	pc.stats.mu.Lock()
	defer pc.stats.mu.Unlock()
	return CacheStats{Hits: pc.stats.Hits, Misses: pc.stats.Misses}
}

func (pc *PatternCache) record(hit bool) {
	pc.stats.mu.Lock()
	defer pc.stats.mu.Unlock()
	if hit {
		pc.stats.Hits++
	} else {
		pc.stats.Misses++
	}
}

func cacheKey(pattern *config.RegexPattern) string {
	if pattern.Flags == "" {
		return pattern.Pattern
	}
	return fmt.Sprintf("(?%s)%s", pattern.Flags, pattern.Pattern)
}

// PatternSet is a precompiled collection of patterns
type PatternSet struct {
	patterns []*config.RegexPattern
	compiled []*regexp.Regexp
}

// NewPatternSet compiles every pattern through the cache
func NewPatternSet(patterns []*config.RegexPattern, cache *PatternCache) (*PatternSet, error) {
	if cache == nil {
		cache = NewPatternCache()
	}

	ps := &PatternSet{
		patterns: patterns,
		compiled: make([]*regexp.Regexp, len(patterns)),
	}

	for i, pattern := range patterns {
		compiled, err := cache.GetOrCompile(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %d: %w", i, err)
		}
		ps.compiled[i] = compiled
	}

	return ps, nil
}

// Match returns the source pattern of the first match, or nil
func (ps *PatternSet) Match(input string) *config.RegexPattern {
	for i, re := range ps.compiled {
		if re.MatchString(input) {
			return ps.patterns[i]
		}
	}
	return nil
}

// Len returns the number of patterns in the set
func (ps *PatternSet) Len() int {
	return len(ps.compiled)
}
