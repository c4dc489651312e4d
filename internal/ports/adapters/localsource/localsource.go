// Package localsource serves local video files as clip sources and
// caches probe results so repeated batches skip the ffprobe round trip.
package localsource

import (
	"context"
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mjkio98/clipforge/internal/ports"
	"github.com/mjkio98/clipforge/internal/types"
)

const defaultCacheSize = 64

type Provider struct {
	inner ports.SourceProvider
	cache *lru.Cache[string, types.SourceInfo]
}

func New(inner ports.SourceProvider, cacheSize int) (*Provider, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, types.SourceInfo](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("probe cache: %w", err)
	}
	return &Provider{inner: inner, cache: cache}, nil
}

// Probe stats the file first so missing paths fail fast, then serves
// repeats from the cache.
func (p *Provider) Probe(ctx context.Context, ref string) (types.SourceInfo, error) {
	if info, ok := p.cache.Get(ref); ok {
		return info, nil
	}
	if _, err := os.Stat(ref); err != nil {
		return types.SourceInfo{}, fmt.Errorf("source %s: %w", ref, err)
	}
	info, err := p.inner.Probe(ctx, ref)
	if err != nil {
		return types.SourceInfo{}, err
	}
	p.cache.Add(ref, info)
	return info, nil
}

func (p *Provider) FetchSegment(ctx context.Context, ref string, startSec, endSec float64, dstPath string) error {
	return p.inner.FetchSegment(ctx, ref, startSec, endSec, dstPath)
}
