package localsource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mjkio98/clipforge/internal/types"
)

type countingSource struct {
	probes  int
	fetches int
	info    types.SourceInfo
	err     error
}

func (c *countingSource) Probe(ctx context.Context, ref string) (types.SourceInfo, error) {
	c.probes++
	return c.info, c.err
}

func (c *countingSource) FetchSegment(ctx context.Context, ref string, startSec, endSec float64, dstPath string) error {
	c.fetches++
	return nil
}

func fixtureFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(path, []byte("mp4"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestProbeCachesResults(t *testing.T) {
	inner := &countingSource{info: types.SourceInfo{Width: 1920, Height: 1080, DurationSec: 120}}
	p, err := New(inner, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := fixtureFile(t)
	for i := 0; i < 3; i++ {
		info, err := p.Probe(context.Background(), path)
		if err != nil {
			t.Fatalf("probe %d: %v", i, err)
		}
		if info != inner.info {
			t.Fatalf("probe %d: got %+v", i, info)
		}
	}
	if inner.probes != 1 {
		t.Fatalf("expected 1 inner probe, got %d", inner.probes)
	}
}

func TestProbeMissingFile(t *testing.T) {
	inner := &countingSource{}
	p, err := New(inner, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = p.Probe(context.Background(), "/no/such/video.mp4")
	if err == nil {
		t.Fatalf("expected error")
	}
	if inner.probes != 0 {
		t.Fatalf("expected inner probe to be skipped, got %d", inner.probes)
	}
}

func TestProbeErrorNotCached(t *testing.T) {
	inner := &countingSource{err: errors.New("probe failed")}
	p, err := New(inner, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := fixtureFile(t)
	if _, err := p.Probe(context.Background(), path); err == nil {
		t.Fatalf("expected error")
	}
	inner.err = nil
	if _, err := p.Probe(context.Background(), path); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if inner.probes != 2 {
		t.Fatalf("expected 2 inner probes, got %d", inner.probes)
	}
}

func TestFetchSegmentDelegates(t *testing.T) {
	inner := &countingSource{}
	p, err := New(inner, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := p.FetchSegment(context.Background(), "a.mp4", 0, 10, "out.mp4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.fetches != 1 {
		t.Fatalf("expected delegation, got %d fetches", inner.fetches)
	}
}
