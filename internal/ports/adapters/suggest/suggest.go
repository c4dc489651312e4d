// Package suggest asks an OpenRouter-compatible chat API for clip
// boundaries, falling back to the local transcript heuristics whenever
// the remote answer is missing or unusable.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mjkio98/clipforge/internal/domain/boundaries"
	"github.com/mjkio98/clipforge/internal/ports"
	"github.com/mjkio98/clipforge/internal/types"
)

type Adapter struct {
	key      string
	model    string
	baseURL  string
	client   *http.Client
	fallback ports.ClipSuggester
	logger   *zap.Logger
}

const (
	requestTimeout = 90 * time.Second

	// Transcripts are trimmed before prompting so huge sources do not
	// blow the context window.
	maxPromptSegments = 200
	maxSegmentRunes   = 300

	minDistinctGap = 2.0
)

func New(apiKey, model, baseURL string, fallback ports.ClipSuggester, logger *zap.Logger) *Adapter {
	if model == "" {
		model = "openrouter/auto"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL = normalizeBaseURL(baseURL)
	return &Adapter{
		key:      apiKey,
		model:    model,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 5 * time.Minute},
		fallback: fallback,
		logger:   logger,
	}
}

func (a *Adapter) Suggest(ctx context.Context, segments []types.Segment, durationSec float64, maxClips int) ([]types.ClipSpec, error) {
	if maxClips <= 0 || durationSec <= 0 {
		return nil, nil
	}
	if len(segments) == 0 {
		return a.degrade(ctx, segments, durationSec, maxClips, "empty transcript", nil)
	}

	bounds := boundaries.DefaultOptions()

	type promptSeg struct {
		StartSec float64 `json:"start_sec"`
		EndSec   float64 `json:"end_sec"`
		Text     string  `json:"text"`
	}
	sample := samplePromptSegments(segments, maxPromptSegments)
	arr := make([]promptSeg, 0, len(sample))
	for _, s := range sample {
		arr = append(arr, promptSeg{StartSec: s.Start, EndSec: s.End, Text: truncate(s.Text, maxSegmentRunes)})
	}

	prompt := map[string]any{
		"maxClips":    maxClips,
		"minSec":      bounds.MinClipSec,
		"maxSec":      bounds.MaxClipSec,
		"durationSec": durationSec,
		"segments":    arr,
	}
	pb, err := json.Marshal(prompt)
	if err != nil {
		return nil, fmt.Errorf("marshal prompt: %w", err)
	}

	// strict schema: clips with boundaries and display metadata.
	payload := map[string]any{
		"model":  a.model,
		"stream": false,
		"messages": []map[string]any{
			{"role": "user", "content": string(buildPrompt(pb))},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name": "clipforge_suggest",
				"schema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"clips": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"start_sec":   map[string]any{"type": "number"},
									"end_sec":     map[string]any{"type": "number"},
									"title":       map[string]any{"type": "string"},
									"description": map[string]any{"type": "string"},
									"reason":      map[string]any{"type": "string"},
								},
								"required": []string{"start_sec", "end_sec", "title", "description", "reason"},
							},
						},
					},
					"required": []string{"clips"},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	url := a.baseURL + "/api/v1/chat/completions"

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return a.degrade(ctx, segments, durationSec, maxClips, "timeout",
				fmt.Errorf("suggest timeout after %s (model=%s)", requestTimeout, a.model))
		}
		return a.degrade(ctx, segments, durationSec, maxClips, "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return a.degrade(ctx, segments, durationSec, maxClips, "bad status",
				fmt.Errorf("suggest status %d and read body failed: %v", resp.StatusCode, readErr))
		}
		return a.degrade(ctx, segments, durationSec, maxClips, "bad status",
			fmt.Errorf("suggest status %d: %s", resp.StatusCode, truncate(redactSecrets(string(rb), a.key), 400)))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content any `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return a.degrade(ctx, segments, durationSec, maxClips, "undecodable response", err)
	}
	if len(raw.Choices) == 0 {
		return a.degrade(ctx, segments, durationSec, maxClips, "no choices", nil)
	}

	content, err := messageContentToString(raw.Choices[0].Message.Content)
	if err != nil {
		return a.degrade(ctx, segments, durationSec, maxClips, "bad content", err)
	}

	clean, err := extractJSONObject(content)
	if err != nil {
		return a.degrade(ctx, segments, durationSec, maxClips, "no JSON object", err)
	}

	var out struct {
		Clips []struct {
			StartSec    float64 `json:"start_sec"`
			EndSec      float64 `json:"end_sec"`
			Title       string  `json:"title"`
			Description string  `json:"description"`
			Reason      string  `json:"reason"`
		} `json:"clips"`
	}
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return a.degrade(ctx, segments, durationSec, maxClips, "unparseable clips", err)
	}

	res := make([]types.ClipSpec, 0, min(len(out.Clips), maxClips))
	for _, c := range out.Clips {
		st, en, ok := sanitizeRange(c.StartSec, c.EndSec, durationSec)
		if !ok {
			continue
		}
		if !isDistinct(res, st, en, minDistinctGap) {
			continue
		}

		title := strings.TrimSpace(c.Title)
		if title == "" {
			title = "Clip"
		}
		res = append(res, types.ClipSpec{
			StartSec:    st,
			EndSec:      en,
			Title:       title,
			Description: strings.TrimSpace(c.Description),
			Reason:      strings.TrimSpace(c.Reason),
		})
		if len(res) >= maxClips {
			break
		}
	}

	if len(res) == 0 {
		return a.degrade(ctx, segments, durationSec, maxClips, "no usable clips", nil)
	}

	sort.Slice(res, func(i, j int) bool { return res[i].StartSec < res[j].StartSec })
	for i := range res {
		res[i].Number = i + 1
	}
	return res, nil
}

// degrade hands the request to the local heuristics. Without a
// fallback the original failure is surfaced instead.
func (a *Adapter) degrade(ctx context.Context, segments []types.Segment, durationSec float64, maxClips int, reason string, cause error) ([]types.ClipSpec, error) {
	if a.fallback == nil {
		if cause != nil {
			return nil, cause
		}
		return nil, fmt.Errorf("suggest: %s", reason)
	}
	a.logger.Warn("remote suggestion unusable, using transcript heuristics",
		zap.String("reason", reason),
		zap.Error(cause))
	return a.fallback.Suggest(ctx, segments, durationSec, maxClips)
}

func buildPrompt(segmentsJSON []byte) []byte {
	return []byte(
		"Select the best short vertical clips from this transcript. " +
			"Return strictly valid JSON (no markdown, no code fences) matching the provided schema. " +
			"Prefer self-contained moments that open with a hook and end on a complete thought. " +
			"Clips must not overlap and can be anywhere from 0 to maxClips total. " +
			"Each clip duration must be between minSec and maxSec, and clips must lie inside [0, durationSec]." +
			"\n\nTranscript JSON:\n" + string(segmentsJSON),
	)
}

// samplePromptSegments keeps at most limit segments, evenly spaced so
// the prompt still covers the whole source.
func samplePromptSegments(segments []types.Segment, limit int) []types.Segment {
	if limit <= 0 || len(segments) <= limit {
		return segments
	}
	out := make([]types.Segment, 0, limit)
	step := float64(len(segments)) / float64(limit)
	for i := 0; i < limit; i++ {
		out = append(out, segments[int(float64(i)*step)])
	}
	return out
}

func sanitizeRange(startSec, endSec, durationSec float64) (float64, float64, bool) {
	if startSec < 0 {
		startSec = 0
	}
	if endSec > durationSec {
		endSec = durationSec
	}
	if endSec <= startSec {
		return 0, 0, false
	}
	return startSec, endSec, true
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		s := b.String()
		if strings.TrimSpace(s) == "" {
			return "", errors.New("suggest: empty content")
		}
		return s, nil
	default:
		return "", fmt.Errorf("suggest: unexpected content type %T", v)
	}
}

func extractJSONObject(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("suggest: empty content")
	}

	// Strip markdown code fences.
	if strings.HasPrefix(t, "```") {
		// Remove opening fence line.
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		// Remove trailing fence.
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	// Best-effort: take the first JSON object found.
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		return t[start : end+1], nil
	}

	return "", fmt.Errorf("suggest: could not locate JSON object in: %q", truncate(t, 200))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}

func isDistinct(existing []types.ClipSpec, startSec, endSec, minGapSec float64) bool {
	for _, e := range existing {
		if startSec < e.EndSec+minGapSec && endSec > e.StartSec-minGapSec {
			return false
		}
	}
	return true
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
