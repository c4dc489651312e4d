package transcript

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestTranscriptLoadsAndTrims(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talk.json")
	data := `{
		"segments": [
			{"start": 0, "end": 3.5, "text": "  hello there  ", "words": [
				{"start": 0, "end": 1, "word": " hello "},
				{"start": 1, "end": 3.5, "word": "there"}
			]},
			{"start": 3.5, "end": 7, "text": "general kenobi"}
		]
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	tr, err := NewFileProvider().Transcript(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tr.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(tr.Segments))
	}
	if tr.Segments[0].Text != "hello there" {
		t.Fatalf("expected trimmed text, got %q", tr.Segments[0].Text)
	}
	if tr.Segments[0].Words[0].Text != "hello" {
		t.Fatalf("expected trimmed word, got %q", tr.Segments[0].Words[0].Text)
	}
	if tr.Segments[1].End != 7 {
		t.Fatalf("expected segment end 7, got %v", tr.Segments[1].End)
	}
}

func TestTranscriptMissingFile(t *testing.T) {
	_, err := NewFileProvider().Transcript(context.Background(), "/does/not/exist.json")
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestTranscriptBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := NewFileProvider().Transcript(context.Background(), path)
	if err == nil {
		t.Fatalf("expected error")
	}
}
