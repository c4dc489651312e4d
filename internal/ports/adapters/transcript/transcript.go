// Package transcript loads pre-computed transcripts from JSON files of
// the shape {"segments":[{"start","end","text","words":[...]}]}.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mjkio98/clipforge/internal/types"
)

type FileProvider struct{}

func NewFileProvider() *FileProvider { return &FileProvider{} }

// Transcript reads and normalizes the transcript file at ref.
func (p *FileProvider) Transcript(ctx context.Context, ref string) (types.Transcript, error) {
	jb, err := os.ReadFile(ref)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("read transcript: %w", err)
	}

	var tr types.Transcript
	if err := json.Unmarshal(jb, &tr); err != nil {
		return types.Transcript{}, fmt.Errorf("parse transcript %s: %w", ref, err)
	}
	for i := range tr.Segments {
		tr.Segments[i].Text = strings.TrimSpace(tr.Segments[i].Text)
		for j := range tr.Segments[i].Words {
			tr.Segments[i].Words[j].Text = strings.TrimSpace(tr.Segments[i].Words[j].Text)
		}
	}
	return tr, nil
}
