// Package jobs defines the queue task names and payloads shared by the
// submitting CLI and the worker.
package jobs

const (
	TaskGenerateClips = "clips:generate"
)

type GenerateClipsPayload struct {
	SessionID      string `json:"session_id"` // optional; if empty, submitter creates one
	SourcePath     string `json:"source_path"`
	TranscriptPath string `json:"transcript_path"` // optional; no captions and heuristic-only boundaries without it
	OutDir         string `json:"out_dir"`         // optional override
	MaxClips       int    `json:"max_clips"`       // optional override, capped by worker config
}
