// Package facebox detects faces through a machinebox/facebox instance.
package facebox

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mjkio98/clipforge/internal/types"
)

const requestTimeout = 30 * time.Second

type Adapter struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Adapter {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return &Adapter{baseURL: baseURL, client: &http.Client{Timeout: requestTimeout}}
}

// Detect posts the image to /facebox/check and maps the reported face
// rects onto bounding boxes in the image's pixel space.
func (a *Adapter) Detect(ctx context.Context, image []byte) ([]types.BoundingBox, error) {
	if len(image) == 0 {
		return nil, errors.New("facebox: empty image")
	}

	body, err := json.Marshal(map[string]string{
		"base64": base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return nil, fmt.Errorf("facebox: marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "POST", a.baseURL+"/facebox/check", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("facebox: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("facebox status %d: %s", resp.StatusCode, truncate(string(rb), 200))
	}

	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Faces   []struct {
			Rect struct {
				Top    int `json:"top"`
				Left   int `json:"left"`
				Width  int `json:"width"`
				Height int `json:"height"`
			} `json:"rect"`
		} `json:"faces"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("facebox: decode response: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("facebox: check failed: %s", out.Error)
	}

	boxes := make([]types.BoundingBox, 0, len(out.Faces))
	for _, f := range out.Faces {
		boxes = append(boxes, types.BoundingBox{
			X:      float64(f.Rect.Left),
			Y:      float64(f.Rect.Top),
			Width:  float64(f.Rect.Width),
			Height: float64(f.Rect.Height),
		})
	}
	return boxes, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
