package cropping

import (
	"math"
	"testing"

	"github.com/mjkio98/clipforge/internal/types"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name    string
		srcW    int
		srcH    int
		dstW    int
		dstH    int
		subject *types.SubjectPosition
		want    types.CropWindow
	}{
		{
			name: "landscape to portrait centered",
			srcW: 1920, srcH: 1080, dstW: 720, dstH: 1280,
			subject: nil,
			want:    types.CropWindow{X: 656, Y: 0, Width: 607, Height: 1080},
		},
		{
			name: "subject far left pins window to edge",
			srcW: 1920, srcH: 1080, dstW: 720, dstH: 1280,
			subject: &types.SubjectPosition{X: 0, Y: 0.5},
			want:    types.CropWindow{X: 0, Y: 0, Width: 607, Height: 1080},
		},
		{
			name: "subject far right stays inside frame",
			srcW: 1920, srcH: 1080, dstW: 720, dstH: 1280,
			subject: &types.SubjectPosition{X: 1, Y: 0.5},
			want:    types.CropWindow{X: 1312, Y: 0, Width: 607, Height: 1080},
		},
		{
			name: "out of range subject clamps to corner",
			srcW: 1920, srcH: 1080, dstW: 720, dstH: 1280,
			subject: &types.SubjectPosition{X: 1.5, Y: -0.3},
			want:    types.CropWindow{X: 1312, Y: 0, Width: 607, Height: 1080},
		},
		{
			name: "matching aspect uses full frame",
			srcW: 1080, srcH: 1920, dstW: 720, dstH: 1280,
			subject: nil,
			want:    types.CropWindow{X: 0, Y: 0, Width: 1080, Height: 1920},
		},
		{
			name: "square source",
			srcW: 1000, srcH: 1000, dstW: 720, dstH: 1280,
			subject: nil,
			want:    types.CropWindow{X: 218, Y: 0, Width: 562, Height: 1000},
		},
		{
			name: "source smaller than target still crops",
			srcW: 640, srcH: 360, dstW: 720, dstH: 1280,
			subject: nil,
			want:    types.CropWindow{X: 218, Y: 0, Width: 202, Height: 360},
		},
		{
			name: "degenerate source yields zero window",
			srcW: 0, srcH: 1080, dstW: 720, dstH: 1280,
			subject: nil,
			want:    types.CropWindow{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(tt.srcW, tt.srcH, tt.dstW, tt.dstH, tt.subject)
			if got != tt.want {
				t.Fatalf("Plan() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPlanContainment(t *testing.T) {
	coords := []float64{-0.5, 0, 0.1, 0.25, 0.5, 0.77, 1, 1.7}
	sizes := []struct{ srcW, srcH, dstW, dstH int }{
		{1920, 1080, 720, 1280},
		{1280, 720, 720, 1280},
		{1080, 1920, 1920, 1080},
		{640, 480, 720, 1280},
		{3840, 2160, 1080, 1920},
	}
	for _, sz := range sizes {
		for _, x := range coords {
			for _, y := range coords {
				sub := &types.SubjectPosition{X: x, Y: y}
				got := Plan(sz.srcW, sz.srcH, sz.dstW, sz.dstH, sub)
				if !got.FitsWithin(sz.srcW, sz.srcH) {
					t.Fatalf("window %+v escapes %dx%d (subject %.2f,%.2f)",
						got, sz.srcW, sz.srcH, x, y)
				}
				wantRatio := float64(sz.dstW) / float64(sz.dstH)
				gotRatio := float64(got.Width) / float64(got.Height)
				if math.Abs(gotRatio-wantRatio) > 0.01 {
					t.Fatalf("ratio %.4f deviates from %.4f for %+v", gotRatio, wantRatio, got)
				}
			}
		}
	}
}
