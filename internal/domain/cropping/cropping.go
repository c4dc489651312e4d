// Package cropping plans crop windows that convert a source frame to a
// target aspect ratio without distortion.
package cropping

import (
	"math"

	"github.com/mjkio98/clipforge/internal/types"
)

// Plan returns the largest window with the target aspect ratio that fits
// inside the source frame, centered on the subject. A nil subject centers
// the window on the frame; subject coordinates outside [0,1] are clamped,
// so the window never leaves the source bounds.
func Plan(srcW, srcH, dstW, dstH int, subject *types.SubjectPosition) types.CropWindow {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return types.CropWindow{}
	}

	scale := math.Min(float64(srcW)/float64(dstW), float64(srcH)/float64(dstH))
	cropW := float64(dstW) * scale
	cropH := float64(dstH) * scale

	cx, cy := 0.5, 0.5
	if subject != nil {
		cx = clamp(subject.X, 0, 1)
		cy = clamp(subject.Y, 0, 1)
	}

	x := clamp(cx*float64(srcW)-cropW/2, 0, float64(srcW)-cropW)
	y := clamp(cy*float64(srcH)-cropH/2, 0, float64(srcH)-cropH)

	w := types.CropWindow{
		X:      int(math.Floor(x)),
		Y:      int(math.Floor(y)),
		Width:  int(math.Floor(cropW)),
		Height: int(math.Floor(cropH)),
	}
	// Sub-pixel crops round down to zero on tiny sources.
	if w.Width < 1 {
		w.Width = 1
	}
	if w.Height < 1 {
		w.Height = 1
	}
	return w
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
