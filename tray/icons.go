package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/yllada/nebula-tower/common"
	"github.com/yllada/nebula-tower/nebula"
)

// IconConfig defines the colors of a tray icon.
type IconConfig struct {
	Size       int
	RingColor  color.RGBA
	CoreColor  color.RGBA
	NodeColor  color.RGBA
	ShowBadge  bool
	BadgeColor color.RGBA
}

// RunningIconConfig is used while nebula is running.
func RunningIconConfig() IconConfig {
	return IconConfig{
		Size:      common.TrayIconSize,
		RingColor: color.RGBA{126, 87, 194, 255},  // Purple
		CoreColor: color.RGBA{179, 157, 219, 255}, // Light purple
		NodeColor: color.RGBA{102, 187, 106, 255}, // Green
	}
}

// StoppedIconConfig is used while nebula is stopped but ready.
func StoppedIconConfig() IconConfig {
	return IconConfig{
		Size:      common.TrayIconSize,
		RingColor: color.RGBA{117, 117, 117, 255}, // Dark gray
		CoreColor: color.RGBA{189, 189, 189, 255}, // Light gray
		NodeColor: color.RGBA{158, 158, 158, 255}, // Gray
	}
}

// AttentionIconConfig is used when nebula is missing or not provisioned.
func AttentionIconConfig() IconConfig {
	cfg := StoppedIconConfig()
	cfg.ShowBadge = true
	cfg.BadgeColor = color.RGBA{255, 167, 38, 255} // Amber
	return cfg
}

// GenerateIcon draws an orbit with a core and one node, encoded as PNG.
func GenerateIcon(cfg IconConfig) []byte {
	size := cfg.Size
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	center := float64(size) / 2
	ring := float64(size)/2 - 2

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			fx, fy := float64(x)+0.5-center, float64(y)+0.5-center
			d := math.Hypot(fx, fy)
			switch {
			case d <= ring*0.35:
				img.Set(x, y, cfg.CoreColor)
			case math.Abs(d-ring) <= 0.9:
				img.Set(x, y, cfg.RingColor)
			}
		}
	}

	// Node on the orbit, upper right.
	nodeX := center + ring*math.Cos(-math.Pi/4)
	nodeY := center + ring*math.Sin(-math.Pi/4)
	fillCircle(img, nodeX, nodeY, 2.5, cfg.NodeColor)

	if cfg.ShowBadge {
		fillCircle(img, float64(size)-4, float64(size)-4, 3.5, cfg.BadgeColor)
	}

	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func fillCircle(img *image.RGBA, cx, cy, r float64, c color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) <= r {
				img.Set(x, y, c)
			}
		}
	}
}

// Pre-generated icons.
var (
	iconRunning   = GenerateIcon(RunningIconConfig())
	iconStopped   = GenerateIcon(StoppedIconConfig())
	iconAttention = GenerateIcon(AttentionIconConfig())
)

// IconFor returns the icon for a menu model.
func IconFor(model MenuModel) []byte {
	switch {
	case model.Running:
		return iconRunning
	case model.Readiness != nebula.Ready:
		return iconAttention
	default:
		return iconStopped
	}
}
