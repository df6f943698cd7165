package frame

import (
	"fmt"
	"strings"
)

// Shading selects how the renderer supplies normals and geometry.
type Shading int

const (
	// ShadingSmooth emits per-vertex accumulated normals in immediate mode.
	ShadingSmooth Shading = iota
	// ShadingFlat emits one geometric normal per face in immediate mode.
	ShadingFlat
	// ShadingBuffered uploads each mesh once with per-vertex normals and
	// draws the stored buffers every frame.
	ShadingBuffered
)

func (s Shading) String() string {
	switch s {
	case ShadingSmooth:
		return "smooth"
	case ShadingFlat:
		return "flat"
	case ShadingBuffered:
		return "buffered"
	}
	return fmt.Sprintf("Shading(%d)", int(s))
}

// ParseShading parses "smooth", "flat" or "buffered".
func ParseShading(s string) (Shading, error) {
	switch strings.ToLower(s) {
	case "smooth":
		return ShadingSmooth, nil
	case "flat":
		return ShadingFlat, nil
	case "buffered", "vbo":
		return ShadingBuffered, nil
	}
	return 0, fmt.Errorf("unknown shading %q (want smooth, flat or buffered)", s)
}

// Set implements flag.Value.
func (s *Shading) Set(v string) error {
	parsed, err := ParseShading(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
