package valueobjects

import (
	pkgerrors "notegraph-backend/pkg/errors"
)

// Default node dimensions on the canvas.
const (
	DefaultWidth  = 300.0
	DefaultHeight = 150.0
)

// Size is a value object representing node dimensions on the canvas
type Size struct {
	width  float64
	height float64
}

// NewSize creates a size with validation
func NewSize(width, height float64) (Size, error) {
	if width <= 0 || height <= 0 {
		return Size{}, pkgerrors.NewValidationError("size dimensions must be positive")
	}
	return Size{width: width, height: height}, nil
}

// DefaultSize returns the default node size (300x150)
func DefaultSize() Size {
	return Size{width: DefaultWidth, height: DefaultHeight}
}

// Width returns the width
func (s Size) Width() float64 {
	return s.width
}

// Height returns the height
func (s Size) Height() float64 {
	return s.height
}

// IsZero checks if the size is unset
func (s Size) IsZero() bool {
	return s.width == 0 && s.height == 0
}

// Equals checks if two sizes are equal
func (s Size) Equals(other Size) bool {
	return s.width == other.width && s.height == other.height
}
