package gdbox2d

import "errors"

var (
	ErrInvalidShapeData   = errors.New("invalid shape data")
	ErrShapeNotConfigured = errors.New("shape is not configured")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrSpaceLocked        = errors.New("space is locked")
	ErrInvalidConfig      = errors.New("invalid config")
)
