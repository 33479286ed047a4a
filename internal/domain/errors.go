package domain

import "errors"

var (
	// ErrEmptyPayload is returned when generation is requested for blank text.
	ErrEmptyPayload = errors.New("payload text is empty")
	// ErrNoArtifact is returned when saving before a successful generation.
	ErrNoArtifact = errors.New("no generated artifact to save")
	// ErrScanUnsupported is returned when decoding is unavailable on this platform.
	ErrScanUnsupported = errors.New("qr scanning is not supported on this platform")
	// ErrNoFrame is returned by frame sources with nothing to offer this tick.
	ErrNoFrame = errors.New("no camera frame available")
	// ErrShortFrame is returned for buffers smaller than their declared size.
	ErrShortFrame = errors.New("frame buffer shorter than declared size")
	// ErrNoCode is returned when an image contains no decodable code.
	ErrNoCode = errors.New("no qr code found")
)
