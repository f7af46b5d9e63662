package services

import "errors"

// Baseline service errors
var (
	ErrNoUnitSelected = errors.New("no unit selected")
	ErrUnitNotFound   = errors.New("unit not found in rate file")
	ErrMissingUpload  = errors.New("no rate file uploaded")
)
