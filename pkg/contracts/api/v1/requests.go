// Package api contains the HTTP API contracts of the baseline builder.
// Version v1 represents the current stable API version.
//
// Requests arrive as multipart form fields next to the uploaded rate file,
// so fields carry form tags; validate tags are checked by the transport's
// validator, which also registers the unitcode tag.
package api

// PreviewRequest is the form of /api/baseline/units and /api/baseline/preview.
// The unit is optional; without it only the unit list is returned.
type PreviewRequest struct {
	Unit     string `json:"unit" form:"unit" validate:"omitempty,unitcode,max=128"`
	Discount int    `json:"discount" form:"discount" validate:"gte=-100,lte=100"`
}

// DownloadRequest is the form of /api/baseline/download.
type DownloadRequest struct {
	Unit     string `json:"unit" form:"unit" validate:"required,unitcode,max=128"`
	Discount int    `json:"discount" form:"discount" validate:"gte=-100,lte=100"`
	Format   string `json:"format,omitempty" form:"format" validate:"omitempty,oneof=csv xlsx"`
}

// UnitsResponse lists the unit codes of an uploaded rate file.
type UnitsResponse struct {
	Units []string `json:"units"`
}
