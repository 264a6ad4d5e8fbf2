// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldVideoID   = "video_id"

	// Process / pipeline fields
	FieldComponent = "component"

	// Media fields
	FieldResolution = "resolution"
	FieldEncoder    = "encoder"
	FieldDurationMS = "duration_ms"

	// Path fields
	FieldPath    = "path"
	FieldWorkdir = "workdir"
)
