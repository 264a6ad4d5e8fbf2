// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by spans across the service.
const (
	VideoIDKey     = "video.id"
	VideoWidthKey  = "video.width"
	VideoHeightKey = "video.height"

	BurnSegmentsKey   = "burn.segments"
	BurnFontKey       = "burn.font_family"
	BurnDurationMSKey = "burn.duration_ms"
	BurnResultKey     = "burn.result"

	TranscribeSegmentsKey = "transcribe.segments"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// VideoAttributes creates span attributes for a probed video.
func VideoAttributes(id string, width, height int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(VideoIDKey, id),
		attribute.Int(VideoWidthKey, width),
		attribute.Int(VideoHeightKey, height),
	}
}

// BurnAttributes creates span attributes for a burn invocation.
func BurnAttributes(fontFamily string, segments int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(BurnFontKey, fontFamily),
		attribute.Int(BurnSegmentsKey, segments),
	}
}

// BurnResultAttributes creates span attributes for a finished burn.
func BurnResultAttributes(result string, durationMS int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(BurnResultKey, result),
		attribute.Int64(BurnDurationMSKey, durationMS),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
