// SPDX-License-Identifier: MIT

// Package model holds the domain types shared across the pipeline.
package model

// Segment is a single timed lyric line bound to a video. IDs are local to
// the owning video; (video, id) is unique in the store.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns the display duration in seconds. Zero is legal and means
// the segment is never shown.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}
