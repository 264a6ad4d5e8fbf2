// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"
)

// ErrCancelled reports that the caller abandoned the burn; the encoder was
// signalled and the working directory removed.
var ErrCancelled = errors.New("burn cancelled")

// RenderError reports an encoder failure. The stderr tail is a diagnostic
// blob for logs; it must not be echoed to untrusted clients verbatim.
type RenderError struct {
	Reason     string
	ExitCode   int
	Timeout    bool
	StderrTail string
}

func (e *RenderError) Error() string {
	if e.Timeout {
		return "render failed: timeout"
	}
	return fmt.Sprintf("render failed: %s (exit %d)", e.Reason, e.ExitCode)
}
