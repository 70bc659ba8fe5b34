// Package vision reads CAPTCHA images through a vision model.
package vision

import "context"

// Solver extracts the text from a CAPTCHA image.
type Solver interface {
	Solve(ctx context.Context, image []byte) (string, error)
}
