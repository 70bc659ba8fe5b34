// Package browser abstracts the headless browser used to drive the
// attendance portal, so the runner can be tested without a real browser.
package browser

import "time"

// Driver is the set of page operations the runner needs. Selectors are
// XPath expressions.
type Driver interface {
	Navigate(url string) error
	WaitFor(sel string, timeout time.Duration) error
	Click(sel string) error
	Fill(sel, value string) error
	// Attr returns the value of an attribute on the first matching node.
	// The boolean reports whether the attribute is present.
	Attr(sel, name string) (string, bool, error)
	// TableRows returns the cell texts of every row matched by sel.
	TableRows(sel string) ([][]string, error)
	Screenshot() ([]byte, error)
	Close() error
}

// Options configures a new Driver.
type Options struct {
	Headless   bool
	ProfileDir string // browser profile to reuse; empty for a fresh one
}

// Factory creates a Driver. The runner receives one so tests can substitute
// a fake.
type Factory func(opts Options) (Driver, error)
