package sajson

// ParserOption configures a Parse call using the functional-option idiom.
type ParserOption func(*parseConfig)

type parseConfig struct {
	dynamic      bool
	initialWords int
}

// WithDynamicAllocation selects the growable two-cursor arena instead of
// the default single_allocation preallocated slab. Use this when the input
// size isn't known up front and a tighter peak-memory bound matters more
// than avoiding reallocation.
func WithDynamicAllocation() ParserOption {
	return func(c *parseConfig) { c.dynamic = true }
}

// WithInitialWords selects the dynamic allocator (as WithDynamicAllocation
// does) and sets its starting capacity, in words; values below 16 are
// raised to 16. A reasonable hint avoids the first few doublings for
// callers who know roughly how large their documents run.
func WithInitialWords(n int) ParserOption {
	return func(c *parseConfig) {
		c.dynamic = true
		c.initialWords = n
	}
}
