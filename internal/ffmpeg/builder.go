package ffmpeg

import "strings"

// FilterChain collects video filter fragments that ffmpeg must receive as
// a single -vf argument.
type FilterChain struct {
	filters []string
}

// Add appends fragments to the chain, skipping empty ones.
func (c *FilterChain) Add(fragments ...string) {
	for _, f := range fragments {
		if f != "" {
			c.filters = append(c.filters, f)
		}
	}
}

// Len returns the number of fragments in the chain.
func (c *FilterChain) Len() int {
	return len(c.filters)
}

// String joins the fragments with commas.
func (c *FilterChain) String() string {
	return strings.Join(c.filters, ",")
}

// Args returns the -vf flag and chain, or nil when the chain is empty.
func (c *FilterChain) Args() []string {
	if len(c.filters) == 0 {
		return nil
	}
	return []string{"-vf", c.String()}
}

// FilterName returns the filter name of a fragment such as "scale=640:480".
func FilterName(fragment string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(fragment), "=")
	if i := strings.IndexAny(name, "@ "); i >= 0 {
		name = name[:i]
	}
	return name
}
