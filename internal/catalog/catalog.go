package catalog

import "strings"

// defaultModules is the course catalog used when no override is
// configured.
var defaultModules = []string{
	"Analysis 2",
	"Linear Algebra and Numerical Analysis",
	"Multivariable Calculus and Differential Equations",
	"Groups and Rings",
	"Lebesgue Measure and Integration",
	"Network Science",
	"Partial Differential Equations in Action",
	"Probability for Statistics",
	"Statistical Modelling 1",
	"Principles of Programming",
}

// Catalog is the closed, ordered set of valid module names. It is built
// once at startup and never changes afterwards.
type Catalog struct {
	ordered []string
	index   map[string]struct{}
}

// New builds a catalog from the given module names, preserving their
// order. An empty list falls back to the default course catalog.
func New(modules []string) *Catalog {
	if len(modules) == 0 {
		modules = defaultModules
	}
	c := &Catalog{
		ordered: make([]string, 0, len(modules)),
		index:   make(map[string]struct{}, len(modules)),
	}
	for _, m := range modules {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, dup := c.index[m]; dup {
			continue
		}
		c.ordered = append(c.ordered, m)
		c.index[m] = struct{}{}
	}
	return c
}

// Default returns a catalog holding the built-in course modules.
func Default() *Catalog {
	return New(nil)
}

// IsValid reports whether name belongs to the catalog.
func (c *Catalog) IsValid(name string) bool {
	_, ok := c.index[name]
	return ok
}

// All returns the module names in catalog order.
func (c *Catalog) All() []string {
	out := make([]string, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Match returns modules whose name contains the given fragment,
// case-insensitively, in catalog order. Used for command hints.
func (c *Catalog) Match(fragment string) []string {
	fragment = strings.ToLower(fragment)
	var out []string
	for _, m := range c.ordered {
		if strings.Contains(strings.ToLower(m), fragment) {
			out = append(out, m)
		}
	}
	return out
}

// Len returns the number of modules in the catalog.
func (c *Catalog) Len() int {
	return len(c.ordered)
}
