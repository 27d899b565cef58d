package formula

import "sync"

// Cache memoizes compiled programs by source text. The zero value is ready
// to use and safe for concurrent use. Failed compilations are not cached.
type Cache struct {
	programs sync.Map // string -> *Program
}

// Compile returns the cached program for expr, compiling it on first use
func (c *Cache) Compile(expr string) (*Program, error) {
	if p, ok := c.programs.Load(expr); ok {
		return p.(*Program), nil
	}
	p, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	actual, _ := c.programs.LoadOrStore(expr, p)
	return actual.(*Program), nil
}

// Evaluate compiles expr through the cache and runs it
func (c *Cache) Evaluate(expr string, vars Vars) (float64, error) {
	p, err := c.Compile(expr)
	if err != nil {
		return 0, err
	}
	return p.Eval(vars)
}

// Len returns the number of cached programs
func (c *Cache) Len() int {
	n := 0
	c.programs.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
