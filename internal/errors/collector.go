package errors

import (
	"sort"
	"sync"
)

// Collector gathers load problems per template identity so a batch operation
// can keep going and report everything at the end.
type Collector struct {
	byIdentity map[string][]error
	order      []string
	mutex      sync.RWMutex
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		byIdentity: make(map[string][]error),
	}
}

// Add records err against identity. Nil errors are ignored.
func (c *Collector) Add(identity string, err error) {
	if err == nil {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, ok := c.byIdentity[identity]; !ok {
		c.order = append(c.order, identity)
	}
	c.byIdentity[identity] = append(c.byIdentity[identity], err)
}

// Errors returns the errors recorded for identity.
func (c *Collector) Errors(identity string) []error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make([]error, len(c.byIdentity[identity]))
	copy(result, c.byIdentity[identity])

	return result
}

// Identities returns every identity with at least one error, in the order
// they were first reported.
func (c *Collector) Identities() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make([]string, len(c.order))
	copy(result, c.order)

	return result
}

// Failed returns the identities that have at least one fatal error, sorted.
func (c *Collector) Failed() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var failed []string
	for identity, errs := range c.byIdentity {
		for _, err := range errs {
			if IsFatal(err) {
				failed = append(failed, identity)
				break
			}
		}
	}
	sort.Strings(failed)

	return failed
}

// HasErrors reports whether anything was collected.
func (c *Collector) HasErrors() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.order) > 0
}

// Clear drops everything collected so far.
func (c *Collector) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.byIdentity = make(map[string][]error)
	c.order = c.order[:0]
}
