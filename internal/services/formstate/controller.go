// Package formstate provides copy-on-write, path-addressed mutation of an
// onboarding record with dirty tracking. Every write produces a new record;
// only the ancestors of the written path are copied, so unchanged branches
// keep their identity and can be compared by reference.
package formstate

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"paydesk/internal/domain/onboarding"
)

var (
	ErrInvalidPath  = errors.New("invalid field path")
	ErrInvalidValue = errors.New("invalid field value")
)

// Listener observes every published change.
type Listener func(prev, curr *onboarding.Record)

type Controller struct {
	mu        sync.RWMutex
	record    *onboarding.Record
	dirty     bool
	listeners []Listener
}

func New(record *onboarding.Record) *Controller {
	return &Controller{record: record}
}

// Record returns the current record. Callers must treat it as immutable.
func (c *Controller) Record() *onboarding.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record
}

func (c *Controller) IsDirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

// Subscribe registers a listener called after each change, outside the lock.
func (c *Controller) Subscribe(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// UpdateField sets the leaf at a dot-delimited path such as
// "companyInfo.address.city" or "businessLocations.0.contactPerson.email".
func (c *Controller) UpdateField(path string, value any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	return c.apply(segs, setLeaf(value))
}

// UpdateSection shallow-merges partial into the object at path.
func (c *Controller) UpdateSection(path string, partial map[string]any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	return c.apply(segs, mergeLeaf(partial))
}

// ResetForm replaces the whole record and clears the dirty flag.
func (c *Controller) ResetForm(record *onboarding.Record) {
	c.replace(record)
}

// ForceInitialize replaces the record even when local edits are pending.
func (c *Controller) ForceInitialize(record *onboarding.Record) {
	c.replace(record)
}

func (c *Controller) MarkClean() {
	c.mu.Lock()
	c.dirty = false
	c.mu.Unlock()
}

func (c *Controller) MarkDirty() {
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()
}

func (c *Controller) replace(record *onboarding.Record) {
	c.mu.Lock()
	prev := c.record
	c.record = record
	c.dirty = false
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	notify(listeners, prev, record)
}

func (c *Controller) apply(segs []string, leaf leafFunc) error {
	c.mu.Lock()
	prev := c.record

	var root reflect.Value
	if prev != nil {
		root = reflect.ValueOf(prev)
	}
	next, err := write(root, reflect.TypeOf(prev), segs, leaf)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	rec, ok := next.Interface().(*onboarding.Record)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: path did not resolve to a record", ErrInvalidPath)
	}
	c.record = rec
	c.dirty = true
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	notify(listeners, prev, rec)
	return nil
}

func notify(listeners []Listener, prev, curr *onboarding.Record) {
	for _, l := range listeners {
		l(prev, curr)
	}
}
