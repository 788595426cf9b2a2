// Package resource provides a generic list of records with a configurable
// set of capabilities. Management screens share this one abstraction
// instead of each re-implementing list, filter, create, edit and delete.
package resource

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Capability is an operation a List allows.
type Capability string

const (
	CapList   Capability = "list"
	CapFilter Capability = "filter"
	CapCreate Capability = "create"
	CapEdit   Capability = "edit"
	CapDelete Capability = "delete"
)

// AllCapabilities returns every capability.
func AllCapabilities() []Capability {
	return []Capability{CapList, CapFilter, CapCreate, CapEdit, CapDelete}
}

var (
	// ErrNotSupported is returned for operations outside the list's capabilities.
	ErrNotSupported = errors.New("operation not supported")
	// ErrNotFound is returned when no record has the given key.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when creating a record whose key is taken.
	ErrDuplicate = errors.New("record already exists")
	// ErrInvalid wraps errors returned by the list's validator.
	ErrInvalid = errors.New("invalid record")
)

// List holds records of type T keyed by a string. Records keep insertion
// order. All methods are safe for concurrent use.
type List[T any] struct {
	name     string
	key      func(T) string
	matches  func(T, string) bool
	validate func(T) error
	caps     map[Capability]bool

	mu    sync.RWMutex
	order []string
	items map[string]T
}

// Option configures a List.
type Option[T any] func(*List[T])

// WithCapabilities restricts the list to caps. Lists allow everything by default.
func WithCapabilities[T any](caps ...Capability) Option[T] {
	return func(l *List[T]) {
		l.caps = make(map[Capability]bool, len(caps))
		for _, c := range caps {
			l.caps[c] = true
		}
	}
}

// WithMatcher sets how Filter matches a record against a query.
func WithMatcher[T any](match func(T, string) bool) Option[T] {
	return func(l *List[T]) {
		l.matches = match
	}
}

// WithValidator sets a check run before create and edit.
func WithValidator[T any](validate func(T) error) Option[T] {
	return func(l *List[T]) {
		l.validate = validate
	}
}

// New creates an empty list. key must return a non-empty, unique key.
func New[T any](name string, key func(T) string, opts ...Option[T]) *List[T] {
	l := &List[T]{
		name:  name,
		key:   key,
		items: make(map[string]T),
	}
	WithCapabilities[T](AllCapabilities()...)(l)
	for _, opt := range opts {
		opt(l)
	}
	if l.matches == nil {
		l.matches = func(item T, query string) bool {
			return strings.Contains(strings.ToLower(l.key(item)), query)
		}
	}
	return l
}

// Name returns the list's name.
func (l *List[T]) Name() string {
	return l.name
}

// Can reports whether the list allows c.
func (l *List[T]) Can(c Capability) bool {
	return l.caps[c]
}

// Capabilities returns the allowed capabilities in a fixed order.
func (l *List[T]) Capabilities() []Capability {
	var out []Capability
	for _, c := range AllCapabilities() {
		if l.caps[c] {
			out = append(out, c)
		}
	}
	return out
}

func (l *List[T]) require(c Capability) error {
	if !l.caps[c] {
		return fmt.Errorf("%s: %s: %w", l.name, c, ErrNotSupported)
	}
	return nil
}

func (l *List[T]) check(item T) error {
	if l.key(item) == "" {
		return fmt.Errorf("%s: empty key: %w", l.name, ErrInvalid)
	}
	if l.validate == nil {
		return nil
	}
	if err := l.validate(item); err != nil {
		return fmt.Errorf("%s: %w: %v", l.name, ErrInvalid, err)
	}
	return nil
}

// Len returns the number of records.
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// List returns all records in insertion order.
func (l *List[T]) List() ([]T, error) {
	if err := l.require(CapList); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]T, 0, len(l.order))
	for _, k := range l.order {
		out = append(out, l.items[k])
	}
	return out, nil
}

// Filter returns the records matching query, case-insensitively. An empty
// query matches everything.
func (l *List[T]) Filter(query string) ([]T, error) {
	if err := l.require(CapFilter); err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))

	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]T, 0)
	for _, k := range l.order {
		if item := l.items[k]; q == "" || l.matches(item, q) {
			out = append(out, item)
		}
	}
	return out, nil
}

// Get returns the record with the given key.
func (l *List[T]) Get(key string) (T, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	item, ok := l.items[key]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s %q: %w", l.name, key, ErrNotFound)
	}
	return item, nil
}

// Create appends a record.
func (l *List[T]) Create(item T) error {
	if err := l.require(CapCreate); err != nil {
		return err
	}
	if err := l.check(item); err != nil {
		return err
	}
	k := l.key(item)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.items[k]; ok {
		return fmt.Errorf("%s %q: %w", l.name, k, ErrDuplicate)
	}
	l.items[k] = item
	l.order = append(l.order, k)
	return nil
}

// Edit applies fn to a copy of the record and stores the result. The key
// may change as long as the new one is free.
func (l *List[T]) Edit(key string, fn func(*T)) (T, error) {
	var zero T
	if err := l.require(CapEdit); err != nil {
		return zero, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	item, ok := l.items[key]
	if !ok {
		return zero, fmt.Errorf("%s %q: %w", l.name, key, ErrNotFound)
	}
	fn(&item)
	if err := l.check(item); err != nil {
		return zero, err
	}

	newKey := l.key(item)
	if newKey != key {
		if _, taken := l.items[newKey]; taken {
			return zero, fmt.Errorf("%s %q: %w", l.name, newKey, ErrDuplicate)
		}
		delete(l.items, key)
		for i, k := range l.order {
			if k == key {
				l.order[i] = newKey
				break
			}
		}
	}
	l.items[newKey] = item
	return item, nil
}

// Delete removes a record.
func (l *List[T]) Delete(key string) error {
	if err := l.require(CapDelete); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.items[key]; !ok {
		return fmt.Errorf("%s %q: %w", l.name, key, ErrNotFound)
	}
	delete(l.items, key)
	for i, k := range l.order {
		if k == key {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return nil
}

// Replace swaps the whole contents for items, keeping the first of any
// duplicate keys. It requires create and delete.
func (l *List[T]) Replace(items []T) error {
	if err := l.require(CapCreate); err != nil {
		return err
	}
	if err := l.require(CapDelete); err != nil {
		return err
	}
	for _, item := range items {
		if err := l.check(item); err != nil {
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = make(map[string]T, len(items))
	l.order = l.order[:0]
	for _, item := range items {
		k := l.key(item)
		if _, ok := l.items[k]; ok {
			continue
		}
		l.items[k] = item
		l.order = append(l.order, k)
	}
	return nil
}

// Keys returns every key in sorted order.
func (l *List[T]) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := append([]string(nil), l.order...)
	sort.Strings(keys)
	return keys
}
