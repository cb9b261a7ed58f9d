// Package kv provides the string keyed storage used to persist browser state.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("kv: not found")

// Store is a minimal string key/value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

type namespaced struct {
	store  Store
	prefix string
}

// Namespace scopes every key of store under prefix.
func Namespace(store Store, prefix string) Store {
	return &namespaced{store: store, prefix: prefix}
}

func (n *namespaced) Get(ctx context.Context, key string) (string, error) {
	return n.store.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	return n.store.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Delete(ctx context.Context, keys ...string) error {
	scoped := make([]string, len(keys))
	for i, key := range keys {
		scoped[i] = n.prefix + key
	}
	return n.store.Delete(ctx, scoped...)
}
