package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmdatafocus/shop_console/config"
)

const (
	listKeyPrefix = "list?"
	itemKeyPrefix = "item:"
)

// Notifier tells other console instances that a resource changed.
type Notifier interface {
	Publish(ctx context.Context, resource string) error
}

// Resource is a remote collection at /<path> with list, fetch, create,
// update and delete. T is the read model, C the create body, U the update body.
// Every successful mutation invalidates the cached reads of the resource
// and eagerly refetches the lists that were cached.
type Resource[T any, C any, U any] struct {
	client     *Client
	name       string
	path       string
	cache      Cache
	notifier   Notifier
	dependents []string
}

func NewResource[T any, C any, U any](client *Client, name string, cache Cache, notifier Notifier) *Resource[T, C, U] {
	return &Resource[T, C, U]{
		client:   client,
		name:     name,
		path:     "/" + strings.Trim(name, "/"),
		cache:    cache,
		notifier: notifier,
	}
}

// Affects names other resources whose cached reads a mutation here makes stale.
func (r *Resource[T, C, U]) Affects(resources ...string) *Resource[T, C, U] {
	r.dependents = append(r.dependents, resources...)
	return r
}

func (r *Resource[T, C, U]) Name() string {
	return r.name
}

// Cached reads are scoped to the caller's token; the backend may answer
// users differently.
func listKey(token string, query url.Values) string {
	return token + "/" + listKeyPrefix + query.Encode()
}

func itemKey(token string, id int) string {
	return token + "/" + itemKeyPrefix + strconv.Itoa(id)
}

func (r *Resource[T, C, U]) itemPath(id int) string {
	return r.path + "/" + strconv.Itoa(id)
}

func (r *Resource[T, C, U]) cached(ctx context.Context, key string, dest any) bool {
	if r.cache == nil {
		return false
	}
	found, err := r.cache.Get(ctx, r.name, key, dest)
	if err != nil {
		config.LogError(r.client.logger, "Resource", "cached", r.name+" "+key, nil, err)
		return false
	}
	return found
}

func (r *Resource[T, C, U]) store(ctx context.Context, key string, value any) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, r.name, key, value); err != nil {
		config.LogError(r.client.logger, "Resource", "store", r.name+" "+key, nil, err)
	}
}

// List returns the collection, from cache when present.
func (r *Resource[T, C, U]) List(ctx context.Context, token string, query url.Values) ([]T, error) {
	var items []T
	if r.cached(ctx, listKey(token, query), &items) {
		return items, nil
	}
	return r.Refresh(ctx, token, query)
}

// Refresh fetches the collection and replaces its cached copy.
func (r *Resource[T, C, U]) Refresh(ctx context.Context, token string, query url.Values) ([]T, error) {
	var items []T
	if err := r.client.getJSON(ctx, r.name+".list", token, r.path, query, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	r.store(ctx, listKey(token, query), items)
	return items, nil
}

func (r *Resource[T, C, U]) Get(ctx context.Context, token string, id int) (*T, error) {
	var item T
	if r.cached(ctx, itemKey(token, id), &item) {
		return &item, nil
	}
	if err := r.client.getJSON(ctx, r.name+".get", token, r.itemPath(id), nil, &item); err != nil {
		return nil, err
	}
	r.store(ctx, itemKey(token, id), item)
	return &item, nil
}

// Create posts input after local validation. The returned record is nil when
// the backend answers with something other than the created object.
func (r *Resource[T, C, U]) Create(ctx context.Context, token string, input C) (*T, error) {
	op := r.name + ".create"
	if err := checkInput(op, &input); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := r.client.sendJSON(ctx, op, http.MethodPost, token, r.path, input, &raw); err != nil {
		return nil, err
	}
	r.Invalidate(ctx, token)

	var created T
	if len(raw) == 0 || json.Unmarshal(raw, &created) != nil {
		return nil, nil
	}
	return &created, nil
}

func (r *Resource[T, C, U]) Update(ctx context.Context, token string, id int, input U) error {
	op := r.name + ".update"
	if err := checkInput(op, &input); err != nil {
		return err
	}
	if err := r.client.sendJSON(ctx, op, http.MethodPut, token, r.itemPath(id), input, nil); err != nil {
		return err
	}
	r.Invalidate(ctx, token)
	return nil
}

func (r *Resource[T, C, U]) Delete(ctx context.Context, token string, id int) error {
	if err := r.client.sendJSON(ctx, r.name+".delete", http.MethodDelete, token, r.itemPath(id), nil, nil); err != nil {
		return err
	}
	r.Invalidate(ctx, token)
	return nil
}

// Invalidate drops the cached reads of the resource and its dependents for
// every user, refetches the caller's lists that were cached and notifies
// other instances.
// Refetch failures are logged; the mutation already succeeded.
func (r *Resource[T, C, U]) Invalidate(ctx context.Context, token string) {
	if r.cache != nil {
		keys, err := r.cache.Keys(ctx, r.name)
		if err != nil {
			config.LogError(r.client.logger, "Resource", "Invalidate", r.name, nil, err)
		}
		r.clear(ctx)

		if token != "" {
			prefix := listKey(token, nil)
			for _, key := range keys {
				raw, ok := strings.CutPrefix(key, prefix)
				if !ok {
					continue
				}
				query, err := url.ParseQuery(raw)
				if err != nil {
					continue
				}
				if _, err := r.Refresh(ctx, token, query); err != nil {
					config.LogError(r.client.logger, "Resource", "Invalidate", r.name+" refetch", key, err)
				}
			}
		}
	}
	if r.notifier != nil {
		if err := r.notifier.Publish(ctx, r.name); err != nil {
			config.LogError(r.client.logger, "Resource", "Invalidate", r.name+" publish", nil, err)
		}
	}
}

// ApplyRemoteInvalidation drops cached reads after another instance mutated
// the resource. It never republishes.
func (r *Resource[T, C, U]) ApplyRemoteInvalidation(ctx context.Context) {
	if r.cache == nil {
		return
	}
	r.clear(ctx)
}

func (r *Resource[T, C, U]) clear(ctx context.Context) {
	for _, name := range append([]string{r.name}, r.dependents...) {
		if err := r.cache.Clear(ctx, name); err != nil {
			config.LogError(r.client.logger, "Resource", "clear", name, nil, err)
		}
	}
}
