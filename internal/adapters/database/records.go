package database

import (
	"context"
	"errors"

	"github.com/spoileralert/backend/internal/domain/repositories"
	"github.com/spoileralert/backend/internal/infrastructure/clients/jsonstore"
)

func indexOf[T any](items []T, match func(*T) bool) int {
	for i := range items {
		if match(&items[i]) {
			return i
		}
	}
	return -1
}

// assignID takes the next id for collection from the store's sequence. The
// highest id present is passed as a floor for collections written before the
// sequence existed. Called inside the collection's Update.
func assignID[T any](ctx context.Context, store *jsonstore.Gateway, collection string, items []T, id func(*T) int) (int, error) {
	highest := 0
	for i := range items {
		if v := id(&items[i]); v > highest {
			highest = v
		}
	}
	return store.NextID(ctx, collection, highest)
}

// updateOne runs fn on a copy of the record selected by match inside a locked
// read-modify-write of the collection. check may veto the result against the
// other records before it is written.
func updateOne[T any](
	ctx context.Context,
	store *jsonstore.Gateway,
	collection string,
	match func(*T) bool,
	notFound func() error,
	fn func(*T) error,
	check func(items []T, idx int, updated *T) error,
) (*T, error) {
	var result *T
	err := jsonstore.Update(ctx, store, collection, func(items []T) ([]T, bool, error) {
		idx := indexOf(items, match)
		if idx < 0 {
			return nil, false, notFound()
		}

		updated := items[idx]
		if err := fn(&updated); err != nil {
			if errors.Is(err, repositories.ErrNoChange) {
				result = &updated
				return items, false, nil
			}
			return nil, false, err
		}
		if check != nil {
			if err := check(items, idx, &updated); err != nil {
				return nil, false, err
			}
		}

		items[idx] = updated
		result = &updated
		return items, true, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// deleteOne removes the record selected by match
func deleteOne[T any](ctx context.Context, store *jsonstore.Gateway, collection string, match func(*T) bool, notFound func() error) error {
	return jsonstore.Update(ctx, store, collection, func(items []T) ([]T, bool, error) {
		idx := indexOf(items, match)
		if idx < 0 {
			return nil, false, notFound()
		}
		return append(items[:idx], items[idx+1:]...), true, nil
	})
}
