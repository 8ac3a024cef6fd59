package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/spoileralert/backend/pkg/errors"
)

// Load decodes every record of a collection into T
func Load[T any](ctx context.Context, g *Gateway, name string) ([]T, error) {
	raw, err := g.LoadAll(ctx, name)
	if err != nil {
		return nil, err
	}
	return decode[T](name, raw)
}

// Save encodes items and replaces the collection with them
func Save[T any](ctx context.Context, g *Gateway, name string, items []T) error {
	raw, err := encode(name, items)
	if err != nil {
		return err
	}
	return g.SaveAll(ctx, name, raw)
}

// Update is the typed form of Gateway.Update
func Update[T any](ctx context.Context, g *Gateway, name string, fn func([]T) ([]T, bool, error)) error {
	return g.Update(ctx, name, func(raw []json.RawMessage) ([]json.RawMessage, bool, error) {
		items, err := decode[T](name, raw)
		if err != nil {
			return nil, false, err
		}

		updated, changed, err := fn(items)
		if err != nil || !changed {
			return nil, changed, err
		}

		out, err := encode(name, updated)
		if err != nil {
			return nil, false, err
		}
		return out, true, nil
	})
}

func decode[T any](name string, raw []json.RawMessage) ([]T, error) {
	items := make([]T, 0, len(raw))
	for i, r := range raw {
		var item T
		if err := json.Unmarshal(r, &item); err != nil {
			return nil, apperrors.NewInternalError(fmt.Sprintf("record %d of %s is malformed", i, name), err)
		}
		items = append(items, item)
	}
	return items, nil
}

func encode[T any](name string, items []T) ([]json.RawMessage, error) {
	raw := make([]json.RawMessage, 0, len(items))
	for i := range items {
		data, err := json.Marshal(items[i])
		if err != nil {
			return nil, apperrors.NewInternalError(fmt.Sprintf("failed to encode record %d of %s", i, name), err)
		}
		raw = append(raw, data)
	}
	return raw, nil
}
