package nodeflow

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
)

// execItems runs execWithRetry once per item, sequentially or in parallel.
func execItems(ctx context.Context, n Node, name string, prep any, mode fanout) ([]any, error) {
	items, err := toItems(prep)
	if err != nil {
		return nil, err
	}

	if mode == fanoutParallel {
		futures := make([]*Future[any], len(items))
		for i, item := range items {
			futures[i] = Go(ctx, func(ctx context.Context) (any, error) {
				return execWithRetry(ctx, n, name, item)
			})
		}
		return settled(ctx, n.base(), name, Settle(futures))
	}

	results := make([]any, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := execWithRetry(ctx, n, name, item)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// settled unpacks outcomes in dispatch order. When branches failed, the
// lowest-index failure is returned and the rest are logged.
func settled[T any](ctx context.Context, b *BaseNode, name string, outcomes []Outcome[T]) ([]T, error) {
	idx, err := firstFailure(outcomes)
	if err != nil {
		for i, o := range outcomes {
			if i == idx || o.Err == nil {
				continue
			}
			b.log().WarnContext(ctx, "parallel branch failed",
				slog.String("node", name),
				slog.Int("branch", i),
				slog.Any("error", o.Err),
			)
		}
		return nil, err
	}

	values := make([]T, len(outcomes))
	for i, o := range outcomes {
		values[i] = o.Value
	}
	return values, nil
}

// toItems converts a batch node's prep result into a list of items.
// nil yields an empty batch.
func toItems(v any) ([]any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return t, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: expected a slice, got %T", ErrInvalidBatch, v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// toParamSets converts a batch flow's prep result into param sets.
func toParamSets(v any) ([]Params, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []Params:
		return t, nil
	case []map[string]any:
		out := make([]Params, len(t))
		for i, m := range t {
			out[i] = Params(m)
		}
		return out, nil
	case []any:
		out := make([]Params, len(t))
		for i, e := range t {
			switch m := e.(type) {
			case Params:
				out[i] = m
			case map[string]any:
				out[i] = Params(m)
			case nil:
				out[i] = Params{}
			default:
				return nil, fmt.Errorf("%w: param set %d has type %T", ErrInvalidBatch, i, e)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: expected a list of param sets, got %T", ErrInvalidBatch, v)
}
