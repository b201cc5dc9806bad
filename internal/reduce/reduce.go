// Package reduce implements a parallel key-partitioned map-reduce.
//
// Input is split into contiguous chunks, one per worker. Each worker folds
// its chunk into a private map; the partial maps are merged after all
// workers finish. No state is shared while workers run, so the merge
// function must be commutative and associative for the result to be
// independent of chunking.
package reduce

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// cancelCheckEvery is how many items a worker folds between context checks
const cancelCheckEvery = 4096

// Emitter receives the (key, value) contributions of one input item
type Emitter[K comparable, V any] func(key K, value V)

// MapFunc turns one input item into zero or more contributions
type MapFunc[T any, K comparable, V any] func(item T, emit Emitter[K, V])

// MergeFunc combines two values of the same key
type MergeFunc[V any] func(a, b V) V

// MapReduce folds items into a map using up to workers goroutines
func MapReduce[T any, K comparable, V any](
	ctx context.Context,
	items []T,
	workers int,
	mapFn MapFunc[T, K, V],
	merge MergeFunc[V],
) (map[K]V, error) {
	chunks := Split(len(items), workers)
	partials := make([]map[K]V, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		i, c := i, c
		g.Go(func() error {
			local := make(map[K]V)
			emit := func(key K, value V) {
				if cur, ok := local[key]; ok {
					local[key] = merge(cur, value)
					return
				}
				local[key] = value
			}

			for n, item := range items[c.Start:c.End] {
				if n%cancelCheckEvery == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				mapFn(item, emit)
			}

			partials[i] = local
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Merge(partials, merge), nil
}

// Merge folds partial maps into one
func Merge[K comparable, V any](partials []map[K]V, merge MergeFunc[V]) map[K]V {
	size := 0
	for _, p := range partials {
		if len(p) > size {
			size = len(p)
		}
	}

	out := make(map[K]V, size)
	for _, p := range partials {
		for k, v := range p {
			if cur, ok := out[k]; ok {
				out[k] = merge(cur, v)
				continue
			}
			out[k] = v
		}
	}
	return out
}

// Chunk is a half-open index range [Start, End)
type Chunk struct {
	Start int
	End   int
}

// Split divides n items into at most workers contiguous chunks of near equal size.
// It returns no chunks when n is zero.
func Split(n, workers int) []Chunk {
	if n <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	chunks := make([]Chunk, 0, workers)
	size, rem := n/workers, n%workers
	start := 0
	for i := 0; i < workers; i++ {
		end := start + size
		if i < rem {
			end++
		}
		chunks = append(chunks, Chunk{Start: start, End: end})
		start = end
	}
	return chunks
}

// GroupBy partitions items by key, keeping input order inside each group
func GroupBy[T any, K comparable](items []T, key func(T) K) map[K][]T {
	out := make(map[K][]T)
	for _, item := range items {
		k := key(item)
		out[k] = append(out[k], item)
	}
	return out
}

// ForEachGroup runs fn once per group, up to workers at a time
func ForEachGroup[K comparable, T any](ctx context.Context, groups map[K][]T, workers int, fn func(ctx context.Context, key K, items []T) error) error {
	if workers <= 0 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for k, items := range groups {
		k, items := k, items
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, k, items)
		})
	}
	return g.Wait()
}
