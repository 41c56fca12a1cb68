package fn

import "sync"

// FanOut runs functions concurrently and returns results in order.
// It waits for every function; none is abandoned when another fails.
func FanOut[T any](fns ...func() T) []T {
	out := make([]T, len(fns))
	var wg sync.WaitGroup
	for i, f := range fns {
		wg.Add(1)
		go func(i int, f func() T) {
			defer wg.Done()
			out[i] = f()
		}(i, f)
	}
	wg.Wait()
	return out
}

// Settle runs every stage concurrently and partitions the outcomes by key.
func Settle[K comparable, T any](keys []K, fns ...func() Result[T]) (map[K]T, map[K]error) {
	return Partition(keys, FanOut(fns...))
}
