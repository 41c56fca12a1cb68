package fn

// Result[T] is a generic result type for error handling.
type Result[T any] struct {
	val T
	err error
	ok  bool
}

// Ok creates a successful Result.
func Ok[T any](v T) Result[T] {
	return Result[T]{val: v, ok: true}
}

// Err creates a failed Result from an error.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// IsOk returns true if the result is successful.
func (r Result[T]) IsOk() bool { return r.ok }

// IsErr returns true if the result is an error.
func (r Result[T]) IsErr() bool { return !r.ok }

// Unwrap returns the value and error.
func (r Result[T]) Unwrap() (T, error) { return r.val, r.err }

// Error returns the failure, or nil for an Ok result.
func (r Result[T]) Error() error { return r.err }

// FromPair creates a Result from a (value, error) pair.
func FromPair[T any](v T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(v)
}

// Partition splits keyed results into successes and failures. Every key
// lands in exactly one of the two maps. keys and results must be the same
// length; results[i] belongs to keys[i].
func Partition[K comparable, T any](keys []K, results []Result[T]) (map[K]T, map[K]error) {
	oks := make(map[K]T)
	errs := make(map[K]error)
	for i, r := range results {
		if r.ok {
			oks[keys[i]] = r.val
		} else {
			errs[keys[i]] = r.err
		}
	}
	return oks, errs
}
