package fn

// Map applies f to each element.
func Map[T, U any](items []T, f func(T) U) []U {
	out := make([]U, len(items))
	for i, v := range items {
		out[i] = f(v)
	}
	return out
}

// Filter returns elements where pred is true.
func Filter[T any](items []T, pred func(T) bool) []T {
	var out []T
	for _, v := range items {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}

// FirstNonZero returns the first value that is not the zero value of T.
func FirstNonZero[T comparable](vals ...T) (T, bool) {
	var zero T
	for _, v := range vals {
		if v != zero {
			return v, true
		}
	}
	return zero, false
}
