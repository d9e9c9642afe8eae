package slicesx

func Map[T any, U any](xs []T, f func(*T) U) []U {
	out := make([]U, 0, len(xs))

	for i := range xs {
		out = append(out, f(&xs[i]))
	}

	return out
}

func Sum[T int | int64 | float64](xs []T) T {
	var total T

	for _, x := range xs {
		total += x
	}

	return total
}
