package engine

import "math/rand"

// Shuffle permutes items in place using Fisher-Yates, giving each
// permutation equal probability.
func Shuffle[T any](items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// PickOne returns a uniformly chosen element. The second return is false for
// an empty slice.
func PickOne[T any](items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	return items[rand.Intn(len(items))], true
}
