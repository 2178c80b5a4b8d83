package monitor

// Walker visits, in a fixed order, every native entry a backend accepts. A
// walker must apply the same filter and order on every call: the counting pass
// and the filling pass both run it, and the count sizes the allocation.
type Walker[T any] func(visit func(T)) error

// Count runs the counting pass of walk.
func Count[T any](walk Walker[T]) (int, error) {
	n := 0
	err := walk(func(T) { n++ })
	return n, err
}

// Fill allocates exactly n slots and runs the filling pass of walk, building
// one result per visited entry. Entries visited past n are dropped and
// reported through overflow so the caller can log the drift. Build may
// return ok=false to skip an entry.
func Fill[T, R any](n int, walk Walker[T], build func(T) (R, bool)) (out []R, overflow int, err error) {
	if n < 0 {
		n = 0
	}
	out = make([]R, 0, n)
	err = walk(func(entry T) {
		if len(out) == n {
			overflow++
			return
		}
		if r, ok := build(entry); ok {
			out = append(out, r)
		}
	})
	return out, overflow, err
}

// Collect runs the counting pass followed by the filling pass.
func Collect[T, R any](walk Walker[T], build func(T) (R, bool)) ([]R, int, error) {
	n, err := Count(walk)
	if err != nil {
		return nil, 0, err
	}
	return Fill(n, walk, build)
}
