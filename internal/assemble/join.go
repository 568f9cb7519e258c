// Package assemble joins independently fetched flat collections into the
// nested views the console renders. Every function is pure: the inputs are
// never modified and the same inputs always give structurally equal output.
package assemble

// GroupBy buckets children by their foreign key, keeping input order within each bucket.
func GroupBy[C any, K comparable](children []C, fk func(C) K) map[K][]C {
	out := make(map[K][]C)
	for _, c := range children {
		k := fk(c)
		out[k] = append(out[k], c)
	}
	return out
}

// GroupByOptional is GroupBy for nullable foreign keys. Children whose key is
// absent are left out.
func GroupByOptional[C any, K comparable](children []C, fk func(C) (K, bool)) map[K][]C {
	out := make(map[K][]C)
	for _, c := range children {
		if k, ok := fk(c); ok {
			out[k] = append(out[k], c)
		}
	}
	return out
}

// Index maps parents by primary key. On duplicate keys the first parent wins.
func Index[P any, K comparable](parents []P, pk func(P) K) map[K]P {
	out := make(map[K]P, len(parents))
	for _, p := range parents {
		k := pk(p)
		if _, dup := out[k]; !dup {
			out[k] = p
		}
	}
	return out
}

// Attach builds one output per parent, in parent order, from the parent and
// the children whose foreign key equals its key. Children pointing at a
// parent that is not in parents are dropped.
func Attach[P, C, O any, K comparable](
	parents []P,
	pk func(P) K,
	children []C,
	fk func(C) K,
	merge func(P, []C) O,
) []O {
	groups := GroupBy(children, fk)
	out := make([]O, 0, len(parents))
	for _, p := range parents {
		kids := groups[pk(p)]
		if kids == nil {
			kids = []C{}
		}
		out = append(out, merge(p, kids))
	}
	return out
}

// Map applies f to every element.
func Map[T, U any](in []T, f func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
