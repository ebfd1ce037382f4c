package evtree

// Common predicate combinators for composing filters out of smaller ones.

// AndPredicate runs every predicate in order and requires all to pass. A
// nil predicate in the list is treated as always-true.
func AndPredicate(predicates ...Predicate) Predicate {
	return func(event any, key any) bool {
		for _, p := range predicates {
			if p == nil {
				continue
			}
			if !p(event, key) {
				return false
			}
		}
		return true
	}
}

// OrPredicate requires at least one predicate to pass.
func OrPredicate(predicates ...Predicate) Predicate {
	return func(event any, key any) bool {
		for _, p := range predicates {
			if p == nil {
				continue
			}
			if p(event, key) {
				return true
			}
		}
		return false
	}
}

// NotPredicate inverts p. A nil p is treated as always-true, so NotPredicate
// of it is always-false.
func NotPredicate(p Predicate) Predicate {
	return func(event any, key any) bool {
		if p == nil {
			return false
		}
		return !p(event, key)
	}
}

// KeyEquals returns a predicate that matches when the extracted key equals
// want.
func KeyEquals(want any) Predicate {
	return func(event any, key any) bool {
		return key == want
	}
}
