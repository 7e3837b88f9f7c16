package vision

// Arena tracks matrices acquired during one scope and releases them together.
//
// An Arena is not safe for concurrent use; each detection call or stage owns
// its own.
type Arena struct {
	mats []Matrix
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Track registers m for release and returns it. A nil matrix is ignored.
func (a *Arena) Track(m Matrix) Matrix {
	if m == nil {
		return nil
	}
	for _, existing := range a.mats {
		if existing == m {
			return m
		}
	}
	a.mats = append(a.mats, m)
	return m
}

// Detach removes m from the arena so it survives Release. Ownership passes
// to the caller.
func (a *Arena) Detach(m Matrix) Matrix {
	for i, existing := range a.mats {
		if existing == m {
			a.mats = append(a.mats[:i], a.mats[i+1:]...)
			break
		}
	}
	return m
}

// Len reports how many matrices are currently tracked.
func (a *Arena) Len() int {
	return len(a.mats)
}

// Release frees every tracked matrix in reverse acquisition order and empties
// the arena. The arena can be reused afterwards.
func (a *Arena) Release() {
	for i := len(a.mats) - 1; i >= 0; i-- {
		a.mats[i].Release()
	}
	a.mats = nil
}
