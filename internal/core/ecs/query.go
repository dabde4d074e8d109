package ecs

// Each iterates over every attached T.
func Each[T any](w *World, fn func(EntityID, *T)) {
	pool, ok := lookupPool[T](w)
	if !ok {
		return
	}
	pool.Each(fn)
}

// Count returns the number of attached components of type T.
func Count[T any](w *World) int {
	pool, ok := lookupPool[T](w)
	if !ok {
		return 0
	}
	return pool.Len()
}

// Each2 iterates over entities that have both component A and B.
// It iterates over the smaller pool and checks the other through the owner
// index.
func Each2[A, B any](w *World, fn func(EntityID, *A, *B)) {
	pa, okA := lookupPool[A](w)
	pb, okB := lookupPool[B](w)
	if !okA || !okB {
		return
	}
	if pa.Len() <= pb.Len() {
		pa.Each(func(id EntityID, a *A) {
			if b := component(w, pb, id); b != nil {
				fn(id, a, b)
			}
		})
	} else {
		pb.Each(func(id EntityID, b *B) {
			if a := component(w, pa, id); a != nil {
				fn(id, a, b)
			}
		})
	}
}

// Each3 iterates over entities that have components A, B, and C.
func Each3[A, B, C any](w *World, fn func(EntityID, *A, *B, *C)) {
	pa, okA := lookupPool[A](w)
	pb, okB := lookupPool[B](w)
	pc, okC := lookupPool[C](w)
	if !okA || !okB || !okC {
		return
	}

	// Iterate the smallest pool
	smallest := pa.Len()
	which := 0
	if pb.Len() < smallest {
		smallest = pb.Len()
		which = 1
	}
	if pc.Len() < smallest {
		which = 2
	}

	switch which {
	case 0:
		pa.Each(func(id EntityID, a *A) {
			if b := component(w, pb, id); b != nil {
				if c := component(w, pc, id); c != nil {
					fn(id, a, b, c)
				}
			}
		})
	case 1:
		pb.Each(func(id EntityID, b *B) {
			if a := component(w, pa, id); a != nil {
				if c := component(w, pc, id); c != nil {
					fn(id, a, b, c)
				}
			}
		})
	case 2:
		pc.Each(func(id EntityID, c *C) {
			if a := component(w, pa, id); a != nil {
				if b := component(w, pb, id); b != nil {
					fn(id, a, b, c)
				}
			}
		})
	}
}

func component[T any](w *World, p *Pool[T], id EntityID) *T {
	ref, ok := w.storage.find(id, p.typ)
	if !ok {
		return nil
	}
	return p.Get(ref.ID)
}
