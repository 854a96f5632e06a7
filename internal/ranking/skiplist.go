package ranking

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// A skip list keyed by a caller-supplied comparator to achieve O(log n)
// insert and remove. Pages are read by walking level 0 from the offset.

const maxLevel = 16
const pFactor = 0.25

type node[T any] struct {
	v    T
	next [maxLevel]*node[T]
}

// skipList keeps elements ordered under less. It does no locking of its
// own; the owning view serializes access.
type skipList[T any] struct {
	head *node[T]
	lvl  int
	size int
	less func(a, b T) bool
	rng  *rand.Rand
}

func newSkipList[T any](less func(a, b T) bool) *skipList[T] {
	// Use crypto/rand to generate a secure seed for PCG
	var seed [16]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		// Fallback to zero seed if crypto/rand fails (extremely unlikely)
		seed = [16]byte{}
	}
	seed1 := binary.BigEndian.Uint64(seed[:8])
	seed2 := binary.BigEndian.Uint64(seed[8:])

	return &skipList[T]{
		head: &node[T]{},
		lvl:  1,
		less: less,
		rng:  rand.New(rand.NewPCG(seed1, seed2)),
	}
}

func (s *skipList[T]) randomLevel() int {
	lvl := 1
	for lvl < maxLevel && s.rng.Float64() < pFactor {
		lvl++
	}
	return lvl
}

// insert places v at its ordered position. The comparator must order v
// strictly against every element already present; the id tie-break in the
// ranking comparators guarantees that.
func (s *skipList[T]) insert(v T) {
	update := [maxLevel]*node[T]{}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && s.less(cur.next[i].v, v) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	lvl := s.randomLevel()
	if lvl > s.lvl {
		for i := s.lvl; i < lvl; i++ {
			update[i] = s.head
		}
		s.lvl = lvl
	}
	n := &node[T]{v: v}
	for i := 0; i < lvl; i++ {
		n.next[i] = update[i].next[i]
		update[i].next[i] = n
	}
	s.size++
}

// remove deletes the element that compares equal to v (neither orders
// before the other). Returns false when no such element exists.
func (s *skipList[T]) remove(v T) bool {
	update := [maxLevel]*node[T]{}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && s.less(cur.next[i].v, v) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	target := update[0].next[0]
	if target == nil || s.less(v, target.v) {
		return false
	}
	for i := 0; i < s.lvl; i++ {
		if update[i].next[i] == target {
			update[i].next[i] = target.next[i]
		}
	}
	for s.lvl > 1 && s.head.next[s.lvl-1] == nil {
		s.lvl--
	}
	s.size--
	return true
}

// page returns up to limit elements starting at offset, in order.
func (s *skipList[T]) page(offset, limit int) []T {
	if offset < 0 || limit <= 0 || offset >= s.size {
		return nil
	}
	cur := s.head.next[0]
	for i := 0; i < offset && cur != nil; i++ {
		cur = cur.next[0]
	}
	out := make([]T, 0, min(limit, s.size-offset))
	for cur != nil && len(out) < limit {
		out = append(out, cur.v)
		cur = cur.next[0]
	}
	return out
}

func (s *skipList[T]) len() int {
	return s.size
}
