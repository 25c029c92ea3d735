package sajson

// AllocatorStats reports internal allocator behavior for a completed parse,
// for callers deciding which strategy to use on their workload.
type AllocatorStats struct {
	// Capacity is the final size, in words, of the structure region.
	Capacity int
	// PeakUsed is the largest simultaneous (forward + backward) word count
	// the parse reached.
	PeakUsed int
	// Grows is the number of times a dynamic allocator doubled capacity.
	// Always zero for single_allocation.
	Grows int
}

// allocator owns the structure region: one []uint used simultaneously as a
// forward-growing scratch stack (open container frames) and a
// backward-growing arena (finished values). write is the next free forward
// slot; out is the next free backward slot (everything in [out, len(words))
// is already finished).
type allocator struct {
	words   []uint
	write   int
	out     int
	dynamic bool
	grows   int
	peak    int
}

// newSingleAllocator preallocates one word per input byte on 64-bit words
// (numberWordCount per byte, i.e. two, on 32-bit words, where every number
// takes two backward words). This is sajson's bound: every structural byte
// contributes at most one forward word and at most one backward payload
// slot, and installContainer reuses a closed container's own scratch
// words, so growth never happens and reserve is a pure bookkeeping check.
func newSingleAllocator(inputLen int) *allocator {
	n := inputLen * numberWordCount
	if n == 0 {
		n = 1
	}
	words := make([]uint, n)
	return &allocator{words: words, write: 0, out: n}
}

// newDynamicAllocator starts small and grows by doubling. initialWords
// gives callers a way to size the first allocation to an expected
// document; a small floor keeps pathological zero/negative hints safe.
func newDynamicAllocator(initialWords int) *allocator {
	n := initialWords
	if n < 16 {
		n = 16
	}
	words := make([]uint, n)
	return &allocator{words: words, write: 0, out: n, dynamic: true}
}

func (a *allocator) gap() int {
	return a.out - a.write
}

// reserve ensures at least n words of slack remain between the forward and
// backward cursors, growing a dynamic allocator as needed. single_allocation
// never legitimately needs to grow; if it ever does (a sizing bug, or
// adversarial input defeating the byte-count bound), this returns
// OutOfMemory rather than let write/out cross and corrupt the tape. It
// also fails once the structure region holds more words than a tagged
// word's payload field (valueMask) can address.
func (a *allocator) reserve(n int) bool {
	for a.gap() < n {
		if !a.dynamic {
			return false
		}
		if !a.grow() {
			return false
		}
	}
	return uint(len(a.words)) <= valueMask
}

// grow doubles capacity, copying the forward prefix to the same low indices
// and the backward suffix to the same-length high indices of the new
// buffer. Forward-region indices are therefore stable across a grow, but
// every backward-region index shifts up by newCap-oldCap -- a pending
// forward-scratch word that names a backward index (parser.go's
// installContainer bookkeeping) must store that index as distFromEnd, a
// quantity this copy preserves exactly, and recover the shifted absolute
// index later via fromEnd. A stored index that mixed a stable forward
// index with a not-yet-shifted backward one would go stale the moment a
// later grow happened before that word was consumed.
func (a *allocator) grow() bool {
	oldCap := len(a.words)
	newCap := oldCap * 2
	if newCap <= oldCap {
		return false
	}
	newWords := make([]uint, newCap)
	copy(newWords, a.words[:a.write])
	tail := oldCap - a.out
	copy(newWords[newCap-tail:], a.words[a.out:])
	a.out = newCap - tail
	a.words = newWords
	a.grows++
	return true
}

func (a *allocator) trackPeak() {
	used := a.write + (len(a.words) - a.out)
	if a.out < a.write {
		// installContainer's copy overlaps the scratch frame it consumes.
		used = len(a.words)
	}
	if used > a.peak {
		a.peak = used
	}
}

// pushForward appends one word to the forward scratch region.
func (a *allocator) pushForward(word uint) int {
	idx := a.write
	a.words[idx] = word
	a.write++
	a.trackPeak()
	return idx
}

// pushBackward prepends one word to the backward arena, returning its
// final absolute index.
func (a *allocator) pushBackward(word uint) int {
	a.out--
	a.words[a.out] = word
	a.trackPeak()
	return a.out
}

// distFromEnd converts an absolute backward-arena index into a
// grow-invariant quantity: its distance from the end of the structure
// region. grow() copies the already-written backward suffix to the
// same-length high end of the new, bigger array, so every backward
// index's distance from the end is unchanged by growth -- only the
// absolute index itself shifts (by the growth amount). Forward-scratch
// words that need to reference a backward index across a possible
// intervening grow must store this, not the raw index; fromEnd recovers
// the (possibly shifted) absolute index later using the allocator's
// length at that later time.
func (a *allocator) distFromEnd(idx int) int {
	return len(a.words) - idx
}

// fromEnd is the inverse of distFromEnd, evaluated against the
// allocator's current length.
func (a *allocator) fromEnd(dist int) int {
	return len(a.words) - dist
}

func (a *allocator) at(idx int) uint {
	return a.words[idx]
}

func (a *allocator) set(idx int, word uint) {
	a.words[idx] = word
}

func (a *allocator) stats() AllocatorStats {
	return AllocatorStats{
		Capacity: len(a.words),
		PeakUsed: a.peak,
		Grows:    a.grows,
	}
}
