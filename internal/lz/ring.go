package lz

// RingCapacity is the ring buffer size (spec §4.9's 16-bit back-reference
// offset needs at least this much history addressable).
const RingCapacity = 1 << 16

// Ring is the per-connection append-only circular history LZ77X matches
// against. Only whole-packet appends are ever made to it (spec §4.9: "the
// encoder appends the original bytes of every successfully emitted packet
// after encoding"), never partial or speculative writes.
type Ring struct {
	buf      [RingCapacity]byte
	writePos int
	filled   int
}

// Reset empties the ring (spec §4.11's Context.Reset).
func (r *Ring) Reset() {
	r.writePos = 0
	r.filled = 0
}

// Len reports how many bytes of history are currently addressable.
func (r *Ring) Len() int {
	if r.filled > RingCapacity {
		return RingCapacity
	}
	return r.filled
}

// Append writes data into the ring, overwriting the oldest bytes once it
// wraps. Longer than RingCapacity, only the last RingCapacity bytes of
// data survive.
func (r *Ring) Append(data []byte) {
	if len(data) >= RingCapacity {
		data = data[len(data)-RingCapacity:]
		r.writePos = 0
		r.filled = RingCapacity
		copy(r.buf[:], data)
		return
	}
	for _, b := range data {
		r.buf[r.writePos] = b
		r.writePos = (r.writePos + 1) % RingCapacity
	}
	r.filled += len(data)
}

// At returns the byte distanceBack positions behind the current write
// position (1 = most recently appended byte). distanceBack must be in
// [1, Len()].
func (r *Ring) At(distanceBack int) byte {
	idx := (r.writePos - distanceBack + RingCapacity) % RingCapacity
	return r.buf[idx]
}

// tail returns the most recent up-to-n bytes of history, oldest first,
// as a freshly built snapshot suitable for hashing (spec §4.9: the ring
// hash table is "reseeded on each LZ77X invocation rather than
// maintained incrementally").
func (r *Ring) tail(n int) []byte {
	l := r.Len()
	if n > l {
		n = l
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		// out[0] is the oldest byte in the snapshot, out[n-1] the most recent.
		out[i] = r.At(n - i)
	}
	return out
}
