package prefilter

import "testing"

func TestCtxBucketBoundaries(t *testing.T) {
	cases := []struct {
		offset int
		want   int
	}{
		{0, 0}, {7, 0}, {8, 1}, {15, 1}, {16, 2}, {31, 3}, {32, 4},
		{47, 4}, {48, 5}, {1023, 12}, {1024, 13}, {16383, 14}, {16384, 15},
		{100000, 15},
	}
	for _, c := range cases {
		if got := CtxBucket(c.offset); got != c.want {
			t.Errorf("CtxBucket(%d) = %d, want %d", c.offset, got, c.want)
		}
	}
}

func TestCtxBucketMonotonic(t *testing.T) {
	prev := CtxBucket(0)
	for i := 1; i < 20000; i++ {
		b := CtxBucket(i)
		if b < prev {
			t.Fatalf("CtxBucket(%d) = %d < CtxBucket(%d) = %d, want non-decreasing", i, b, i-1, prev)
		}
		prev = b
	}
}
