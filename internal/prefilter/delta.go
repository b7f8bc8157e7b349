package prefilter

// DeltaEncode writes into dst the field-class-aware residual of cur
// against prev (spec §4.6). cur and prev must be the same length as dst;
// dst may alias cur or prev.
func DeltaEncode(dst, cur, prev []byte) {
	for i, c := range cur {
		p := prev[i]
		switch bucketClass[CtxBucket(i)] {
		case classInt, classOrdinal:
			dst[i] = c - p
		default: // classFloat, classBitmask
			dst[i] = c ^ p
		}
	}
}

// DeltaDecode recovers cur from a residual produced by DeltaEncode and
// the same prev buffer; it is DeltaEncode's exact inverse per offset, so
// encode∘decode is the identity whenever prev matches on both sides. dst
// may alias residual.
func DeltaDecode(dst, residual, prev []byte) {
	for i, r := range residual {
		p := prev[i]
		switch bucketClass[CtxBucket(i)] {
		case classInt, classOrdinal:
			dst[i] = r + p
		default:
			dst[i] = r ^ p
		}
	}
}
