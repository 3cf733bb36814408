package rollback

// Fletcher32 checksums b as a run of little-endian 16-bit words. An odd
// trailing byte is padded with zero. Sums are folded every 360 words so the
// accumulators never overflow.
func Fletcher32(b []byte) uint32 {
	sum1, sum2 := uint32(0xffff), uint32(0xffff)
	words := (len(b) + 1) / 2
	for i := 0; words > 0; {
		n := words
		if n > 360 {
			n = 360
		}
		words -= n
		for ; n > 0; n-- {
			w := uint32(b[i])
			if i+1 < len(b) {
				w |= uint32(b[i+1]) << 8
			}
			i += 2
			sum1 += w
			sum2 += sum1
		}
		sum1 = sum1&0xffff + sum1>>16
		sum2 = sum2&0xffff + sum2>>16
	}
	sum1 = sum1&0xffff + sum1>>16
	sum2 = sum2&0xffff + sum2>>16
	return sum2<<16 | sum1
}
