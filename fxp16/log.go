// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package fxp16

// logScale constants rescale log2(x) into the requested base: natural
// log multiplies by ln(2), log10 by log10(2), and log2 itself by 1.0.
const q15Log10_2 = X32(9864) // round(log10(2) * 2^15)

// msb32 returns the 0-based bit position of v's most significant set
// bit, or -1 if v==0.
func msb32(v uint32) int {
	p := -1
	for v != 0 {
		v >>= 1
		p++
	}
	return p
}

// log2Q15 computes log2(x) in Q15 for x in Q15, x>0. It normalizes
// x = m*2^p with m in [1,2) then extracts 15 fractional bits of log2(m)
// by repeated squaring: at each step m is squared, and if the square
// reaches 2.0 the corresponding output bit is set and m is halved back
// into [1,2).
func log2Q15(x X32) X32 {
	if x <= 0 {
		setDOM()
		return Min32
	}

	ux := uint32(x)
	p := msb32(ux)

	var mQ15 X32
	sh := 15 - p
	if sh >= 0 {
		mQ15 = X32(ux) << uint(sh)
	} else {
		mQ15 = shrRound32(X32(ux), -sh)
	}

	accQ15 := X32(p-15) << 15

	const twoQ15 = X32(2) << 15
	for i := 1; i <= 15; i++ {
		m2 := mulQ15(mQ15, mQ15)
		if m2 >= twoQ15 {
			mQ15 = m2 >> 1
			accQ15 += X32(1) << uint(15-i)
		} else {
			mQ15 = m2
		}
	}
	return accQ15
}

// logNQ15 computes log_base(x) = log2(x)*logScale, both in Q15, x>0.
func logNQ15(x, logScale X32) X32 {
	if x <= 0 {
		setDOM()
		return Min32
	}
	l2 := log2Q15(x)
	if l2 == Min32 && Errno() {
		return Min32
	}
	return mulQ15(l2, logScale)
}

// logN is the shared core for Log2/Log/Log10: rescale x from Qx_frac to
// Q15, run logNQ15, rescale the result to Qy_frac.
func logN(yFrac uint8, x X, xFrac uint8, logScale X32) X {
	if x <= 0 {
		setDOM()
		return Min
	}
	tmp := ashift(X32(x), int(xFrac)-15)
	tmp = logNQ15(tmp, logScale)
	tmp = ashift(tmp, 15-int(yFrac))
	return Sat(tmp)
}

// Log2 returns log2(x), x in Qx_frac, result in Qy_frac. x<=0 sets DOM
// and returns Min.
func Log2(yFrac uint8, x X, xFrac uint8) X {
	return logN(yFrac, x, xFrac, q15One)
}

// Log returns the natural log of x, x in Qx_frac, result in Qy_frac.
// x<=0 sets DOM and returns Min.
func Log(yFrac uint8, x X, xFrac uint8) X {
	return logN(yFrac, x, xFrac, q15Ln2)
}

// Log10 returns the base-10 log of x, x in Qx_frac, result in Qy_frac.
// x<=0 sets DOM and returns Min.
func Log10(yFrac uint8, x X, xFrac uint8) X {
	return logN(yFrac, x, xFrac, q15Log10_2)
}

// Log1p returns ln(1+x), x in Qx_frac, result in Qy_frac. x<=0 sets DOM
// and returns Min.
func Log1p(yFrac uint8, x X, xFrac uint8) X {
	if x <= 0 {
		setDOM()
		return Min
	}
	tmp := ashift(X32(x), int(xFrac)-15)
	tmp = addSat32(tmp, q15One)
	tmp = logNQ15(tmp, q15Ln2)
	tmp = ashift(tmp, 15-int(yFrac))
	return Sat(tmp)
}
