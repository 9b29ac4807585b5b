// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package fxp16

// Hyperbolic cosh/sinh/tanh/exp all work in Q1.15 internally: the input
// is rescaled from its source Q-format to Q1.15, range-reduced by ln 2
// so the CORDIC core only ever sees a small residual, then the result is
// rescaled back to the caller's requested Q-format.
const (
	q15Ln2     = X32(22713) // round(ln(2) * 2^15), FXP16_Q15_M_LN2
	q15InvLn2  = X32(47274) // round(1/ln(2) * 2^15)
	q15KHyp    = X32(39567) // hyperbolic CORDIC gain, ~1.207497 * 2^15
	hypIters   = 16
	tanhEarlySatQ15 = X32(12) << 15 // |x| >= 12.0 saturates tanh/exp early
)

// q15AtanhTab[i] = round(atanh(2^-i) * 2^15), i = 0..16; i==0 is unused
// since hyperbolic CORDIC iterates from i=1 (atanh(1) diverges).
var q15AtanhTab = [hypIters + 1]X32{
	0, 18000, 8369, 4118, 2051, 1024, 512, 256, 128,
	64, 32, 16, 8, 4, 2, 1, 1,
}

// isRepeatHypIter reports whether radix-2 hyperbolic CORDIC must repeat
// iteration i to converge; true at i=4 and i=13.
func isRepeatHypIter(i int) bool { return i == 4 || i == 13 }

// cordicCoshSinhSmall computes (cosh(r), sinh(r)) for a small
// range-reduced residual r in Q15 via 16-iteration hyperbolic CORDIC
// rotation mode (with the i=4 and i=13 repeats radix-2 requires), gain
// already folded into the starting x.
func cordicCoshSinhSmall(r X32) (cosh, sinh X32) {
	x, y, z := q15KHyp, X32(0), r

	for i := 1; i <= hypIters; i++ {
		reps := 1
		if isRepeatHypIter(i) {
			reps = 2
		}
		for k := 0; k < reps; k++ {
			xShift := x >> uint(i)
			yShift := y >> uint(i)
			a := q15AtanhTab[i]
			if z >= 0 {
				x, y, z = x+yShift, y+xShift, z-a
			} else {
				x, y, z = x-yShift, y-xShift, z+a
			}
		}
	}
	return x, y
}

// rangeReduceLn2 splits x = n*ln2 + r with n = round(x/ln2), |r| <= ln2/2,
// using a Q30 intermediate for the division by ln2.
func rangeReduceLn2(x X32) (n int, r X32) {
	t := int64(x) * int64(q15InvLn2) // Q15*Q15 -> Q30
	if t >= 0 {
		n = int((t + (int64(1) << 29)) >> 30)
	} else {
		n = -int(((-t) + (int64(1) << 29)) >> 30)
	}
	r = x - X32(int64(n)*int64(q15Ln2))
	return n, r
}

// scalePow2Q15 scales v by 2^n in Q15: saturating left shift for n>=0,
// rounding right shift for n<0.
func scalePow2Q15(v X32, n int) X32 {
	if n >= 0 {
		return satShl32(v, n)
	}
	return shrRound32(v, -n)
}

// satShl32 left-shifts v by n bits, saturating to the X32 range.
func satShl32(v X32, n int) X32 {
	if n <= 0 {
		return v
	}
	if n >= 31 {
		if v >= 0 {
			return Max32
		}
		return Min32
	}
	return Sat32(int64(v) << uint(n))
}

// shrRound32 arithmetically right-shifts v by n bits, rounding toward
// +inf for non-negative v and truncating for negative v, matching the
// source's asymmetric fxp32_shr_r.
func shrRound32(v X32, n int) X32 {
	if n <= 0 {
		return v
	}
	if n >= 31 {
		if v >= 0 {
			return 0
		}
		return -1
	}
	if v >= 0 {
		return (v + (X32(1) << uint(n-1))) >> uint(n)
	}
	return v >> uint(n)
}

// mulQ15 multiplies two Q15 values via a 64-bit intermediate with a
// pre-shift rounding bias, saturating the result.
func mulQ15(a, b X32) X32 {
	t := int64(a) * int64(b)
	t += int64(1) << 14
	t >>= 15
	return Sat32(t)
}

// addSat32 adds a and b using pure 32-bit arithmetic (no 64-bit
// intermediate), clamping on overflow.
func addSat32(a, b X32) X32 {
	if b > 0 && a > Max32-b {
		return Max32
	}
	if b < 0 && a < Min32-b {
		return Min32
	}
	return a + b
}

// divQ15 divides num by den in Q15 with rounding and saturation to
// (-1, 1). den==0 returns the largest magnitude below 1 with num's sign.
func divQ15(num, den X32) X32 {
	if den == 0 {
		if num >= 0 {
			return q15One - 1
		}
		return -(q15One - 1)
	}

	n := int64(num) << 15
	var bias int64
	if den >= 0 {
		bias = int64(den) >> 1
	} else {
		bias = -((-int64(den)) >> 1)
	}
	if (num >= 0) == (den >= 0) {
		n += bias
	} else {
		n -= bias
	}

	q := n / int64(den)
	if q >= int64(q15One) {
		q = int64(q15One) - 1
	}
	if q <= -int64(q15One) {
		q = -(int64(q15One) - 1)
	}
	return X32(q)
}

// saturateSinhCoshBySign fills in the early-saturation outputs used when
// range reduction finds |n| >= 16: cosh saturates high (cosh >= 1 always
// grows), sinh saturates with x's sign.
func saturateSinhCoshBySign(x X32) (cosh, sinh X32) {
	cosh = Max32
	if x >= 0 {
		sinh = Max32
	} else {
		sinh = Min32
	}
	return cosh, sinh
}

// cordicCoshSinhQ15 computes (cosh(x), sinh(x)) in Q15 via ln2 range
// reduction followed by small-angle hyperbolic CORDIC and exact
// recomposition using A=2^n, B=2^-n.
func cordicCoshSinhQ15(x X32) (cosh, sinh X32) {
	n, r := rangeReduceLn2(x)
	if n >= 16 || n <= -16 {
		return saturateSinhCoshBySign(x)
	}

	cr, sr := cordicCoshSinhSmall(r)

	a := scalePow2Q15(q15One, n)
	b := scalePow2Q15(q15One, -n)

	apb2 := shrRound32(addSat32(a, b), 1)
	amb2 := shrRound32(addSat32(a, -b), 1)

	t1 := mulQ15(cr, apb2)
	t2 := mulQ15(sr, amb2)
	t3 := mulQ15(sr, apb2)
	t4 := mulQ15(cr, amb2)

	cosh = addSat32(t1, t2)
	sinh = addSat32(t3, t4)
	return cosh, sinh
}

// cordicTanhQ15 computes tanh(x) in Q15, with early saturation for
// |x| >= 12.0 to avoid the recomposition's loss of precision there.
func cordicTanhQ15(x X32) X32 {
	if x >= tanhEarlySatQ15 {
		return q15One - 1
	}
	if x <= -tanhEarlySatQ15 {
		return -(q15One - 1)
	}

	c, s := cordicCoshSinhQ15(x)
	if s == 0 {
		return 0
	}
	return divQ15(s, c)
}

// Sinh returns sinh(x), rescaling x from Qx_frac to Q15, evaluating via
// hyperbolic CORDIC, and rescaling the result to Qy_frac.
func Sinh(yFrac uint8, x X, xFrac uint8) X {
	v := ashift(X32(x), int(xFrac)-15)
	_, sinh := cordicCoshSinhQ15(v)
	return Sat(ashift(sinh, 15-int(yFrac)))
}

// Cosh returns cosh(x), rescaling x from Qx_frac to Q15, evaluating via
// hyperbolic CORDIC, and rescaling the result to Qy_frac.
func Cosh(yFrac uint8, x X, xFrac uint8) X {
	v := ashift(X32(x), int(xFrac)-15)
	cosh, _ := cordicCoshSinhQ15(v)
	return Sat(ashift(cosh, 15-int(yFrac)))
}

// Tanh returns tanh(x), rescaling x from Qx_frac to Q15, evaluating via
// hyperbolic CORDIC with early saturation, and rescaling to Qy_frac.
func Tanh(yFrac uint8, x X, xFrac uint8) X {
	v := ashift(X32(x), int(xFrac)-15)
	tanh := cordicTanhQ15(v)
	return Sat(ashift(tanh, 15-int(yFrac)))
}

// Exp returns e^x = cosh(x)+sinh(x), rescaling x from Qx_frac to Q15,
// evaluating both halves via the same hyperbolic CORDIC core, and
// rescaling the saturating sum to Qy_frac.
func Exp(yFrac uint8, x X, xFrac uint8) X {
	v := ashift(X32(x), int(xFrac)-15)
	c, s := cordicCoshSinhQ15(v)
	e := addSat32(c, s)
	return Sat(ashift(e, 15-int(yFrac)))
}
