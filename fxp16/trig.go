// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package fxp16

// Angles for sin/cos/tan/atan2/atan/asin/acos are pi-normalized Q1.15:
// the domain [-1.0, +1.0) represents [-pi, +pi). cordicK is the
// precomputed CORDIC gain for 14 circular rotation-mode iterations.
const (
	q15One      = X32(1) << 15  // exact 1.0, used by asin/acos's 1-x^2
	q15AlmostOne = X32(0x7FFF)  // +pi in the pi-normalized angle domain
	q15MinusOne = X32(-1) << 15 // -pi in the pi-normalized angle domain, exact
	q15HalfPi   = q15One >> 1   // +-pi/2
	cordicK     = X(0x4DBA)     // round(0.607252935 * 2^15)
	cordicIters = 14
)

// atanTableQ15Pi[i] = round(atan(2^-i)/pi * 2^15), i = 0..13.
var atanTableQ15Pi = [cordicIters]X32{
	0x2000, 0x12E4, 0x09FB, 0x0511, 0x028B, 0x0146, 0x00A3, 0x0051,
	0x0029, 0x0014, 0x000A, 0x0005, 0x0003, 0x0001,
}

// cordicSinCos computes sin and cos of a pi-normalized Q1.15 angle via
// 14-iteration CORDIC rotation mode, after folding (pi/2, pi] and
// [-pi, -pi/2) into the stable [-pi/2, pi/2] range.
func cordicSinCos(angle X) (sin, cos X) {
	z := X32(angle)
	signCos := X32(1)

	switch {
	case z > q15HalfPi:
		z = q15AlmostOne - z
		signCos = -1
	case z < -q15HalfPi:
		z = q15MinusOne - z
		signCos = -1
	}

	x, y := X32(cordicK), X32(0)
	for i := 0; i < cordicIters; i++ {
		xShift := x >> uint(i)
		yShift := y >> uint(i)
		a := atanTableQ15Pi[i]
		if z >= 0 {
			x, y = Sat32(int64(x)-int64(yShift)), Sat32(int64(y)+int64(xShift))
			z -= a
		} else {
			x, y = Sat32(int64(x)+int64(yShift)), Sat32(int64(y)-int64(xShift))
			z += a
		}
	}

	cos = Sat(signCos * x)
	sin = Sat(y)
	return sin, cos
}

// Sin returns sin(angle) in Q1.15 for a pi-normalized Q1.15 angle.
func Sin(angle X) X {
	sin, _ := cordicSinCos(angle)
	return sin
}

// Cos returns cos(angle) in Q1.15 for a pi-normalized Q1.15 angle.
func Cos(angle X) X {
	_, cos := cordicSinCos(angle)
	return cos
}

// Tan returns tan(angle) in Qfrac for a pi-normalized Q1.15 angle.
// tan(+-pi/2) sets DOM and returns +-Max/Min.
func Tan(angle X, frac uint8) X {
	switch X32(angle) {
	case -q15HalfPi:
		setDOM()
		return Max
	case q15HalfPi:
		setDOM()
		return Min
	}

	sin, cos := cordicSinCos(angle)
	x := (X32(sin) << 15) / X32(cos)
	x = ashift(x, 15-int(frac))
	return Sat(x)
}

// Atan2 returns the pi-normalized Q1.15 angle of (y,x) via CORDIC
// vectoring mode, 14 iterations, following the same zero/quadrant
// conventions as the standard library's math.Atan2.
func Atan2(y, x X) X {
	if y == 0 {
		switch {
		case x > 0:
			return 0
		case x < 0:
			return Sat(q15AlmostOne)
		default:
			return 0
		}
	}
	if x == 0 {
		halfPi := X(q15HalfPi)
		if y > 0 {
			return halfPi
		}
		return -halfPi
	}

	yNonNeg := y >= 0
	xNeg := x < 0

	xi, yi := int32(x), int32(y)
	if xNeg {
		xi, yi = -xi, -yi
	}

	var z int32
	for i := 0; i < cordicIters; i++ {
		xShift := xi >> uint(i)
		yShift := yi >> uint(i)
		a := int32(atanTableQ15Pi[i])
		if yi > 0 {
			xi, yi = xi+yShift, yi-xShift
			z += a
		} else {
			xi, yi = xi-yShift, yi+xShift
			z -= a
		}
		if yi == 0 {
			break
		}
	}

	if xNeg {
		if yNonNeg {
			z += int32(q15AlmostOne)
		} else {
			z -= int32(q15AlmostOne)
		}
	}

	return Sat(X32(z))
}

// Atan returns atan(y) in a pi-normalized Q1.15 angle: y is rescaled to
// Q1.15, then y and a unit x are repeatedly halved together until
// |y|<=1, before delegating to Atan2.
func Atan(y X, frac uint8) X {
	x := q15One
	Y := ashift(X32(y), int(frac)-15)

	for Y > q15One || Y < -q15One {
		Y = Arshift(Y, 1)
		x = Arshift(x, 1)
	}

	return Atan2(Sat(Y), Sat(x))
}

// Asin returns asin(x) = atan2(x, sqrt(1-x^2)) in Q1.15.
func Asin(x X) X {
	c := sqrtOneMinusSquareQ15(x)
	return Atan2(x, c)
}

// Acos returns acos(x) = atan2(sqrt(1-x^2), x) in Q1.15.
func Acos(x X) X {
	c := sqrtOneMinusSquareQ15(x)
	return Atan2(c, x)
}

// sqrtOneMinusSquareQ15 computes sqrt(1-x^2) in Q1.15, clamping the
// intermediate 1-x^2 to [0, 0x7FFF] so |x|==1 yields exactly 0.
func sqrtOneMinusSquareQ15(x X) X {
	xi := int64(x)
	prodQ15 := (xi * xi) >> 15
	t := (int64(1) << 15) - prodQ15
	if t < 0 {
		t = 0
	}
	if t > 0x7FFF {
		t = 0x7FFF
	}
	return Sqrt(X(t), 15)
}
