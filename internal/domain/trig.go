package domain

import "math"

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// Sind returns the sine of an angle given in degrees.
func Sind(deg float64) float64 {
	return math.Sin(Deg2Rad(deg))
}

// Cosd returns the cosine of an angle given in degrees.
func Cosd(deg float64) float64 {
	return math.Cos(Deg2Rad(deg))
}

// Tand returns the tangent of an angle given in degrees.
func Tand(deg float64) float64 {
	return math.Tan(Deg2Rad(deg))
}

// Asind returns the arcsine in degrees. Inputs marginally outside [-1, 1]
// from floating-point accumulation are clamped before evaluation.
func Asind(x float64) float64 {
	return Rad2Deg(math.Asin(clampUnit(x)))
}

// Acosd returns the arccosine in degrees, clamping like Asind.
func Acosd(x float64) float64 {
	return Rad2Deg(math.Acos(clampUnit(x)))
}

// Atand returns the arctangent in degrees.
func Atand(x float64) float64 {
	return Rad2Deg(math.Atan(x))
}

// Atan2d returns the two-argument arctangent in degrees.
func Atan2d(y, x float64) float64 {
	return Rad2Deg(math.Atan2(y, x))
}

// Norm360 reduces an angle in degrees to [0, 360).
func Norm360(deg float64) float64 {
	deg = math.Mod(deg, 360.0)
	if deg < 0 {
		deg += 360.0
	}
	return deg
}

func clampUnit(x float64) float64 {
	if x > 1.0 {
		return 1.0
	}
	if x < -1.0 {
		return -1.0
	}
	return x
}
