package domain

import "time"

// AstroArgs holds the fundamental astronomical arguments at an instant,
// all in degrees and reduced to [0, 360), plus the slowly varying auxiliary
// angles derived from them. Based on Schureman (1958) and Foreman (1977).
type AstroArgs struct {
	T  float64 // Hour angle of the mean sun.
	S  float64 // Mean longitude of the moon.
	H  float64 // Mean longitude of the sun.
	P  float64 // Mean longitude of the lunar perigee.
	N  float64 // Mean longitude of the lunar ascending node.
	P1 float64 // Mean longitude of the solar perigee (perihelion).

	I        float64 // Inclination of the lunar orbit to the equator.
	Xi       float64 // Longitude in the moon's orbit of the lunar intersection.
	Nu       float64 // Right ascension of the lunar intersection.
	NuPrime  float64 // Term in the argument of K1.
	NuSecond float64 // Term in the argument of K2.
	QAngle   float64 // Term in the argument of M1.
	RAngle   float64 // Term in the argument of L2.
}

const (
	// Days between the Unix epoch and J2000.0 (2000-01-01 12:00:00 UTC).
	unixToJ2000Days = 10957.5

	obliquity      = 23.4393 // Obliquity of the ecliptic (degrees).
	lunarOrbitTilt = 5.1454  // Inclination of the lunar orbit to the ecliptic (degrees).
)

// ArgsAt computes the astronomical argument set for an instant.
// It is a pure function of time; results are never cached.
func ArgsAt(t time.Time) AstroArgs {
	u := t.UTC()

	// Julian centuries from J2000.0.
	daysFromJ2000 := float64(u.UnixMilli())/86400000.0 - unixToJ2000Days
	T := daysFromJ2000 / 36525.0

	// Low-order polynomial approximations (Schureman, 1958; Meeus).
	s := 218.3164477 + 481267.88123421*T - 0.0015786*T*T + T*T*T/538841.0
	h := 280.46646 + 36000.76983*T + 0.0003032*T*T
	p := 83.35324 + 4069.01363*T - 0.0103238*T*T - T*T*T/80053.0
	n := 125.04452 - 1934.136261*T + 0.0020708*T*T + T*T*T/450000.0
	p1 := 282.94 + 1.7192*T

	// Hour angle of the mean sun, measured from the lower transit.
	hours := float64(u.Hour()) + float64(u.Minute())/60.0 + float64(u.Second())/3600.0
	tau := 180.0 + 15.0*hours

	args := AstroArgs{
		T:  Norm360(tau),
		S:  Norm360(s),
		H:  Norm360(h),
		P:  Norm360(p),
		N:  Norm360(n),
		P1: Norm360(p1),
	}
	args.deriveAuxiliary()
	return args
}

// deriveAuxiliary fills in the Schureman auxiliary angles from N and P.
func (a *AstroArgs) deriveAuxiliary() {
	a.I = Acosd(0.91370 - 0.03569*Cosd(a.N))

	// Xi and Nu from the spherical triangle formed by the equator, the
	// ecliptic and the lunar orbit (Schureman's xi and nu).
	halfSum := (obliquity + lunarOrbitTilt) / 2.0
	halfDiff := (obliquity - lunarOrbitTilt) / 2.0
	tanHalfN := Tand(a.N / 2.0)

	e1 := Atand(Cosd(halfDiff) / Cosd(halfSum) * tanHalfN)
	e2 := Atand(Sind(halfDiff) / Sind(halfSum) * tanHalfN)
	// Keep the arctangents on the same branch as N/2.
	if a.N/2.0 > 90.0 {
		e1 += 180.0
		e2 += 180.0
	}
	e1 -= a.N / 2.0
	e2 -= a.N / 2.0

	a.Xi = -(e1 + e2)
	a.Nu = e1 - e2

	// NuPrime and NuSecond (Schureman equations 224 and 232).
	sin2I := Sind(2.0 * a.I)
	sinI2 := Sind(a.I) * Sind(a.I)
	a.NuPrime = Atan2d(sin2I*Sind(a.Nu), sin2I*Cosd(a.Nu)+0.3347)
	a.NuSecond = 0.5 * Atan2d(sinI2*Sind(2.0*a.Nu), sinI2*Cosd(2.0*a.Nu)+0.0727)

	// P measured from the lunar intersection.
	capP := a.P - a.Xi

	// QAngle for M1 (Schureman equation 203) and RAngle for L2 (equation 214).
	cosI := Cosd(a.I)
	a.QAngle = Atan2d((5.0*cosI-1.0)*Sind(capP), (7.0*cosI+1.0)*Cosd(capP))

	tanHalfI := Tand(a.I / 2.0)
	a.RAngle = Atan2d(Sind(2.0*capP), 1.0/(6.0*tanHalfI*tanHalfI)-Cosd(2.0*capP))
}

// argVector returns the fundamental arguments in the order the constituent
// catalog's six-term coefficient vectors expect.
func (a AstroArgs) argVector() [6]float64 {
	return [6]float64{a.T, a.S, a.H, a.P, a.P1, 90.0}
}

// auxVector returns the auxiliary angles in the order the seven-term nodal
// coefficient vectors expect.
func (a AstroArgs) auxVector() [7]float64 {
	return [7]float64{a.Xi, a.Nu, a.NuPrime, a.NuSecond, a.QAngle, a.RAngle, a.N}
}
