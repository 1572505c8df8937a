package domain

import (
	"fmt"
	"math"
)

// Corrections holds the slowly varying correction terms for one constituent
// over one prediction interval: a dimensionless amplitude factor f, a phase
// correction u in degrees and the equilibrium argument V0 in degrees at the
// interval start.
type Corrections struct {
	F  float64
	U  float64
	V0 float64
}

// m2NodeFactor and o1NodeFactor are named because the L2 and M1 equations
// build on them; referencing the table from inside its own literal would be
// an initialization cycle.
func m2NodeFactor(a AstroArgs) float64 {
	half := Cosd(a.I / 2.0)
	return half * half * half * half / 0.9154
}

func o1NodeFactor(a AstroArgs) float64 {
	half := Cosd(a.I / 2.0)
	return Sind(a.I) * half * half / 0.3800
}

// nodeFactorTable maps each formula id to its node-factor equation.
// The equations are Schureman's (1958) mean-value-normalized node factors,
// all functions of the midpoint auxiliary angles.
var nodeFactorTable = map[FormulaID]func(AstroArgs) float64{
	FormulaUnity: func(AstroArgs) float64 { return 1.0 },
	FormulaMm: func(a AstroArgs) float64 {
		sinI := Sind(a.I)
		return (2.0/3.0 - sinI*sinI) / 0.5021
	},
	FormulaMf: func(a AstroArgs) float64 {
		sinI := Sind(a.I)
		return sinI * sinI / 0.1578
	},
	FormulaO1: o1NodeFactor,
	FormulaJ1: func(a AstroArgs) float64 {
		return Sind(2.0*a.I) / 0.7214
	},
	FormulaOO1: func(a AstroArgs) float64 {
		half := Sind(a.I / 2.0)
		return Sind(a.I) * half * half / 0.0164
	},
	FormulaM2: m2NodeFactor,
	FormulaK1: func(a AstroArgs) float64 {
		sin2I := Sind(2.0 * a.I)
		return math.Sqrt(0.8965*sin2I*sin2I + 0.6001*sin2I*Cosd(a.Nu) + 0.1006)
	},
	FormulaK2: func(a AstroArgs) float64 {
		sinI := Sind(a.I)
		sin2 := sinI * sinI
		return math.Sqrt(19.0444*sin2*sin2 + 2.7702*sin2*Cosd(2.0*a.Nu) + 0.0981)
	},
	FormulaL2: func(a AstroArgs) float64 {
		tanHalf := Tand(a.I / 2.0)
		t2 := tanHalf * tanHalf
		capP := a.P - a.Xi
		raInv := math.Sqrt(1.0 - 12.0*t2*Cosd(2.0*capP) + 36.0*t2*t2)
		return m2NodeFactor(a) * raInv
	},
	FormulaM1: func(a AstroArgs) float64 {
		capP := a.P - a.Xi
		qaInv := math.Sqrt(2.310 + 1.435*Cosd(2.0*capP))
		return o1NodeFactor(a) * qaInv
	},
	FormulaM3: func(a AstroArgs) float64 {
		half := Cosd(a.I / 2.0)
		return math.Pow(half, 6.0) / 0.8758
	},
}

// NodalCorrections evaluates {f, u, V0} for a Basic constituent over an
// interval described by its start and midpoint argument sets. A Basic
// definition missing its coefficient vectors is catalog corruption and fails
// immediately; silently substituting zeros would produce wrong predictions.
func NodalCorrections(def *ConstituentDefinition, start, mid AstroArgs) (Corrections, error) {
	if def.Kind != Basic {
		return Corrections{}, fmt.Errorf("constituent %s is not basic", def.Name)
	}
	if len(def.ArgCoeffs) != 6 || len(def.NodalCoeffs) != 7 {
		return Corrections{}, fmt.Errorf("%w: %s", ErrMissingCoefficients, def.Name)
	}

	formula, ok := nodeFactorTable[def.Formula]
	if !ok {
		return Corrections{}, fmt.Errorf("constituent %s selects unknown node-factor formula %d", def.Name, def.Formula)
	}

	var v0 float64
	for i, arg := range start.argVector() {
		v0 += def.ArgCoeffs[i] * arg
	}

	var u float64
	for i, aux := range mid.auxVector() {
		u += def.NodalCoeffs[i] * aux
	}

	return Corrections{
		F:  formula(mid),
		U:  u,
		V0: Norm360(v0),
	}, nil
}

// IntervalCorrections evaluates corrections for every catalog constituent
// over one interval. Derived constituents combine the already-computed terms
// of their bases: f multiplies (by the exponent magnitude, since the node
// factor is a positive amplitude modulation), u and V0 add scaled by the
// signed exponent. Resolution order guarantees bases come first.
func (c *ConstituentCatalog) IntervalCorrections(start, mid AstroArgs) (map[string]Corrections, error) {
	out := make(map[string]Corrections, len(c.order))
	for _, name := range c.order {
		def := c.defs[name]
		if def.Kind == Basic {
			corr, err := NodalCorrections(def, start, mid)
			if err != nil {
				return nil, err
			}
			out[name] = corr
			continue
		}

		combined := Corrections{F: 1.0}
		for _, m := range def.Members {
			base, ok := out[m.Base]
			if !ok {
				return nil, fmt.Errorf("%w: %s needs %s", ErrUnknownBase, name, m.Base)
			}
			exp := float64(m.Exponent)
			combined.F *= math.Pow(base.F, math.Abs(exp))
			combined.U += exp * base.U
			combined.V0 += exp * base.V0
		}
		combined.V0 = Norm360(combined.V0)
		out[name] = combined
	}
	return out, nil
}
