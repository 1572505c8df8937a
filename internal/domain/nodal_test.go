package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

func intervalArgs(start time.Time, span time.Duration) (AstroArgs, AstroArgs) {
	return ArgsAt(start), ArgsAt(start.Add(span / 2))
}

func TestNodalCorrectionsAllBasics(t *testing.T) {
	cat, err := NewConstituentCatalog()
	if err != nil {
		t.Fatalf("NewConstituentCatalog: %v", err)
	}

	starts := []time.Time{
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, start := range starts {
		startArgs, midArgs := intervalArgs(start, 30*24*time.Hour)
		for _, name := range cat.Names() {
			def, _ := cat.Definition(name)
			if def.Kind != Basic {
				continue
			}
			corr, err := NodalCorrections(def, startArgs, midArgs)
			if err != nil {
				t.Errorf("%s at %v: %v", name, start, err)
				continue
			}
			if corr.F <= 0 || math.IsNaN(corr.F) {
				t.Errorf("%s at %v: f = %v, want positive", name, start, corr.F)
			}
			if corr.V0 < 0 || corr.V0 >= 360 {
				t.Errorf("%s at %v: V0 = %v outside [0, 360)", name, start, corr.V0)
			}
			if math.IsNaN(corr.U) {
				t.Errorf("%s at %v: u is NaN", name, start)
			}
		}
	}
}

func TestNodalCorrectionsSolarIdentity(t *testing.T) {
	cat, err := NewConstituentCatalog()
	if err != nil {
		t.Fatalf("NewConstituentCatalog: %v", err)
	}
	startArgs, midArgs := intervalArgs(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), 30*24*time.Hour)

	// Pure solar constituents take no nodal correction.
	for _, name := range []string{"S2", "P1", "Sa", "Ssa", "T2"} {
		def, _ := cat.Definition(name)
		corr, err := NodalCorrections(def, startArgs, midArgs)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if math.Abs(corr.F-1.0) > 1e-12 || math.Abs(corr.U) > 1e-12 {
			t.Errorf("%s: f = %v, u = %v, want identity", name, corr.F, corr.U)
		}
	}
}

func TestNodalCorrectionsMissingVectorsFail(t *testing.T) {
	def := &ConstituentDefinition{
		Name:          "BROKEN",
		Kind:          Basic,
		SpeedDegPerHr: 28.98,
	}
	startArgs, midArgs := intervalArgs(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Hour)

	_, err := NodalCorrections(def, startArgs, midArgs)
	if !errors.Is(err, ErrMissingCoefficients) {
		t.Fatalf("expected ErrMissingCoefficients, got %v", err)
	}
}

func TestIntervalCorrectionsCombinesDerived(t *testing.T) {
	cat, err := NewConstituentCatalog()
	if err != nil {
		t.Fatalf("NewConstituentCatalog: %v", err)
	}
	startArgs, midArgs := intervalArgs(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), 30*24*time.Hour)

	corr, err := cat.IntervalCorrections(startArgs, midArgs)
	if err != nil {
		t.Fatalf("IntervalCorrections: %v", err)
	}

	m2, m4, m6 := corr["M2"], corr["M4"], corr["M6"]
	if got, want := m4.F, m2.F*m2.F; math.Abs(got-want) > 1e-12 {
		t.Errorf("f(M4) = %v, want f(M2)^2 = %v", got, want)
	}
	if got, want := m6.F, m2.F*m2.F*m2.F; math.Abs(got-want) > 1e-12 {
		t.Errorf("f(M6) = %v, want f(M2)^3 = %v", got, want)
	}
	if got, want := m4.U, 2*m2.U; math.Abs(got-want) > 1e-12 {
		t.Errorf("u(M4) = %v, want 2*u(M2) = %v", got, want)
	}
	if got, want := m4.V0, Norm360(2*m2.V0); math.Abs(got-want) > 1e-9 {
		t.Errorf("V0(M4) = %v, want 2*V0(M2) mod 360 = %v", got, want)
	}

	mk3, k1 := corr["MK3"], corr["K1"]
	if got, want := mk3.F, m2.F*k1.F; math.Abs(got-want) > 1e-12 {
		t.Errorf("f(MK3) = %v, want f(M2)*f(K1) = %v", got, want)
	}
}

// The node factor of M2 oscillates around unity over the 18.6-year nodal
// cycle; sampling two instants half a cycle apart should straddle 1.
func TestNodalCycleModulation(t *testing.T) {
	cat, err := NewConstituentCatalog()
	if err != nil {
		t.Fatalf("NewConstituentCatalog: %v", err)
	}
	def, _ := cat.Definition("M2")

	low := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	high := low.AddDate(9, 4, 0)

	a1, m1 := intervalArgs(low, 24*time.Hour)
	a2, m2 := intervalArgs(high, 24*time.Hour)

	c1, err := NodalCorrections(def, a1, m1)
	if err != nil {
		t.Fatalf("NodalCorrections: %v", err)
	}
	c2, err := NodalCorrections(def, a2, m2)
	if err != nil {
		t.Fatalf("NodalCorrections: %v", err)
	}

	if (c1.F-1)*(c2.F-1) >= 0 {
		t.Errorf("f(M2) at nodal opposites = %v and %v, expected values straddling 1", c1.F, c2.F)
	}
}

// A monthly sweep across more than one full nodal cycle: f(M2) must stay
// inside Schureman's published range, and the L2 and M1 equations (which
// build on the M2 and O1 factors) must stay positive and finite throughout.
func TestNodeFactorSweep(t *testing.T) {
	cat, err := NewConstituentCatalog()
	if err != nil {
		t.Fatalf("NewConstituentCatalog: %v", err)
	}
	m2Def, _ := cat.Definition("M2")
	l2Def, _ := cat.Definition("L2")
	m1Def, _ := cat.Definition("M1")

	for months := 0; months < 20*12; months++ {
		start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
		startArgs, midArgs := intervalArgs(start, 30*24*time.Hour)

		m2, err := NodalCorrections(m2Def, startArgs, midArgs)
		if err != nil {
			t.Fatalf("M2 at %v: %v", start, err)
		}
		if m2.F < 0.963 || m2.F > 1.038 {
			t.Errorf("f(M2) at %v = %v, outside [0.963, 1.038]", start, m2.F)
		}

		for _, tc := range []struct {
			name string
			def  *ConstituentDefinition
		}{{"L2", l2Def}, {"M1", m1Def}} {
			corr, err := NodalCorrections(tc.def, startArgs, midArgs)
			if err != nil {
				t.Fatalf("%s at %v: %v", tc.name, start, err)
			}
			if corr.F <= 0 || math.IsNaN(corr.F) || math.IsInf(corr.F, 0) {
				t.Errorf("f(%s) at %v = %v, want positive and finite", tc.name, start, corr.F)
			}
		}
	}
}
