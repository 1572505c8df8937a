package domain

import (
	"errors"
	"math"
	"testing"
)

func TestCatalogCompleteness(t *testing.T) {
	cat, err := NewConstituentCatalog()
	if err != nil {
		t.Fatalf("NewConstituentCatalog: %v", err)
	}

	for _, name := range []string{"M2", "S2", "K1", "O1"} {
		if _, ok := cat.Definition(name); !ok {
			t.Errorf("catalog is missing %s", name)
		}
	}

	for _, name := range cat.Names() {
		def, _ := cat.Definition(name)
		if def.Kind != Basic {
			continue
		}
		if len(def.ArgCoeffs) != 6 {
			t.Errorf("%s: argument vector has %d terms, want 6", name, len(def.ArgCoeffs))
		}
		if len(def.NodalCoeffs) != 7 {
			t.Errorf("%s: nodal vector has %d terms, want 7", name, len(def.NodalCoeffs))
		}
	}
}

// A derived constituent's speed must equal the signed sum of its members'
// speeds; a mismatch means the static table is internally inconsistent.
func TestDerivedSpeedsConsistent(t *testing.T) {
	cat, err := NewConstituentCatalog()
	if err != nil {
		t.Fatalf("NewConstituentCatalog: %v", err)
	}

	for _, name := range cat.Names() {
		def, _ := cat.Definition(name)
		if def.Kind == Basic {
			continue
		}
		var sum float64
		for _, m := range def.Members {
			base, ok := cat.Definition(m.Base)
			if !ok {
				t.Fatalf("%s: base %s not in catalog", name, m.Base)
			}
			sum += float64(m.Exponent) * base.SpeedDegPerHr
		}
		if math.Abs(sum-def.SpeedDegPerHr) > 1e-5 {
			t.Errorf("%s: member speeds sum to %.7f, table says %.7f", name, sum, def.SpeedDegPerHr)
		}
	}
}

// Basic speeds must match the rates implied by their argument coefficients
// (T advances 15 deg/hr, s 0.5490165, h 0.0410686, p 0.0046418, p1 ~2e-6).
func TestBasicSpeedsMatchArguments(t *testing.T) {
	rates := [6]float64{15.0, 0.54901653, 0.04106864, 0.00464183, 0.00000196, 0}

	cat, err := NewConstituentCatalog()
	if err != nil {
		t.Fatalf("NewConstituentCatalog: %v", err)
	}
	for _, name := range cat.Names() {
		def, _ := cat.Definition(name)
		if def.Kind != Basic {
			continue
		}
		var speed float64
		for i, c := range def.ArgCoeffs {
			speed += c * rates[i]
		}
		if math.Abs(speed-def.SpeedDegPerHr) > 1e-4 {
			t.Errorf("%s: argument coefficients imply %.7f deg/hr, table says %.7f", name, speed, def.SpeedDegPerHr)
		}
	}
}

func TestCatalogOrderBasesFirst(t *testing.T) {
	cat, err := NewConstituentCatalog()
	if err != nil {
		t.Fatalf("NewConstituentCatalog: %v", err)
	}

	seen := make(map[string]bool)
	for _, name := range cat.Names() {
		def, _ := cat.Definition(name)
		for _, m := range def.Members {
			if !seen[m.Base] {
				t.Errorf("%s resolved before its base %s", name, m.Base)
			}
		}
		seen[name] = true
	}
}

func TestCatalogRejectsCycle(t *testing.T) {
	defs := []ConstituentDefinition{
		derived("A", Compound, 1.0, CompoundTerm{"B", 1}),
		derived("B", Compound, 1.0, CompoundTerm{"A", 1}),
	}
	if _, err := buildCatalog(defs); !errors.Is(err, ErrCombinationCycle) {
		t.Fatalf("expected ErrCombinationCycle, got %v", err)
	}
}

func TestCatalogRejectsUnknownBase(t *testing.T) {
	defs := []ConstituentDefinition{
		derived("A", Shallow, 1.0, CompoundTerm{"NOPE", 2}),
	}
	if _, err := buildCatalog(defs); !errors.Is(err, ErrUnknownBase) {
		t.Fatalf("expected ErrUnknownBase, got %v", err)
	}
}

func TestCatalogRejectsMissingVectors(t *testing.T) {
	defs := []ConstituentDefinition{
		{Name: "BAD", Kind: Basic, SpeedDegPerHr: 30.0},
	}
	if _, err := buildCatalog(defs); !errors.Is(err, ErrMissingCoefficients) {
		t.Fatalf("expected ErrMissingCoefficients, got %v", err)
	}
}
