package domain

import (
	"errors"
	"fmt"
)

// ConstituentKind classifies how a constituent's corrections are obtained.
type ConstituentKind int

const (
	// Basic constituents carry their own coefficient vectors.
	Basic ConstituentKind = iota
	// Shallow constituents are overtides of a single base constituent.
	Shallow
	// Compound constituents combine two or more base constituents.
	Compound
)

// FormulaID selects one of the node-factor equations for a Basic constituent.
type FormulaID int

const (
	FormulaUnity FormulaID = iota
	FormulaMm
	FormulaMf
	FormulaO1
	FormulaJ1
	FormulaOO1
	FormulaM2
	FormulaK1
	FormulaK2
	FormulaL2
	FormulaM1
	FormulaM3
)

// CompoundTerm names a base constituent and the integer exponent it
// contributes to a Shallow or Compound constituent.
type CompoundTerm struct {
	Base     string
	Exponent int
}

// ConstituentDefinition describes one named tidal harmonic.
//
// For Basic constituents, ArgCoeffs (length 6) multiplies the fundamental
// argument vector [T, s, h, p, p1, 90] to yield the equilibrium argument V0,
// and NodalCoeffs (length 7) multiplies the auxiliary angle vector
// [xi, nu, nu', nu'', Q, R, N] to yield the phase correction u; Formula picks
// the node-factor equation for f. Shallow and Compound constituents carry no
// vectors and instead list the base terms they are built from.
type ConstituentDefinition struct {
	Name          string
	Kind          ConstituentKind
	SpeedDegPerHr float64
	ArgCoeffs     []float64
	NodalCoeffs   []float64
	Formula       FormulaID
	Members       []CompoundTerm
}

// Catalog integrity errors. These are fatal: a catalog that trips them must
// not serve predictions.
var (
	ErrMissingCoefficients = errors.New("basic constituent missing coefficient vectors")
	ErrUnknownBase         = errors.New("compound constituent references unknown base")
	ErrCombinationCycle    = errors.New("cycle in constituent combination graph")
)

func basic(name string, speed float64, args [6]float64, formula FormulaID, nodal [7]float64) ConstituentDefinition {
	return ConstituentDefinition{
		Name:          name,
		Kind:          Basic,
		SpeedDegPerHr: speed,
		ArgCoeffs:     args[:],
		NodalCoeffs:   nodal[:],
		Formula:       formula,
	}
}

func derived(name string, kind ConstituentKind, speed float64, members ...CompoundTerm) ConstituentDefinition {
	return ConstituentDefinition{
		Name:          name,
		Kind:          kind,
		SpeedDegPerHr: speed,
		Members:       members,
	}
}

// Nodal phase coefficient vectors shared by families of constituents
// (Schureman table 2: u of N2, nu2, mu2, 2N2 and lambda2 equals u of M2, and
// the lunar diurnals Q1, 2Q1 and rho1 share u of O1).
var (
	uZero = [7]float64{}
	uM2   = [7]float64{2, -2, 0, 0, 0, 0, 0}
	uO1   = [7]float64{2, -1, 0, 0, 0, 0, 0}
	uK1   = [7]float64{0, 0, -1, 0, 0, 0, 0}
	uK2   = [7]float64{0, 0, 0, -2, 0, 0, 0}
	uJ1   = [7]float64{0, -1, 0, 0, 0, 0, 0}
	uOO1  = [7]float64{-2, -1, 0, 0, 0, 0, 0}
	uM1   = [7]float64{1, -1, 0, 0, 1, 0, 0}
	uL2   = [7]float64{2, -2, 0, 0, 0, -1, 0}
	uMf   = [7]float64{-2, 0, 0, 0, 0, 0, 0}
	uM3   = [7]float64{3, -3, 0, 0, 0, 0, 0}
)

// standardDefinitions is the static constituent table. Speeds are in degrees
// per hour; argument coefficients follow Schureman's equilibrium arguments.
var standardDefinitions = []ConstituentDefinition{
	// Semidiurnal.
	basic("M2", 28.9841042, [6]float64{2, -2, 2, 0, 0, 0}, FormulaM2, uM2),
	basic("S2", 30.0000000, [6]float64{2, 0, 0, 0, 0, 0}, FormulaUnity, uZero),
	basic("N2", 28.4397295, [6]float64{2, -3, 2, 1, 0, 0}, FormulaM2, uM2),
	basic("K2", 30.0821373, [6]float64{2, 0, 2, 0, 0, 0}, FormulaK2, uK2),
	basic("L2", 29.5284789, [6]float64{2, -1, 2, -1, 0, 2}, FormulaL2, uL2),
	basic("T2", 29.9589333, [6]float64{2, 0, -1, 0, 1, 0}, FormulaUnity, uZero),
	basic("R2", 30.0410667, [6]float64{2, 0, 1, 0, -1, 2}, FormulaUnity, uZero),
	basic("2N2", 27.8953548, [6]float64{2, -4, 2, 2, 0, 0}, FormulaM2, uM2),
	basic("MU2", 27.9682084, [6]float64{2, -4, 4, 0, 0, 0}, FormulaM2, uM2),
	basic("NU2", 28.5125831, [6]float64{2, -3, 4, -1, 0, 0}, FormulaM2, uM2),
	basic("LAM2", 29.4556253, [6]float64{2, -1, 0, 1, 0, 2}, FormulaM2, uM2),

	// Diurnal.
	basic("K1", 15.0410686, [6]float64{1, 0, 1, 0, 0, -1}, FormulaK1, uK1),
	basic("O1", 13.9430356, [6]float64{1, -2, 1, 0, 0, 1}, FormulaO1, uO1),
	basic("P1", 14.9589314, [6]float64{1, 0, -1, 0, 0, 1}, FormulaUnity, uZero),
	basic("Q1", 13.3986609, [6]float64{1, -3, 1, 1, 0, 1}, FormulaO1, uO1),
	basic("2Q1", 12.8542862, [6]float64{1, -4, 1, 2, 0, 1}, FormulaO1, uO1),
	basic("RHO1", 13.4715145, [6]float64{1, -3, 3, -1, 0, 1}, FormulaO1, uO1),
	basic("M1", 14.4966939, [6]float64{1, -1, 1, 1, 0, -1}, FormulaM1, uM1),
	basic("J1", 15.5854433, [6]float64{1, 1, 1, -1, 0, -1}, FormulaJ1, uJ1),
	basic("OO1", 16.1391017, [6]float64{1, 2, 1, 0, 0, -1}, FormulaOO1, uOO1),
	basic("S1", 15.0000000, [6]float64{1, 0, 0, 0, 0, 0}, FormulaUnity, uZero),
	basic("PI1", 14.9178647, [6]float64{1, 0, -2, 0, 1, 1}, FormulaUnity, uZero),
	basic("PHI1", 15.1232059, [6]float64{1, 0, 3, 0, 0, -1}, FormulaUnity, uZero),
	basic("PSI1", 15.0821353, [6]float64{1, 0, 2, 0, -1, -1}, FormulaUnity, uZero),

	// Terdiurnal.
	basic("M3", 43.4761563, [6]float64{3, -3, 3, 0, 0, 0}, FormulaM3, uM3),

	// Long period.
	basic("Mf", 1.0980331, [6]float64{0, 2, 0, 0, 0, 0}, FormulaMf, uMf),
	basic("Mm", 0.5443747, [6]float64{0, 1, 0, -1, 0, 0}, FormulaMm, uZero),
	basic("Sa", 0.0410686, [6]float64{0, 0, 1, 0, 0, 0}, FormulaUnity, uZero),
	basic("Ssa", 0.0821373, [6]float64{0, 0, 2, 0, 0, 0}, FormulaUnity, uZero),

	// Shallow-water overtides.
	derived("M4", Shallow, 57.9682084, CompoundTerm{"M2", 2}),
	derived("M6", Shallow, 86.9523127, CompoundTerm{"M2", 3}),
	derived("M8", Shallow, 115.9364166, CompoundTerm{"M2", 4}),
	derived("S4", Shallow, 60.0000000, CompoundTerm{"S2", 2}),
	derived("S6", Shallow, 90.0000000, CompoundTerm{"S2", 3}),

	// Compound tides.
	derived("MK3", Compound, 44.0251729, CompoundTerm{"M2", 1}, CompoundTerm{"K1", 1}),
	derived("2MK3", Compound, 42.9271398, CompoundTerm{"M2", 2}, CompoundTerm{"K1", -1}),
	derived("MN4", Compound, 57.4238337, CompoundTerm{"M2", 1}, CompoundTerm{"N2", 1}),
	derived("MS4", Compound, 58.9841042, CompoundTerm{"M2", 1}, CompoundTerm{"S2", 1}),
	derived("2SM2", Compound, 31.0158958, CompoundTerm{"S2", 2}, CompoundTerm{"M2", -1}),
	derived("MSf", Compound, 1.0158958, CompoundTerm{"S2", 1}, CompoundTerm{"M2", -1}),
}

// ConstituentCatalog holds the immutable constituent definitions, with
// derived constituents ordered after the bases they are built from.
type ConstituentCatalog struct {
	defs  map[string]*ConstituentDefinition
	order []string
}

// NewConstituentCatalog builds the catalog from the static table, resolves
// the combination graph topologically and verifies catalog integrity.
func NewConstituentCatalog() (*ConstituentCatalog, error) {
	return buildCatalog(standardDefinitions)
}

func buildCatalog(source []ConstituentDefinition) (*ConstituentCatalog, error) {
	c := &ConstituentCatalog{defs: make(map[string]*ConstituentDefinition, len(source))}
	for i := range source {
		def := source[i]
		if _, dup := c.defs[def.Name]; dup {
			return nil, fmt.Errorf("duplicate constituent %s", def.Name)
		}
		c.defs[def.Name] = &def
	}

	// Topological pass over the combination graph: bases before dependents.
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(c.defs))
	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: at %s", ErrCombinationCycle, name)
		}
		state[name] = visiting
		def := c.defs[name]
		for _, m := range def.Members {
			base, ok := c.defs[m.Base]
			if !ok {
				return fmt.Errorf("%w: %s needs %s", ErrUnknownBase, name, m.Base)
			}
			if err := visit(base.Name); err != nil {
				return err
			}
		}
		state[name] = done
		c.order = append(c.order, name)
		return nil
	}
	for i := range source {
		if err := visit(source[i].Name); err != nil {
			return nil, err
		}
	}

	if err := c.CheckIntegrity(); err != nil {
		return nil, err
	}
	return c, nil
}

// CheckIntegrity verifies that every Basic constituent carries both
// coefficient vectors. Absence is catalog corruption, not a soft default.
func (c *ConstituentCatalog) CheckIntegrity() error {
	for _, name := range c.order {
		def := c.defs[name]
		if def.Kind != Basic {
			continue
		}
		if len(def.ArgCoeffs) != 6 || len(def.NodalCoeffs) != 7 {
			return fmt.Errorf("%w: %s has %d argument and %d nodal terms",
				ErrMissingCoefficients, name, len(def.ArgCoeffs), len(def.NodalCoeffs))
		}
	}
	return nil
}

// Definition returns the definition for a constituent name.
func (c *ConstituentCatalog) Definition(name string) (*ConstituentDefinition, bool) {
	def, ok := c.defs[name]
	return def, ok
}

// Speed returns the angular speed (degrees/hour) for a constituent name.
func (c *ConstituentCatalog) Speed(name string) (float64, bool) {
	def, ok := c.defs[name]
	if !ok {
		return 0, false
	}
	return def.SpeedDegPerHr, true
}

// Names returns all constituent names in resolution order (bases first).
func (c *ConstituentCatalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of constituents in the catalog.
func (c *ConstituentCatalog) Len() int {
	return len(c.order)
}
