package structure

import (
	"errors"
	"math"
	"testing"

	"github.com/khintz/gridpp/pkg/field"
	"github.com/khintz/gridpp/pkg/spatial"
)

// TestCorrInvariants verifies that every kernel returns 1 at zero
// separation and stays within [0, 1] for a spread of point pairs
func TestCorrInvariants(t *testing.T) {
	barnes, err := NewBarnesStructure(100000, 200, 0.5, field.MissingValue)
	if err != nil {
		t.Fatalf("Failed to create Barnes structure: %v", err)
	}
	cressman, err := NewCressmanStructure(100000, 200, 0.5)
	if err != nil {
		t.Fatalf("Failed to create Cressman structure: %v", err)
	}
	multiple := NewMultipleStructure(barnes, cressman, barnes)
	cv, err := NewCrossValidation(barnes, 10000)
	if err != nil {
		t.Fatalf("Failed to create cross-validation structure: %v", err)
	}

	kernels := map[string]StructureFunction{
		"barnes":          barnes,
		"cressman":        cressman,
		"multiple":        multiple,
		"crossvalidation": cv,
	}

	points := []spatial.Point{
		{Lat: 60, Lon: 10, Elev: 100, LAF: 0.5},
		{Lat: 60.1, Lon: 10, Elev: 150, LAF: 0.2},
		{Lat: 60, Lon: 10.5, Elev: 0, LAF: 1.0},
		{Lat: 61, Lon: 11, Elev: 900, LAF: 0.0},
	}

	for name, kernel := range kernels {
		for _, p := range points {
			if rho := kernel.Corr(p, p); math.Abs(rho-1) > 1e-12 {
				t.Errorf("%s: expected corr(p,p) = 1, got %f", name, rho)
			}
		}
		for _, p1 := range points {
			for _, p2 := range points {
				rho := kernel.Corr(p1, p2)
				if rho < 0 || rho > 1 {
					t.Errorf("%s: corr out of range: %f", name, rho)
				}
			}
		}
	}
}

// TestBarnesCorr verifies the Gaussian factors against the closed form
func TestBarnesCorr(t *testing.T) {
	h := 100000.0
	barnes, err := NewBarnesStructure(h, 0, 0, field.MissingValue)
	if err != nil {
		t.Fatalf("Failed to create Barnes structure: %v", err)
	}

	p1 := spatial.NewPoint(60, 10)
	p2 := spatial.NewPoint(60.1, 10)
	dist := spatial.CalcDistanceFast(p1, p2)
	expected := math.Exp(-0.5 * dist * dist / (h * h))
	if rho := barnes.Corr(p1, p2); math.Abs(rho-expected) > 1e-9 {
		t.Errorf("Expected corr %f, got %f", expected, rho)
	}

	// The vertical factor multiplies in when both elevations are valid
	withElev, err := NewBarnesStructure(h, 100, 0, field.MissingValue)
	if err != nil {
		t.Fatalf("Failed to create Barnes structure: %v", err)
	}
	p1.Elev = 0
	p2.Elev = 100
	expected *= math.Exp(-0.5)
	if rho := withElev.Corr(p1, p2); math.Abs(rho-expected) > 1e-9 {
		t.Errorf("Expected corr %f, got %f", expected, rho)
	}

	// A missing elevation on either side skips the vertical factor
	p2.Elev = field.MissingValue
	expected /= math.Exp(-0.5)
	if rho := withElev.Corr(p1, p2); math.Abs(rho-expected) > 1e-9 {
		t.Errorf("Expected corr %f with missing elevation, got %f", expected, rho)
	}
}

// TestBarnesLocalization verifies the cutoff radius and the corr
// short-circuit beyond it
func TestBarnesLocalization(t *testing.T) {
	h := 100000.0
	barnes, err := NewBarnesStructure(h, 0, 0, field.MissingValue)
	if err != nil {
		t.Fatalf("Failed to create Barnes structure: %v", err)
	}

	p := spatial.NewPoint(60, 10)
	expected := math.Sqrt(-2*math.Log(DefaultMinRho)) * h
	if d := barnes.LocalizationDistance(p); math.Abs(d-expected) > 1e-6 {
		t.Errorf("Expected localization distance %f, got %f", expected, d)
	}

	// Points beyond the cutoff have exactly zero correlation
	far := spatial.NewPoint(60, 20)
	if spatial.CalcDistanceFast(p, far) <= barnes.LocalizationDistance(p) {
		t.Fatal("Test points are too close together")
	}
	if rho := barnes.Corr(p, far); rho != 0 {
		t.Errorf("Expected zero correlation beyond the cutoff, got %f", rho)
	}

	// An explicit hmax pins the cutoff exactly
	withHmax, err := NewBarnesStructure(h, 0, 0, 250000)
	if err != nil {
		t.Fatalf("Failed to create Barnes structure: %v", err)
	}
	if d := withHmax.LocalizationDistance(p); math.Abs(d-250000) > 1e-6 {
		t.Errorf("Expected localization distance 250000, got %f", d)
	}
}

// TestBarnesConstructionErrors verifies parameter validation
func TestBarnesConstructionErrors(t *testing.T) {
	cases := []struct {
		name    string
		h, v, w float64
		hmax    float64
	}{
		{"negative h", -1, 0, 0, field.MissingValue},
		{"negative v", 100, -1, 0, field.MissingValue},
		{"negative w", 100, 0, -1, field.MissingValue},
		{"negative hmax", 100, 0, 0, -1},
		{"missing h", field.MissingValue, 0, 0, field.MissingValue},
		{"missing v", 100, field.MissingValue, 0, field.MissingValue},
	}
	for _, c := range cases {
		if _, err := NewBarnesStructure(c.h, c.v, c.w, c.hmax); !errors.Is(err, field.ErrInvalidArgument) {
			t.Errorf("%s: expected invalid argument error, got %v", c.name, err)
		}
	}
}

// TestBarnesSpatial verifies per-cell length scales looked up at the first
// point's nearest cell
func TestBarnesSpatial(t *testing.T) {
	grid, err := spatial.NewRegularGrid(1, 2, 0, 0, 1, 1)
	if err != nil {
		t.Fatalf("Failed to create carrier grid: %v", err)
	}
	h := field.Vec2{{50000, 200000}}
	v := field.Vec2{{0, 0}}
	w := field.Vec2{{0, 0}}
	barnes, err := NewBarnesStructureSpatial(grid, h, v, w, DefaultMinRho)
	if err != nil {
		t.Fatalf("Failed to create spatial Barnes structure: %v", err)
	}

	pWest := spatial.NewPoint(0, 0)
	pEast := spatial.NewPoint(0, 1)
	dist := spatial.CalcDistanceFast(pWest, pEast)

	// Lengths come from p1's cell, so the kernel is direction dependent
	expectedWest := math.Exp(-0.5 * dist * dist / (50000 * 50000))
	if spatial.CalcDistanceFast(pWest, pEast) > barnes.LocalizationDistance(pWest) {
		expectedWest = 0
	}
	if rho := barnes.Corr(pWest, pEast); math.Abs(rho-expectedWest) > 1e-9 {
		t.Errorf("Expected corr %f from the west cell, got %f", expectedWest, rho)
	}
	expectedEast := math.Exp(-0.5 * dist * dist / (200000 * 200000))
	if rho := barnes.Corr(pEast, pWest); math.Abs(rho-expectedEast) > 1e-9 {
		t.Errorf("Expected corr %f from the east cell, got %f", expectedEast, rho)
	}

	// The localization radius follows the local horizontal length
	dWest := barnes.LocalizationDistance(pWest)
	dEast := barnes.LocalizationDistance(pEast)
	if math.Abs(dEast/dWest-4) > 1e-9 {
		t.Errorf("Expected the east radius to be 4x the west radius, got %f vs %f", dEast, dWest)
	}

	// Shape mismatches are rejected at construction
	badH := field.Vec2{{50000}}
	if _, err := NewBarnesStructureSpatial(grid, badH, v, w, DefaultMinRho); !errors.Is(err, field.ErrShapeMismatch) {
		t.Errorf("Expected shape mismatch error, got %v", err)
	}
}

// TestCressmanCorr verifies the Cressman form and its hard cutoff
func TestCressmanCorr(t *testing.T) {
	h := 100000.0
	cressman, err := NewCressmanStructure(h, 0, 0)
	if err != nil {
		t.Fatalf("Failed to create Cressman structure: %v", err)
	}

	p1 := spatial.NewPoint(0, 0)
	p2 := spatial.NewPoint(0, 0.45)
	dist := spatial.CalcDistanceFast(p1, p2)
	if dist >= h {
		t.Fatal("Test points must be within the length scale")
	}
	expected := (h*h - dist*dist) / (h*h + dist*dist)
	if rho := cressman.Corr(p1, p2); math.Abs(rho-expected) > 1e-9 {
		t.Errorf("Expected corr %f, got %f", expected, rho)
	}

	// Beyond the length scale the correlation is exactly zero
	far := spatial.NewPoint(0, 2)
	if rho := cressman.Corr(p1, far); rho != 0 {
		t.Errorf("Expected zero correlation beyond the length scale, got %f", rho)
	}

	// The localization distance equals the horizontal length
	if d := cressman.LocalizationDistance(p1); d != h {
		t.Errorf("Expected localization distance %f, got %f", h, d)
	}

	if _, err := NewCressmanStructure(-1, 0, 0); !errors.Is(err, field.ErrInvalidArgument) {
		t.Errorf("Expected invalid argument error, got %v", err)
	}
}

// TestMultipleStructure verifies the tensor product against the factors
// computed one axis at a time
func TestMultipleStructure(t *testing.T) {
	h, err := NewBarnesStructure(100000, 0, 0, field.MissingValue)
	if err != nil {
		t.Fatalf("Failed to create horizontal kernel: %v", err)
	}
	v, err := NewBarnesStructure(0, 200, 0, field.MissingValue)
	if err != nil {
		t.Fatalf("Failed to create vertical kernel: %v", err)
	}
	w, err := NewCressmanStructure(0, 0, 0.5)
	if err != nil {
		t.Fatalf("Failed to create land-area-fraction kernel: %v", err)
	}
	multiple := NewMultipleStructure(h, v, w)

	p1 := spatial.Point{Lat: 60, Lon: 10, Elev: 100, LAF: 1.0}
	p2 := spatial.Point{Lat: 60.2, Lon: 10, Elev: 250, LAF: 0.8}

	dist := spatial.CalcDistanceFast(p1, p2)
	expected := math.Exp(-0.5*dist*dist/(100000*100000)) *
		math.Exp(-0.5*150*150/(200.0*200.0)) *
		(0.5*0.5 - 0.2*0.2) / (0.5*0.5 + 0.2*0.2)
	if rho := multiple.Corr(p1, p2); math.Abs(rho-expected) > 1e-9 {
		t.Errorf("Expected corr %f, got %f", expected, rho)
	}

	// Localization delegates to the horizontal kernel
	if d := multiple.LocalizationDistance(p1); d != h.LocalizationDistance(p1) {
		t.Errorf("Expected horizontal localization distance, got %f", d)
	}
}

// TestCrossValidation verifies that the background correlation is zeroed
// within the cutoff while the plain correlation is untouched
func TestCrossValidation(t *testing.T) {
	barnes, err := NewBarnesStructure(100000, 0, 0, field.MissingValue)
	if err != nil {
		t.Fatalf("Failed to create Barnes structure: %v", err)
	}
	cv, err := NewCrossValidation(barnes, 10000)
	if err != nil {
		t.Fatalf("Failed to create cross-validation structure: %v", err)
	}

	p1 := spatial.NewPoint(60, 10)
	near := spatial.NewPoint(60.05, 10) // about 5.6 km away
	far := spatial.NewPoint(60.5, 10)   // about 56 km away

	if cv.Corr(p1, near) != barnes.Corr(p1, near) {
		t.Error("Corr should delegate to the wrapped kernel")
	}
	if rho := cv.CorrBackground(p1, near); rho != 0 {
		t.Errorf("Expected zero background correlation within the cutoff, got %f", rho)
	}
	if rho := cv.CorrBackground(p1, far); rho != barnes.Corr(p1, far) {
		t.Errorf("Expected delegation beyond the cutoff, got %f", rho)
	}

	if _, err := NewCrossValidation(barnes, -1); !errors.Is(err, field.ErrInvalidArgument) {
		t.Errorf("Expected invalid argument error, got %v", err)
	}
}

// TestClone verifies that clones behave identically and are independently
// owned
func TestClone(t *testing.T) {
	barnes, err := NewBarnesStructure(100000, 200, 0.5, field.MissingValue)
	if err != nil {
		t.Fatalf("Failed to create Barnes structure: %v", err)
	}
	cv, err := NewCrossValidation(barnes, 10000)
	if err != nil {
		t.Fatalf("Failed to create cross-validation structure: %v", err)
	}

	p1 := spatial.Point{Lat: 60, Lon: 10, Elev: 100, LAF: 0.5}
	p2 := spatial.Point{Lat: 60.1, Lon: 10.1, Elev: 150, LAF: 0.4}

	for name, kernel := range map[string]StructureFunction{"barnes": barnes, "crossvalidation": cv} {
		clone := kernel.Clone()
		if clone == kernel {
			t.Errorf("%s: clone returned the original", name)
		}
		if clone.Corr(p1, p2) != kernel.Corr(p1, p2) {
			t.Errorf("%s: clone disagrees on corr", name)
		}
		if clone.CorrBackground(p1, p2) != kernel.CorrBackground(p1, p2) {
			t.Errorf("%s: clone disagrees on corr_background", name)
		}
		if clone.LocalizationDistance(p1) != kernel.LocalizationDistance(p1) {
			t.Errorf("%s: clone disagrees on localization distance", name)
		}
	}
}
