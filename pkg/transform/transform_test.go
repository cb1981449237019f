package transform

import (
	"errors"
	"math"
	"testing"

	"github.com/khintz/gridpp/pkg/field"
)

// TestIdentity verifies the identity transform leaves values unchanged
func TestIdentity(t *testing.T) {
	tr := Identity{}
	for _, value := range []float64{-3, 0, 0.5, 1e6} {
		if tr.Forward(value) != value {
			t.Errorf("Expected forward %f, got %f", value, tr.Forward(value))
		}
		if tr.Backward(value) != value {
			t.Errorf("Expected backward %f, got %f", value, tr.Backward(value))
		}
	}
}

// TestLogRoundTrip verifies that backward inverts forward
func TestLogRoundTrip(t *testing.T) {
	tr := Log{}
	for _, value := range []float64{0.1, 1, 2.5, 100} {
		got := tr.Backward(tr.Forward(value))
		if math.Abs(got-value) > 1e-12*value {
			t.Errorf("Expected round trip %f, got %f", value, got)
		}
	}
	if tr.Forward(1) != 0 {
		t.Errorf("Expected log(1) = 0, got %f", tr.Forward(1))
	}
}

// TestBoxCox verifies the power transform and its log limit
func TestBoxCox(t *testing.T) {
	tr, err := NewBoxCox(0.5)
	if err != nil {
		t.Fatalf("Failed to create transform: %v", err)
	}
	// Forward of 4 with lambda 0.5: (sqrt(4) - 1) / 0.5 = 2
	if got := tr.Forward(4); math.Abs(got-2) > 1e-12 {
		t.Errorf("Expected forward 2, got %f", got)
	}
	for _, value := range []float64{0.1, 1, 4, 50} {
		got := tr.Backward(tr.Forward(value))
		if math.Abs(got-value) > 1e-10*value {
			t.Errorf("Expected round trip %f, got %f", value, got)
		}
	}

	// Lambda zero reduces to the log transform
	zero, err := NewBoxCox(0)
	if err != nil {
		t.Fatalf("Failed to create transform: %v", err)
	}
	if got := zero.Forward(math.E); math.Abs(got-1) > 1e-12 {
		t.Errorf("Expected forward 1, got %f", got)
	}

	// Invalid lambda is rejected
	if _, err := NewBoxCox(field.MissingValue); !errors.Is(err, field.ErrInvalidArgument) {
		t.Errorf("Expected invalid argument error, got %v", err)
	}
}
