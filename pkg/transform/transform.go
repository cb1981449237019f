// Package transform provides the monotone scalar transforms used to run the
// analysis in a transformed space, such as log space for precipitation.
// Forward and Backward are exact inverses on valid values; callers are
// responsible for skipping missing values.
package transform

import (
	"fmt"
	"math"

	"github.com/khintz/gridpp/pkg/field"
)

// Transform maps values into the analysis space and back.
type Transform interface {
	// Forward maps a value into transformed space.
	Forward(value float64) float64
	// Backward maps a transformed value back into physical space.
	Backward(value float64) float64
}

// Identity leaves values unchanged.
type Identity struct{}

func (Identity) Forward(value float64) float64  { return value }
func (Identity) Backward(value float64) float64 { return value }

// Log transforms values by the natural logarithm.
type Log struct{}

func (Log) Forward(value float64) float64  { return math.Log(value) }
func (Log) Backward(value float64) float64 { return math.Exp(value) }

// BoxCox is the one-parameter Box-Cox power transform. Lambda zero reduces
// to the log transform.
type BoxCox struct {
	Lambda float64
}

// NewBoxCox creates a Box-Cox transform with the given lambda.
func NewBoxCox(lambda float64) (BoxCox, error) {
	if !field.IsValid(lambda) {
		return BoxCox{}, fmt.Errorf("%w: lambda must be a valid number", field.ErrInvalidArgument)
	}
	return BoxCox{Lambda: lambda}, nil
}

func (t BoxCox) Forward(value float64) float64 {
	if t.Lambda == 0 {
		return math.Log(value)
	}
	return (math.Pow(value, t.Lambda) - 1) / t.Lambda
}

func (t BoxCox) Backward(value float64) float64 {
	if t.Lambda == 0 {
		return math.Exp(value)
	}
	base := t.Lambda*value + 1
	if base < 0 {
		base = 0
	}
	return math.Pow(base, 1/t.Lambda)
}
