// Package neighbourhood provides windowed search-and-replace filtering of
// gridded fields: each output cell is substituted from the location of the
// maximum of a search field within a square window, subject to criteria on
// the centre value and the window maximum.
package neighbourhood

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/khintz/gridpp/pkg/field"
)

// CalcNeighbourhood scans, for each gridpoint whose search value lies in
// [criteriaMin, criteriaMax), the square window of radius halfwidth in the
// search field and substitutes the target value from the location of the
// window maximum when that maximum reaches targetMin. Centres outside the
// criteria range keep their target value; windows with no valid entry
// produce zero. Missing search values are skipped.
func CalcNeighbourhood(array, searchArray field.Vec2, halfwidth int,
	criteriaMin, criteriaMax, targetMin, targetMax float64) (field.Vec2, error) {

	if criteriaMin > criteriaMax {
		return nil, fmt.Errorf("%w: criteria min %g exceeds criteria max %g",
			field.ErrInvalidArgument, criteriaMin, criteriaMax)
	}
	if targetMin > targetMax {
		return nil, fmt.Errorf("%w: target min %g exceeds target max %g",
			field.ErrInvalidArgument, targetMin, targetMax)
	}
	if halfwidth < 0 {
		return nil, fmt.Errorf("%w: halfwidth must be >= 0", field.ErrInvalidArgument)
	}
	nY, nX := array.Size()
	if !array.IsRectangular() || !searchArray.IsRectangular() {
		return nil, fmt.Errorf("%w: fields must be rectangular", field.ErrShapeMismatch)
	}
	if sy, sx := searchArray.Size(); sy != nY || sx != nX {
		return nil, fmt.Errorf("%w: search field is %dx%d, target field is %dx%d",
			field.ErrShapeMismatch, sy, sx, nY, nX)
	}

	output := field.InitVec2(nY, nX)

	numWorkers := runtime.NumCPU()
	rowsPerWorker := (nY + numWorkers - 1) / numWorkers
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		startY := w * rowsPerWorker
		endY := (w + 1) * rowsPerWorker
		if endY > nY {
			endY = nY
		}
		if startY >= nY {
			continue
		}

		wg.Add(1)
		go func(startY, endY int) {
			defer wg.Done()
			for y := startY; y < endY; y++ {
				for x := 0; x < nX; x++ {
					output[y][x] = replaceFromWindow(array, searchArray, y, x,
						halfwidth, criteriaMin, criteriaMax, targetMin)
				}
			}
		}(startY, endY)
	}
	wg.Wait()

	return output, nil
}

// replaceFromWindow computes the output for a single gridpoint.
func replaceFromWindow(array, searchArray field.Vec2, y, x, halfwidth int,
	criteriaMin, criteriaMax, targetMin float64) float64 {

	// A missing centre value fails both comparisons and is treated like an
	// in-range centre; the window scan decides what happens.
	centre := searchArray[y][x]
	if centre < criteriaMin || centre >= criteriaMax {
		return array[y][x]
	}

	nY, nX := array.Size()
	yStart, yEnd := y-halfwidth, y+halfwidth
	if yStart < 0 {
		yStart = 0
	}
	if yEnd > nY-1 {
		yEnd = nY - 1
	}
	xStart, xEnd := x-halfwidth, x+halfwidth
	if xStart < 0 {
		xStart = 0
	}
	if xEnd > nX-1 {
		xEnd = nX - 1
	}

	found := false
	currentMax := 0.0
	maxY, maxX := 0, 0
	for yy := yStart; yy <= yEnd; yy++ {
		for xx := xStart; xx <= xEnd; xx++ {
			value := searchArray[yy][xx]
			if !field.IsValid(value) {
				continue
			}
			if !found || value > currentMax {
				found = true
				currentMax = value
				maxY, maxX = yy, xx
			}
		}
	}

	if !found {
		return 0
	}
	if currentMax < targetMin {
		return array[y][x]
	}
	return array[maxY][maxX]
}
