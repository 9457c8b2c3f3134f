// Package score implements warning-to-GSR matching and quality scoring.
package score

import (
	"fmt"
	"math"
	"time"
)

// SlopeScore maps result linearly onto [0, 1]: 1 at or below min, 0 at or
// above max. min must be strictly less than max.
func SlopeScore(result, min, max float64) (float64, error) {
	if min >= max {
		return 0, fmt.Errorf("slope score: min %v must be less than max %v", min, max)
	}
	if result <= min {
		return 1, nil
	}
	if result >= max {
		return 0, nil
	}
	return 1 - (result-min)/(max-min), nil
}

// FacetScore scores a warning's facet value against the set of acceptable GSR
// values. A GSR value naming one of the wildcards accepts any warning value;
// otherwise the warning must name one of the acceptable values.
func FacetScore(warnValue string, gsrValues, wildcards []string) float64 {
	for _, g := range gsrValues {
		for _, w := range wildcards {
			if g == w {
				return 1
			}
		}
	}
	for _, g := range gsrValues {
		if warnValue == g {
			return 1
		}
	}
	return 0
}

// DateDiff returns the signed number of days from the warning date to the GSR
// date. Positive means the event happened after the warned date.
func DateDiff(warnDate, gsrDate time.Time) int {
	return int(gsrDate.Sub(warnDate).Hours() / 24)
}

// DateScore converts an absolute date difference to a score falling linearly
// from 1 at zero days to 0 at maxDiff days.
func DateScore(dateDiff int, maxDiff float64) (float64, error) {
	return SlopeScore(math.Abs(float64(dateDiff)), 0, maxDiff)
}

// F1 is the harmonic mean of precision and recall, defined as 0 when both are
// 0. Inputs outside [0, 1] are rejected.
func F1(precision, recall float64) (float64, error) {
	if precision < 0 || precision > 1 {
		return 0, fmt.Errorf("f1: precision %v out of range [0, 1]", precision)
	}
	if recall < 0 || recall > 1 {
		return 0, fmt.Errorf("f1: recall %v out of range [0, 1]", recall)
	}
	if precision == 0 && recall == 0 {
		return 0, nil
	}
	return 2 * precision * recall / (precision + recall), nil
}

// CombinationMats expands row and column value slices into two aligned
// matrices so that rowMat[i][j] and colMat[i][j] give the (i, j) pairing.
func CombinationMats[T any](rowValues, colValues []T) ([][]T, [][]T) {
	rowMat := make([][]T, len(rowValues))
	colMat := make([][]T, len(rowValues))
	for i, rv := range rowValues {
		rowMat[i] = make([]T, len(colValues))
		colMat[i] = make([]T, len(colValues))
		for j, cv := range colValues {
			rowMat[i][j] = rv
			colMat[i][j] = cv
		}
	}
	return rowMat, colMat
}

// IndexMats builds the index form of CombinationMats: rowMat[i][j] == i and
// colMat[i][j] == j.
func IndexMats(nRows, nCols int) ([][]int, [][]int) {
	rows := make([]int, nRows)
	cols := make([]int, nCols)
	for i := range rows {
		rows[i] = i
	}
	for j := range cols {
		cols[j] = j
	}
	return CombinationMats(rows, cols)
}
