package score

import "math"

// Assignment records one warning-to-event pairing chosen by the solver, with
// the score of the underlying matrix cell.
type Assignment struct {
	Row   int
	Col   int
	Score float64
}

// MatchResult is the outcome of solving one score matrix.
type MatchResult struct {
	Pairs         []Assignment
	QualityScores []float64
	QualityScore  float64
	Precision     float64
	Recall        float64
	F1            float64
}

// Match solves the maximum-total-score assignment over a warnings-by-events
// score matrix. Rows are warnings, columns are GSR events. Cells introduced
// by padding the matrix to square are never reported as pairs. Pairs whose
// score is 0 are dropped unless allowZeroScores is set; when it is set, zero
// scores stay in the pair list and pull down the mean quality score.
func Match(scores [][]float64, allowZeroScores bool) MatchResult {
	nRows := len(scores)
	nCols := 0
	if nRows > 0 {
		nCols = len(scores[0])
	}
	if nRows == 0 || nCols == 0 {
		return MatchResult{}
	}

	maxScore := 0.0
	for _, row := range scores {
		for _, s := range row {
			if s > maxScore {
				maxScore = s
			}
		}
	}
	if maxScore <= 0 {
		return MatchResult{}
	}

	// Pad to square so every row gets an assignment; clamp negatives so the
	// cost transform stays monotone.
	n := nRows
	if nCols > n {
		n = nCols
	}
	cost := make([][]float64, n)
	for i := range cost {
		cost[i] = make([]float64, n)
		for j := range cost[i] {
			s := 0.0
			if i < nRows && j < nCols {
				s = scores[i][j]
				if s < 0 {
					s = 0
				}
			}
			cost[i][j] = maxScore - s
		}
	}

	assignment := solveAssignment(cost)

	result := MatchResult{}
	total := 0.0
	for row, col := range assignment {
		if row >= nRows || col >= nCols {
			continue
		}
		s := scores[row][col]
		if s <= 0 && !allowZeroScores {
			continue
		}
		if s < 0 {
			s = 0
		}
		result.Pairs = append(result.Pairs, Assignment{Row: row, Col: col, Score: s})
		result.QualityScores = append(result.QualityScores, s)
		total += s
	}

	if len(result.Pairs) > 0 {
		result.QualityScore = total / float64(len(result.Pairs))
	}
	result.Precision = float64(len(result.Pairs)) / float64(nRows)
	result.Recall = float64(len(result.Pairs)) / float64(nCols)
	if f1, err := F1(result.Precision, result.Recall); err == nil {
		result.F1 = f1
	}
	return result
}

// solveAssignment finds the minimum-cost perfect matching of a square cost
// matrix using the Hungarian algorithm with potentials, O(n^3). Returns the
// assigned column for each row.
func solveAssignment(cost [][]float64) []int {
	n := len(cost)
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1)
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = math.Inf(1)
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	assignment := make([]int, n)
	for j := 1; j <= n; j++ {
		if p[j] > 0 {
			assignment[p[j]-1] = j - 1
		}
	}
	return assignment
}
