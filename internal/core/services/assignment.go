package services

import "math"

// unassigned marks a row with no accepted column.
const unassigned = -1

// tieEpsilon nudges tied assignments toward lower (row, column)
// candidate cells. The nudge only separates solutions that use
// different candidate cells; permutations of the same cells collect
// identical bonuses, and those ties fall to the solver's fixed scan
// order, which is equally deterministic. Either way the nudge sits far
// below the granularity of judge scores and line penalties.
const tieEpsilon = 1e-12

// maximumWeightAssignment solves the exact assignment problem over a
// weight matrix: weights[i][j] is the benefit of pairing row i with
// column j, negative values mark forbidden pairs. It returns, for each
// row, the assigned column or unassigned. The result maximises total
// weight over allowed pairs and resolves ties deterministically.
//
// Edit lists are small (typically under 20 per page), so the O(n^3)
// Hungarian method is used rather than a greedy approximation - exact
// matching removes ambiguity from greedy tie-breaking.
func maximumWeightAssignment(weights [][]float64) []int {
	rows := len(weights)
	if rows == 0 {
		return nil
	}
	cols := 0
	for _, row := range weights {
		if len(row) > cols {
			cols = len(row)
		}
	}

	// Pad to a square cost matrix. Minimising sum(1 - w) over a perfect
	// assignment maximises sum(w); forbidden and padded cells carry
	// weight 0 and are stripped afterwards.
	n := rows
	if cols > n {
		n = cols
	}
	cost := make([][]float64, n)
	for i := range cost {
		cost[i] = make([]float64, n)
		for j := range cost[i] {
			w := 0.0
			if i < rows && j < len(weights[i]) && weights[i][j] > 0 {
				w = weights[i][j] + tieEpsilon*float64((n-i)*n+(n-j))
			}
			cost[i][j] = 1 - w
		}
	}

	assigned := hungarian(cost)

	result := make([]int, rows)
	for i := range result {
		result[i] = unassigned
	}
	for i := 0; i < rows; i++ {
		j := assigned[i]
		if j < len(weights[i]) && weights[i][j] > 0 {
			result[i] = j
		}
	}
	return result
}

// hungarian solves the minimum-cost perfect assignment on a square cost
// matrix using the potentials formulation, returning the column assigned
// to each row.
func hungarian(cost [][]float64) []int {
	n := len(cost)
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	match := make([]int, n+1) // match[j] = row assigned to column j (1-based)
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		match[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = math.Inf(1)
		}

		for {
			used[j0] = true
			i0 := match[j0]
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
					u[match[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if match[j0] == 0 {
				break
			}
		}

		// Augment along the found path.
		for j0 != 0 {
			j1 := way[j0]
			match[j0] = match[j1]
			j0 = j1
		}
	}

	result := make([]int, n)
	for j := 1; j <= n; j++ {
		if match[j] > 0 {
			result[match[j]-1] = j - 1
		}
	}
	return result
}
