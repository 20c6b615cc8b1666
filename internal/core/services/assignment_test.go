package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMaximumWeightAssignment_PrefersTotalWeight tests that the solver
// maximises the sum of weights rather than greedily taking the single
// best pair.
func TestMaximumWeightAssignment_PrefersTotalWeight(t *testing.T) {
	// Greedy would take (0,0)=0.9 and be left with (1,1)=0.1 for a total
	// of 1.0; the optimum is (0,1)+(1,0)=1.6.
	weights := [][]float64{
		{0.9, 0.8},
		{0.8, 0.1},
	}

	assigned := maximumWeightAssignment(weights)

	assert.Equal(t, []int{1, 0}, assigned)
}

// TestMaximumWeightAssignment_PermutationTie tests a tie between two
// full permutations of the same candidate cells. The index bonus is
// identical for both, so the outcome rests on the solver's fixed scan
// order; pin it so any change to that order is caught.
func TestMaximumWeightAssignment_PermutationTie(t *testing.T) {
	weights := [][]float64{
		{0.5, 0.5},
		{0.5, 0.5},
	}

	for i := 0; i < 10; i++ {
		assert.Equal(t, []int{0, 1}, maximumWeightAssignment(weights))
	}
}

// TestMaximumWeightAssignment_ColumnTie tests that a row with two
// equally good columns takes the lower column.
func TestMaximumWeightAssignment_ColumnTie(t *testing.T) {
	weights := [][]float64{
		{0.5, 0.5},
	}

	assert.Equal(t, []int{0}, maximumWeightAssignment(weights))
}

// TestMaximumWeightAssignment_RowTie tests that two rows competing for
// one column resolve to the lower row.
func TestMaximumWeightAssignment_RowTie(t *testing.T) {
	weights := [][]float64{
		{0.7},
		{0.7},
	}

	assert.Equal(t, []int{0, unassigned}, maximumWeightAssignment(weights))
}

// TestMaximumWeightAssignment_ForbiddenPairs tests that zero-weight
// cells never produce an assignment.
func TestMaximumWeightAssignment_ForbiddenPairs(t *testing.T) {
	weights := [][]float64{
		{0, 0.7},
		{0, 0},
	}

	assigned := maximumWeightAssignment(weights)

	assert.Equal(t, []int{1, unassigned}, assigned)
}

// TestMaximumWeightAssignment_Rectangular tests non-square matrices in
// both orientations.
func TestMaximumWeightAssignment_Rectangular(t *testing.T) {
	wide := [][]float64{
		{0.2, 0.9, 0.3},
	}
	assert.Equal(t, []int{1}, maximumWeightAssignment(wide))

	tall := [][]float64{
		{0.2},
		{0.9},
		{0.3},
	}
	assert.Equal(t, []int{unassigned, 0, unassigned}, maximumWeightAssignment(tall))
}

// TestMaximumWeightAssignment_Empty tests the degenerate empty matrix.
func TestMaximumWeightAssignment_Empty(t *testing.T) {
	assert.Nil(t, maximumWeightAssignment(nil))
}
