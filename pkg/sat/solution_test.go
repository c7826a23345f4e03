package sat

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSolution(t *testing.T) {
	t.Run("Single line", func(t *testing.T) {
		solution, err := ParseSolution("c comment\ns SATISFIABLE\nv 1 -2 6 -7\n")

		require.NoError(t, err)
		assert.Equal(t, SATSolution{1, -2, 6, -7}, solution)
	})

	t.Run("Several lines keep their order", func(t *testing.T) {
		solution, err := ParseSolution("s SATISFIABLE\nv 1 -2 3\nc interleaved\nv -4 5\nv 0\n")

		require.NoError(t, err)
		assert.Equal(t, SATSolution{1, -2, 3, -4, 5, 0}, solution)
	})

	t.Run("Irregular spacing", func(t *testing.T) {
		solution, err := ParseSolution("v  1\t-2   3 \r\n")

		require.NoError(t, err)
		assert.Equal(t, SATSolution{1, -2, 3}, solution)
	})

	t.Run("No solution lines", func(t *testing.T) {
		solution, err := ParseSolution("s UNKNOWN\n")

		require.NoError(t, err)
		assert.Empty(t, solution)
	})

	t.Run("Non-integer literal", func(t *testing.T) {
		_, err := ParseSolution("v 1 two 3\n")

		assert.ErrorIs(t, err, ErrMalformedSolution)
	})
}

func TestRestrict(t *testing.T) {
	t.Run("Auxiliary variables are dropped", func(t *testing.T) {
		restricted := SATSolution{1, -2, 6, -7}.Restrict(5)
		assert.Equal(t, SATSolution{1, -2}, restricted)
	})

	t.Run("Boundary variable is kept", func(t *testing.T) {
		restricted := SATSolution{-5, 6, 5, -6, 0}.Restrict(5)
		assert.Equal(t, SATSolution{-5, 5, 0}, restricted)
	})

	t.Run("Random solutions never exceed the bound", func(t *testing.T) {
		for range 20 {
			bound := rand.Int64N(50) + 1
			solution := make(SATSolution, 0, 100)
			for range 100 {
				literal := rand.Int64N(2*bound) + 1
				if rand.Float32() < 0.5 {
					literal = -literal
				}
				solution = append(solution, literal)
			}

			for _, literal := range solution.Restrict(bound) {
				assert.LessOrEqual(t, abs(literal), bound)
			}
		}
	})
}

func TestSolutionString(t *testing.T) {
	assert.Equal(t, "v 1 -2", SATSolution{1, -2}.String())
	assert.Equal(t, "v 1 -2 0", SATSolution{1, -2, 0}.String())
	assert.Equal(t, "v", SATSolution{}.String())
}
