package sat

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProblem(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "problem.cnf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0666))
	return path
}

func TestReadHeader(t *testing.T) {
	t.Run("Header after comments", func(t *testing.T) {
		//** Arrange
		path := writeProblem(t, "c generated\nc by hand\np cnf 5 3\n1 -2 0\n2 3 0\n-5 0\n")

		//** Act
		header, err := ReadHeader(path)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, Header{Variables: 5, Clauses: 3}, header)
		assert.True(t, header.Known())
	})

	t.Run("First header wins", func(t *testing.T) {
		path := writeProblem(t, "p cnf 7 1\np cnf 9 9\n1 0\n")

		header, err := ReadHeader(path)

		require.NoError(t, err)
		assert.Equal(t, Header{Variables: 7, Clauses: 1}, header)
	})

	t.Run("Missing header", func(t *testing.T) {
		path := writeProblem(t, "c no header here\n1 2 0\n-1 0\n")

		header, err := ReadHeader(path)

		require.NoError(t, err)
		assert.Equal(t, Header{Variables: -1, Clauses: -1}, header)
		assert.False(t, header.Known())
	})

	t.Run("Empty file", func(t *testing.T) {
		path := writeProblem(t, "")

		header, err := ReadHeader(path)

		require.NoError(t, err)
		assert.Equal(t, Header{Variables: -1, Clauses: -1}, header)
	})

	t.Run("Malformed header", func(t *testing.T) {
		for _, content := range []string{"p cnf\n", "p cnf x 3\n", "p cnf 3 y\n", "p\n"} {
			path := writeProblem(t, content)

			header, err := ReadHeader(path)

			require.NoError(t, err)
			assert.False(t, header.Known(), content)
		}
	})

	t.Run("Marker must be the first character", func(t *testing.T) {
		path := writeProblem(t, " p cnf 4 4\n1 0\n")

		header, err := ReadHeader(path)

		require.NoError(t, err)
		assert.False(t, header.Known())
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := ReadHeader(filepath.Join(t.TempDir(), "absent.cnf"))
		assert.Error(t, err)
	})
}

func TestReadHeaderIsIdempotent(t *testing.T) {
	for range 10 {
		//** Arrange
		variables := uint64(rand.IntN(100) + 1)
		clauses := rand.IntN(200) + 1
		path := writeProblem(t, randomProblem(variables, clauses).dimacs())

		//** Act
		first, err := ReadHeader(path)
		require.NoError(t, err)
		second, err := ReadHeader(path)
		require.NoError(t, err)

		//** Assert
		assert.Equal(t, first, second)
		assert.Equal(t, Header{Variables: int64(variables), Clauses: int64(clauses)}, first)
	}
}

func TestReadHeaderLongClauseLines(t *testing.T) {
	wide := randomProblem(30000, 2)
	// Header last so the scanner has to walk over the wide clauses first
	path := writeProblem(t, wide.body()+wide.header())

	header, err := ReadHeader(path)

	require.NoError(t, err)
	assert.Equal(t, Header{Variables: 30000, Clauses: 2}, header)
}
