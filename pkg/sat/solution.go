package sat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

const solutionMarker = 'v'

var ErrMalformedSolution = errors.New("malformed solution in solver output")

// ParseSolution collects, in order, the literals of every line starting with 'v'.
// The terminating 0 (if any) is kept as just another literal.
func ParseSolution(solverOutput string) (SATSolution, error) {
	lines := lo.Filter(strings.Split(solverOutput, "\n"), func(line string, _ int) bool {
		return len(line) > 0 && line[0] == solutionMarker
	})
	tokens := lo.FlatMap(lines, func(line string, _ int) []string {
		return strings.Fields(line[1:])
	})

	solution := make(SATSolution, 0, len(tokens))
	for _, token := range tokens {
		value, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid literal %q", ErrMalformedSolution, token)
		}
		solution = append(solution, value)
	}

	return solution, nil
}

// Restrict drops every literal whose variable is above maxVariable, keeping the
// relative order of the rest. Dropped literals are never remapped.
func (solution SATSolution) Restrict(maxVariable int64) SATSolution {
	return lo.Filter(solution, func(literal int64, _ int) bool {
		return abs(literal) <= maxVariable
	})
}

// String renders the solution as a single "v ..." line (without newline)
func (solution SATSolution) String() string {
	literals := lo.Map(solution, func(literal int64, _ int) string {
		return strconv.FormatInt(literal, 10)
	})
	return strings.TrimRight("v "+strings.Join(literals, " "), " ")
}

func abs(literal int64) int64 {
	if literal < 0 {
		return -literal
	}
	return literal
}
