package sat

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// problem is an in-memory CNF instance used to build fixture files
type problem struct {
	variables uint64
	clauses   [][]int64
}

// randomProblem draws every variable into each clause with probability 1/2 and
// random polarity, never leaving a clause empty
func randomProblem(variables uint64, clauses int) problem {
	randomSign := func() int64 {
		if rand.IntN(2) == 0 {
			return -1
		}
		return 1
	}

	generated := problem{variables: variables, clauses: make([][]int64, clauses)}
	for i := range generated.clauses {
		clause := make([]int64, 0, variables)
		for variable := int64(1); variable <= int64(variables); variable++ {
			if rand.IntN(2) == 0 {
				clause = append(clause, randomSign()*variable)
			}
		}
		if len(clause) == 0 {
			clause = append(clause, randomSign()*(1+rand.Int64N(int64(variables))))
		}
		generated.clauses[i] = clause
	}
	return generated
}

func (p problem) header() string {
	return fmt.Sprintf("p cnf %d %d\n", p.variables, len(p.clauses))
}

func (p problem) body() string {
	var builder strings.Builder
	for _, clause := range p.clauses {
		for _, literal := range clause {
			fmt.Fprintf(&builder, "%d ", literal)
		}
		builder.WriteString("0\n")
	}
	return builder.String()
}

func (p problem) dimacs() string {
	return p.header() + p.body()
}
