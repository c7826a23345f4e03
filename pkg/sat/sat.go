package sat

// Exit codes shared by the solvers this package talks to
const (
	ExitUnknown       = 0
	ExitSatisfiable   = 10
	ExitUnsatisfiable = 20
)

type SATSolution []int64

// IsRecognizedExitCode reports whether code is one of the three exit codes a
// well-behaved solver terminates with.
func IsRecognizedExitCode(code int) bool {
	return code == ExitUnknown || code == ExitSatisfiable || code == ExitUnsatisfiable
}
