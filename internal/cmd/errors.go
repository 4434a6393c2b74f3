package cmd

// Exit codes per spec §6: 0 success, 1 usage error, 2 runtime error, 130 on
// SIGINT. usageError/runtimeError let main map a returned error back to one
// of the latter two without the RunE plumbing needing to know about os.Exit.
type usageError struct{ error }

func newUsageError(err error) error { return usageError{err} }

type runtimeError struct{ error }

func newRuntimeError(err error) error { return runtimeError{err} }

// sigintError marks a clean SIGINT unwind, distinct from a usage/runtime
// failure.
type sigintError struct{ error }

func newSigintError(err error) error { return sigintError{err} }

// ExitCode maps an error returned from the root command to the process exit
// code spec §6 defines, if the error carries one.
func ExitCode(err error) (int, bool) {
	switch err.(type) {
	case usageError:
		return 1, true
	case runtimeError:
		return 2, true
	case sigintError:
		return 130, true
	default:
		return 0, false
	}
}
