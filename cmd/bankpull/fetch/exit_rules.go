package fetch

const (
	exitCodeSuccess      = 0
	exitCodeInvalidInput = 1
	exitCodeBackend      = 3
)

type fetchExitError struct {
	code int
	msg  string
}

func (e fetchExitError) Error() string { return e.msg }
func (e fetchExitError) ExitCode() int { return e.code }

// evaluateFetchExit maps a failure already reported on stdout to the process
// exit status. Backend failures exit 0 unless strict is set.
func evaluateFetchExit(err error, inputErr, strict bool) error {
	if err == nil {
		return nil
	}
	if inputErr {
		return fetchExitError{code: exitCodeInvalidInput, msg: err.Error()}
	}
	if strict {
		return fetchExitError{code: exitCodeBackend, msg: err.Error()}
	}
	return nil
}
