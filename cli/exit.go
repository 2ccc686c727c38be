package cli

import "fmt"

// Process exit codes. Cobra's RunE returns an *ExitError to carry the code
// to main without calling os.Exit from inside a command.
const (
	exitRuntime    = 1
	exitValidation = 2
)

// ExitError is an error that carries a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func exitError(code int, format string, args ...any) *ExitError {
	return &ExitError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
