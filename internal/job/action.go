package job

import (
	"errors"
	"os/exec"
	"strings"
)

// Action is an immutable description of an external command: a program name
// and its ordered argument list. It carries no identity beyond its fields.
type Action struct {
	Program   string   `json:"program"`
	Arguments []string `json:"arguments"`
}

// NewAction creates an Action for the given program and arguments.
func NewAction(program string, arguments ...string) Action {
	return Action{Program: program, Arguments: arguments}
}

// Execute spawns the program with its arguments, waits for it to finish and
// returns the captured standard output as text. Standard error is not
// captured separately and the exit status is not inspected: only a failure to
// locate, spawn or wait on the process is an error. A missing program yields
// an ExecError of kind ExecNotFound, anything else ExecIO.
func (a Action) Execute() (string, error) {
	out, err := exec.Command(a.Program, a.Arguments...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// The process ran and exited non-zero. Its output is still
			// the result of the action.
			return string(out), nil
		}

		kind := ExecIO
		if errors.Is(err, exec.ErrNotFound) {
			kind = ExecNotFound
		}
		return "", &ExecError{Program: a.Program, Kind: kind, Err: err}
	}

	return string(out), nil
}

// String renders the action as the command line it will execute.
func (a Action) String() string {
	if len(a.Arguments) == 0 {
		return a.Program
	}
	return a.Program + " " + strings.Join(a.Arguments, " ")
}
