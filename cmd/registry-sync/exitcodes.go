package main

import "github.com/go-faster/errors"

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

// Exit codes of registry-sync. Row skips only change the code under --strict.
const (
	exitOK          = 0
	exitValidation  = 2
	exitUsage       = 3
	exitDB          = 4
	exitRowsSkipped = 5
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return 1
}
