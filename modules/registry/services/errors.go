package services

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/fieo/orgregistry/modules/registry/domain/schema"
)

// StageStatus is how one stage of a run ended.
type StageStatus string

const (
	StatusOK StageStatus = "ok"
	// StatusMissingSource: no file for the kind; the stage is skipped with a warning.
	StatusMissingSource StageStatus = "missing_source"
	// StatusSchemaError: a required column could not be mapped; the kind is left untouched.
	StatusSchemaError StageStatus = "schema_error"
	// StatusMissingTable: the target table is absent; the stage is skipped.
	StatusMissingTable StageStatus = "missing_table"
	// StatusStorageError: an unexpected storage failure; the run stops here.
	StatusStorageError StageStatus = "storage_error"
	// StatusNotRun: an earlier failure stopped the run before this stage.
	StatusNotRun StageStatus = "not_run"
)

// SkipReason classifies a rejected row.
type SkipReason string

const (
	ReasonMalformed         SkipReason = "malformed"
	ReasonDanglingReference SkipReason = "dangling_reference"
	ReasonDuplicate         SkipReason = "duplicate"
)

var ErrMissingSource = errors.New("source file not found")

// StageError is the failure that stopped a run.
type StageError struct {
	Stage  string
	Status StageStatus
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Status, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageError(kind schema.Kind, err error) *StageError {
	return &StageError{Stage: kind.String(), Status: StatusStorageError, Err: err}
}
