package steps

import "fmt"

// Stage names, in pipeline order
const (
	StagePreflight = "preflight"
	StageConfig    = "config"
	StageLocale    = "locale"
	StagePython    = "python"
	StageDatabase  = "database"
	StageService   = "service"
)

// FailureKind classifies why a stage stopped
type FailureKind string

const (
	// KindPrerequisite means something the stage needs is missing from the host
	KindPrerequisite FailureKind = "prerequisite"
	// KindPackage covers package installs, locale generation and pip
	KindPackage FailureKind = "package"
	// KindFilesystem covers writing the env file, the unit file and the database
	KindFilesystem FailureKind = "filesystem"
	// KindService covers systemctl failures
	KindService FailureKind = "service"
	// KindValidation covers rejected configuration values
	KindValidation FailureKind = "validation"
	// KindInterrupted means the operator or a signal stopped the stage
	KindInterrupted FailureKind = "interrupted"
)

// StageError reports the stage that failed, and how
type StageError struct {
	Stage string
	Kind  FailureKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageFailure(stage string, kind FailureKind, err error) error {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}
