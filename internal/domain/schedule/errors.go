package schedule

import "errors"

// Domain errors.
var (
	ErrProjectNotFound        = errors.New("project not found")
	ErrPhaseNotFound          = errors.New("phase not found")
	ErrEmployeeNotFound       = errors.New("employee not found")
	ErrAssignmentNotFound     = errors.New("assignment not found")
	ErrCrossProjectDependency = errors.New("dependency references a phase in another project")
	ErrCircularDependency     = errors.New("circular dependency detected")
	ErrInvalidDateRange       = errors.New("end date precedes start date")
	ErrPhaseOutsideProject    = errors.New("phase dates fall outside the project date range")
	ErrInvalidDivision        = errors.New("invalid division")
	ErrInvalidTransition      = errors.New("invalid phase status transition")
	ErrRoleMismatch           = errors.New("assignment role does not match employee type")
)
