package scene

import "errors"

var (
	// ErrUnknownBody indicates an id that no body in the scene carries.
	ErrUnknownBody = errors.New("scene: unknown body")

	// ErrDuplicateID indicates a restore onto an id that is already taken.
	ErrDuplicateID = errors.New("scene: body id already in use")

	// ErrInvalidID indicates the reserved zero id.
	ErrInvalidID = errors.New("scene: zero is not a valid id")

	ErrUnknownConstraint = errors.New("scene: unknown constraint")

	// ErrDetachedConstraint indicates a constraint whose endpoints are not
	// both in the scene.
	ErrDetachedConstraint = errors.New("scene: constraint endpoint not in scene")

	ErrInvalidConfig = errors.New("scene: invalid configuration")
)
