package loom

import (
	"errors"
	"fmt"

	"github.com/TheBitDrifter/bark"
)

// AddTrace wraps err with a captured stack trace, matching how the
// rest of this package reports precondition violations loudly in
// debug builds (§7) without changing err's identity for errors.Is.
func AddTrace(err error) error {
	return bark.AddTrace(err)
}

// Sentinel PreconditionViolation errors (§7); the structured error
// types below unwrap to them. AddComponent, RemoveComponent, Set,
// BulkSet and Archetype.Push wrap what they return or panic with in
// AddTrace, so it carries a stack trace back to the offending call;
// Destroy returns EntityNotAliveError without one.
var (
	ErrComponentNotRegistered = errors.New("loom: component not registered")
	ErrComponentExists        = errors.New("loom: entity already has component")
	ErrComponentNotFound      = errors.New("loom: entity does not have component")
	ErrEntityNotAlive         = errors.New("loom: entity is not alive")
	ErrOutOfCapacity          = errors.New("loom: archetype out of capacity")
	ErrInvalidQuery           = errors.New("loom: query description is invalid")
)

// ComponentExistsError reports that AddComponent was called with a
// component the entity already carries.
type ComponentExistsError struct {
	Entity    Entity
	Component ComponentID
}

func (e ComponentExistsError) Error() string {
	return fmt.Sprintf("entity %v already has component %d", e.Entity, e.Component)
}

func (e ComponentExistsError) Unwrap() error { return ErrComponentExists }

// ComponentNotFoundError reports that RemoveComponent or Set was
// called with a component the entity does not carry.
type ComponentNotFoundError struct {
	Entity    Entity
	Component ComponentID
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("entity %v does not have component %d", e.Entity, e.Component)
}

func (e ComponentNotFoundError) Unwrap() error { return ErrComponentNotFound }

// EntityNotAliveError reports an operation against a dead or
// never-existed entity id.
type EntityNotAliveError struct {
	Entity Entity
}

func (e EntityNotAliveError) Error() string {
	return fmt.Sprintf("entity %v is not alive", e.Entity)
}

func (e EntityNotAliveError) Unwrap() error { return ErrEntityNotAlive }
