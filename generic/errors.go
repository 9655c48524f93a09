/*
errors.go - Error kinds shared by every business component

PURPOSE:
  All error kinds in one place so the API layer can map them to statuses
  without knowing which component raised them. Components return the
  structured errors below; callers test for the kind with errors.Is().

ERROR KINDS:
  ErrNotFound             referenced worker/leave/product/storage/customer/sale/production is missing
  ErrAlreadyExists        a uniqueness invariant would be broken
  ErrRuleViolation        the leave staffing policy rejects a request
  ErrConsistencyViolation a delete or reversal did not take effect
  ErrInvalidInput         malformed request (non-positive quantity, missing reference)
  ErrInUse                hard delete of an entity other records still point at

PROPAGATION:
  Kinds are surfaced unchanged. Nothing in the core retries.

SEE ALSO:
  - api/errors.go: kind -> HTTP status mapping
  - store/sqlite/sqlite.go: driver error translation
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrNotFound             = errors.New("not found")
	ErrAlreadyExists        = errors.New("already exists")
	ErrRuleViolation        = errors.New("rule violation")
	ErrConsistencyViolation = errors.New("consistency violation")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInUse                = errors.New("still referenced")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the missing entity and the key it was looked up by.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// AlreadyExistsError names the entity and the unique key that collided.
type AlreadyExistsError struct {
	Entity string
	Key    string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Entity, e.Key)
}

func (e *AlreadyExistsError) Unwrap() error { return ErrAlreadyExists }

// RuleViolationError reports a rejected leave with the counts that failed the
// one-or-all-absent policy.
type RuleViolationError struct {
	Absent int
	Total  int
}

func (e *RuleViolationError) Error() string {
	return fmt.Sprintf("leave declined: either 1 worker or all workers can be absent, plan would have %d of %d absent",
		e.Absent, e.Total)
}

func (e *RuleViolationError) Unwrap() error { return ErrRuleViolation }

// ConsistencyError reports a mutation that did not take effect.
type ConsistencyError struct {
	Entity string
	ID     string
	Op     string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("failed to %s %s %s", e.Op, e.Entity, e.ID)
}

func (e *ConsistencyError) Unwrap() error { return ErrConsistencyViolation }

// InvalidInputError points at the offending request field.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// InUseError names the entity and what still references it.
type InUseError struct {
	Entity       string
	ID           string
	ReferencedBy string
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("%s %s is still referenced by %s", e.Entity, e.ID, e.ReferencedBy)
}

func (e *InUseError) Unwrap() error { return ErrInUse }

// =============================================================================
// ERROR HELPERS
// =============================================================================

func NotFound(entity, key string) error      { return &NotFoundError{Entity: entity, Key: key} }
func AlreadyExists(entity, key string) error { return &AlreadyExistsError{Entity: entity, Key: key} }
func Invalid(field, reason string) error     { return &InvalidInputError{Field: field, Reason: reason} }

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict returns true if the error is a uniqueness or reference conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrInUse)
}

// IsClientError returns true if the error is due to an unacceptable request.
func IsClientError(err error) bool {
	return errors.Is(err, ErrRuleViolation) || errors.Is(err, ErrInvalidInput)
}
