// Package core holds the error taxonomy shared by every layer of the
// data-access core. Each error type matches a package-level sentinel through
// errors.Is, so callers can branch on the category without type assertions:
//
//	if errors.Is(err, core.ErrInvalidPrimaryKey) { ... }
package core

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per category.
var (
	// ErrMapping is matched by MappingError.
	ErrMapping = errors.New("crudsql: invalid mapping")

	// ErrInvalidPrimaryKey is matched by InvalidPrimaryKeyError.
	ErrInvalidPrimaryKey = errors.New("crudsql: invalid primary key")

	// ErrInvalidConditionSchema is matched by InvalidConditionSchemaError.
	ErrInvalidConditionSchema = errors.New("crudsql: invalid condition schema")

	// ErrArgument is matched by ArgumentError and ArgumentNullError.
	ErrArgument = errors.New("crudsql: invalid argument")

	// ErrArgumentNull is matched by ArgumentNullError.
	ErrArgumentNull = errors.New("crudsql: argument is nil")

	// ErrNoRows is returned by single-result reads that found nothing.
	ErrNoRows = errors.New("crudsql: no rows in result set")

	// ErrNotSingular is returned when exactly one row was required but more were found.
	ErrNotSingular = errors.New("crudsql: result not singular")
)

// MappingError reports declared metadata that is internally inconsistent.
// It is fatal for the type; the mapping has to be fixed.
type MappingError struct {
	Type   string
	Reason string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("crudsql: invalid mapping for %s: %s", e.Type, e.Reason)
}

// Is reports whether target is ErrMapping.
func (e *MappingError) Is(target error) bool { return target == ErrMapping }

// NewMappingError returns a MappingError for typeName.
func NewMappingError(typeName, format string, args ...any) *MappingError {
	return &MappingError{Type: typeName, Reason: fmt.Sprintf(format, args...)}
}

// InvalidPrimaryKeyError reports an operation that needs a key capability the
// type's key strategy does not provide, or a key value that is absent.
type InvalidPrimaryKeyError struct {
	Type      string
	Operation string
	Reason    string
}

func (e *InvalidPrimaryKeyError) Error() string {
	return fmt.Sprintf("crudsql: %s on %s: %s", e.Operation, e.Type, e.Reason)
}

// Is reports whether target is ErrInvalidPrimaryKey.
func (e *InvalidPrimaryKeyError) Is(target error) bool { return target == ErrInvalidPrimaryKey }

// NewInvalidPrimaryKeyError returns an InvalidPrimaryKeyError.
func NewInvalidPrimaryKeyError(typeName, operation, format string, args ...any) *InvalidPrimaryKeyError {
	return &InvalidPrimaryKeyError{Type: typeName, Operation: operation, Reason: fmt.Sprintf(format, args...)}
}

// InvalidConditionSchemaError reports a filter key that does not resolve to a
// persisted member.
type InvalidConditionSchemaError struct {
	Type string
	Key  string
}

func (e *InvalidConditionSchemaError) Error() string {
	return fmt.Sprintf("crudsql: filter key %q does not match any persisted member of %s", e.Key, e.Type)
}

// Is reports whether target is ErrInvalidConditionSchema.
func (e *InvalidConditionSchemaError) Is(target error) bool {
	return target == ErrInvalidConditionSchema
}

// ArgumentError reports a malformed argument such as a WHERE fragment that does
// not start with WHERE or an ORDER BY naming an unknown column.
type ArgumentError struct {
	Argument string
	Reason   string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("crudsql: invalid argument %s: %s", e.Argument, e.Reason)
}

// Is reports whether target is ErrArgument.
func (e *ArgumentError) Is(target error) bool { return target == ErrArgument }

// NewArgumentError returns an ArgumentError for argument.
func NewArgumentError(argument, format string, args ...any) *ArgumentError {
	return &ArgumentError{Argument: argument, Reason: fmt.Sprintf(format, args...)}
}

// ArgumentNullError reports a required argument that was nil. It also matches
// ErrArgument.
type ArgumentNullError struct {
	Argument string
}

func (e *ArgumentNullError) Error() string {
	return fmt.Sprintf("crudsql: argument %s cannot be nil", e.Argument)
}

// Is reports whether target is ErrArgumentNull or ErrArgument.
func (e *ArgumentNullError) Is(target error) bool {
	return target == ErrArgumentNull || target == ErrArgument
}

// IsMapping reports whether err is a MappingError.
func IsMapping(err error) bool { return errors.Is(err, ErrMapping) }

// IsInvalidPrimaryKey reports whether err is an InvalidPrimaryKeyError.
func IsInvalidPrimaryKey(err error) bool { return errors.Is(err, ErrInvalidPrimaryKey) }

// IsInvalidConditionSchema reports whether err is an InvalidConditionSchemaError.
func IsInvalidConditionSchema(err error) bool { return errors.Is(err, ErrInvalidConditionSchema) }

// IsArgument reports whether err is an ArgumentError or ArgumentNullError.
func IsArgument(err error) bool { return errors.Is(err, ErrArgument) }
