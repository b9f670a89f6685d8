package common

import (
	"errors"
	"fmt"
	"strings"
)

// Common error types
var (
	// ErrNotFound indicates a node or resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input parameter")

	// ErrEmptyNodeList indicates an operation needed at least one manageable slave
	ErrEmptyNodeList = errors.New("the node list contains no slaves")

	// ErrNoSelectedNodes indicates a selection request named no nodes
	ErrNoSelectedNodes = errors.New("no slaves were selected")

	// ErrNoSelectedSettings indicates a configure request carried no settings
	ErrNoSelectedSettings = errors.New("no settings were selected")

	// ErrNodeDeleted indicates a selected node disappeared from the registry
	ErrNodeDeleted = errors.New("one or more selected slaves no longer exist")

	// ErrUndefinedMode indicates an unknown usage mode
	ErrUndefinedMode = errors.New("undefined usage mode")

	// ErrEmptyNameList indicates a create request produced no names
	ErrEmptyNameList = errors.New("no slave names were given")
)

// IsNotFound checks if err is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput checks if err is or wraps ErrInvalidInput
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// NotFoundError returns a wrapped not found error with context
func NotFoundError(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// InvalidInputError returns a wrapped invalid input error with context
func InvalidInputError(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

// ErrNodeNotFound represents a missing node error
type ErrNodeNotFound struct {
	NodeName string
}

func (e ErrNodeNotFound) Error() string {
	return fmt.Sprintf("no slave found with name: %s", e.NodeName)
}

// Unwrap lets errors.Is match ErrNotFound
func (e ErrNodeNotFound) Unwrap() error { return ErrNotFound }

// NewNodeNotFoundError creates a new node not found error
func NewNodeNotFoundError(nodeName string) error {
	return ErrNodeNotFound{NodeName: nodeName}
}

// ErrTypeMismatch is returned when a setting is read from a slave whose
// launcher or retention strategy is of another variant.
type ErrTypeMismatch struct {
	Setting  string
	Expected string
	Actual   string
}

func (e ErrTypeMismatch) Error() string {
	return fmt.Sprintf("setting %s requires %s, slave has %s", e.Setting, e.Expected, e.Actual)
}

// NewTypeMismatchError creates a new type mismatch error
func NewTypeMismatchError(setting, expected, actual string) error {
	return ErrTypeMismatch{Setting: setting, Expected: expected, Actual: actual}
}

// ErrValidation represents a rejected slave definition
type ErrValidation struct {
	NodeName string
	Reason   string
}

func (e ErrValidation) Error() string {
	if e.NodeName == "" {
		return fmt.Sprintf("invalid slave configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid configuration for slave %s: %s", e.NodeName, e.Reason)
}

// NewValidationError creates a new validation error
func NewValidationError(nodeName, format string, args ...interface{}) error {
	return ErrValidation{NodeName: nodeName, Reason: fmt.Sprintf(format, args...)}
}

// ErrNameConflict lists names that are already taken in the registry
type ErrNameConflict struct {
	Names []string
}

func (e ErrNameConflict) Error() string {
	return fmt.Sprintf("slaves already exist: %s", strings.Join(e.Names, " "))
}

// NewNameConflictError creates a new name conflict error
func NewNameConflictError(names []string) error {
	return ErrNameConflict{Names: names}
}

// ErrInvalidInterval represents a bad numeric name range
type ErrInvalidInterval struct {
	Prefix string
	First  string
	Last   string
}

func (e ErrInvalidInterval) Error() string {
	return fmt.Sprintf("invalid interval for %s: %s to %s", e.Prefix, e.First, e.Last)
}

// NewInvalidIntervalError creates a new invalid interval error
func NewInvalidIntervalError(prefix, first, last string) error {
	return ErrInvalidInterval{Prefix: prefix, First: first, Last: last}
}

// NodeFailure records why one node could not be processed
type NodeFailure struct {
	NodeName string
	Err      error
}

// ErrApply collects the failures of one bulk operation. Cause is set when
// the registry write itself failed.
type ErrApply struct {
	Operation string
	Failures  []NodeFailure
	Cause     error
}

func (e ErrApply) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to %s", e.Operation)
	if len(e.Failures) > 0 {
		b.WriteString(" slaves:")
		for _, f := range e.Failures {
			fmt.Fprintf(&b, " %s (cause: %v)", f.NodeName, f.Err)
		}
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, "; node list update failed: %v", e.Cause)
	}
	return b.String()
}

// Unwrap exposes the registry cause
func (e ErrApply) Unwrap() error { return e.Cause }

// FailedNodes returns the names of the nodes that failed
func (e ErrApply) FailedNodes() []string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.NodeName)
	}
	return names
}

// IsNodeNotFoundError Error type checking helpers
func IsNodeNotFoundError(err error) bool {
	var target ErrNodeNotFound
	return errors.As(err, &target)
}

func IsTypeMismatchError(err error) bool {
	var target ErrTypeMismatch
	return errors.As(err, &target)
}

func IsValidationError(err error) bool {
	var target ErrValidation
	return errors.As(err, &target)
}

func IsNameConflictError(err error) bool {
	var target ErrNameConflict
	return errors.As(err, &target)
}

func IsInvalidIntervalError(err error) bool {
	var target ErrInvalidInterval
	return errors.As(err, &target)
}

func IsApplyError(err error) bool {
	var target ErrApply
	return errors.As(err, &target)
}
