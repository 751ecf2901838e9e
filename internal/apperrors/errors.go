// Package apperrors defines the error taxonomy shared by every service:
// validation, not-found, insufficient-inventory, gateway and infrastructure
// failures. Orchestration code branches on these types to decide between
// compensation and plain propagation.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func NewNotFoundError(entity string, id uuid.UUID) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

type InsufficientInventoryError struct {
	ProductID uuid.UUID
	Available int
	Requested int
	Reason    string
}

func (e *InsufficientInventoryError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("insufficient inventory for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

type GatewayError struct {
	Message string
	Cause   error
}

func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("payment gateway error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("payment gateway error: %s", e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

type InfrastructureError struct {
	Message string
	Cause   error
}

func (e *InfrastructureError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InfrastructureError) Unwrap() error {
	return e.Cause
}

func NewInfrastructureError(message string, cause error) *InfrastructureError {
	return &InfrastructureError{Message: message, Cause: cause}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsInsufficientInventory(err error) bool {
	var target *InsufficientInventoryError
	return errors.As(err, &target)
}

func IsGateway(err error) bool {
	var target *GatewayError
	return errors.As(err, &target)
}
