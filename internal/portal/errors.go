package portal

import (
	"errors"
	"fmt"
)

// ProtocolError means a page in the redirect chain no longer has the shape
// the flow expects (a required form or element is missing). The portal
// changed; retrying will not help.
type ProtocolError struct {
	Step    string
	Element string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("portal: %s: expected element %q not found", e.Step, e.Element)
}

// InvalidCredentialsError means the identity provider did not issue the
// return redirect after the login submission: the credentials were rejected.
type InvalidCredentialsError struct {
	Username string
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("portal: invalid credentials for %q", e.Username)
}

// RegistrationError means the registration POST was submitted but the
// response did not look like a success, or failed mid-flight.
type RegistrationError struct {
	Date   string
	Reason string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("portal: registration for %s failed: %s", e.Date, e.Reason)
}

// ReportError means the report request or its structural parse failed.
// Single malformed rows are skipped, not reported through this type.
type ReportError struct {
	Reason string
	Err    error
}

func (e *ReportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("portal: report failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("portal: report failed: %s", e.Reason)
}

func (e *ReportError) Unwrap() error { return e.Err }

// ValidationError means caller-supplied input was rejected before any
// network call was made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("portal: invalid input: %s", e.Reason)
}

// IsInvalidCredentials reports whether err is an InvalidCredentialsError.
func IsInvalidCredentials(err error) bool {
	var target *InvalidCredentialsError
	return errors.As(err, &target)
}

// IsProtocolError reports whether err is a ProtocolError.
func IsProtocolError(err error) bool {
	var target *ProtocolError
	return errors.As(err, &target)
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
