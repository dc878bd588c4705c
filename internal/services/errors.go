package services

import "fmt"

// ClientInputError marks a request the caller has to fix (missing fields, unsupported format).
type ClientInputError struct {
	Message string
}

func (e *ClientInputError) Error() string {
	return e.Message
}

// MalformedDocumentError is returned when the uploaded bytes are not a valid instance of the declared format.
type MalformedDocumentError struct {
	Format Format
	Err    error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed %s document: %v", e.Format, e.Err)
}

func (e *MalformedDocumentError) Unwrap() error {
	return e.Err
}

// ConfigurationError is a server-side misconfiguration an operator has to resolve.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}
