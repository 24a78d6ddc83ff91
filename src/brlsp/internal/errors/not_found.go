package errors

import (
	stderr "errors"
	"fmt"

	"github.com/gofrs/uuid"
)

// UUIDNotFoundError is a service domain error for not found.
type UUIDNotFoundError struct {
	UUID uuid.UUID
}

// Error is an implementation of the error interface.
func (n *UUIDNotFoundError) Error() string {
	return fmt.Sprintf("UUID %q not found", n.UUID)
}

// NotFoundUUID returns an UUID and true if UUIDNotFoundError is part of the
// error chain.
func NotFoundUUID(e error) (_ uuid.UUID, ok bool) {
	var nf *UUIDNotFoundError
	if !stderr.As(e, &nf) {
		return uuid.Nil, false
	}
	return nf.UUID, true
}

// NoSessionFoundError indicates that a session cannot be found within the context.
type NoSessionFoundError struct{}

// Error is an implementation of the error interface.
func (n *NoSessionFoundError) Error() string {
	return "No session found in context"
}

// FolderNotFoundError indicates that a command named a folder that cannot be used.
// CandidateExists is set when the folder is a Dart project that lacks a build_runner dependency.
type FolderNotFoundError struct {
	Label           string
	CandidateExists bool
}

// Error is an implementation of the error interface.
func (n *FolderNotFoundError) Error() string {
	label := n.Label
	if label == "" {
		label = "the selected workspace folder"
	}
	if n.CandidateExists {
		return fmt.Sprintf("No build_runner dependency detected in %s. Install build_runner to use this command.", label)
	}
	return fmt.Sprintf("No Dart project detected in %s.", label)
}

// SDKUnavailableError indicates that no Flutter SDK could be resolved, even after prompting.
type SDKUnavailableError struct {
	// Setting names the client setting that points at the SDK, if any.
	Setting string
}

// Error is an implementation of the error interface.
func (n *SDKUnavailableError) Error() string {
	if n.Setting == "" {
		return "Flutter SDK is required to run this command."
	}
	return fmt.Sprintf("Flutter SDK is required to run this command. Set %s to its installation path.", n.Setting)
}
