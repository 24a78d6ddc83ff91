package errors

import stderr "errors"

// New returns an error that formats as the given text.
// Each call to New returns a distinct error value even if the text is identical.
func New(msg string) error {
	return stderr.New(msg)
}

var (
	// NoActiveDocumentError reports that a build was requested without a document to build.
	NoActiveDocumentError = New("No active file to build.")
	// NoDartProjectError reports that no folder in the session is a Dart project.
	NoDartProjectError = New("No Dart project detected in the current directory.")
	// NoDartWorkspaceError reports that no workspace folder is a Dart project when toggling watch mode.
	NoDartWorkspaceError = New("No Dart project detected in the current workspace.")
	// NoBuildRunnerError reports that Dart projects exist, but none of them depend on build_runner.
	NoBuildRunnerError = New("No build_runner dependency detected. Install build_runner to use this command.")
	// SelectionCancelledError reports that the user dismissed a folder selection.
	SelectionCancelledError = New("no folder selected")
)

// IsPrecondition reports whether the error describes a precondition failure that should be shown to the user as is.
func IsPrecondition(e error) bool {
	if stderr.Is(e, NoActiveDocumentError) || stderr.Is(e, NoDartProjectError) || stderr.Is(e, NoDartWorkspaceError) || stderr.Is(e, NoBuildRunnerError) {
		return true
	}

	var notDart *NotDartDocumentError
	var folder *FolderNotFoundError
	var outside *OutsideWorkspaceError
	var sdk *SDKUnavailableError
	return stderr.As(e, &notDart) || stderr.As(e, &folder) || stderr.As(e, &outside) || stderr.As(e, &sdk)
}
