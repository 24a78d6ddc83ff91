package errors

import (
	"fmt"

	"go.lsp.dev/protocol"
)

// DocumentNotFoundError indicates that a document is not found.
type DocumentNotFoundError struct {
	Document protocol.TextDocumentIdentifier
}

// Error is an implementation of the error interface.
func (n *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("Document %q not found", n.Document.URI)
}

// DocumentSizeLimitError indicates that has exceeded the specified size limit
type DocumentSizeLimitError struct {
	Size int64
}

// Error is an implementation of the error interface.
func (n *DocumentSizeLimitError) Error() string {
	return fmt.Sprintf("size of %d bytes exceeds permitted limit", n.Size)
}

// NotDartDocumentError indicates that a build was requested for a document that is not Dart source.
type NotDartDocumentError struct {
	Document protocol.DocumentURI
}

// Error is an implementation of the error interface.
// The build entry point reports the same text as a missing document.
func (n *NotDartDocumentError) Error() string {
	return NoActiveDocumentError.Error()
}

// OutsideWorkspaceError indicates that a document does not belong to the workspace folder it was resolved against.
type OutsideWorkspaceError struct {
	Path string
	Root string
}

// Error is an implementation of the error interface.
func (n *OutsideWorkspaceError) Error() string {
	return NoDartProjectError.Error()
}
