// Package docsync keeps the text of the documents open in each IDE session, and which of them was used last.
package docsync

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	brlspplugin "github.com/dart-tools/brlsp/src/brlsp/entity/brlsp-plugin"
	brlsperrors "github.com/dart-tools/brlsp/src/brlsp/internal/errors"
	"github.com/dart-tools/brlsp/src/brlsp/internal/fs"
	"github.com/dart-tools/brlsp/src/brlsp/mapper"
	"github.com/dart-tools/brlsp/src/brlsp/repository/session"
	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_nameKey        = "doc-sync"
	_maxFileSizeKey = "maxFileSizeBytes"

	// LanguageDart is the language identifier of Dart source documents.
	LanguageDart protocol.LanguageIdentifier = "dart"
)

// Controller defines the interface for a document sync controller.
type Controller interface {
	StartupInfo(ctx context.Context) (brlspplugin.PluginInfo, error)

	// GetTextDocument returns the current version of an open document as of the last received DidChange event.
	GetTextDocument(ctx context.Context, doc protocol.TextDocumentIdentifier) (protocol.TextDocumentItem, error)
	// GetActiveDocument returns the open document the session interacted with most recently, or nil.
	GetActiveDocument(ctx context.Context) (*protocol.TextDocumentItem, error)
	// OpenDocument returns the document at path, preferring the open copy over the file on disk.
	// It returns nil when the file cannot be read.
	OpenDocument(ctx context.Context, path string) (*protocol.TextDocumentItem, error)
}

// Params are inbound parameters to initialize a new plugin.
type Params struct {
	fx.In

	Sessions session.Repository
	Logger   *zap.SugaredLogger
	Stats    tally.Scope
	Config   config.Provider
	FS       fs.BrlspFS
}

type sessionDocuments struct {
	items map[protocol.TextDocumentIdentifier]protocol.TextDocumentItem
	// recent lists open documents from least to most recently used.
	recent []protocol.TextDocumentIdentifier
}

type documentStore map[uuid.UUID]*sessionDocuments

type controller struct {
	sessions         session.Repository
	logger           *zap.SugaredLogger
	documents        documentStore
	documentsMu      sync.RWMutex
	stats            tally.Scope
	maxFileSizeBytes int64
	fs               fs.BrlspFS
}

// New creates a new controller for document sync.
func New(p Params) Controller {
	var maxFileSizeBytes int64
	if err := p.Config.Get(_maxFileSizeKey).Populate(&maxFileSizeBytes); err != nil || maxFileSizeBytes == 0 {
		panic(fmt.Errorf("unable to get maximum file size from config: %w", err))
	}

	c := &controller{
		sessions:         p.Sessions,
		logger:           p.Logger.With("plugin", _nameKey),
		documents:        make(documentStore),
		stats:            p.Stats.SubScope("doc_sync"),
		maxFileSizeBytes: maxFileSizeBytes,
		fs:               p.FS,
	}
	defer c.updateMetrics(context.Background())
	return c
}

// StartupInfo returns PluginInfo for this controller.
func (c *controller) StartupInfo(ctx context.Context) (brlspplugin.PluginInfo, error) {
	priorities := map[string]brlspplugin.Priority{
		protocol.MethodInitialize: brlspplugin.PriorityHigh,
		protocol.MethodShutdown:   brlspplugin.PriorityAsync,

		protocol.MethodTextDocumentDidOpen:   brlspplugin.PriorityHigh,
		protocol.MethodTextDocumentDidChange: brlspplugin.PriorityHigh,
		protocol.MethodTextDocumentDidClose:  brlspplugin.PriorityRegular,
		protocol.MethodTextDocumentDidSave:   brlspplugin.PriorityHigh,
		brlspplugin.MethodEndSession:         brlspplugin.PriorityRegular,
	}

	methods := &brlspplugin.Methods{
		PluginNameKey: _nameKey,

		Initialize: c.initialize,
		Shutdown:   c.shutdown,

		DidOpen:   c.didOpen,
		DidChange: c.didChange,
		DidClose:  c.didClose,
		DidSave:   c.didSave,

		EndSession: c.endSession,
	}

	return brlspplugin.PluginInfo{
		Priorities: priorities,
		Methods:    methods,
		NameKey:    _nameKey,
	}, nil
}

func (c *controller) GetTextDocument(ctx context.Context, doc protocol.TextDocumentIdentifier) (protocol.TextDocumentItem, error) {
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return protocol.TextDocumentItem{}, err
	}

	c.documentsMu.RLock()
	defer c.documentsMu.RUnlock()

	docs, ok := c.documents[s.UUID]
	if !ok {
		return protocol.TextDocumentItem{}, &brlsperrors.UUIDNotFoundError{UUID: s.UUID}
	}
	item, ok := docs.items[doc]
	if !ok {
		return protocol.TextDocumentItem{}, &brlsperrors.DocumentNotFoundError{Document: doc}
	}
	return item, nil
}

func (c *controller) GetActiveDocument(ctx context.Context) (*protocol.TextDocumentItem, error) {
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return nil, err
	}

	c.documentsMu.RLock()
	defer c.documentsMu.RUnlock()

	docs, ok := c.documents[s.UUID]
	if !ok || len(docs.recent) == 0 {
		return nil, nil
	}
	item := docs.items[docs.recent[len(docs.recent)-1]]
	return &item, nil
}

func (c *controller) OpenDocument(ctx context.Context, path string) (*protocol.TextDocumentItem, error) {
	id := protocol.TextDocumentIdentifier{URI: protocol.DocumentURI(uri.File(path))}
	if item, err := c.GetTextDocument(ctx, id); err == nil {
		return &item, nil
	}

	contents, err := c.fs.ReadFile(path)
	if err != nil {
		c.logger.Infof("unable to read document %q: %s", path, err)
		return nil, nil
	}
	if err := c.validateSize(ctx, string(contents)); err != nil {
		c.logger.Warnf("unable to open document %q: %s", path, err)
		return nil, nil
	}

	return &protocol.TextDocumentItem{
		URI:        id.URI,
		LanguageID: languageForPath(path),
		Text:       string(contents),
	}, nil
}

// initialize adds an entry to keep track of this session's documents.
func (c *controller) initialize(ctx context.Context, params *protocol.InitializeParams, result *protocol.InitializeResult) error {
	defer c.updateMetrics(ctx)
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return err
	}

	c.documentsMu.Lock()
	defer c.documentsMu.Unlock()
	c.documents[s.UUID] = newSessionDocuments()
	return nil
}

// shutdown removes this session's documents.
func (c *controller) shutdown(ctx context.Context) error {
	defer c.updateMetrics(ctx)
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return err
	}
	c.disposeSession(s.UUID)
	return nil
}

// endSession removes this session's documents in the event that no shutdown request is received.
func (c *controller) endSession(ctx context.Context, uuid uuid.UUID) error {
	defer c.updateMetrics(ctx)
	c.disposeSession(uuid)
	return nil
}

func (c *controller) didOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	defer c.updateMetrics(ctx)
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return err
	}

	c.documentsMu.Lock()
	defer c.documentsMu.Unlock()
	docs, ok := c.documents[s.UUID]
	if !ok {
		return &brlsperrors.UUIDNotFoundError{UUID: s.UUID}
	}

	if err := c.validateSize(ctx, params.TextDocument.Text); err != nil {
		// Oversized documents are expected now and then. Builds for them fall back to reading from disk.
		c.logger.Warnf("unable to track open document %q: %s", params.TextDocument.URI, err)
		return nil
	}

	docs.set(params.TextDocument)
	return nil
}

func (c *controller) didChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	defer c.updateMetrics(ctx)
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return err
	}

	c.documentsMu.Lock()
	defer c.documentsMu.Unlock()
	id := params.TextDocument.TextDocumentIdentifier
	docs, ok := c.documents[s.UUID]
	if !ok {
		return &brlsperrors.UUIDNotFoundError{UUID: s.UUID}
	}
	item, ok := docs.items[id]
	if !ok {
		return &brlsperrors.DocumentNotFoundError{Document: id}
	}

	item.Text = mapper.ContentChangesToText(item.Text, params.ContentChanges)
	if err := c.validateSize(ctx, item.Text); err != nil {
		return fmt.Errorf("unable to add changes to document %q: %w", item.URI, err)
	}
	item.Version = params.TextDocument.Version
	docs.set(item)
	return nil
}

func (c *controller) didClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	defer c.updateMetrics(ctx)
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return err
	}

	c.documentsMu.Lock()
	defer c.documentsMu.Unlock()
	if docs, ok := c.documents[s.UUID]; ok {
		docs.remove(params.TextDocument)
	}
	return nil
}

func (c *controller) didSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	defer c.updateMetrics(ctx)
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return err
	}

	c.documentsMu.Lock()
	defer c.documentsMu.Unlock()
	docs, ok := c.documents[s.UUID]
	if !ok {
		return &brlsperrors.UUIDNotFoundError{UUID: s.UUID}
	}
	item, ok := docs.items[params.TextDocument]
	if !ok {
		return &brlsperrors.DocumentNotFoundError{Document: params.TextDocument}
	}

	// Text is only included when the client is configured to send it on save.
	if params.Text != "" {
		item.Text = params.Text
	}
	docs.set(item)
	return nil
}

func (c *controller) disposeSession(id uuid.UUID) {
	c.documentsMu.Lock()
	defer c.documentsMu.Unlock()
	delete(c.documents, id)
}

func (c *controller) updateMetrics(ctx context.Context) {
	c.documentsMu.RLock()
	defer c.documentsMu.RUnlock()

	openDocs := 0
	openBytes := 0
	for _, docs := range c.documents {
		openDocs += len(docs.items)
		for _, item := range docs.items {
			openBytes += len(item.Text)
		}
	}
	c.stats.Gauge("open_docs").Update(float64(openDocs))
	c.stats.Gauge("open_bytes").Update(float64(openBytes))
}

func (c *controller) validateSize(ctx context.Context, text string) error {
	size := int64(len(text))
	if size > c.maxFileSizeBytes {
		return &brlsperrors.DocumentSizeLimitError{Size: size}
	}
	return nil
}

func newSessionDocuments() *sessionDocuments {
	return &sessionDocuments{items: make(map[protocol.TextDocumentIdentifier]protocol.TextDocumentItem)}
}

// set stores the document and marks it as the most recently used.
func (d *sessionDocuments) set(item protocol.TextDocumentItem) {
	id := protocol.TextDocumentIdentifier{URI: item.URI}
	d.items[id] = item
	d.dropRecent(id)
	d.recent = append(d.recent, id)
}

func (d *sessionDocuments) remove(id protocol.TextDocumentIdentifier) {
	delete(d.items, id)
	d.dropRecent(id)
}

func (d *sessionDocuments) dropRecent(id protocol.TextDocumentIdentifier) {
	for i, existing := range d.recent {
		if existing == id {
			d.recent = append(d.recent[:i], d.recent[i+1:]...)
			return
		}
	}
}

func languageForPath(path string) protocol.LanguageIdentifier {
	if strings.EqualFold(filepath.Ext(path), ".dart") {
		return LanguageDart
	}
	return ""
}

// IsDartDocument reports whether a document holds Dart source, by language id or by file extension.
func IsDartDocument(doc protocol.TextDocumentItem) bool {
	if doc.LanguageID != "" {
		return doc.LanguageID == LanguageDart
	}
	return languageForPath(doc.URI.Filename()) == LanguageDart
}
