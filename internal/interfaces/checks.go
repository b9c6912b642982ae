package interfaces

// Compile-time interface implementation checks. They catch a concrete type
// drifting away from the interface a consumer declares.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/boox2zotero/internal/cfi"
	"github.com/mrlokans/boox2zotero/internal/database/annotations"
	"github.com/mrlokans/boox2zotero/internal/importers"
	"github.com/mrlokans/boox2zotero/internal/scheduler"
	"github.com/mrlokans/boox2zotero/internal/services"
	"github.com/mrlokans/boox2zotero/internal/tasks"
)

// =============================================================================
// Location Resolution
// =============================================================================

var _ cfi.Resolver = (*cfi.NodeResolver)(nil)
var _ cfi.Resolver = (*cfi.StaticResolver)(nil)

// =============================================================================
// Annotation Storage
// =============================================================================

var _ importers.AnnotationStore = (*annotations.Repository)(nil)

// =============================================================================
// Match Confirmation
// =============================================================================

var _ services.Confirmer = services.PromptConfirmer{}
var _ services.Confirmer = services.AutoConfirmer{}

// =============================================================================
// Watch Mode
// =============================================================================

// The import task drives the import service
var _ tasks.FileImporter = (*services.ImportService)(nil)

// The inbox watcher feeds the task queue
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
var _ scheduler.Lister = (*tasks.Inbox)(nil)
