// Package interfaces lists the seams between the importer's packages.
//
// # Interface Categories
//
// ## Location Resolution
//
//   - cfi.Resolver: turns highlight texts into EPUB locations in one batch
//     (internal/cfi/resolver.go). NodeResolver runs the epub.js generator;
//     StaticResolver serves fixed answers in tests.
//
// ## Match Confirmation
//
//   - services.Confirmer: decides whether a low-confidence catalog match may
//     be used (internal/services/interfaces.go). PromptConfirmer asks on the
//     terminal; AutoConfirmer answers unattended runs.
//
// ## Watch Mode
//
//   - tasks.FileImporter: what the import task needs from the import service
//     (internal/tasks/import_file.go)
//   - scheduler.Enqueuer and scheduler.Lister: how the inbox watcher reaches
//     the task queue and the inbox (internal/scheduler/inbox_watch.go)
//
// # Adding a New Location Resolver
//
// To place highlights with another tool (e.g. a native EPUB parser):
//
//  1. Implement cfi.Resolver in internal/cfi/
//
//     type NativeResolver struct{ ... }
//
//     func (r *NativeResolver) ResolveBatch(ctx context.Context, epubPath string, texts []string) ([]*entities.Location, error)
//
//  2. Return nil entries for texts that cannot be found; the importer
//     substitutes page-based fallbacks
//
//  3. Add a compile-time check to checks.go
//
// # Compile-Time Interface Checks
//
// Implementations carry compile-time checks so a missing method fails the
// build rather than a run:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go.
package interfaces
