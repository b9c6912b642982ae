package config

// Default locations relative to the working directory.
const (
	// DefaultCFIScriptPath is the epub.js location generator
	DefaultCFIScriptPath = "./scripts/epub-cfi-generator.js"

	// DefaultStateDir holds the watch-mode task queue database
	DefaultStateDir = "./state"

	// DefaultAuditDir receives one JSON report per import
	DefaultAuditDir = "./audit"
)
