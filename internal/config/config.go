package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/mrlokans/boox2zotero/internal/cfi"
	"github.com/mrlokans/boox2zotero/internal/matcher"
	"github.com/mrlokans/boox2zotero/internal/tasks"
	"github.com/mrlokans/boox2zotero/internal/zotero"
)

type (
	Config struct {
		Zotero
		Import
		Matcher
		CFI
		Audit
		Log
		Watch
		Tasks
	}

	Zotero struct {
		DataDir      string // Empty: read from prefs.js, then ~/Zotero
		StorageDir   string // Empty: baseAttachmentPath pref, then <DataDir>/storage
		LibraryID    int
		TitleFieldID int
		BusyTimeout  time.Duration
	}
	Import struct {
		HighlightColor   string
		ConfirmThreshold float64 // Matches below this confidence need confirmation
	}
	Matcher struct {
		Threshold     float64
		EPUBExtension string
	}
	CFI struct {
		NodeBinary string
		ScriptPath string
		Timeout    time.Duration
	}
	Audit struct {
		Dir string // Empty disables audit reports
	}
	Log struct {
		Level string
	}
	Watch struct {
		InboxDir string
		Schedule string // Cron format: "*/5 * * * *" = every five minutes
		StateDir string
	}
	Tasks struct {
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("zotero_data_dir", "")
	v.SetDefault("zotero_storage_dir", "")
	v.SetDefault("zotero_library_id", 1)
	v.SetDefault("zotero_title_field_id", 1)
	v.SetDefault("zotero_busy_timeout", "5s")
	v.SetDefault("highlight_color", "yellow")
	v.SetDefault("confirm_threshold", 0.9)
	v.SetDefault("match_threshold", 0.3)
	v.SetDefault("epub_extension", ".epub")
	v.SetDefault("cfi_node_binary", "node")
	v.SetDefault("cfi_script_path", DefaultCFIScriptPath)
	v.SetDefault("cfi_timeout", "30s")
	v.SetDefault("audit_dir", DefaultAuditDir)
	v.SetDefault("log_level", "info")

	// Watch mode defaults
	v.SetDefault("inbox_dir", "")
	v.SetDefault("watch_schedule", "*/5 * * * *")
	v.SetDefault("state_dir", DefaultStateDir)

	// Task queue defaults
	v.SetDefault("task_max_retries", 5)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "10m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		Zotero: Zotero{
			DataDir:      v.GetString("ZOTERO_DATA_DIR"),
			StorageDir:   v.GetString("ZOTERO_STORAGE_DIR"),
			LibraryID:    v.GetInt("ZOTERO_LIBRARY_ID"),
			TitleFieldID: v.GetInt("ZOTERO_TITLE_FIELD_ID"),
			BusyTimeout:  v.GetDuration("ZOTERO_BUSY_TIMEOUT"),
		},
		Import: Import{
			HighlightColor:   v.GetString("HIGHLIGHT_COLOR"),
			ConfirmThreshold: v.GetFloat64("CONFIRM_THRESHOLD"),
		},
		Matcher: Matcher{
			Threshold:     v.GetFloat64("MATCH_THRESHOLD"),
			EPUBExtension: v.GetString("EPUB_EXTENSION"),
		},
		CFI: CFI{
			NodeBinary: v.GetString("CFI_NODE_BINARY"),
			ScriptPath: v.GetString("CFI_SCRIPT_PATH"),
			Timeout:    v.GetDuration("CFI_TIMEOUT"),
		},
		Audit: Audit{
			Dir: v.GetString("AUDIT_DIR"),
		},
		Log: Log{
			Level: v.GetString("LOG_LEVEL"),
		},
		Watch: Watch{
			InboxDir: v.GetString("INBOX_DIR"),
			Schedule: v.GetString("WATCH_SCHEDULE"),
			StateDir: v.GetString("STATE_DIR"),
		},
		Tasks: Tasks{
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
	}
}

// MatcherConfig starts from matcher.DefaultConfig and applies the
// configured threshold and extension.
func (c *Config) MatcherConfig() matcher.Config {
	mc := matcher.DefaultConfig()
	if c.Matcher.Threshold > 0 {
		mc.Threshold = c.Matcher.Threshold
	}
	if c.Matcher.EPUBExtension != "" {
		mc.Extension = c.Matcher.EPUBExtension
	}
	return mc
}

func (c *Config) NodeConfig() cfi.NodeConfig {
	nc := cfi.DefaultNodeConfig()
	if c.CFI.NodeBinary != "" {
		nc.Binary = c.CFI.NodeBinary
	}
	nc.Script = c.CFI.ScriptPath
	if c.CFI.Timeout > 0 {
		nc.Timeout = c.CFI.Timeout
	}
	return nc
}

// TasksConfig always uses a single worker so imports never overlap.
func (c *Config) TasksConfig() tasks.Config {
	tc := tasks.DefaultConfig()
	tc.Workers = 1
	if c.Tasks.MaxRetries > 0 {
		tc.MaxRetries = c.Tasks.MaxRetries
	}
	if c.Tasks.RetryDelay > 0 {
		tc.RetryDelay = c.Tasks.RetryDelay
	}
	if c.Tasks.TaskTimeout > 0 {
		tc.TaskTimeout = c.Tasks.TaskTimeout
	}
	if c.Tasks.ReleaseAfter > 0 {
		tc.ReleaseAfter = c.Tasks.ReleaseAfter
	}
	if c.Tasks.CleanupInterval > 0 {
		tc.CleanupInterval = c.Tasks.CleanupInterval
	}
	if c.Tasks.RetentionDuration > 0 {
		tc.RetentionDuration = c.Tasks.RetentionDuration
	}
	return tc
}

// ZoteroPaths fills in whatever DataDir and StorageDir leave empty from the
// Zotero preferences found by loc.
func (c *Config) ZoteroPaths(loc *zotero.Locator) zotero.Paths {
	dataDir := c.Zotero.DataDir
	if dataDir == "" {
		dataDir = loc.DataDir()
	}

	storageDir := c.Zotero.StorageDir
	if storageDir == "" {
		storageDir = loc.BaseAttachmentDir(dataDir)
	}

	return zotero.Paths{DataDir: dataDir, AttachmentDir: storageDir}
}
