package audit

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// maxErrorLength bounds the error text stored in a report.
const maxErrorLength = 500

// Report is the record of one annotation import, successful or not.
type Report struct {
	ID          string    `json:"id"`
	Trigger     string    `json:"trigger"`
	File        string    `json:"file"`
	Identifier  string    `json:"identifier,omitempty"`
	MatchedPath string    `json:"matchedPath,omitempty"`
	MatchMethod string    `json:"matchMethod,omitempty"`
	Confidence  float64   `json:"confidence,omitempty"`
	ParentID    int64     `json:"parentItemId,omitempty"`
	Inserted    int       `json:"inserted"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	Fallbacks   int       `json:"fallbacks"`
	BackupPath  string    `json:"backupPath,omitempty"`
	DryRun      bool      `json:"dryRun,omitempty"`
	Status      Status    `json:"status"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
	Records     any       `json:"records,omitempty"`
}

// Service stores import reports. A Service without a directory discards
// them, so callers need not check whether auditing is enabled.
type Service struct {
	auditor *Auditor
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(auditDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{logger: logger, now: time.Now}
	if auditDir != "" {
		s.auditor = NewAuditor(auditDir)
	}
	return s
}

func (s *Service) Enabled() bool {
	return s != nil && s.auditor != nil
}

// LogImport fills in the report id, status and finish time and writes it.
// Failures are logged and otherwise ignored; auditing never fails an import.
func (s *Service) LogImport(report Report, err error) string {
	if !s.Enabled() {
		return ""
	}

	id := uuid.New()
	report.ID = id.String()
	report.Status = StatusSuccess
	if err != nil {
		report.Status = StatusFailed
		report.Error = truncate(err.Error(), maxErrorLength)
	}
	if report.FinishedAt.IsZero() {
		report.FinishedAt = s.now()
	}

	filename, saveErr := s.auditor.save(id, report)
	if saveErr != nil {
		s.logger.Warn("failed to write audit report", "error", saveErr)
		return ""
	}
	s.logger.Debug("audit report written", "file", filename)
	return filename
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
