package importers

// Outcome is the result of importing one record.
type Outcome int

const (
	OutcomeInserted Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// RecordResult describes what happened to a single record.
type RecordResult struct {
	Page     string  `json:"page"`
	Preview  string  `json:"preview"`
	Outcome  Outcome `json:"outcome"`
	Key      string  `json:"key,omitempty"`
	ItemID   int64   `json:"itemId,omitempty"`
	Fallback bool    `json:"fallback,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// Result summarises a run. Inserted+Skipped+Failed equals the number of
// records in the request.
type Result struct {
	Inserted   int            `json:"inserted"`
	Skipped    int            `json:"skipped"`
	Failed     int            `json:"failed"`
	Fallbacks  int            `json:"fallbacks"`
	BackupPath string         `json:"backupPath,omitempty"`
	DryRun     bool           `json:"dryRun,omitempty"`
	Records    []RecordResult `json:"records,omitempty"`
}

func (r *Result) add(rec RecordResult) {
	switch rec.Outcome {
	case OutcomeInserted:
		r.Inserted++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
	if rec.Fallback {
		r.Fallbacks++
	}
	r.Records = append(r.Records, rec)
}

func (r Result) Total() int {
	return r.Inserted + r.Skipped + r.Failed
}
