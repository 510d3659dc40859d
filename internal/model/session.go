package model

import "time"

// AnalysisSession is the persistence envelope around one analyzed costing
// sheet: the uploaded file, the run metadata, and the resulting report.
type AnalysisSession struct {
	CreatedAt     time.Time
	Filename      string
	Manufacturer  string
	FinalHSCode   string
	Verdict       Verdict
	Reason        string
	MissingFields []string
	ID            int64
	Completed     bool
}
