package runner

// Status is the outcome for one input file.
type Status string

const (
	StatusStripped           Status = "stripped"
	StatusUnchanged          Status = "unchanged"
	StatusCopied             Status = "copied"
	StatusCached             Status = "cached"
	StatusSkippedIgnored     Status = "skipped (gitignored)"
	StatusSkippedUpToDate    Status = "skipped (up to date)"
	StatusSkippedUnsupported Status = "skipped (unsupported)"
	StatusFailed             Status = "failed"
)

// Processed reports whether the file's units were transformed.
func (s Status) Processed() bool {
	return s == StatusStripped || s == StatusUnchanged || s == StatusCopied
}

// Skipped reports whether the file was deliberately left alone.
func (s Status) Skipped() bool {
	switch s {
	case StatusSkippedIgnored, StatusSkippedUpToDate, StatusSkippedUnsupported:
		return true
	}
	return false
}

// FileReport describes what happened to one file.
type FileReport struct {
	Path         string
	Status       Status
	Units        int
	LinesRemoved int
	Err          error
}

// Report collects the file reports of one run, in input order.
type Report struct {
	Files  []FileReport
	DryRun bool
}

func (r *Report) count(match func(Status) bool) int {
	n := 0
	for _, f := range r.Files {
		if match(f.Status) {
			n++
		}
	}
	return n
}

// Processed is the number of files whose units were transformed.
func (r *Report) Processed() int { return r.count(Status.Processed) }

// Skipped is the number of files deliberately left alone.
func (r *Report) Skipped() int { return r.count(Status.Skipped) }

// Failed is the number of files that hit an error.
func (r *Report) Failed() int {
	return r.count(func(s Status) bool { return s == StatusFailed })
}

// Units is the total number of units transformed.
func (r *Report) Units() int {
	n := 0
	for _, f := range r.Files {
		n += f.Units
	}
	return n
}

// LinesRemoved is the total number of lines removed across all files.
func (r *Report) LinesRemoved() int {
	n := 0
	for _, f := range r.Files {
		n += f.LinesRemoved
	}
	return n
}
