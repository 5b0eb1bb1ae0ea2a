package domain

// ProgressReporter receives progress updates from long-running computations.
// Percent is in [0, 100].
type ProgressReporter interface {
	ReportProgress(percent float64, message string)
}

// NoopProgress discards progress updates.
type NoopProgress struct{}

// ReportProgress implements ProgressReporter.
func (NoopProgress) ReportProgress(float64, string) {}

// ProgressFunc adapts a function to ProgressReporter.
type ProgressFunc func(percent float64, message string)

// ReportProgress implements ProgressReporter.
func (f ProgressFunc) ReportProgress(percent float64, message string) {
	f(percent, message)
}
