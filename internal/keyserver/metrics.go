package keyserver

import "time"

// Recorder is the metrics seam the control plane depends on; the core
// never touches a concrete metrics backend directly. NoopRecorder
// satisfies it for tests and as the zero-value default.
type Recorder interface {
	IncRequests()
	IncServiceRequests()
	IncError(kind Kind)
	ObserveCheckpointTimestampDelay(d time.Duration)
	ObserveCheckpointFetchDuration(d time.Duration)
	ObserveCheckpointFetchStatus(ok bool)
	ObserveGasPriceFetchStatus(ok bool)
	ObserveCheckPolicyDuration(d time.Duration)
	ObserveFetchPackageIDsDuration(d time.Duration)
	ObserveRequestsPerNumberOfIDs(n int)
}

// NoopRecorder discards every observation.
type NoopRecorder struct{}

func (NoopRecorder) IncRequests()                                      {}
func (NoopRecorder) IncServiceRequests()                               {}
func (NoopRecorder) IncError(Kind)                                     {}
func (NoopRecorder) ObserveCheckpointTimestampDelay(time.Duration)      {}
func (NoopRecorder) ObserveCheckpointFetchDuration(time.Duration)       {}
func (NoopRecorder) ObserveCheckpointFetchStatus(bool)                 {}
func (NoopRecorder) ObserveGasPriceFetchStatus(bool)                   {}
func (NoopRecorder) ObserveCheckPolicyDuration(time.Duration)          {}
func (NoopRecorder) ObserveFetchPackageIDsDuration(time.Duration)      {}
func (NoopRecorder) ObserveRequestsPerNumberOfIDs(int)                 {}

var _ Recorder = NoopRecorder{}
