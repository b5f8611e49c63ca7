package metrics

// JobMetrics are the instruments the runner records against for every
// job it executes. Constructed once per Provider and reused across runs.
type JobMetrics struct {
	Started  Counter
	Finished Counter
	Failed   Counter
	InFlight UpDownCounter
	Duration Histogram
}

// NewJobMetrics builds the standard instrument set from p. Pass
// NewNoopProvider() to disable instrumentation entirely.
func NewJobMetrics(p Provider) JobMetrics {
	if p == nil {
		p = NewNoopProvider()
	}
	return JobMetrics{
		Started:  p.Counter("jobflow.job.started", WithDescription("jobs started"), WithUnit("1")),
		Finished: p.Counter("jobflow.job.finished", WithDescription("jobs finished without error"), WithUnit("1")),
		Failed:   p.Counter("jobflow.job.failed", WithDescription("jobs finished with an error"), WithUnit("1")),
		InFlight: p.UpDownCounter("jobflow.job.inflight", WithDescription("jobs currently executing"), WithUnit("1")),
		Duration: p.Histogram("jobflow.job.duration", WithDescription("job run duration"), WithUnit("seconds")),
	}
}
