package metrics

// NoopMetrics discards every event.
type NoopMetrics struct{}

func (NoopMetrics) RecordInstructions(string, uint64)   {}
func (NoopMetrics) RecordBlockCompile(string)           {}
func (NoopMetrics) RecordBlockLookup(string, bool)      {}
func (NoopMetrics) RecordBlockInvalidation(string, int) {}
func (NoopMetrics) RecordException(string)              {}
func (NoopMetrics) RecordInterrupt(string)              {}
func (NoopMetrics) RecordTLBMiss(bool)                  {}
func (NoopMetrics) RecordQueueError()                   {}
func (NoopMetrics) RecordConsistency(bool)              {}

var _ Metricer = NoopMetrics{}
