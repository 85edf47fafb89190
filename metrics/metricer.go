// Package metrics records core execution statistics.
package metrics

// Metricer receives execution events from the core and its supporting
// packages.
type Metricer interface {
	RecordInstructions(mode string, n uint64)
	RecordBlockCompile(mode string)
	RecordBlockLookup(mode string, hit bool)
	RecordBlockInvalidation(mode string, n int)
	RecordException(code string)
	RecordInterrupt(kind string)
	RecordTLBMiss(write bool)
	RecordQueueError()
	RecordConsistency(match bool)
}
