package model

// EventListener receives detection events synchronously from a detector.
type EventListener interface {
	OnDetectionEvent(DetectionEvent)
}

// ReadingListener receives rhythm readings synchronously from an analyzer.
type ReadingListener interface {
	OnRhythmReading(RhythmReading)
}

// Listener receives every output of the pipeline.
type Listener interface {
	EventListener
	ReadingListener
}
