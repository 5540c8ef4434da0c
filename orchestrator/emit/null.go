package emit

import "context"

// NullEmitter implements Emitter by discarding all events.
//
// This is the default when no Emitter is configured: the scheduler,
// reconfigurer, and admission gate construct one whenever their caller
// passes nil, so they never need a nil check before calling Emit. Its
// methods take a value receiver so the zero value, emit.NullEmitter{}, is
// usable directly without NewNullEmitter.
type NullEmitter struct{}

// NewNullEmitter creates a new NullEmitter.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event without any processing.
func (n NullEmitter) Emit(event Event) {
	// No-op: discard the event
}

// EmitBatch discards every event in events without any processing.
func (n NullEmitter) EmitBatch(_ context.Context, events []Event) error {
	return nil
}

// Flush is a no-op: NullEmitter buffers nothing.
func (n NullEmitter) Flush(_ context.Context) error {
	return nil
}
