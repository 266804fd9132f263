package core

// Observer receives transcript activity as it happens. Implementations must
// not block for long: they run inline with the scheduler.
type Observer interface {
	// OnMessage is called after a message has been appended to a transcript.
	OnMessage(msg Message)
	// OnChunk is called for partial model output when streaming is enabled.
	OnChunk(sessionID, sender, text string)
}

// NopObserver ignores everything.
type NopObserver struct{}

// OnMessage implements Observer.
func (NopObserver) OnMessage(Message) {}

// OnChunk implements Observer.
func (NopObserver) OnChunk(string, string, string) {}

// Observers fans out to every member in order.
type Observers []Observer

// OnMessage implements Observer.
func (o Observers) OnMessage(msg Message) {
	for _, ob := range o {
		if ob != nil {
			ob.OnMessage(msg)
		}
	}
}

// OnChunk implements Observer.
func (o Observers) OnChunk(sessionID, sender, text string) {
	for _, ob := range o {
		if ob != nil {
			ob.OnChunk(sessionID, sender, text)
		}
	}
}
