package model

// Message is one outbound runtime message. The control plane only reads
// its destination; payload and target are owned by the messaging stack.
type Message struct {
	Target  GrainID
	Silo    Endpoint
	Payload []byte
}

// Destination returns the silo endpoint the message is addressed to.
func (m *Message) Destination() Endpoint { return m.Silo }
