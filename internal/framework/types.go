package framework

// Message is a queue job flowing from Subscriber to Processor
type Message struct {
	ID    string
	Queue string
	Data  []byte
}
