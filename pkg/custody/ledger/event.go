package ledger

// Event is a named, structured record emitted by a transition and published
// only after the transition commits.
type Event struct {
	Name       string
	Attributes map[string]interface{}
}

func NewEvent(name string, attributes map[string]interface{}) *Event {
	if attributes == nil {
		attributes = make(map[string]interface{})
	}
	return &Event{
		Name:       name,
		Attributes: attributes,
	}
}
