package events

const (
	TopicEgress   = "osvrouter:events:egress"
	TopicNeighbor = "osvrouter:events:neighbor"
)
