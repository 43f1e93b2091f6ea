package dataplane

type Protocol uint8

const (
	ProtocolUnknown Protocol = iota
	ProtocolARP
	ProtocolIPv4
)

func (p Protocol) String() string {
	switch p {
	case ProtocolARP:
		return "arp"
	case ProtocolIPv4:
		return "ipv4"
	default:
		return "unknown"
	}
}
