package wifi

// LinkInfo describes the client-side link while joined.
type LinkInfo struct {
	IP             string
	SignalStrength int // RSSI in dBm, 0 when unknown
}

// Link abstracts the wireless radio. The Manager drives it; it performs no
// state bookkeeping of its own. StartJoin begins an asynchronous join that
// JoinComplete later confirms. StartAccessPoint brings up the self-hosted
// network and is expected to succeed; the firmware halts if it cannot.
type Link interface {
	StartJoin(ssid, passphrase string) error
	JoinComplete() bool
	LinkUp() bool
	StartAccessPoint(ssid, passphrase string) error
	Info() LinkInfo
}
