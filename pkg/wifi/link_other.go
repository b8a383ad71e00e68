//go:build !linux

package wifi

import "fmt"

// NMLink is a stub on platforms without NetworkManager.
type NMLink struct {
	iface string
}

func NewNMLink(iface string) (*NMLink, error) {
	return nil, fmt.Errorf("wifi control not available on this platform")
}

func (l *NMLink) StartJoin(ssid, passphrase string) error {
	return fmt.Errorf("wifi control not available on this platform")
}

func (l *NMLink) JoinComplete() bool { return false }

func (l *NMLink) LinkUp() bool { return false }

func (l *NMLink) StartAccessPoint(ssid, passphrase string) error {
	return fmt.Errorf("wifi control not available on this platform")
}

func (l *NMLink) Info() LinkInfo { return LinkInfo{} }
