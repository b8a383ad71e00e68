//go:build linux

package wifi

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// NMLink drives the radio through NetworkManager's nmcli. Joins are started
// without waiting so the Manager's probes observe completion asynchronously.
type NMLink struct {
	iface string
}

func NewNMLink(iface string) (*NMLink, error) {
	if _, err := exec.LookPath("nmcli"); err != nil {
		return nil, fmt.Errorf("nmcli not found: %w", err)
	}
	return &NMLink{iface: iface}, nil
}

func (l *NMLink) StartJoin(ssid, passphrase string) error {
	args := []string{"--wait", "0", "dev", "wifi", "connect", ssid, "ifname", l.iface}
	if passphrase != "" {
		args = append(args, "password", passphrase)
	}
	out, err := exec.Command("nmcli", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("nmcli connect failed: %w, output: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (l *NMLink) JoinComplete() bool {
	out, err := exec.Command("nmcli", "-t", "-f", "GENERAL.STATE", "dev", "show", l.iface).Output()
	if err != nil {
		slog.Debug("nmcli state query failed", "error", err)
		return false
	}
	// GENERAL.STATE:100 (connected)
	return strings.Contains(string(out), "(connected)")
}

func (l *NMLink) LinkUp() bool {
	return l.JoinComplete()
}

func (l *NMLink) StartAccessPoint(ssid, passphrase string) error {
	args := []string{"dev", "wifi", "hotspot", "ifname", l.iface, "ssid", ssid}
	if passphrase != "" {
		args = append(args, "password", passphrase)
	}
	out, err := exec.Command("nmcli", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("nmcli hotspot failed: %w, output: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (l *NMLink) Info() LinkInfo {
	var info LinkInfo

	out, err := exec.Command("nmcli", "-t", "-f", "IP4.ADDRESS", "dev", "show", l.iface).Output()
	if err == nil {
		// IP4.ADDRESS[1]:192.168.1.50/24
		for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
			if _, addr, ok := strings.Cut(line, ":"); ok {
				info.IP = strings.SplitN(addr, "/", 2)[0]
				break
			}
		}
	}

	out, err = exec.Command("nmcli", "-t", "-f", "IN-USE,SIGNAL", "dev", "wifi").Output()
	if err == nil {
		for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
			fields := strings.Split(line, ":")
			if len(fields) == 2 && fields[0] == "*" {
				if sig, err := strconv.Atoi(fields[1]); err == nil {
					info.SignalStrength = sig
				}
				break
			}
		}
	}

	return info
}
