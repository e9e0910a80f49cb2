package wpactrl

import "context"

// InterfaceConfigurator assigns a network address to a Wi-Fi Display
// link once negotiation completes. This module does not implement
// interface configuration itself (it stays out of scope, same as the
// external "ip" tool the original process shells out to); a caller
// supplies one, typically backed by os/exec or netlink.
type InterfaceConfigurator interface {
	Configure(ctx context.Context, iface string, cidr string) error
}

// LeaseAcquirer obtains an IP lease for iface, e.g. via a DHCP client.
// Like InterfaceConfigurator, this module only names the collaborator;
// DHCP itself is out of scope.
type LeaseAcquirer interface {
	Acquire(ctx context.Context, iface string) (cidr string, err error)
}
