// Package discovery announces and browses companion devices over mDNS. It
// is a collaborator of the protocol core, not part of it: it only produces
// DeviceInfo candidates for the transport layer to dial.
package discovery

import (
	"context"
	"net"

	"github.com/rkwon17/glassLink/pkg/device"
)

const (
	DefaultServiceType = "_glasslink._tcp"
	DefaultDomain      = "local"
)

// ServiceInfo is one announced companion device on the network.
type ServiceInfo struct {
	Name   string // instance name, usually the device name
	Type   string // service type, e.g. "_glasslink._tcp"
	Domain string // domain, e.g. "local"
	Addr   net.IP
	Port   int
	Role   device.Role
}

// Device converts the announcement into peer identity for the link layer.
func (s ServiceInfo) Device() device.DeviceInfo {
	addr := ""
	if s.Addr != nil {
		addr = s.Addr.String()
	}
	return device.DeviceInfo{
		Name:    s.Name,
		Address: addr,
		Role:    s.Role,
	}
}

// DiscoveryResult carries either a snapshot of visible devices or a browse
// error.
type DiscoveryResult struct {
	Services []ServiceInfo
	Error    error
}

// Adapter abstracts the announce/browse mechanism so tests can substitute a
// fake for the real mDNS stack.
type Adapter interface {
	Announce(ctx context.Context, service ServiceInfo) error
	Discover(ctx context.Context, serviceType string) <-chan DiscoveryResult
}
