// Package device describes the identity of the remote peer. The protocol
// core never discovers or pairs devices itself; DeviceInfo values are
// supplied by the transport and discovery layers.
package device

import (
	"encoding/json"

	"github.com/rkwon17/glassLink/pkg/protocol"
)

// Role says which end of the link a device is.
type Role int

const (
	RolePhone Role = iota
	RoleGlasses
)

// String returns the wire name of the role.
func (r Role) String() string {
	switch r {
	case RolePhone:
		return "PHONE"
	case RoleGlasses:
		return "GLASSES"
	default:
		return "UNKNOWN"
	}
}

// DeviceInfo identifies a companion device. Battery and firmware fields are
// optional metadata reported by the device itself.
type DeviceInfo struct {
	Name            string `json:"name"`
	Address         string `json:"address"`
	Role            Role   `json:"role"`
	BatteryLevel    int    `json:"battery_level,omitempty"`
	FirmwareVersion string `json:"firmware_version,omitempty"`
}

// Message packages the device info as a DEVICE_INFO control message with the
// info JSON-encoded in the payload.
func (d DeviceInfo) Message() (*protocol.Message, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	msg := protocol.New(protocol.DeviceInfo)
	msg.Payload = string(data)
	return msg, nil
}

// ParseInfo decodes a DEVICE_INFO payload back into a DeviceInfo. It returns
// (DeviceInfo{}, false) when the message is not DEVICE_INFO or the payload
// does not parse.
func ParseInfo(msg *protocol.Message) (DeviceInfo, bool) {
	if msg == nil || msg.Type != protocol.DeviceInfo {
		return DeviceInfo{}, false
	}
	var info DeviceInfo
	if err := json.Unmarshal([]byte(msg.Payload), &info); err != nil {
		return DeviceInfo{}, false
	}
	return info, true
}
