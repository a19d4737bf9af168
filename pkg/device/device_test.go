package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkwon17/glassLink/pkg/protocol"
)

func TestDeviceInfo_MessageRoundTrip(t *testing.T) {
	info := DeviceInfo{
		Name:            "Halo G2",
		Address:         "AA:BB:CC:DD:EE:FF",
		Role:            RoleGlasses,
		BatteryLevel:    87,
		FirmwareVersion: "2.4.1",
	}

	msg, err := info.Message()
	require.NoError(t, err)
	assert.Equal(t, protocol.DeviceInfo, msg.Type)

	parsed, ok := ParseInfo(msg)
	require.True(t, ok)
	assert.Equal(t, info, parsed)
}

func TestParseInfo_RejectsOtherTypesAndBadPayloads(t *testing.T) {
	_, ok := ParseInfo(protocol.NewHeartbeat())
	assert.False(t, ok, "Only DEVICE_INFO messages carry device info")

	bad := protocol.New(protocol.DeviceInfo)
	bad.Payload = "not json"
	_, ok = ParseInfo(bad)
	assert.False(t, ok)

	_, ok = ParseInfo(nil)
	assert.False(t, ok)
}

func TestRole_String(t *testing.T) {
	assert.Equal(t, "PHONE", RolePhone.String())
	assert.Equal(t, "GLASSES", RoleGlasses.String())
	assert.Equal(t, "UNKNOWN", Role(9).String())
}
