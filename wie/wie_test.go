package wie_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openwfd/wfd/wie"
)

func TestEncodeDecodeDeviceInfoRoundTrip(t *testing.T) {
	di := wie.DeviceInfo{
		Role:          wie.RolePrimarySink,
		Available:     true,
		CtrlPort:      wie.DefaultControlPort,
		MaxThroughput: 200,
	}

	subs := []wie.SubElement{{Type: wie.SubDeviceInfo, Data: di.Encode()}}
	ies := wie.Encode(subs)

	require.Len(t, ies, 1)
	assert.Equal(t, byte(0xdd), ies[0].ElementID)
	assert.Equal(t, uint32(0x506f9a0a), ies[0].OUI)

	raw := serialize(ies)
	// length = 4 (OUI) + 9 (sub-element: 3-byte header + 6-byte payload) = 13 = 0x0d.
	assert.Equal(t, []byte{0xdd, 0x0d, 0x50, 0x6f, 0x9a, 0x0a, 0x00, 0x00, 0x06}, raw[:9])

	decoded, err := wie.Decode(raw)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, wie.SubDeviceInfo, decoded[0].Type)

	got, err := wie.DecodeDeviceInfo(decoded[0].Data)
	require.NoError(t, err)
	assert.Equal(t, di, got)
}

func TestEncodeSplitsAcrossIEsAndDecodeReassembles(t *testing.T) {
	payload := make([]byte, 600)
	for i := range payload {
		payload[i] = byte(i)
	}
	subs := []wie.SubElement{
		{Type: wie.SubVideoFormats, Data: payload},
		{Type: wie.SubAssociatedBSSID, Data: []byte{1, 2, 3, 4, 5, 6}},
	}

	ies := wie.Encode(subs)
	assert.Greater(t, len(ies), 1, "expected the oversized sub-element to force a split")
	for _, ie := range ies {
		assert.LessOrEqual(t, len(ie.Data), wie.MaxIEData)
	}

	raw := serialize(ies)
	decoded, err := wie.Decode(raw)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, subs[0].Type, decoded[0].Type)
	assert.Equal(t, subs[0].Data, decoded[0].Data)
	assert.Equal(t, subs[1].Type, decoded[1].Type)
	assert.Equal(t, subs[1].Data, decoded[1].Data)
}

func TestDecodeRejectsUnknownElementID(t *testing.T) {
	raw := []byte{0xAA, 0x04, 0x50, 0x6f, 0x9a, 0x0a}
	_, err := wie.Decode(raw)
	assert.Error(t, err)
}

func TestDecodeRejectsShortBuffer(t *testing.T) {
	_, err := wie.Decode([]byte{0xdd, 0x02})
	assert.Error(t, err)
}

func TestDecodeRejectsLengthOverflow(t *testing.T) {
	raw := []byte{0xdd, 0xff, 0x50, 0x6f, 0x9a, 0x0a}
	_, err := wie.Decode(append(raw, make([]byte, 0xff-4)...))
	assert.Error(t, err)
}

func TestDecodeRejectsIncompleteContinuation(t *testing.T) {
	subs := []wie.SubElement{{Type: wie.SubVideoFormats, Data: make([]byte, 600)}}
	ies := wie.Encode(subs)
	require.Greater(t, len(ies), 1)

	raw := serialize(ies[:len(ies)-1])
	_, err := wie.Decode(raw)
	assert.Error(t, err)
}

func serialize(ies []wie.IE) []byte {
	var out []byte
	for _, ie := range ies {
		out = append(out, ie.ElementID, byte(len(ie.Data)+4))
		oui := []byte{byte(ie.OUI >> 24), byte(ie.OUI >> 16), byte(ie.OUI >> 8), byte(ie.OUI)}
		out = append(out, oui...)
		out = append(out, ie.Data...)
	}
	return out
}
