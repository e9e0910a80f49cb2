package wie

import (
	"encoding/binary"

	"github.com/openwfd/wfd/wfderr"
)

var errShortDeviceInfo = wfderr.New(wfderr.IO, "wie: short device-info payload")

// DefaultControlPort is the RTSP control port advertised by default.
const DefaultControlPort = 7236

// Role identifies a device's Wi-Fi Display role.
type Role uint16

const (
	RoleSource        Role = 0
	RolePrimarySink   Role = 1
	RoleSecondarySink Role = 2
	RoleDualRole      Role = 3
)

// Device-info bit masks and set values, per the Wi-Fi Display
// specification's sub-element 0 (device information) layout.
const (
	maskRole             = 0x0003
	maskSrcCoupledSink   = 0x0004
	valSrcCoupledSink    = 0x0004
	maskSinkCoupledSink  = 0x0008
	valSinkCoupledSink   = 0x0008
	maskAvailable        = 0x0030
	valAvailable         = 0x0010
	maskWSD              = 0x0040
	valWSD               = 0x0040
	maskPreferredConn    = 0x0080
	valPreferTDLS        = 0x0080
	maskContentProtect   = 0x0100
	valContentProtect    = 0x0100
	maskTimeSync         = 0x0200
	valTimeSync          = 0x0200
	maskNoAudio          = 0x0400
	valNoAudio           = 0x0400
	maskAudioOnly        = 0x0800
	valAudioOnly         = 0x0800
	maskPersistentTDLS   = 0x1000
	valPersistentTDLS    = 0x1000
	maskTDLSReinvoke     = 0x2000
	valTDLSReinvoke      = 0x2000
)

// DeviceInfo is the decoded form of a SubDeviceInfo sub-element.
type DeviceInfo struct {
	Role                 Role
	SourceCoupledSink    bool
	SinkCoupledSink      bool
	Available            bool
	WSD                  bool
	PreferTDLS           bool
	ContentProtection    bool
	TimeSync             bool
	NoAudio              bool
	AudioOnly            bool
	PersistentTDLS       bool
	TDLSReinvoke         bool
	CtrlPort             uint16
	MaxThroughput        uint16
}

func setBit(v *uint16, mask, val uint16, on bool) {
	*v &^= mask
	if on {
		*v |= val
	}
}

// Encode serializes d into a SubDeviceInfo sub-element's 6-byte payload.
func (d DeviceInfo) Encode() []byte {
	var devInfo uint16
	devInfo |= uint16(d.Role) & maskRole
	setBit(&devInfo, maskSrcCoupledSink, valSrcCoupledSink, d.SourceCoupledSink)
	setBit(&devInfo, maskSinkCoupledSink, valSinkCoupledSink, d.SinkCoupledSink)
	setBit(&devInfo, maskAvailable, valAvailable, d.Available)
	setBit(&devInfo, maskWSD, valWSD, d.WSD)
	setBit(&devInfo, maskPreferredConn, valPreferTDLS, d.PreferTDLS)
	setBit(&devInfo, maskContentProtect, valContentProtect, d.ContentProtection)
	setBit(&devInfo, maskTimeSync, valTimeSync, d.TimeSync)
	setBit(&devInfo, maskNoAudio, valNoAudio, d.NoAudio)
	setBit(&devInfo, maskAudioOnly, valAudioOnly, d.AudioOnly)
	setBit(&devInfo, maskPersistentTDLS, valPersistentTDLS, d.PersistentTDLS)
	setBit(&devInfo, maskTDLSReinvoke, valTDLSReinvoke, d.TDLSReinvoke)

	out := make([]byte, 6)
	binary.BigEndian.PutUint16(out[0:2], devInfo)
	binary.BigEndian.PutUint16(out[2:4], d.CtrlPort)
	binary.BigEndian.PutUint16(out[4:6], d.MaxThroughput)
	return out
}

// DecodeDeviceInfo parses a SubDeviceInfo sub-element's payload.
func DecodeDeviceInfo(data []byte) (DeviceInfo, error) {
	if len(data) < 6 {
		return DeviceInfo{}, errShortDeviceInfo
	}
	devInfo := binary.BigEndian.Uint16(data[0:2])
	return DeviceInfo{
		Role:              Role(devInfo & maskRole),
		SourceCoupledSink: devInfo&maskSrcCoupledSink == valSrcCoupledSink,
		SinkCoupledSink:   devInfo&maskSinkCoupledSink == valSinkCoupledSink,
		Available:         devInfo&maskAvailable == valAvailable,
		WSD:               devInfo&maskWSD == valWSD,
		PreferTDLS:        devInfo&maskPreferredConn == valPreferTDLS,
		ContentProtection: devInfo&maskContentProtect == valContentProtect,
		TimeSync:          devInfo&maskTimeSync == valTimeSync,
		NoAudio:           devInfo&maskNoAudio == valNoAudio,
		AudioOnly:         devInfo&maskAudioOnly == valAudioOnly,
		PersistentTDLS:    devInfo&maskPersistentTDLS == valPersistentTDLS,
		TDLSReinvoke:      devInfo&maskTDLSReinvoke == valTDLSReinvoke,
		CtrlPort:          binary.BigEndian.Uint16(data[2:4]),
		MaxThroughput:     binary.BigEndian.Uint16(data[4:6]),
	}, nil
}
