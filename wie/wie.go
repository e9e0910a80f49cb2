// Package wie encodes and decodes Wi-Fi Display Information Elements
// (IEs) as carried in 802.11 management frames: a layered IE/sub-element
// binary format where a single logical sub-element may be split across
// consecutive IEs.
package wie

import (
	"encoding/binary"

	"github.com/openwfd/wfd/wfderr"
)

// ElementID is the 802.11 vendor-specific element id used for all
// Wi-Fi Display IEs.
const ElementID = 0xdd

// OUI10 is the WFD 1.0 organizationally unique identifier, encoded as the
// big-endian 32-bit value used on the wire (vendor OUI plus type byte).
const OUI10 = 0x506f9a0a

// MaxIEData is the maximum number of payload bytes ("data") a single IE
// may carry; longer sub-elements span multiple IEs.
const MaxIEData = 251

// ieHeaderLen is the fixed portion of an IE preceding its data:
// element_id (1) + length (1) + oui (4).
const ieHeaderLen = 6

// subHeaderLen is the fixed portion of a sub-element preceding its data:
// subelement_id (1) + length (2).
const subHeaderLen = 3

// SubType identifies the kind of a SubElement's payload.
type SubType uint8

// Sub-element type identifiers, per the Wi-Fi Display specification.
const (
	SubDeviceInfo        SubType = 0
	SubAssociatedBSSID   SubType = 1
	SubAudioFormats      SubType = 2
	SubVideoFormats      SubType = 3
	Sub3DFormats         SubType = 4
	SubContentProtection SubType = 5
	SubCoupledSink       SubType = 6
	SubExtendedCapChip   SubType = 7
	SubLocalIP           SubType = 8
	SubSessionInfo       SubType = 9
	SubAlternativeMAC    SubType = 10
)

// SubElement is a single decoded (fully reassembled) sub-element.
type SubElement struct {
	Type SubType
	Data []byte
}

// IE is one on-the-wire Information Element.
type IE struct {
	ElementID byte
	OUI       uint32
	Data      []byte
}

// Encode serializes subs into a sequence of IEs, splitting any
// sub-element whose payload would overflow the remaining room
// (MaxIEData - current length) of the IE being built across as many
// consecutive IEs as required. All emitted IEs share ElementID and
// OUI10.
func Encode(subs []SubElement) []IE {
	var ies []IE
	cur := make([]byte, 0, MaxIEData)

	flush := func() {
		if len(cur) == 0 {
			return
		}
		ies = append(ies, IE{ElementID: ElementID, OUI: OUI10, Data: cur})
		cur = make([]byte, 0, MaxIEData)
	}

	for _, s := range subs {
		hdr := make([]byte, subHeaderLen)
		hdr[0] = byte(s.Type)
		binary.BigEndian.PutUint16(hdr[1:], uint16(len(s.Data)))

		remaining := append(hdr, s.Data...)
		for len(remaining) > 0 {
			room := MaxIEData - len(cur)
			if room <= 0 {
				flush()
				room = MaxIEData
			}
			n := room
			if n > len(remaining) {
				n = len(remaining)
			}
			cur = append(cur, remaining[:n]...)
			remaining = remaining[n:]
			if len(remaining) > 0 {
				flush()
			}
		}
	}
	flush()
	return ies
}

// Decode reassembles sub-elements from a byte stream containing one or
// more consecutive IEs. Unsupported sub-element types are reported via
// the returned slice's Type field (SubElement) rather than treated as
// fatal; iteration continues. Decode returns an error only for
// structurally invalid input (short buffer, length overflow, unknown
// element id/OUI, or a continuation that never completes).
func Decode(buf []byte) ([]SubElement, error) {
	var subs []SubElement

	var pending *pendingSub

	for len(buf) > 0 {
		if len(buf) < ieHeaderLen {
			return nil, wfderr.New(wfderr.IO, "wie: short IE header")
		}
		elementID := buf[0]
		length := int(buf[1])
		oui := binary.BigEndian.Uint32(buf[2:6])

		if elementID != ElementID {
			return nil, wfderr.New(wfderr.InvalidArgument, "wie: unknown element id")
		}
		if oui != OUI10 {
			return nil, wfderr.New(wfderr.InvalidArgument, "wie: unknown OUI")
		}
		if length > MaxIEData {
			return nil, wfderr.New(wfderr.InvalidArgument, "wie: IE length exceeds maximum")
		}
		if length < 4 {
			return nil, wfderr.New(wfderr.IO, "wie: IE length too small for OUI")
		}
		dataLen := length - 4
		if len(buf) < ieHeaderLen+dataLen {
			return nil, wfderr.New(wfderr.IO, "wie: IE data exceeds remaining buffer")
		}

		data := buf[ieHeaderLen : ieHeaderLen+dataLen]
		buf = buf[ieHeaderLen+dataLen:]

		for len(data) > 0 {
			if pending != nil {
				n := pending.want - len(pending.have)
				if n > len(data) {
					n = len(data)
				}
				pending.have = append(pending.have, data[:n]...)
				data = data[n:]
				if len(pending.have) == pending.want {
					subs = append(subs, SubElement{Type: pending.typ, Data: pending.have})
					pending = nil
				}
				continue
			}

			if len(data) < subHeaderLen {
				return nil, wfderr.New(wfderr.IO, "wie: short sub-element header")
			}
			typ := SubType(data[0])
			subLen := int(binary.BigEndian.Uint16(data[1:3]))
			data = data[subHeaderLen:]

			if subLen > len(data) {
				// Continues into the next IE(s): allocate the full
				// declared size and copy what we have so far.
				have := make([]byte, 0, subLen)
				have = append(have, data...)
				pending = &pendingSub{typ: typ, want: subLen, have: have}
				data = nil
				continue
			}

			subs = append(subs, SubElement{Type: typ, Data: data[:subLen]})
			data = data[subLen:]
		}
	}

	if pending != nil {
		return nil, wfderr.New(wfderr.IO, "wie: sub-element continuation never completed")
	}

	return subs, nil
}

type pendingSub struct {
	typ  SubType
	want int
	have []byte
}
