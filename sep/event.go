// Package sep parses the textual unsolicited event lines emitted by a
// Wi-Fi P2P supplicant on its event socket into tagged, typed events.
package sep

import "sort"

// Priority is the supplicant's debug-priority prefix, folding to
// Msgdump whenever it is missing or malformed.
type Priority int

const (
	Msgdump Priority = iota
	Debug
	Info
	Warning
	Error
)

// Tag identifies the kind of a parsed Event. The zero value, Unknown,
// is returned for any line whose leading token does not match the
// closed tagTable below.
type Tag int

const (
	Unknown Tag = iota
	APSTAConnected
	APSTADisconnected
	P2PDeviceFound
	P2PGoNegFailure
	P2PGoNegRequest
	P2PGoNegSuccess
	P2PGroupFormationFailure
	P2PGroupFormationSuccess
	P2PGroupRemoved
	P2PGroupStarted
	P2PInvitationReceived
	P2PInvitationResult
	P2PProvDiscEnterPin
	P2PProvDiscPbcReq
	P2PProvDiscPbcResp
	P2PProvDiscShowPin
	P2PServDiscReq
	P2PServDiscResp
)

// tagEntry associates a wire name with its Tag. The table MUST remain
// sorted ascending by Name: Parse looks tags up with the binary search
// in findTag, and init() below validates the ordering invariant at
// package load.
type tagEntry struct {
	Name string
	Tag  Tag
}

var tagTable = []tagEntry{
	{"AP-STA-CONNECTED", APSTAConnected},
	{"AP-STA-DISCONNECTED", APSTADisconnected},
	{"P2P-DEVICE-FOUND", P2PDeviceFound},
	{"P2P-GO-NEG-FAILURE", P2PGoNegFailure},
	{"P2P-GO-NEG-REQUEST", P2PGoNegRequest},
	{"P2P-GO-NEG-SUCCESS", P2PGoNegSuccess},
	{"P2P-GROUP-FORMATION-FAILURE", P2PGroupFormationFailure},
	{"P2P-GROUP-FORMATION-SUCCESS", P2PGroupFormationSuccess},
	{"P2P-GROUP-REMOVED", P2PGroupRemoved},
	{"P2P-GROUP-STARTED", P2PGroupStarted},
	{"P2P-INVITATION-RECEIVED", P2PInvitationReceived},
	{"P2P-INVITATION-RESULT", P2PInvitationResult},
	{"P2P-PROV-DISC-ENTER-PIN", P2PProvDiscEnterPin},
	{"P2P-PROV-DISC-PBC-REQ", P2PProvDiscPbcReq},
	{"P2P-PROV-DISC-PBC-RESP", P2PProvDiscPbcResp},
	{"P2P-PROV-DISC-SHOW-PIN", P2PProvDiscShowPin},
	{"P2P-SERV-DISC-REQ", P2PServDiscReq},
	{"P2P-SERV-DISC-RESP", P2PServDiscResp},
}

func init() {
	if !sort.SliceIsSorted(tagTable, func(i, j int) bool {
		return tagTable[i].Name < tagTable[j].Name
	}) {
		panic("sep: tagTable is not sorted ascending by Name")
	}
}

// Name returns the canonical wire token for tag, or "" for Unknown.
func Name(tag Tag) string {
	for _, e := range tagTable {
		if e.Tag == tag {
			return e.Name
		}
	}
	return ""
}

// Event is a parsed supplicant event. Only the fields relevant to Tag
// are populated; all others are left at their zero value.
type Event struct {
	Priority Priority
	Tag      Tag
	Raw      string

	MAC  string
	Name string
	PIN  string
}

// Reset zeroes ev back to its empty state.
func Reset(ev *Event) { *ev = Event{} }
