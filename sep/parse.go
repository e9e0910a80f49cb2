package sep

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/openwfd/wfd/wfderr"
)

var macPattern = regexp.MustCompile(`^[0-9a-fA-F]{1,2}(:[0-9a-fA-F]{1,2}){5}$`)

func parseMAC(tok string) (string, error) {
	if len(tok) > 17 || !macPattern.MatchString(tok) {
		return "", wfderr.New(wfderr.InvalidArgument, "sep: malformed MAC address "+strconv.Quote(tok))
	}
	return tok, nil
}

// Parse parses one event line into ev, per the grammar
// "<" DIGIT ">"? TAG (SP PAYLOAD)?. Parse errors are scoped to the
// payload of a recognized tag; an unrecognized leading token yields
// Tag Unknown with no error, and a malformed priority prefix silently
// folds to Msgdump.
func Parse(event string) (Event, error) {
	var ev Event

	rest, priority := splitPriority(event)

	idx := findTag(rest)
	if idx < 0 {
		ev.Priority = priority
		ev.Tag = Unknown
		return ev, nil
	}

	entry := tagTable[idx]
	ev.Priority = priority
	ev.Tag = entry.Tag

	payload := strings.TrimLeft(rest[len(entry.Name):], " ")
	ev.Raw = payload

	if err := parsePayload(&ev, payload); err != nil {
		// Tag and Priority stay populated even on a payload error: the
		// tag has already been identified by this point and a caller
		// inspecting the returned Event's Tag on error still sees it.
		return ev, err
	}
	return ev, nil
}

// splitPriority consumes an optional "<d>" prefix, folding anything
// malformed or ambiguous to Msgdump, and returns the remaining text.
func splitPriority(event string) (string, Priority) {
	if len(event) < 3 || event[0] != '<' {
		return event, Msgdump
	}

	close := strings.IndexByte(event, '>')
	if close < 0 {
		return event, Msgdump
	}

	inner := event[1:close]
	if len(inner) != 1 || inner[0] < '0' || inner[0] > '4' {
		return event[close+1:], Msgdump
	}
	// Reject ambiguity where what looks like "<d>" is actually the
	// start of a longer token, e.g. "<4=" or "<4-foo".
	if close+1 < len(event) {
		switch event[close+1] {
		case '=', '-':
			return event, Msgdump
		}
	}

	switch inner[0] {
	case '0':
		return event[close+1:], Msgdump
	case '1':
		return event[close+1:], Debug
	case '2':
		return event[close+1:], Info
	case '3':
		return event[close+1:], Warning
	default:
		return event[close+1:], Error
	}
}

// findTag binary-searches tagTable for the entry whose Name is a
// prefix of text, followed by end-of-string or a space. compareTag
// mirrors the original's strncmp(text, name, len(name)) comparator,
// which is what makes the boundary check (end-of-string or space)
// meaningful ahead of a plain lexicographic compare.
func findTag(text string) int {
	lo, hi := 0, len(tagTable)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch compareTag(text, tagTable[mid].Name) {
		case 0:
			return mid
		case -1:
			hi = mid - 1
		default:
			lo = mid + 1
		}
	}
	return -1
}

// compareTag returns -1/0/1 comparing text against name the way the
// original bsearch comparator does: the name-length prefix of text is
// compared lexicographically, and only on equality must the following
// byte be a boundary (end-of-string or space) for the match to count.
func compareTag(text, name string) int {
	prefix := text
	if len(prefix) > len(name) {
		prefix = prefix[:len(name)]
	}
	switch {
	case prefix < name:
		return -1
	case prefix > name:
		return 1
	}
	if len(text) == len(name) {
		return 0
	}
	if text[len(name)] == ' ' {
		return 0
	}
	return 1
}

func parsePayload(ev *Event, payload string) error {
	tokens := tokenize(payload)

	switch ev.Tag {
	case APSTAConnected, APSTADisconnected:
		if len(tokens) < 1 {
			return wfderr.New(wfderr.InvalidArgument, "sep: missing MAC")
		}
		mac, err := parseMAC(tokens[0])
		if err != nil {
			return err
		}
		ev.MAC = mac

	case P2PDeviceFound:
		if len(tokens) < 1 {
			return wfderr.New(wfderr.InvalidArgument, "sep: missing MAC")
		}
		mac, err := parseMAC(tokens[0])
		if err != nil {
			return err
		}
		ev.MAC = mac
		for _, tok := range tokens[1:] {
			if strings.HasPrefix(tok, "name=") {
				ev.Name = tok[len("name="):]
				break
			}
		}

	case P2PProvDiscShowPin:
		if len(tokens) < 2 {
			return wfderr.New(wfderr.InvalidArgument, "sep: missing MAC/PIN")
		}
		mac, err := parseMAC(tokens[0])
		if err != nil {
			return err
		}
		ev.MAC = mac
		ev.PIN = tokens[1]

	case P2PProvDiscEnterPin, P2PProvDiscPbcReq, P2PProvDiscPbcResp:
		if len(tokens) < 1 {
			return wfderr.New(wfderr.InvalidArgument, "sep: missing MAC")
		}
		mac, err := parseMAC(tokens[0])
		if err != nil {
			return err
		}
		ev.MAC = mac
	}
	return nil
}
