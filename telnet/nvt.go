package telnet

import (
	"fmt"
	"io"
)

// Telnet command bytes (RFC 854).
const (
	cmdSE   = 240
	cmdSB   = 250
	cmdWill = 251
	cmdWont = 252
	cmdDo   = 253
	cmdDont = 254
	cmdIAC  = 255
)

type nvtState int

const (
	nvtData nvtState = iota
	nvtCommand
	nvtOption
	nvtSubneg
	nvtSubnegIAC
)

// nvtFilter strips telnet command sequences from the inbound stream and
// refuses every option the device tries to negotiate, leaving a plain
// NVT session. State carries across reads since a sequence may be split
// between chunks.
type nvtFilter struct {
	w     io.Writer
	state nvtState
	cmd   byte
}

func (f *nvtFilter) filter(in []byte) ([]byte, error) {
	out := make([]byte, 0, len(in))
	var reply []byte

	for _, b := range in {
		switch f.state {
		case nvtData:
			if b == cmdIAC {
				f.state = nvtCommand
				continue
			}
			out = append(out, b)
		case nvtCommand:
			switch b {
			case cmdIAC:
				// escaped 0xff data byte
				out = append(out, b)
				f.state = nvtData
			case cmdWill, cmdWont, cmdDo, cmdDont:
				f.cmd = b
				f.state = nvtOption
			case cmdSB:
				f.state = nvtSubneg
			default:
				f.state = nvtData
			}
		case nvtOption:
			switch f.cmd {
			case cmdDo:
				reply = append(reply, cmdIAC, cmdWont, b)
			case cmdWill:
				reply = append(reply, cmdIAC, cmdDont, b)
			}
			f.state = nvtData
		case nvtSubneg:
			if b == cmdIAC {
				f.state = nvtSubnegIAC
			}
		case nvtSubnegIAC:
			if b == cmdSE {
				f.state = nvtData
			} else {
				f.state = nvtSubneg
			}
		}
	}

	if len(reply) > 0 {
		if _, err := f.w.Write(reply); err != nil {
			return out, fmt.Errorf("sending option refusal: %w", err)
		}
	}

	return out, nil
}
