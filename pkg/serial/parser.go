package serial

// Parser parses received bytes into frames, one byte at a time.
// The zero value is ready to use.
type Parser struct {
	state parseState
	param Param
}

type parseState int

const (
	stateSeek       parseState = iota // waiting for StartByte
	stateParamID                      // waiting for parameter id
	stateValueHigh                    // waiting for bits 15:8 of value
	stateValueLow                     // waiting for bits 7:0 of value
	stateEnd                          // waiting for EndByte
)

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	// Param is set when the byte completed a valid frame.
	Param *Param
	// Discarded is set when the byte should have been EndByte.
	Discarded bool
}

// Reset drops any partial frame.
func (p *Parser) Reset() {
	p.state, p.param = stateSeek, Param{}
}

// InFrame indicates a frame has started but isn't complete.
func (p *Parser) InFrame() bool {
	return p.state != stateSeek
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	switch p.state {
	case stateSeek:
		if b == StartByte {
			p.state = stateParamID
		}
	case stateParamID:
		p.param.ID = ParamID(b)
		p.state = stateValueHigh
	case stateValueHigh:
		p.param.Value = uint16(b) << 8
		p.state = stateValueLow
	case stateValueLow:
		p.param.Value += uint16(b)
		p.state = stateEnd
	case stateEnd:
		if b == EndByte {
			param := p.param
			pr.Param = &param
		} else {
			pr.Discarded = true
		}
		p.Reset()
	}
	return
}
