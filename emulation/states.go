package emulation

// parserState enumerates the scan states used across the emulator state
// machines, following the published VT parser model.  Each dialect uses
// the subset it needs.
type parserState int

const (
	stateGround parserState = iota
	stateEscape
	stateEscapeIntermediate
	stateCsiEntry
	stateCsiParam
	stateCsiIntermediate
	stateCsiIgnore
	stateDcsEntry
	stateDcsParam
	stateDcsIntermediate
	stateDcsPassthrough
	stateDcsIgnore
	stateOscString
	stateSosPmApcString
	stateVt52Y1
	stateVt52Y2
	stateAnsiMusic
)

var stateNames = [...]string{
	"Ground",
	"Escape",
	"EscapeIntermediate",
	"CsiEntry",
	"CsiParam",
	"CsiIntermediate",
	"CsiIgnore",
	"DcsEntry",
	"DcsParam",
	"DcsIntermediate",
	"DcsPassthrough",
	"DcsIgnore",
	"OscString",
	"SosPmApcString",
	"Vt52Y1",
	"Vt52Y2",
	"AnsiMusic",
}

func (s parserState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// maxParams is the most numeric parameters a control sequence may carry.
const maxParams = 16

// maxParamDigits is the most digits a single parameter may carry; further
// digits are dropped.
const maxParamDigits = 16

// paramBuffer accumulates the numeric parameters of a control sequence.
type paramBuffer struct {
	values   []int
	digits   int
	started  bool
	overflow bool
}

func (p *paramBuffer) reset() {
	p.values = p.values[:0]
	p.digits = 0
	p.started = false
	p.overflow = false
}

// digit folds one decimal digit into the parameter under construction.
func (p *paramBuffer) digit(b byte) {
	if !p.started {
		if len(p.values) >= maxParams {
			p.overflow = true
			return
		}
		p.values = append(p.values, 0)
		p.started = true
		p.digits = 0
	}

	if p.digits >= maxParamDigits {
		return
	}
	p.digits++

	last := len(p.values) - 1
	p.values[last] = p.values[last]*10 + int(b-'0')
}

// separator ends the parameter under construction.  An empty parameter
// slot records zero.
func (p *paramBuffer) separator() {
	if !p.started {
		if len(p.values) >= maxParams {
			p.overflow = true
			return
		}
		p.values = append(p.values, 0)
	}
	p.started = false
}

// count returns the number of parameters collected.
func (p *paramBuffer) count() int { return len(p.values) }

// get returns parameter i, or def when the parameter is absent or zero.
func (p *paramBuffer) get(i, def int) int {
	if i < len(p.values) && p.values[i] != 0 {
		return p.values[i]
	}
	return def
}

// raw returns parameter i with zero preserved, or def when absent.
func (p *paramBuffer) raw(i, def int) int {
	if i < len(p.values) {
		return p.values[i]
	}
	return def
}
