// Package screen implements the cell-addressable display that the
// emulation package draws on: a fixed-size grid of cells, a cursor, a
// scrolling region, a current drawing attribute, and a finite scrollback
// of lines that scrolled off the top.
//
// The screen performs no rendering of its own.  A consumer reads the grid
// back out with Cell and ScrollbackLines after being notified that it
// changed.
package screen

// Attribute is a bitfield of display attributes applied to a cell.
type Attribute uint16

const (
	AttrBold Attribute = 1 << iota
	AttrDim
	AttrUnderline
	AttrBlink
	AttrReverse
	AttrInvisible
	// AttrProtect marks a cell as protected from erase operations that
	// honor DECSCA protection.
	AttrProtect
)

// Color is a 3-bit ANSI color index, or ColorDefault for the terminal's
// configured default.
type Color uint8

const (
	ColorBlack Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorDefault
)

// Cell is a single character position on the screen.
type Cell struct {
	Rune rune
	Attr Attribute
	FG   Color
	BG   Color
}

func blank(fg, bg Color) Cell {
	return Cell{Rune: ' ', FG: fg, BG: bg}
}

// DoubleHeight describes which half of a DECDHL double-height pair a line
// holds, if any.
type DoubleHeight uint8

const (
	SingleHeight DoubleHeight = iota
	DoubleHeightTop
	DoubleHeightBottom
)

// Line is one row of cells plus the DEC line-attribute flags.
type Line struct {
	Cells        []Cell
	DoubleWidth  bool
	DoubleHeight DoubleHeight
}

func newLine(width int, fg, bg Color) Line {
	cells := make([]Cell, width)
	for i := range cells {
		cells[i] = blank(fg, bg)
	}
	return Line{Cells: cells}
}
