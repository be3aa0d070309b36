package screen

import (
	"github.com/mattn/go-runewidth"
)

// DefaultScrollback is the scrollback depth used when NewScreen is called
// with a non-positive limit.
const DefaultScrollback = 2000

// Screen is a rectangular grid of cells with a cursor, a scrolling region,
// and a scrollback log.  All coordinates are zero-based; the cursor always
// lies within [0, Height) x [0, Width).
//
// Screen is not safe for concurrent use.  The Session type serializes all
// access from its pump loop.
type Screen struct {
	width, height int

	lines      []Line
	scrollback []Line
	maxScroll  int

	cursorRow, cursorCol int
	regionTop, regionBot int

	attr   Attribute
	fg, bg Color

	savedAttr Attribute
	savedFG   Color
	savedBG   Color

	wrapPending   bool
	autoWrap      bool
	insertMode    bool
	cursorVisible bool
	originMode    bool
	reverseVideo  bool

	leds [4]bool
}

// NewScreen creates a screen of the given size.  A non-positive scrollback
// limit selects DefaultScrollback.
func NewScreen(width, height, scrollback int) *Screen {
	if scrollback <= 0 {
		scrollback = DefaultScrollback
	}

	s := &Screen{
		width:     width,
		height:    height,
		maxScroll: scrollback,
	}
	s.Reset()
	return s
}

// Reset restores the screen to its initial state: blank cells, cursor home,
// full-screen scroll region, default attributes, autowrap on.  Scrollback
// is preserved.
func (s *Screen) Reset() {
	s.lines = make([]Line, s.height)
	for i := range s.lines {
		s.lines[i] = newLine(s.width, ColorDefault, ColorDefault)
	}

	s.cursorRow, s.cursorCol = 0, 0
	s.regionTop, s.regionBot = 0, s.height-1
	s.attr = 0
	s.fg, s.bg = ColorDefault, ColorDefault
	s.savedAttr, s.savedFG, s.savedBG = 0, ColorDefault, ColorDefault
	s.wrapPending = false
	s.autoWrap = true
	s.insertMode = false
	s.cursorVisible = true
	s.originMode = false
	s.reverseVideo = false
	s.leds = [4]bool{}
}

// Width returns the screen width in columns.
func (s *Screen) Width() int { return s.width }

// Height returns the screen height in rows.
func (s *Screen) Height() int { return s.height }

// Cursor returns the cursor position as (row, col).
func (s *Screen) Cursor() (row, col int) { return s.cursorRow, s.cursorCol }

// Cell returns the cell at the given position.  Out-of-range coordinates
// return a blank cell.
func (s *Screen) Cell(row, col int) Cell {
	if row < 0 || row >= s.height || col < 0 || col >= s.width {
		return blank(ColorDefault, ColorDefault)
	}
	return s.lines[row].Cells[col]
}

// Row returns the line at the given row.  The returned value shares
// storage with the screen and must not be mutated.
func (s *Screen) Row(row int) Line {
	if row < 0 || row >= s.height {
		return Line{}
	}
	return s.lines[row]
}

// ScrollbackLines returns the lines that have scrolled off the top of the
// screen, oldest first.  The returned slice shares storage with the screen.
func (s *Screen) ScrollbackLines() []Line { return s.scrollback }

// Region returns the scroll region as (top, bottom), both inclusive.
func (s *Screen) Region() (top, bottom int) { return s.regionTop, s.regionBot }

// SetRegion sets the scroll region.  A region must span at least two rows
// and lie within the screen; invalid regions leave the current region
// unchanged and report false.
func (s *Screen) SetRegion(top, bottom int) bool {
	if top < 0 || bottom >= s.height || top >= bottom {
		return false
	}
	s.regionTop, s.regionBot = top, bottom
	return true
}

// Attribute returns the current drawing attribute.
func (s *Screen) Attribute() Attribute { return s.attr }

// SetAttribute replaces the current drawing attribute.
func (s *Screen) SetAttribute(a Attribute) { s.attr = a }

// Colors returns the current drawing colors.
func (s *Screen) Colors() (fg, bg Color) { return s.fg, s.bg }

// SetColors replaces the current drawing colors.
func (s *Screen) SetColors(fg, bg Color) { s.fg, s.bg = fg, bg }

// SaveAttributes stashes the current attribute and colors for a later
// RestoreAttributes.
func (s *Screen) SaveAttributes() {
	s.savedAttr, s.savedFG, s.savedBG = s.attr, s.fg, s.bg
}

// RestoreAttributes restores the attribute and colors stashed by the last
// SaveAttributes.
func (s *Screen) RestoreAttributes() {
	s.attr, s.fg, s.bg = s.savedAttr, s.savedFG, s.savedBG
}

// AutoWrap reports whether autowrap (DECAWM) is enabled.
func (s *Screen) AutoWrap() bool { return s.autoWrap }

// SetAutoWrap enables or disables autowrap.
func (s *Screen) SetAutoWrap(on bool) {
	s.autoWrap = on
	if !on {
		s.wrapPending = false
	}
}

// InsertMode reports whether insert mode (IRM) is enabled.
func (s *Screen) InsertMode() bool { return s.insertMode }

// SetInsertMode enables or disables insert mode.
func (s *Screen) SetInsertMode(on bool) { s.insertMode = on }

// OriginMode reports whether origin mode (DECOM) is enabled.
func (s *Screen) OriginMode() bool { return s.originMode }

// SetOriginMode enables or disables origin mode.  The caller is expected
// to home the cursor afterwards, per DECOM semantics.
func (s *Screen) SetOriginMode(on bool) { s.originMode = on }

// CursorVisible reports whether the cursor should be drawn.
func (s *Screen) CursorVisible() bool { return s.cursorVisible }

// SetCursorVisible shows or hides the cursor.
func (s *Screen) SetCursorVisible(on bool) { s.cursorVisible = on }

// ReverseVideo reports whether global reverse video (DECSCNM) is active.
func (s *Screen) ReverseVideo() bool { return s.reverseVideo }

// SetReverseVideo sets global reverse video.  Changing the value inverts
// the colors of every existing cell, since DECSCNM applies to content that
// was already drawn.
func (s *Screen) SetReverseVideo(on bool) {
	if on == s.reverseVideo {
		return
	}
	s.reverseVideo = on

	for row := range s.lines {
		cells := s.lines[row].Cells
		for i := range cells {
			cells[i].FG, cells[i].BG = cells[i].BG, cells[i].FG
		}
	}
	s.fg, s.bg = s.bg, s.fg
}

// SetLED sets the state of one of the four keyboard LEDs (DECLL).
func (s *Screen) SetLED(index int, on bool) {
	if index >= 0 && index < len(s.leds) {
		s.leds[index] = on
	}
}

// ClearLEDs turns all four LEDs off.
func (s *Screen) ClearLEDs() { s.leds = [4]bool{} }

// LEDs returns the state of the four keyboard LEDs.
func (s *Screen) LEDs() [4]bool { return s.leds }

// WrapPending reports whether the last printed glyph left the cursor in
// the pending-wrap state at the right margin.
func (s *Screen) WrapPending() bool { return s.wrapPending }

// PrintChar draws one glyph at the cursor using the current attribute and
// colors, honoring insert mode, pending wrap, and double-width runes.
func (s *Screen) PrintChar(r rune) {
	w := runewidth.RuneWidth(r)
	if w <= 0 {
		return
	}

	if s.wrapPending && s.autoWrap {
		s.CarriageReturn()
		s.LineFeed()
	}
	s.wrapPending = false

	if s.insertMode {
		s.InsertBlanks(w)
	}

	cells := s.lines[s.cursorRow].Cells
	cells[s.cursorCol] = Cell{Rune: r, Attr: s.attr, FG: s.fg, BG: s.bg}
	if w == 2 && s.cursorCol+1 < s.width {
		cells[s.cursorCol+1] = Cell{Attr: s.attr, FG: s.fg, BG: s.bg}
	}

	if s.cursorCol+w >= s.width {
		s.cursorCol = s.width - 1
		if s.autoWrap {
			s.wrapPending = true
		}
	} else {
		s.cursorCol += w
	}
}

// Fill replaces every cell on the screen with the given glyph drawn in
// default attributes.  Used by the DECALN alignment pattern.
func (s *Screen) Fill(r rune) {
	for row := range s.lines {
		s.lines[row].DoubleWidth = false
		s.lines[row].DoubleHeight = SingleHeight
		cells := s.lines[row].Cells
		for i := range cells {
			cells[i] = Cell{Rune: r, FG: ColorDefault, BG: ColorDefault}
		}
	}
}

// CursorUp moves the cursor up n rows.  When honorRegion is set and the
// cursor starts inside the scroll region, motion stops at the region top;
// otherwise it stops at row 0.
func (s *Screen) CursorUp(n int, honorRegion bool) {
	if n < 1 {
		n = 1
	}
	s.wrapPending = false

	limit := 0
	if honorRegion && s.cursorRow >= s.regionTop {
		limit = s.regionTop
	}

	s.cursorRow -= n
	if s.cursorRow < limit {
		s.cursorRow = limit
	}
}

// CursorDown moves the cursor down n rows, stopping at the region bottom
// when honorRegion is set and the cursor starts inside the region.
func (s *Screen) CursorDown(n int, honorRegion bool) {
	if n < 1 {
		n = 1
	}
	s.wrapPending = false

	limit := s.height - 1
	if honorRegion && s.cursorRow <= s.regionBot {
		limit = s.regionBot
	}

	s.cursorRow += n
	if s.cursorRow > limit {
		s.cursorRow = limit
	}
}

// CursorLeft moves the cursor left n columns, stopping at column 0.
func (s *Screen) CursorLeft(n int) {
	if n < 1 {
		n = 1
	}
	s.wrapPending = false

	s.cursorCol -= n
	if s.cursorCol < 0 {
		s.cursorCol = 0
	}
}

// CursorRight moves the cursor right n columns, stopping at the right
// margin.
func (s *Screen) CursorRight(n int) {
	if n < 1 {
		n = 1
	}
	s.wrapPending = false

	s.cursorCol += n
	if s.cursorCol >= s.width {
		s.cursorCol = s.width - 1
	}
}

// MoveCursor places the cursor at the given position.  Under origin mode
// the row is relative to the scroll region top and clamped to the region;
// otherwise it may address anywhere on the screen.
func (s *Screen) MoveCursor(row, col int) {
	s.wrapPending = false

	if s.originMode {
		row += s.regionTop
		if row < s.regionTop {
			row = s.regionTop
		}
		if row > s.regionBot {
			row = s.regionBot
		}
	} else {
		if row < 0 {
			row = 0
		}
		if row >= s.height {
			row = s.height - 1
		}
	}

	if col < 0 {
		col = 0
	}
	if col >= s.width {
		col = s.width - 1
	}

	s.cursorRow, s.cursorCol = row, col
}

// SetCursorCol moves the cursor to an absolute column on the current row.
func (s *Screen) SetCursorCol(col int) {
	s.wrapPending = false
	if col < 0 {
		col = 0
	}
	if col >= s.width {
		col = s.width - 1
	}
	s.cursorCol = col
}

// CarriageReturn moves the cursor to column 0.
func (s *Screen) CarriageReturn() {
	s.wrapPending = false
	s.cursorCol = 0
}

// LineFeed moves the cursor down one row, scrolling the region up when the
// cursor sits on the region bottom.
func (s *Screen) LineFeed() {
	s.wrapPending = false

	if s.cursorRow == s.regionBot {
		s.ScrollUpRegion(s.regionTop, s.regionBot, 1)
	} else if s.cursorRow < s.height-1 {
		s.cursorRow++
	}
}

// ReverseLineFeed moves the cursor up one row, scrolling the region down
// when the cursor sits on the region top.
func (s *Screen) ReverseLineFeed() {
	s.wrapPending = false

	if s.cursorRow == s.regionTop {
		s.ScrollDownRegion(s.regionTop, s.regionBot, 1)
	} else if s.cursorRow > 0 {
		s.cursorRow--
	}
}

// FormFeed homes the cursor and erases the whole screen.
func (s *Screen) FormFeed() {
	s.MoveCursor(0, 0)
	s.EraseScreen(0, 0, s.height-1, s.width-1, false)
}

// EraseLine blanks columns [first, last] of the current row.  When
// honorProtected is set, cells carrying AttrProtect are skipped.
func (s *Screen) EraseLine(first, last int, honorProtected bool) {
	if first < 0 {
		first = 0
	}
	if last >= s.width {
		last = s.width - 1
	}

	cells := s.lines[s.cursorRow].Cells
	for i := first; i <= last; i++ {
		if honorProtected && cells[i].Attr&AttrProtect != 0 {
			continue
		}
		cells[i] = blank(s.fg, s.bg)
	}
}

// EraseScreen blanks the rectangle from (r0, c0) through (r1, c1)
// inclusive, in reading order: the first and last rows are partial, rows
// between are blanked entirely.  When honorProtected is set, cells
// carrying AttrProtect are skipped.
func (s *Screen) EraseScreen(r0, c0, r1, c1 int, honorProtected bool) {
	if r0 < 0 {
		r0 = 0
	}
	if r1 >= s.height {
		r1 = s.height - 1
	}

	for row := r0; row <= r1; row++ {
		first, last := 0, s.width-1
		if row == r0 {
			first = c0
		}
		if row == r1 {
			last = c1
		}
		if first < 0 {
			first = 0
		}
		if last >= s.width {
			last = s.width - 1
		}

		line := &s.lines[row]
		if first == 0 && last == s.width-1 {
			line.DoubleWidth = false
			line.DoubleHeight = SingleHeight
		}
		for i := first; i <= last; i++ {
			if honorProtected && line.Cells[i].Attr&AttrProtect != 0 {
				continue
			}
			line.Cells[i] = blank(s.fg, s.bg)
		}
	}
}

// InsertBlanks inserts n blank cells at the cursor, shifting the rest of
// the row right.  Cells pushed past the right margin are lost.
func (s *Screen) InsertBlanks(n int) {
	if n < 1 {
		n = 1
	}
	if n > s.width-s.cursorCol {
		n = s.width - s.cursorCol
	}

	cells := s.lines[s.cursorRow].Cells
	copy(cells[s.cursorCol+n:], cells[s.cursorCol:])
	for i := s.cursorCol; i < s.cursorCol+n; i++ {
		cells[i] = blank(s.fg, s.bg)
	}
}

// DeleteChars removes n cells at the cursor, shifting the rest of the row
// left and blank-filling the tail.
func (s *Screen) DeleteChars(n int) {
	if n < 1 {
		n = 1
	}
	if n > s.width-s.cursorCol {
		n = s.width - s.cursorCol
	}

	cells := s.lines[s.cursorRow].Cells
	copy(cells[s.cursorCol:], cells[s.cursorCol+n:])
	for i := s.width - n; i < s.width; i++ {
		cells[i] = blank(s.fg, s.bg)
	}
}

// ScrollUpRegion scrolls rows [top, bottom] up by n lines.  When the
// region covers the whole screen, evicted lines are appended to the
// scrollback log.
func (s *Screen) ScrollUpRegion(top, bottom, n int) {
	if top < 0 || bottom >= s.height || top > bottom {
		return
	}
	if n < 1 {
		n = 1
	}
	if n > bottom-top+1 {
		n = bottom - top + 1
	}

	if top == 0 && bottom == s.height-1 {
		for i := 0; i < n; i++ {
			s.pushScrollback(s.lines[top+i])
		}
	}

	copy(s.lines[top:], s.lines[top+n:bottom+1])
	for i := bottom - n + 1; i <= bottom; i++ {
		s.lines[i] = newLine(s.width, s.fg, s.bg)
	}
}

// ScrollDownRegion scrolls rows [top, bottom] down by n lines, blanking
// the lines that open up at the top of the region.
func (s *Screen) ScrollDownRegion(top, bottom, n int) {
	if top < 0 || bottom >= s.height || top > bottom {
		return
	}
	if n < 1 {
		n = 1
	}
	if n > bottom-top+1 {
		n = bottom - top + 1
	}

	copy(s.lines[top+n:bottom+1], s.lines[top:bottom+1-n])
	for i := top; i < top+n; i++ {
		s.lines[i] = newLine(s.width, s.fg, s.bg)
	}
}

// ScrollUp scrolls the current region up by n lines.
func (s *Screen) ScrollUp(n int) {
	s.ScrollUpRegion(s.regionTop, s.regionBot, n)
}

// ScrollDown scrolls the current region down by n lines.
func (s *Screen) ScrollDown(n int) {
	s.ScrollDownRegion(s.regionTop, s.regionBot, n)
}

// InsertLines opens n blank lines at the cursor row by scrolling the rest
// of the region down.  No-op when the cursor is outside the region.
func (s *Screen) InsertLines(n int) {
	if s.cursorRow < s.regionTop || s.cursorRow > s.regionBot {
		return
	}
	s.ScrollDownRegion(s.cursorRow, s.regionBot, n)
}

// DeleteLines removes n lines at the cursor row by scrolling the rest of
// the region up.  No-op when the cursor is outside the region.
func (s *Screen) DeleteLines(n int) {
	if s.cursorRow < s.regionTop || s.cursorRow > s.regionBot {
		return
	}
	s.ScrollUpRegion(s.cursorRow, s.regionBot, n)
}

// SetDoubleWidth marks the current line as double-width (DECDWL) or
// single-width (DECSWL).
func (s *Screen) SetDoubleWidth(on bool) {
	s.lines[s.cursorRow].DoubleWidth = on
	if !on {
		s.lines[s.cursorRow].DoubleHeight = SingleHeight
	}
}

// SetDoubleHeight marks the current line as one half of a DECDHL pair.
// Double-height lines are implicitly double-width.
func (s *Screen) SetDoubleHeight(half DoubleHeight) {
	s.lines[s.cursorRow].DoubleHeight = half
	s.lines[s.cursorRow].DoubleWidth = half != SingleHeight
}

// Resize grows or shrinks the screen, preserving as much content as fits.
// The scroll region resets to the full screen and the cursor is clamped.
func (s *Screen) Resize(width, height int) {
	if width == s.width && height == s.height {
		return
	}

	lines := make([]Line, height)
	for i := range lines {
		lines[i] = newLine(width, ColorDefault, ColorDefault)
		if i < len(s.lines) {
			copy(lines[i].Cells, s.lines[i].Cells)
			lines[i].DoubleWidth = s.lines[i].DoubleWidth
			lines[i].DoubleHeight = s.lines[i].DoubleHeight
		}
	}

	s.lines = lines
	s.width, s.height = width, height
	s.regionTop, s.regionBot = 0, height-1

	if s.cursorRow >= height {
		s.cursorRow = height - 1
	}
	if s.cursorCol >= width {
		s.cursorCol = width - 1
	}
}

func (s *Screen) pushScrollback(line Line) {
	saved := Line{
		Cells:        make([]Cell, len(line.Cells)),
		DoubleWidth:  line.DoubleWidth,
		DoubleHeight: line.DoubleHeight,
	}
	copy(saved.Cells, line.Cells)

	s.scrollback = append(s.scrollback, saved)
	if len(s.scrollback) > s.maxScroll {
		over := len(s.scrollback) - s.maxScroll
		s.scrollback = append(s.scrollback[:0], s.scrollback[over:]...)
	}
}
