package screen

import (
	"strings"
	"testing"
)

func text(s *Screen, row int) string {
	var b strings.Builder
	for _, c := range s.Row(row).Cells {
		b.WriteRune(c.Rune)
	}
	return strings.TrimRight(b.String(), " ")
}

func printString(s *Screen, str string) {
	for _, r := range str {
		s.PrintChar(r)
	}
}

func TestPrintAndWrap(t *testing.T) {
	s := NewScreen(10, 4, 0)

	printString(s, "0123456789")
	if row, col := s.Cursor(); row != 0 || col != 9 {
		t.Errorf("cursor = (%d, %d), want pending wrap at (0, 9)", row, col)
	}
	if !s.WrapPending() {
		t.Error("wrap should be pending after filling the row")
	}

	s.PrintChar('X')
	if got := text(s, 1); got != "X" {
		t.Errorf("row 1 = %q, want wrapped X", got)
	}
	if row, col := s.Cursor(); row != 1 || col != 1 {
		t.Errorf("cursor = (%d, %d), want (1, 1)", row, col)
	}
}

func TestWrapDisabled(t *testing.T) {
	s := NewScreen(10, 4, 0)
	s.SetAutoWrap(false)

	printString(s, "0123456789AB")
	if row, col := s.Cursor(); row != 0 || col != 9 {
		t.Errorf("cursor = (%d, %d), want pinned", row, col)
	}
	if c := s.Cell(0, 9); c.Rune != 'B' {
		t.Errorf("cell (0,9) = %q, want last overwrite B", c.Rune)
	}
}

func TestWideRune(t *testing.T) {
	s := NewScreen(10, 4, 0)

	s.PrintChar('永')
	if row, col := s.Cursor(); row != 0 || col != 2 {
		t.Errorf("cursor = (%d, %d), want (0, 2) after wide rune", row, col)
	}
	if c := s.Cell(0, 0); c.Rune != '永' {
		t.Errorf("cell (0,0) = %q, want wide rune", c.Rune)
	}
}

func TestInsertModePushesRight(t *testing.T) {
	s := NewScreen(10, 4, 0)

	printString(s, "abc")
	s.MoveCursor(0, 0)
	s.SetInsertMode(true)
	s.PrintChar('X')

	if got := text(s, 0); got != "Xabc" {
		t.Errorf("row 0 = %q, want Xabc", got)
	}
}

func TestScrollAtBottom(t *testing.T) {
	s := NewScreen(10, 3, 10)

	printString(s, "one")
	s.CarriageReturn()
	s.LineFeed()
	printString(s, "two")
	s.CarriageReturn()
	s.LineFeed()
	printString(s, "three")
	s.CarriageReturn()
	s.LineFeed()

	if got := text(s, 0); got != "two" {
		t.Errorf("row 0 = %q, want two after scroll", got)
	}
	sb := s.ScrollbackLines()
	if len(sb) != 1 {
		t.Fatalf("scrollback length = %d, want 1", len(sb))
	}
	if sb[0].Cells[0].Rune != 'o' {
		t.Error("scrollback should hold the scrolled-off line")
	}
}

func TestRegionScrollSkipsScrollback(t *testing.T) {
	s := NewScreen(10, 5, 10)

	printString(s, "keep")
	s.SetRegion(1, 3)
	s.ScrollUp(1)

	if len(s.ScrollbackLines()) != 0 {
		t.Error("partial-screen region scroll must not feed scrollback")
	}
	if got := text(s, 0); got != "keep" {
		t.Errorf("row 0 = %q, want untouched above region", got)
	}
}

func TestSetRegionValidation(t *testing.T) {
	s := NewScreen(10, 5, 0)

	tests := []struct {
		name        string
		top, bottom int
		want        bool
	}{
		{"full screen", 0, 4, true},
		{"inner", 1, 3, true},
		{"inverted", 3, 1, false},
		{"equal", 2, 2, false},
		{"out of range", 0, 7, false},
		{"negative", -1, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.SetRegion(tt.top, tt.bottom); got != tt.want {
				t.Errorf("SetRegion(%d, %d) = %v, want %v", tt.top, tt.bottom, got, tt.want)
			}
		})
	}
}

func TestOriginModeAddressing(t *testing.T) {
	s := NewScreen(10, 10, 0)
	s.SetRegion(2, 6)
	s.SetOriginMode(true)

	s.MoveCursor(0, 0)
	if row, _ := s.Cursor(); row != 2 {
		t.Errorf("row = %d, want region-relative home 2", row)
	}

	s.MoveCursor(99, 0)
	if row, _ := s.Cursor(); row != 6 {
		t.Errorf("row = %d, want clamped to region bottom", row)
	}
}

func TestEraseProtectedCells(t *testing.T) {
	s := NewScreen(10, 2, 0)

	s.SetAttribute(AttrProtect)
	printString(s, "AB")
	s.SetAttribute(0)
	printString(s, "CD")

	s.EraseScreen(0, 0, 1, 9, true)
	if got := text(s, 0); got != "AB" {
		t.Errorf("row 0 = %q, want protected cells kept", got)
	}

	s.EraseScreen(0, 0, 1, 9, false)
	if got := text(s, 0); got != "" {
		t.Errorf("row 0 = %q, want unconditional erase", got)
	}
}

func TestEraseUsesCurrentColors(t *testing.T) {
	s := NewScreen(10, 2, 0)

	s.SetColors(ColorWhite, ColorBlue)
	s.EraseLine(0, 9, false)

	if c := s.Cell(0, 0); c.BG != ColorBlue {
		t.Errorf("erased cell BG = %v, want blue", c.BG)
	}
}

func TestInsertDeleteLines(t *testing.T) {
	s := NewScreen(10, 5, 0)

	for i := 0; i < 5; i++ {
		printString(s, string(rune('a'+i)))
		if i < 4 {
			s.CarriageReturn()
			s.LineFeed()
		}
	}

	s.MoveCursor(1, 0)
	s.InsertLines(2)
	if got := text(s, 1); got != "" {
		t.Errorf("row 1 = %q, want blank after IL", got)
	}
	if got := text(s, 3); got != "b" {
		t.Errorf("row 3 = %q, want shifted b", got)
	}
	if got := text(s, 4); got != "c" {
		t.Errorf("row 4 = %q, want shifted c", got)
	}

	s.DeleteLines(2)
	if got := text(s, 1); got != "b" {
		t.Errorf("row 1 = %q after DL, want b", got)
	}
}

func TestInsertDeleteLinesOutsideRegion(t *testing.T) {
	s := NewScreen(10, 5, 0)
	printString(s, "top")
	s.SetRegion(2, 4)

	s.MoveCursor(0, 0)
	s.InsertLines(1)
	if got := text(s, 0); got != "top" {
		t.Errorf("row 0 = %q, want IL outside region ignored", got)
	}
}

func TestReverseLineFeedAtTop(t *testing.T) {
	s := NewScreen(10, 3, 0)
	printString(s, "first")

	s.MoveCursor(0, 0)
	s.ReverseLineFeed()
	if got := text(s, 1); got != "first" {
		t.Errorf("row 1 = %q, want pushed down", got)
	}
	if got := text(s, 0); got != "" {
		t.Errorf("row 0 = %q, want blank", got)
	}
}

func TestReverseVideoSwapsCells(t *testing.T) {
	s := NewScreen(10, 2, 0)

	s.SetColors(ColorRed, ColorBlack)
	printString(s, "r")
	s.SetReverseVideo(true)

	c := s.Cell(0, 0)
	if c.FG != ColorBlack || c.BG != ColorRed {
		t.Errorf("cell colors = (%v, %v), want swapped", c.FG, c.BG)
	}

	// Toggling back restores the original sense.
	s.SetReverseVideo(false)
	c = s.Cell(0, 0)
	if c.FG != ColorRed || c.BG != ColorBlack {
		t.Errorf("cell colors = (%v, %v), want restored", c.FG, c.BG)
	}
}

func TestResizePreservesContent(t *testing.T) {
	s := NewScreen(10, 4, 0)
	printString(s, "keep")

	s.Resize(20, 6)
	if got := text(s, 0); got != "keep" {
		t.Errorf("row 0 = %q after grow, want keep", got)
	}
	if s.Width() != 20 || s.Height() != 6 {
		t.Errorf("size = %dx%d, want 20x6", s.Width(), s.Height())
	}

	s.Resize(3, 2)
	if got := text(s, 0); got != "kee" {
		t.Errorf("row 0 = %q after shrink, want kee", got)
	}
	if row, col := s.Cursor(); row > 1 || col > 2 {
		t.Errorf("cursor = (%d, %d), want clamped into new bounds", row, col)
	}
}

func TestScrollbackCap(t *testing.T) {
	s := NewScreen(5, 2, 3)

	for i := 0; i < 10; i++ {
		printString(s, "x")
		s.CarriageReturn()
		s.LineFeed()
	}

	if n := len(s.ScrollbackLines()); n != 3 {
		t.Errorf("scrollback length = %d, want capped at 3", n)
	}
}
