package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss/v2"

	"github.com/moodclient/retroterm"
	"github.com/moodclient/retroterm/keymap"
	"github.com/moodclient/retroterm/screen"
	"github.com/moodclient/retroterm/transfer"
)

// client renders the session screen to the local tty and feeds local
// keystrokes through the keymap resolver.  Painting happens on the
// session's event loop, so frames never interleave.
type client struct {
	session *retroterm.Session
	out     io.Writer

	flavor      transfer.Flavor
	downloadDir string
	uploadFiles []string

	statusLock sync.Mutex
	status     string

	statusStyle lipgloss.Style
}

func newClient(session *retroterm.Session, out io.Writer, flavor transfer.Flavor, downloadDir string, uploadFiles []string) *client {
	c := &client{
		session:     session,
		out:         out,
		flavor:      flavor,
		downloadDir: downloadDir,
		uploadFiles: uploadFiles,
		status:      "Ctrl-] to quit",
		statusStyle: lipgloss.NewStyle().Reverse(true),
	}

	session.RegisterScreenUpdatedHook(c.screenUpdated)
	session.RegisterTransferStatusHook(c.transferStatus)
	session.RegisterEncounteredErrorHook(c.encounteredError)
	session.RegisterBellHook(c.bell)
	session.RegisterWindowTitleHook(c.windowTitle)

	return c
}

func (c *client) screenUpdated(s *retroterm.Session, scr *screen.Screen) {
	c.paint(scr)
}

func (c *client) transferStatus(s *retroterm.Session, stats transfer.Statistics) {
	c.setStatus(fmt.Sprintf("%s %s: %d blocks, %d/%d bytes, %d errors - %s",
		stats.Flavor, stats.Filename, stats.Blocks, stats.Bytes, stats.BytesTotal,
		stats.Errors, stats.Status))
	c.paint(s.Screen())
}

func (c *client) encounteredError(s *retroterm.Session, err error) {
	c.setStatus("error: " + err.Error())
	c.paint(s.Screen())
}

func (c *client) bell(s *retroterm.Session, _ struct{}) {
	fmt.Fprint(c.out, "\a")
}

func (c *client) windowTitle(s *retroterm.Session, title string) {
	fmt.Fprintf(c.out, "\x1b]0;%s\a", title)
}

func (c *client) setStatus(status string) {
	c.statusLock.Lock()
	c.status = status
	c.statusLock.Unlock()
}

// paint repaints the whole grid plus the status bar.  The remote screen
// is drawn with direct SGR sequences; only the status bar goes through
// lipgloss.
func (c *client) paint(scr *screen.Screen) {
	var sb strings.Builder
	sb.WriteString("\x1b[?25l\x1b[H")

	last := sgrState{fg: screen.ColorDefault, bg: screen.ColorDefault}
	sb.WriteString("\x1b[m")

	for row := 0; row < scr.Height(); row++ {
		if row > 0 {
			sb.WriteString("\r\n")
		}
		for col := 0; col < scr.Width(); col++ {
			cell := scr.Cell(row, col)
			state := sgrState{attr: cell.Attr, fg: cell.FG, bg: cell.BG}
			if state != last {
				sb.WriteString(state.sequence())
				last = state
			}
			sb.WriteRune(cell.Rune)
		}
	}

	c.statusLock.Lock()
	status := c.status
	c.statusLock.Unlock()

	width := scr.Width()
	if len(status) > width {
		status = status[:width]
	}
	status += strings.Repeat(" ", width-len(status))

	fmt.Fprintf(&sb, "\x1b[m\x1b[%d;1H%s", scr.Height()+1, c.statusStyle.Render(status))

	row, col := scr.Cursor()
	fmt.Fprintf(&sb, "\x1b[%d;%dH", row+1, col+1)
	if scr.CursorVisible() {
		sb.WriteString("\x1b[?25h")
	}

	_, _ = io.WriteString(c.out, sb.String())
}

type sgrState struct {
	attr screen.Attribute
	fg   screen.Color
	bg   screen.Color
}

// sequence emits a full reset-and-set SGR for this state.
func (s sgrState) sequence() string {
	var sb strings.Builder
	sb.WriteString("\x1b[0")

	if s.attr&screen.AttrBold != 0 {
		sb.WriteString(";1")
	}
	if s.attr&screen.AttrDim != 0 {
		sb.WriteString(";2")
	}
	if s.attr&screen.AttrUnderline != 0 {
		sb.WriteString(";4")
	}
	if s.attr&screen.AttrBlink != 0 {
		sb.WriteString(";5")
	}
	if s.attr&screen.AttrReverse != 0 {
		sb.WriteString(";7")
	}
	if s.attr&screen.AttrInvisible != 0 {
		sb.WriteString(";8")
	}
	if s.fg != screen.ColorDefault {
		fmt.Fprintf(&sb, ";%d", 30+int(s.fg))
	}
	if s.bg != screen.ColorDefault {
		fmt.Fprintf(&sb, ";%d", 40+int(s.bg))
	}

	sb.WriteString("m")
	return sb.String()
}

// hostKeys maps escape sequences produced by the local terminal (after
// the leading ESC) to logical keys.
var hostKeys = map[string]keymap.Key{
	"[A": keymap.KeyUp, "OA": keymap.KeyUp,
	"[B": keymap.KeyDown, "OB": keymap.KeyDown,
	"[C": keymap.KeyRight, "OC": keymap.KeyRight,
	"[D": keymap.KeyLeft, "OD": keymap.KeyLeft,

	"[H": keymap.KeyHome, "OH": keymap.KeyHome, "[1~": keymap.KeyHome,
	"[F": keymap.KeyEnd, "OF": keymap.KeyEnd, "[4~": keymap.KeyEnd,
	"[2~": keymap.KeyInsert, "[3~": keymap.KeyDelete,
	"[5~": keymap.KeyPageUp, "[6~": keymap.KeyPageDown,

	"OP": keymap.KeyF(1), "OQ": keymap.KeyF(2), "OR": keymap.KeyF(3), "OS": keymap.KeyF(4),
	"[11~": keymap.KeyF(1), "[12~": keymap.KeyF(2), "[13~": keymap.KeyF(3), "[14~": keymap.KeyF(4),
	"[15~": keymap.KeyF(5), "[17~": keymap.KeyF(6), "[18~": keymap.KeyF(7), "[19~": keymap.KeyF(8),
	"[20~": keymap.KeyF(9), "[21~": keymap.KeyF(10), "[23~": keymap.KeyF(11), "[24~": keymap.KeyF(12),
}

// run pumps local keystrokes until Ctrl-] or EOF.
func (c *client) run(ctx context.Context, cancel context.CancelFunc, input io.Reader) {
	defer cancel()

	reader := bufio.NewReader(input)
	for {
		if ctx.Err() != nil {
			return
		}

		r, _, err := reader.ReadRune()
		if err != nil {
			return
		}

		switch r {
		case 0x1D: // Ctrl-]
			return
		case 0x1B:
			c.handleEscape(reader)
		case 0x7F, 0x08:
			if !c.session.SendKey(keymap.KeyBackspace, false) {
				c.session.SendRune(r, false)
			}
		default:
			c.session.SendRune(r, false)
		}
	}
}

// handleEscape consumes the remainder of a local escape sequence and
// dispatches the logical key.  A lone ESC followed by a printable is
// treated as an Alt chord.
func (c *client) handleEscape(reader *bufio.Reader) {
	first, _, err := reader.ReadRune()
	if err != nil {
		return
	}

	if first != '[' && first != 'O' {
		c.session.SendRune(first, true)
		return
	}

	seq := string(first)
	for {
		r, _, err := reader.ReadRune()
		if err != nil {
			return
		}
		seq += string(r)

		// Final bytes of CSI and SS3 sequences
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || r == '~' {
			break
		}
		if len(seq) > 8 {
			return
		}
	}

	key, ok := hostKeys[seq]
	if !ok {
		return
	}

	switch key {
	case keymap.KeyPageUp:
		if len(c.uploadFiles) > 0 && !c.session.TransferActive() {
			c.startUpload()
			return
		}
	case keymap.KeyPageDown:
		if c.downloadDir != "" && !c.session.TransferActive() {
			c.startDownload()
			return
		}
	}

	c.session.SendKey(key, false)
}

func (c *client) startUpload() {
	var files []transfer.SendFile
	for _, path := range c.uploadFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			c.setStatus("upload: " + err.Error())
			c.paint(c.session.Screen())
			return
		}
		info, err := os.Stat(path)
		if err != nil {
			c.setStatus("upload: " + err.Error())
			c.paint(c.session.Screen())
			return
		}

		files = append(files, transfer.SendFile{
			Info: transfer.FileInfo{
				Name:    info.Name(),
				Size:    info.Size(),
				ModTime: info.ModTime(),
			},
			Data: bytes.NewReader(data),
		})
	}

	if err := c.session.StartUpload(c.flavor, files); err != nil {
		c.setStatus("upload: " + err.Error())
		c.paint(c.session.Screen())
	}
}

func (c *client) startDownload() {
	sink := transfer.DirSink{Dir: c.downloadDir}
	if err := c.session.StartDownload(c.flavor, sink, "download.bin"); err != nil {
		c.setStatus("download: " + err.Error())
		c.paint(c.session.Screen())
	}
}
