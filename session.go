// Package retroterm drives a BBS-era terminal over an arbitrary byte
// transport.  A Session owns a screen, an emulation dispatcher, a
// keystroke encoder, and at most one running file transfer, and fans
// inbound bytes out to whichever of the emulator or the transfer engine
// currently owns the stream.
package retroterm

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/moodclient/retroterm/emulation"
	"github.com/moodclient/retroterm/keymap"
	"github.com/moodclient/retroterm/screen"
	"github.com/moodclient/retroterm/transfer"
)

// ErrTransferActive is returned by StartUpload and StartDownload while a
// previous transfer is still running.
var ErrTransferActive = errors.New("a file transfer is already running")

// Session wraps a byte transport (a net.Conn, a serial port, a pty, a
// pipe in tests) with terminal emulation and file transfer.
//
// Inbound bytes normally flow through the emulation dispatcher, which
// mutates the screen and occasionally transmits response sequences back
// through the transport.  While a file transfer is running, inbound
// bytes are redirected to the transfer engine instead; the emulator does
// not see them.  When the transfer finishes the stream reverts to the
// emulator.
//
// Outbound traffic comes from SendKey, SendText, and SendRune, which
// resolve keystrokes through the layered keymaps against the active
// dialect's keypad and arrow modes.
//
// The session runs three goroutines: one reading the transport, one
// ticking the transfer clock, and one delivering events.  Registered
// hooks are called from the event loop, so a blocking hook stalls event
// delivery but not the byte pump.
type Session struct {
	reader io.Reader
	writer io.Writer

	writeLock sync.Mutex

	stateLock  sync.Mutex
	scr        *screen.Screen
	dispatcher *emulation.Dispatcher
	resolver   *keymap.Resolver
	xfer       transfer.Session

	telnetASCII bool

	pump *sessionEventPump

	encounteredErrorHooks *EventPublisher[error]
	screenUpdatedHooks    *EventPublisher[*screen.Screen]
	emulatorResponseHooks *EventPublisher[[]byte]
	transferStatusHooks   *EventPublisher[transfer.Statistics]
	bellHooks             *EventPublisher[struct{}]
	windowTitleHooks      *EventPublisher[string]
	musicHooks            *EventPublisher[[]byte]

	exitErr error
	exited  chan struct{}
}

// NewSession initializes a session over the given transport and begins
// reading from it immediately.
//
// The session continues until the passed context is cancelled or the
// transport reader returns an error.  All functioning is determined by
// the properties passed in the Config object; see that type for more
// information.
func NewSession(ctx context.Context, reader io.Reader, writer io.Writer, config Config) *Session {
	width, height := config.Width, config.Height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	scrollback := config.ScrollbackLines
	if scrollback == 0 {
		scrollback = defaultScrollback
	} else if scrollback < 0 {
		scrollback = 0
	}

	pump := newEventPump()
	s := &Session{
		reader:      reader,
		writer:      writer,
		telnetASCII: config.TelnetASCII,
		pump:        pump,
		exited:      make(chan struct{}),

		encounteredErrorHooks: NewPublisher(config.EventHooks.EncounteredError),
		screenUpdatedHooks:    NewPublisher(config.EventHooks.ScreenUpdated),
		emulatorResponseHooks: NewPublisher(config.EventHooks.EmulatorResponse),
		transferStatusHooks:   NewPublisher(config.EventHooks.TransferStatus),
		bellHooks:             NewPublisher(config.EventHooks.Bell),
		windowTitleHooks:      NewPublisher(config.EventHooks.WindowTitle),
		musicHooks:            NewPublisher(config.EventHooks.MusicSequence),
	}

	s.scr = screen.NewScreen(width, height, scrollback)
	s.dispatcher = emulation.NewDispatcher(s.scr, responseWriter{s}, config.AnswerBack, emulation.Hooks{
		Bell:        pump.Bell,
		WindowTitle: pump.WindowTitle,
		Music:       pump.Music,
	})
	s.dispatcher.Switch(config.Emulation)

	s.resolver = keymap.NewResolver()
	s.resolver.SetMacros(keymap.Macros{
		Username: config.Username,
		Password: config.Password,
	})
	s.resolver.SetDefaultKeymap(config.DefaultKeymap)
	for e, k := range config.EmulationKeymaps {
		s.resolver.SetEmulationKeymap(e, k)
	}

	// Run the reader, the transfer clock, and the event loop until the
	// transport dies or the consumer kills the context
	go func() {
		defer close(s.exited)

		connCtx, connCancel := context.WithCancel(ctx)

		// The event loop outlives the connection slightly so queued
		// events drain before WaitForExit returns
		eventCtx, eventCancel := context.WithCancel(context.Background())

		loopDone := make(chan struct{})
		clockDone := make(chan struct{})
		go func() {
			defer close(loopDone)
			pump.SessionLoop(eventCtx, s)
		}()
		go func() {
			defer close(clockDone)
			s.transferClock(connCtx)
		}()

		s.readLoop(connCtx)

		// Join every event producer before shutting the loop down, then
		// wait for queued events to drain.
		connCancel()
		<-clockDone
		eventCancel()
		<-loopDone
	}()

	return s
}

// Screen returns the screen the session draws on.  The screen is mutated
// from the session's reader goroutine; consumers should only inspect it
// from a ScreenUpdated hook or after WaitForExit.
func (s *Session) Screen() *screen.Screen {
	return s.scr
}

// Keymaps returns the keystroke resolver, through which consumers can
// load and install user keymaps.
func (s *Session) Keymaps() *keymap.Resolver {
	return s.resolver
}

// Emulation returns the active dialect.
func (s *Session) Emulation() emulation.Emulation {
	s.stateLock.Lock()
	defer s.stateLock.Unlock()
	return s.dispatcher.Emulation()
}

// SetEmulation switches the active dialect.  Pending bytes held by the
// old dialect are flushed to the screen first.
func (s *Session) SetEmulation(e emulation.Emulation) {
	s.stateLock.Lock()
	s.dispatcher.Switch(e)
	s.stateLock.Unlock()

	s.pump.ScreenUpdated()
}

// SendKey resolves a function or cursor key through the keymap layers
// and transmits the result.  It returns false when no layer binds the
// key for the active dialect.
func (s *Session) SendKey(key keymap.Key, alt bool) bool {
	dialect, modes := s.encoderState()

	data, ok := s.resolver.Encode(key, dialect, modes, keymap.Flags{
		Alt:         alt,
		TelnetASCII: s.telnetASCII,
	})
	if !ok {
		return false
	}

	s.transmit(data)
	return true
}

// SendRune transmits one printable keystroke through the character
// encoding path.
func (s *Session) SendRune(ch rune, alt bool) {
	dialect, modes := s.encoderState()

	s.transmit(s.resolver.EncodeRune(ch, dialect, modes, keymap.Flags{
		Alt:         alt,
		TelnetASCII: s.telnetASCII,
	}))
}

// SendText transmits a string one rune at a time through the character
// encoding path, applying CR expansion per dialect mode.
func (s *Session) SendText(text string) {
	dialect, modes := s.encoderState()
	flags := keymap.Flags{TelnetASCII: s.telnetASCII}

	var data []byte
	for _, ch := range text {
		data = append(data, s.resolver.EncodeRune(ch, dialect, modes, flags)...)
	}
	s.transmit(data)
}

// SendRaw transmits bytes verbatim, bypassing the keystroke encoder.
func (s *Session) SendRaw(data []byte) {
	s.transmit(append([]byte(nil), data...))
}

func (s *Session) encoderState() (emulation.Emulation, emulation.Modes) {
	s.stateLock.Lock()
	defer s.stateLock.Unlock()
	return s.dispatcher.Emulation(), s.dispatcher.Modes()
}

// StartUpload begins sending files to the remote.  Inbound bytes are
// redirected to the transfer engine until it finishes.  Non-batch
// flavors send only the first file.
func (s *Session) StartUpload(flavor transfer.Flavor, files []transfer.SendFile) error {
	return s.startTransfer(transfer.NewSender(flavor, files))
}

// StartDownload begins receiving files from the remote into sink.  name
// is the output filename for the Xmodem flavors, which carry no
// metadata; Ymodem flavors take filenames from the batch headers.
func (s *Session) StartDownload(flavor transfer.Flavor, sink transfer.Sink, name string) error {
	return s.startTransfer(transfer.NewReceiver(flavor, sink, name))
}

func (s *Session) startTransfer(session transfer.Session) error {
	s.stateLock.Lock()
	defer s.stateLock.Unlock()

	if s.xfer != nil {
		return ErrTransferActive
	}

	s.xfer = session

	// Prime the session so a receiver emits its handshake byte without
	// waiting for inbound traffic.
	_, out := session.Feed(time.Now(), nil)
	s.transmit(out)
	s.pump.TransferStatus(session.Stats())
	return nil
}

// StopTransfer cancels a running transfer.  For a download, deletePartial
// also removes the file being written.  It is a no-op when no transfer is
// running.
func (s *Session) StopTransfer(deletePartial bool) {
	s.stateLock.Lock()
	defer s.stateLock.Unlock()

	if s.xfer == nil {
		return
	}

	s.xfer.Stop(deletePartial)
	s.transmit([]byte{0x18, 0x18})
	s.pump.TransferStatus(s.xfer.Stats())
	s.xfer = nil
}

// TransferActive reports whether a transfer currently owns the inbound
// stream.
func (s *Session) TransferActive() bool {
	s.stateLock.Lock()
	defer s.stateLock.Unlock()
	return s.xfer != nil
}

// WaitForExit blocks until the session has ceased operation, either due
// to the context passed to NewSession being cancelled, or due to the
// transport closing.
func (s *Session) WaitForExit() error {
	<-s.exited
	return s.exitErr
}

func (s *Session) readLoop(ctx context.Context) {
	buf := make([]byte, 4096)
	for {
		n, err := s.reader.Read(buf)
		if n > 0 {
			s.feed(buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				s.exitErr = err
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// feed routes one burst of inbound bytes.  A finishing transfer hands
// the remainder of the burst back to the emulator.
func (s *Session) feed(data []byte) {
	s.stateLock.Lock()
	defer s.stateLock.Unlock()

	for len(data) > 0 {
		if s.xfer == nil {
			s.dispatcher.FeedAll(data)
			s.pump.ScreenUpdated()
			return
		}

		consumed, out := s.xfer.Feed(time.Now(), data)
		data = data[consumed:]
		s.transmit(out)
		s.pump.TransferStatus(s.xfer.Stats())
		s.finishTransferIfDone()
	}
}

func (s *Session) transferClock(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			s.tickTransfer(now)
		case <-ctx.Done():
			return
		}
	}
}

// tickTransfer gives a running transfer a chance to fire timeouts while
// the line is quiet.
func (s *Session) tickTransfer(now time.Time) {
	s.stateLock.Lock()
	defer s.stateLock.Unlock()

	if s.xfer == nil {
		return
	}

	_, out := s.xfer.Feed(now, nil)
	if len(out) > 0 {
		s.transmit(out)
		s.pump.TransferStatus(s.xfer.Stats())
	}
	s.finishTransferIfDone()
}

func (s *Session) finishTransferIfDone() {
	if s.xfer == nil || !s.xfer.Done() {
		return
	}

	if err := s.xfer.Err(); err != nil {
		s.pump.EncounteredError(err)
	}
	s.xfer = nil
}

func (s *Session) transmit(data []byte) {
	if len(data) == 0 {
		return
	}

	s.writeLock.Lock()
	_, err := s.writer.Write(data)
	s.writeLock.Unlock()

	if err != nil {
		s.pump.EncounteredError(err)
	}
}

// responseWriter is the sink the emulation machines transmit replies
// through (DA, DSR, answerback, VT52 identify).
type responseWriter struct {
	s *Session
}

func (w responseWriter) Write(p []byte) (int, error) {
	buf := append([]byte(nil), p...)
	w.s.transmit(buf)
	w.s.pump.EmulatorResponse(buf)
	return len(p), nil
}

func (s *Session) encounteredError(err error) {
	s.encounteredErrorHooks.Fire(s, err)
}

func (s *Session) screenUpdated() {
	s.screenUpdatedHooks.Fire(s, s.scr)
}

func (s *Session) emulatorResponded(response []byte) {
	s.emulatorResponseHooks.Fire(s, response)
}

func (s *Session) transferProgressed(stats transfer.Statistics) {
	s.transferStatusHooks.Fire(s, stats)
}

func (s *Session) bellRang() {
	s.bellHooks.Fire(s, struct{}{})
}

func (s *Session) titleChanged(title string) {
	s.windowTitleHooks.Fire(s, title)
}

func (s *Session) musicReceived(notes []byte) {
	s.musicHooks.Fire(s, notes)
}

// RegisterEncounteredErrorHook will register an event to be called when an
// error was encountered by the session or one of its subsidiaries.  Errors
// that end processing entirely are delivered via WaitForExit instead.
func (s *Session) RegisterEncounteredErrorHook(hook ErrorHandler) {
	s.encounteredErrorHooks.Register(EventHook[error](hook))
}

// RegisterScreenUpdatedHook will register an event to be called after a
// burst of inbound bytes has mutated the screen.
func (s *Session) RegisterScreenUpdatedHook(hook ScreenHandler) {
	s.screenUpdatedHooks.Register(EventHook[*screen.Screen](hook))
}

// RegisterEmulatorResponseHook will register an event to be called when
// the active emulator transmits a reply to the remote.  This is primarily
// useful for debug logging.
func (s *Session) RegisterEmulatorResponseHook(hook ResponseHandler) {
	s.emulatorResponseHooks.Register(EventHook[[]byte](hook))
}

// RegisterTransferStatusHook will register an event to be called when a
// running transfer's progress counters change.
func (s *Session) RegisterTransferStatusHook(hook TransferHandler) {
	s.transferStatusHooks.Register(EventHook[transfer.Statistics](hook))
}

// RegisterBellHook will register an event to be called when the emulator
// rings the bell.
func (s *Session) RegisterBellHook(hook BellHandler) {
	s.bellHooks.Register(EventHook[struct{}](hook))
}

// RegisterWindowTitleHook will register an event to be called when an
// xterm title sequence completes.
func (s *Session) RegisterWindowTitleHook(hook TitleHandler) {
	s.windowTitleHooks.Register(EventHook[string](hook))
}

// RegisterMusicSequenceHook will register an event to be called when an
// ANSI music sequence completes.
func (s *Session) RegisterMusicSequenceHook(hook MusicHandler) {
	s.musicHooks.Register(EventHook[[]byte](hook))
}
