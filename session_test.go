package retroterm

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/moodclient/retroterm/emulation"
	"github.com/moodclient/retroterm/keymap"
	"github.com/moodclient/retroterm/screen"
	"github.com/moodclient/retroterm/transfer"
)

// chanWriter delivers every Write as one message so tests can observe
// outbound traffic without polling.
type chanWriter struct {
	ch chan []byte
}

func newChanWriter() *chanWriter {
	return &chanWriter{ch: make(chan []byte, 100)}
}

func (w *chanWriter) Write(p []byte) (int, error) {
	w.ch <- append([]byte(nil), p...)
	return len(p), nil
}

func (w *chanWriter) next(t *testing.T) []byte {
	t.Helper()
	select {
	case data := <-w.ch:
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outbound data")
		return nil
	}
}

type sessionFixture struct {
	session *Session
	inbound *io.PipeWriter
	out     *chanWriter
	updated chan string
}

func newSessionFixture(t *testing.T, config Config) *sessionFixture {
	t.Helper()

	inR, inW := io.Pipe()
	out := newChanWriter()
	updated := make(chan string, 100)

	config.EventHooks.ScreenUpdated = append(config.EventHooks.ScreenUpdated,
		func(s *Session, scr *screen.Screen) {
			var sb strings.Builder
			for col := 0; col < scr.Width(); col++ {
				sb.WriteRune(scr.Cell(0, col).Rune)
			}
			updated <- strings.TrimRight(sb.String(), " ")
		})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = inW.Close()
	})

	session := NewSession(ctx, inR, out, config)
	return &sessionFixture{session: session, inbound: inW, out: out, updated: updated}
}

func (f *sessionFixture) waitRow0(t *testing.T, want string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-f.updated:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("row 0 never became %q", want)
		}
	}
}

func TestSessionRendersInbound(t *testing.T) {
	f := newSessionFixture(t, Config{Emulation: emulation.VT100})

	if _, err := f.inbound.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	f.waitRow0(t, "hello")
}

func TestSessionEmulatorResponse(t *testing.T) {
	f := newSessionFixture(t, Config{Emulation: emulation.VT100})

	if _, err := f.inbound.Write([]byte("\x1b[c")); err != nil {
		t.Fatal(err)
	}
	if got := f.out.next(t); !bytes.Equal(got, []byte("\x1b[?6c")) {
		t.Fatalf("device attributes reply = %q", got)
	}
}

func TestSessionSendText(t *testing.T) {
	f := newSessionFixture(t, Config{Emulation: emulation.VT100, TelnetASCII: true})

	f.session.SendText("hi\r")
	if got := f.out.next(t); !bytes.Equal(got, []byte("hi\r\n")) {
		t.Fatalf("sent %q, want CR expanded to CR LF", got)
	}
}

func TestSessionSendKey(t *testing.T) {
	f := newSessionFixture(t, Config{Emulation: emulation.VT100})

	if !f.session.SendKey(keymap.KeyF(1), false) {
		t.Fatal("F1 should resolve for VT100")
	}
	if got := f.out.next(t); !bytes.Equal(got, []byte("\x1bOP")) {
		t.Fatalf("F1 sent %q, want ESC O P", got)
	}
}

func TestSessionSendKeyMacro(t *testing.T) {
	km := keymap.New()
	km.Bind(keymap.KeyF(2), "$USERNAME^M")

	f := newSessionFixture(t, Config{
		Emulation:     emulation.VT100,
		Username:      "alice",
		DefaultKeymap: km,
	})

	f.session.SendKey(keymap.KeyF(2), false)
	if got := f.out.next(t); !bytes.Equal(got, []byte("alice\r")) {
		t.Fatalf("F2 sent %q, want macro expansion", got)
	}
}

func TestSessionSetEmulation(t *testing.T) {
	f := newSessionFixture(t, Config{Emulation: emulation.VT100})

	f.session.SetEmulation(emulation.ANSI)
	if got := f.session.Emulation(); got != emulation.ANSI {
		t.Fatalf("emulation = %v, want ANSI", got)
	}
}

func TestSessionUsableAfterExit(t *testing.T) {
	// A transport that hangs up immediately ends the session; the public
	// API must keep working without panicking on the drained event loop.
	out := newChanWriter()
	session := NewSession(context.Background(), bytes.NewReader(nil), out, Config{
		Emulation: emulation.VT100,
	})

	if err := session.WaitForExit(); err != nil {
		t.Fatalf("exit error = %v, want nil on EOF", err)
	}

	session.SetEmulation(emulation.ANSI)
	if got := session.Emulation(); got != emulation.ANSI {
		t.Fatalf("emulation = %v, want ANSI", got)
	}

	session.SendKey(keymap.KeyHome, false)
	if got := out.next(t); !bytes.Equal(got, []byte("\x1b[H")) {
		t.Fatalf("Home sent %q, want CSI H", got)
	}
	session.StopTransfer(false)
}

type mapSink struct {
	files map[string]*bytes.Buffer
}

func (s *mapSink) Create(name string) (transfer.File, error) {
	buf := &bytes.Buffer{}
	s.files[name] = buf
	return nopFile{buf}, nil
}

func (s *mapSink) Chtimes(string, time.Time) error { return nil }
func (s *mapSink) Remove(name string) error        { delete(s.files, name); return nil }

type nopFile struct {
	*bytes.Buffer
}

func (f nopFile) Truncate(size int64) error {
	f.Buffer.Truncate(int(size))
	return nil
}

func (nopFile) Sync() error  { return nil }
func (nopFile) Close() error { return nil }

func TestSessionDownloadOwnsStream(t *testing.T) {
	f := newSessionFixture(t, Config{Emulation: emulation.VT100})

	sink := &mapSink{files: make(map[string]*bytes.Buffer)}
	if err := f.session.StartDownload(transfer.XModemCRC, sink, "file.bin"); err != nil {
		t.Fatal(err)
	}

	// Starting a second transfer while one runs is rejected.
	if err := f.session.StartDownload(transfer.XModemCRC, sink, "other.bin"); err != ErrTransferActive {
		t.Fatalf("second download error = %v, want ErrTransferActive", err)
	}

	// The receiver transmits its CRC handshake immediately.
	if got := f.out.next(t); !bytes.Equal(got, []byte{'C'}) {
		t.Fatalf("handshake = %v, want [C]", got)
	}

	// One full block, then EOT.
	data := bytes.Repeat([]byte{'x'}, 128)
	crc := transfer.CRC16(data)
	block := append([]byte{0x01, 1, 0xFE}, data...)
	block = append(block, byte(crc>>8), byte(crc))

	if _, err := f.inbound.Write(block); err != nil {
		t.Fatal(err)
	}
	if got := f.out.next(t); !bytes.Equal(got, []byte{0x06}) {
		t.Fatalf("block reply = %v, want [ACK]", got)
	}

	if _, err := f.inbound.Write([]byte{0x04}); err != nil {
		t.Fatal(err)
	}
	if got := f.out.next(t); !bytes.Equal(got, []byte{0x06}) {
		t.Fatalf("EOT reply = %v, want [ACK]", got)
	}

	// The stream reverts to the emulator once the transfer completes.
	deadline := time.After(2 * time.Second)
	for f.session.TransferActive() {
		select {
		case <-deadline:
			t.Fatal("transfer never finished")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if got := sink.files["file.bin"].Bytes(); !bytes.Equal(got, data) {
		t.Fatalf("received %d bytes, want 128", len(got))
	}

	if _, err := f.inbound.Write([]byte("back")); err != nil {
		t.Fatal(err)
	}
	f.waitRow0(t, "back")
}
