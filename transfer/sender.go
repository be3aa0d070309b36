package transfer

import (
	"errors"
	"fmt"
	"io"
	"time"
)

type senderState int

const (
	sendInit senderState = iota
	sendBlock0Ack
	sendBlock0First
	sendData
	sendEOTAck
	sendBatchEndAck
	sendComplete
	sendAborted
)

// Sender is the transmitting side of an XMODEM/YMODEM session.
type Sender struct {
	flavor Flavor
	files  []SendFile

	state   senderState
	fileIdx int
	seq     byte
	block   []byte
	dataLen int
	eof     bool

	// useCRC and streaming start from the flavor but follow what the
	// receiver's first byte actually asked for.
	useCRC    bool
	streaming bool

	stats Statistics
	err   error

	lastEvent   time.Time
	firstWindow bool
	timeouts    int
}

// NewSender creates a sender for the given files.  Non-batch flavors
// send only the first file.
func NewSender(flavor Flavor, files []SendFile) *Sender {
	s := &Sender{
		flavor:      flavor,
		files:       files,
		state:       sendInit,
		useCRC:      flavor.crc(),
		streaming:   flavor.streaming(),
		firstWindow: true,
	}

	if !flavor.batch() && len(files) > 1 {
		s.files = files[:1]
	}
	for _, f := range s.files {
		s.stats.BytesTotal += f.Info.Size
	}

	s.stats.Flavor = flavor
	if len(s.files) > 0 {
		s.stats.Filename = s.files[0].Info.Name
	}
	s.setStatus("WAITING FOR RECEIVER")
	return s
}

func (s *Sender) Done() bool {
	return s.state == sendComplete || s.state == sendAborted
}

func (s *Sender) Err() error { return s.err }

func (s *Sender) Stats() Statistics { return s.stats }

// Stop cancels the session.
func (s *Sender) Stop(bool) {
	if !s.Done() {
		s.abort(nil, "TRANSFER CANCELLED")
	}
}

func (s *Sender) setStatus(format string, args ...any) {
	s.stats.Status = fmt.Sprintf(format, args...)
}

func (s *Sender) abort(err error, status string) {
	s.state = sendAborted
	s.err = err
	s.setStatus(status)
}

// Feed consumes inbound bytes and returns bytes to transmit.
func (s *Sender) Feed(now time.Time, in []byte) (int, []byte) {
	if s.Done() {
		return len(in), nil
	}

	if s.lastEvent.IsZero() {
		s.lastEvent = now
	}

	var out []byte
	consumed := 0

	if len(in) == 0 {
		out = s.checkTimeout(now)
		return 0, out
	}

	for consumed < len(in) && !s.Done() {
		b := in[consumed]
		consumed++

		if b == bCAN {
			s.abort(ErrCancelled, "TRANSFER CANCELLED BY RECEIVER")
			return len(in), out
		}

		produced, purge := s.handleByte(b)
		out = append(out, produced...)
		s.lastEvent = now
		s.timeouts = 0

		if purge {
			// Drop whatever else arrived in this burst.
			consumed = len(in)
		}
	}

	return consumed, out
}

// handleByte advances the state machine on one inbound byte.  purge
// requests that the remainder of the current input burst be discarded.
func (s *Sender) handleByte(b byte) (out []byte, purge bool) {
	switch s.state {
	case sendInit:
		return s.handleHandshake(b)
	case sendBlock0Ack:
		return s.handleBlock0Ack(b)
	case sendBlock0First:
		if b == bNAK || b == bC || b == bG {
			s.adoptMode(b)
			return s.startData()
		}
		return nil, false
	case sendData:
		return s.handleDataAck(b)
	case sendEOTAck:
		return s.handleEOTAck(b)
	case sendBatchEndAck:
		if b == bACK {
			s.state = sendComplete
			s.setStatus("TRANSFER COMPLETE")
		}
		return nil, false
	}
	return nil, false
}

// adoptMode aligns CRC and streaming with the handshake byte the
// receiver actually sent, which may downgrade a CRC flavor.
func (s *Sender) adoptMode(b byte) {
	s.useCRC = b == bC || b == bG
	s.streaming = b == bG
}

func (s *Sender) handleHandshake(b byte) ([]byte, bool) {
	if b != bNAK && b != bC && b != bG {
		return nil, false
	}
	s.adoptMode(b)

	if s.flavor.batch() {
		if s.fileIdx >= len(s.files) {
			// End of batch: a block 0 with an empty filename.
			s.block = frameBlock(0, buildBlock0(FileInfo{}, shortBlockLen), s.useCRC)
			s.state = sendBatchEndAck
			s.setStatus("SENDING END-OF-BATCH")
			return s.block, false
		}

		info := s.files[s.fileIdx].Info
		s.stats.Filename = info.Name
		s.block = frameBlock(0, buildBlock0(info, shortBlockLen), s.useCRC)
		s.state = sendBlock0Ack
		s.setStatus("SENDING HEADER FOR %s", info.Name)
		return s.block, false
	}

	return s.startData()
}

func (s *Sender) handleBlock0Ack(b byte) ([]byte, bool) {
	switch b {
	case bACK:
		if s.streaming {
			// Ymodem/G receivers follow the ACK with another G, handled
			// in sendBlock0First.
			s.state = sendBlock0First
			return nil, false
		}
		s.state = sendBlock0First
		return nil, false
	case bNAK:
		s.stats.Errors++
		return s.block, true
	case bC, bG:
		// Some receivers skip the separate ACK and restart the
		// handshake for data directly.
		s.adoptMode(b)
		return s.startData()
	}
	return nil, false
}

// startData begins the data phase for the current file.  Streaming
// flavors emit every remaining block plus EOT in one burst.
func (s *Sender) startData() ([]byte, bool) {
	s.state = sendData
	s.seq = 1
	s.eof = false

	if s.streaming {
		var out []byte
		for !s.eof {
			block, err := s.nextBlock()
			if err != nil {
				s.abort(err, "DISK READ ERROR, TRANSFER CANCELLED")
				return canBurst, false
			}
			if block == nil {
				break
			}
			out = append(out, block...)
			s.advanceStats()
		}
		out = append(out, bEOT)
		s.state = sendEOTAck
		s.setStatus("SENDING EOT")
		return out, false
	}

	block, err := s.nextBlock()
	if err != nil {
		s.abort(err, "DISK READ ERROR, TRANSFER CANCELLED")
		return canBurst, false
	}
	if block == nil {
		// Zero-length file: straight to EOT.
		s.state = sendEOTAck
		s.setStatus("SENDING EOT")
		return []byte{bEOT}, false
	}
	s.setStatus("SENDING BLOCK #%d", s.stats.Blocks+1)
	return block, false
}

func (s *Sender) handleDataAck(b byte) ([]byte, bool) {
	switch b {
	case bACK:
		s.advanceStats()

		if s.eof {
			s.state = sendEOTAck
			s.setStatus("SENDING EOT")
			return []byte{bEOT}, false
		}

		block, err := s.nextBlock()
		if err != nil {
			s.abort(err, "DISK READ ERROR, TRANSFER CANCELLED")
			return canBurst, false
		}
		if block == nil {
			s.state = sendEOTAck
			s.setStatus("SENDING EOT")
			return []byte{bEOT}, false
		}
		s.setStatus("SENDING BLOCK #%d", s.stats.Blocks+1)
		return block, false

	case bNAK:
		if s.countError() {
			return canBurst, false
		}
		s.setStatus("RETRANSMITTING BLOCK #%d", s.stats.Blocks+1)
		return s.block, true

	default:
		if s.countError() {
			return canBurst, false
		}
		return nil, true
	}
}

func (s *Sender) handleEOTAck(b byte) ([]byte, bool) {
	switch b {
	case bACK:
		if s.flavor.batch() {
			s.fileIdx++
			s.state = sendInit
			s.firstWindow = true
			s.setStatus("WAITING FOR RECEIVER")
			return nil, false
		}
		s.state = sendComplete
		s.setStatus("TRANSFER COMPLETE")
		return nil, false
	case bNAK:
		if s.countError() {
			return canBurst, false
		}
		return []byte{bEOT}, true
	}
	return nil, false
}

// nextBlock reads and frames the next data block, returning nil at end
// of file.
func (s *Sender) nextBlock() ([]byte, error) {
	data := make([]byte, s.flavor.blockLen())
	n, err := io.ReadFull(s.files[s.fileIdx].Data, data)
	if err != nil {
		if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrDiskRead
		}
		s.eof = true
	}
	if n == 0 {
		return nil, nil
	}
	if n == len(data) && !s.eof {
		// Full block and more to come.
	} else {
		for i := n; i < len(data); i++ {
			data[i] = bSUB
		}
		s.eof = true
	}

	s.dataLen = n
	s.block = frameBlock(s.seq, data, s.useCRC)
	s.seq++
	return s.block, nil
}

func (s *Sender) advanceStats() {
	s.stats.Blocks++
	s.stats.Bytes += int64(s.dataLen)
}

// countError bumps the error counter, returning true when the budget is
// exhausted and the transfer has been aborted.
func (s *Sender) countError() bool {
	s.stats.Errors++
	if s.stats.Errors >= maxTotalErrors {
		s.abort(ErrTooManyErrors, "TOO MANY ERRORS, TRANSFER CANCELLED")
		return true
	}
	return false
}

func (s *Sender) checkTimeout(now time.Time) []byte {
	window := s.flavor.timeout()
	if s.firstWindow {
		// The receiver drives the handshake; give it twice as long
		// before the first retry.
		window *= 2
	}

	if now.Sub(s.lastEvent) < window {
		return nil
	}

	s.lastEvent = now
	s.firstWindow = false
	s.timeouts++
	s.stats.Errors++
	s.setStatus("TIMEOUT #%d", s.timeouts)

	if s.timeouts >= maxConsecutiveTimeouts || s.stats.Errors >= maxTotalErrors {
		s.abort(ErrTooManyErrors, "TOO MANY ERRORS, TRANSFER CANCELLED")
		return canBurst
	}

	switch s.state {
	case sendData, sendBlock0Ack, sendBatchEndAck:
		return s.block
	case sendEOTAck:
		return []byte{bEOT}
	}
	return nil
}
