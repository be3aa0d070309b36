package transfer

import (
	"fmt"
	"time"
)

type receiverState int

const (
	recvFirstBlock receiverState = iota
	recvBlock
	recvComplete
	recvAborted
)

// firstBlockWindow and firstBlockTries govern the CRC handshake
// fallback: five three-second windows, then downgrade to checksum mode.
const (
	firstBlockWindow = 3 * time.Second
	firstBlockTries  = 5
)

// Receiver is the receiving side of an XMODEM/YMODEM session.
type Receiver struct {
	flavor Flavor
	sink   Sink

	// name is the output filename for the Xmodem flavors, which carry
	// no metadata.  Ymodem names come from block 0.
	name string

	state      receiverState
	accum      []byte
	expectSeq  byte
	expectBlk0 bool

	file        File
	fileName    string
	fileInfo    FileInfo
	written     int64
	trailingSub int64

	stats Statistics
	err   error

	lastEvent  time.Time
	timeouts   int
	handshakes int
	started    bool

	// nakPending defers the NAK after a bad block until the line goes
	// quiet, so a noise burst spread over several reads draws a single
	// retransmit request.
	nakPending bool
}

// NewReceiver creates a receiver.  name is used for the single output
// file of the Xmodem flavors and is ignored for Ymodem.
func NewReceiver(flavor Flavor, sink Sink, name string) *Receiver {
	r := &Receiver{
		flavor:     flavor,
		sink:       sink,
		name:       name,
		expectSeq:  1,
		expectBlk0: flavor.batch(),
	}

	if flavor.crc() {
		r.state = recvFirstBlock
	} else {
		r.state = recvBlock
	}

	r.stats.Flavor = flavor
	r.stats.Filename = name
	r.setStatus("SENDING %s", describeFirstByte(flavor.firstByte()))
	return r
}

func describeFirstByte(b byte) string {
	switch b {
	case bNAK:
		return "NAK"
	case bG:
		return "G"
	default:
		return "C"
	}
}

func (r *Receiver) Done() bool {
	return r.state == recvComplete || r.state == recvAborted
}

func (r *Receiver) Err() error { return r.err }

func (r *Receiver) Stats() Statistics { return r.stats }

// Stop cancels the session, optionally deleting a partially received
// file.
func (r *Receiver) Stop(deletePartial bool) {
	if r.Done() {
		return
	}
	r.closeFile()
	if deletePartial && r.fileName != "" {
		_ = r.sink.Remove(r.fileName)
	}
	r.state = recvAborted
	r.setStatus("TRANSFER CANCELLED")
}

func (r *Receiver) setStatus(format string, args ...any) {
	r.stats.Status = fmt.Sprintf(format, args...)
}

func (r *Receiver) abort(err error, status string) []byte {
	r.closeFile()
	r.state = recvAborted
	r.err = err
	r.setStatus(status)
	return canBurst
}

func (r *Receiver) closeFile() {
	if r.file != nil {
		_ = r.file.Close()
		r.file = nil
	}
}

// Feed consumes inbound bytes and returns bytes to transmit.  The very
// first call emits the handshake byte.
func (r *Receiver) Feed(now time.Time, in []byte) (int, []byte) {
	if r.Done() {
		return len(in), nil
	}

	var out []byte
	if !r.started {
		r.started = true
		r.lastEvent = now
		out = append(out, r.flavor.firstByte())
	}

	if len(in) == 0 {
		if r.nakPending {
			r.nakPending = false
			r.lastEvent = now
			return 0, append(out, bNAK)
		}
		return 0, append(out, r.checkTimeout(now)...)
	}

	r.lastEvent = now
	r.timeouts = 0
	if r.nakPending {
		// Still inside the noise event that scheduled the NAK.
		return len(in), out
	}
	if r.state == recvFirstBlock {
		r.state = recvBlock
	}

	consumed := 0
	for consumed < len(in) && !r.Done() {
		b := in[consumed]
		consumed++

		produced, purge := r.handleByte(b)
		out = append(out, produced...)
		if purge {
			consumed = len(in)
		}
	}

	return consumed, out
}

func (r *Receiver) handleByte(b byte) (out []byte, purge bool) {
	if len(r.accum) == 0 {
		switch b {
		case bSOH, bSTX:
			r.accum = append(r.accum, b)
			return nil, false
		case bEOT:
			return r.finishFile()
		case bCAN:
			return r.abort(ErrCancelled, "TRANSFER CANCELLED BY SENDER"), false
		default:
			// Line noise between blocks.
			return r.blockError(ErrBadHeader, "GARBAGE IN BLOCK HEADER")
		}
	}

	r.accum = append(r.accum, b)
	if len(r.accum) < r.wantLen() {
		return nil, false
	}

	block := r.accum
	r.accum = nil
	return r.consumeBlock(block)
}

// wantLen is the full frame length implied by the header byte of the
// accumulating block.
func (r *Receiver) wantLen() int {
	dataLen := shortBlockLen
	if r.accum[0] == bSTX {
		dataLen = longBlockLen
	}

	overhead := 4 // header + seq + complement + checksum
	if r.flavor.crc() {
		overhead = 5
	}
	return dataLen + overhead
}

func (r *Receiver) consumeBlock(block []byte) ([]byte, bool) {
	seq, cseq := block[1], block[2]
	data := block[3 : len(block)-r.checkLen()]

	if seq != ^cseq {
		return r.blockError(ErrBadComplement, "COMPLEMENT ERROR IN BLOCK #%d", r.stats.Blocks+1)
	}

	if r.flavor.crc() {
		want := uint16(block[len(block)-2])<<8 | uint16(block[len(block)-1])
		if CRC16(data) != want {
			return r.blockError(ErrCRCMismatch, "CRC ERROR IN BLOCK #%d", r.stats.Blocks+1)
		}
	} else {
		if checksum8(data) != block[len(block)-1] {
			return r.blockError(ErrChecksumMismatch, "CHECKSUM ERROR IN BLOCK #%d", r.stats.Blocks+1)
		}
	}

	if r.expectBlk0 {
		if seq != 0 {
			return r.blockError(ErrBadSequence, "EXPECTED HEADER BLOCK, GOT #%d", seq)
		}
		return r.consumeBlock0(data)
	}

	switch seq {
	case r.expectSeq:
		return r.consumeData(data)
	case r.expectSeq - 1:
		// A duplicate means our ACK was lost; ACK again so the sender
		// does not stall, but count it.
		r.stats.Errors++
		if r.stats.Errors >= maxTotalErrors {
			return r.abort(ErrTooManyErrors, "TOO MANY ERRORS, TRANSFER CANCELLED"), false
		}
		r.setStatus("DUPLICATE BLOCK #%d", seq)
		if r.flavor.streaming() {
			return nil, false
		}
		return []byte{bACK}, false
	default:
		return r.blockError(ErrBadSequence, "SEQUENCE ERROR IN BLOCK #%d", r.stats.Blocks+1)
	}
}

func (r *Receiver) consumeBlock0(data []byte) ([]byte, bool) {
	info, err := parseBlock0(data)
	if err != nil {
		return r.blockError(ErrBadHeader, "MALFORMED HEADER BLOCK")
	}

	if info.Name == "" {
		// End of batch.
		r.state = recvComplete
		r.setStatus("TRANSFER COMPLETE")
		return []byte{bACK}, false
	}

	file, err := r.sink.Create(info.Name)
	if err != nil {
		return r.abort(ErrFileOpen, "CANNOT CREATE "+info.Name), false
	}

	r.file = file
	r.fileName = info.Name
	r.fileInfo = info
	r.written = 0
	r.trailingSub = 0
	r.expectBlk0 = false
	r.expectSeq = 1
	r.stats.Filename = info.Name
	r.stats.BytesTotal += info.Size
	r.setStatus("RECEIVING %s", info.Name)

	// ACK the header and restart the handshake for the data phase.
	return []byte{bACK, r.flavor.firstByte()}, false
}

func (r *Receiver) consumeData(data []byte) ([]byte, bool) {
	if r.file == nil {
		file, err := r.sink.Create(r.name)
		if err != nil {
			return r.abort(ErrFileOpen, "CANNOT CREATE "+r.name), false
		}
		r.file = file
		r.fileName = r.name
	}

	if _, err := r.file.Write(data); err != nil {
		return r.abort(ErrDiskWrite, "DISK WRITE ERROR, TRANSFER CANCELLED"), false
	}

	counted := int64(len(data))
	if r.flavor.batch() && r.fileInfo.Size > 0 {
		// Count only payload inside the declared size so the padding in
		// the final block never inflates, and later deflates, the tally.
		if remaining := r.fileInfo.Size - r.written; remaining < counted {
			counted = max(remaining, 0)
		}
	}

	r.written += int64(len(data))
	r.trackTrailingSub(data)

	r.expectSeq++
	r.stats.Blocks++
	r.stats.Bytes += counted
	if !r.flavor.batch() {
		// Xmodem has no declared size; the total grows as blocks land.
		r.stats.BytesTotal = r.written
	}
	r.setStatus("RECEIVED BLOCK #%d", r.stats.Blocks)

	if r.flavor.streaming() {
		return nil, false
	}
	return []byte{bACK}, false
}

// trackTrailingSub maintains the length of the SUB run at the end of the
// file so Xmodem padding can be trimmed after EOT.
func (r *Receiver) trackTrailingSub(data []byte) {
	run := int64(0)
	for i := len(data) - 1; i >= 0 && data[i] == bSUB; i-- {
		run++
	}

	if run == int64(len(data)) {
		r.trailingSub += run
	} else {
		r.trailingSub = run
	}
}

// finishFile handles EOT: trim or truncate, finalize, and either finish
// the session or rearm for the next batch file.
func (r *Receiver) finishFile() ([]byte, bool) {
	if r.file == nil {
		// EOT before any data: an empty file.
		if !r.flavor.batch() {
			file, err := r.sink.Create(r.name)
			if err != nil {
				return r.abort(ErrFileOpen, "CANNOT CREATE "+r.name), false
			}
			r.file = file
			r.fileName = r.name
		} else {
			return r.blockError(ErrShortBlock, "EOT WITHOUT DATA")
		}
	}

	if r.flavor.batch() {
		if err := r.file.Truncate(r.fileInfo.Size); err != nil {
			return r.abort(ErrDiskWrite, "DISK WRITE ERROR, TRANSFER CANCELLED"), false
		}
	} else if r.trailingSub > 0 {
		if err := r.file.Truncate(r.written - r.trailingSub); err != nil {
			return r.abort(ErrDiskWrite, "DISK WRITE ERROR, TRANSFER CANCELLED"), false
		}
	}

	if err := r.file.Sync(); err != nil {
		return r.abort(ErrDiskWrite, "DISK WRITE ERROR, TRANSFER CANCELLED"), false
	}
	r.closeFile()

	if r.flavor.batch() && !r.fileInfo.ModTime.IsZero() {
		_ = r.sink.Chtimes(r.fileName, r.fileInfo.ModTime)
	}

	if r.flavor.batch() {
		// Rearm for the next file's block 0.
		r.expectBlk0 = true
		r.expectSeq = 1
		r.setStatus("WAITING FOR NEXT FILE")
		return []byte{bACK, r.flavor.firstByte()}, false
	}

	r.state = recvComplete
	r.setStatus("TRANSFER COMPLETE")
	return []byte{bACK}, false
}

// blockError records a recoverable error: purge the input, discard the
// partial block, and schedule a NAK for the next quiet moment on the
// line.  Streaming flavors cannot recover and abort instead.
func (r *Receiver) blockError(err error, format string, args ...any) ([]byte, bool) {
	r.accum = nil
	r.stats.Errors++
	r.setStatus(format, args...)

	if r.flavor.streaming() {
		return r.abort(err, r.stats.Status+", TRANSFER CANCELLED"), true
	}
	if r.stats.Errors >= maxTotalErrors {
		return r.abort(ErrTooManyErrors, "TOO MANY ERRORS, TRANSFER CANCELLED"), true
	}

	r.nakPending = true
	return nil, true
}

func (r *Receiver) checkLen() int {
	if r.flavor.crc() {
		return 2
	}
	return 1
}

func (r *Receiver) checkTimeout(now time.Time) []byte {
	if r.state == recvFirstBlock {
		if now.Sub(r.lastEvent) < firstBlockWindow {
			return nil
		}
		r.lastEvent = now
		r.handshakes++

		if r.handshakes >= firstBlockTries {
			if r.flavor.streaming() || r.flavor.batch() {
				// No checksum mode to fall back to; keep trying under
				// the ordinary timeout budget.
				r.state = recvBlock
			} else {
				// CRC handshake failed; fall back to plain checksum.
				r.flavor = XModem
				r.stats.Flavor = XModem
				r.state = recvBlock
				r.setStatus("FALLBACK TO CHECKSUM MODE, SENDING NAK")
				return []byte{bNAK}
			}
		}

		r.setStatus("SENDING %s", describeFirstByte(r.flavor.firstByte()))
		return []byte{r.flavor.firstByte()}
	}

	if now.Sub(r.lastEvent) < r.flavor.timeout() {
		return nil
	}

	r.lastEvent = now
	r.timeouts++
	r.stats.Errors++

	if r.timeouts >= maxConsecutiveTimeouts || r.stats.Errors >= maxTotalErrors {
		r.closeFile()
		r.state = recvAborted
		r.err = ErrTooManyErrors
		r.setStatus("TOO MANY ERRORS, TRANSFER CANCELLED")
		return canBurst
	}

	r.accum = nil
	r.setStatus("TIMEOUT, SENDING NAK #%d", r.timeouts)
	return []byte{bNAK}
}
