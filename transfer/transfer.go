package transfer

import "time"

// Statistics is a snapshot of a session's progress counters.  All counts
// are monotonically non-decreasing for the lifetime of a file.
type Statistics struct {
	Flavor   Flavor
	Filename string

	Blocks    int64
	Bytes     int64
	BytesTotal int64
	Errors    int

	// Status is the most recent user-visible event string.
	Status string
}

// Session is the non-blocking byte pump both transfer roles implement.
// Callers hand it every inbound byte along with the current time, write
// the returned bytes to the transport, and keep calling with empty input
// so timeouts can fire.
type Session interface {
	// Feed consumes a prefix of in and returns the bytes to transmit.
	Feed(now time.Time, in []byte) (consumed int, out []byte)
	// Stop cancels the session.  For a receiver, deletePartial also
	// removes the file being written.
	Stop(deletePartial bool)
	// Done reports whether the session has finished, successfully or not.
	Done() bool
	// Err returns the terminal error, or nil after a clean finish.
	Err() error
	// Stats returns a snapshot of the progress counters.
	Stats() Statistics
}

// frameBlock assembles one wire block: header, sequence, complement,
// data, and checksum or CRC.
func frameBlock(seq byte, data []byte, useCRC bool) []byte {
	header := byte(bSOH)
	if len(data) == longBlockLen {
		header = bSTX
	}

	block := make([]byte, 0, len(data)+5)
	block = append(block, header, seq, ^seq)
	block = append(block, data...)

	if useCRC {
		crc := CRC16(data)
		block = append(block, byte(crc>>8), byte(crc))
	} else {
		block = append(block, checksum8(data))
	}
	return block
}

// canBurst is what either side sends to abort the link.  Two CANs are
// sent so that one surviving a line hit still cancels.
var canBurst = []byte{bCAN, bCAN}
