package transfer

import "errors"

// Protocol error taxonomy.  Recoverable errors increment the session
// error counter and trigger a retransmit; the rest are terminal.
var (
	ErrTimeout          = errors.New("timeout waiting for input")
	ErrCRCMismatch      = errors.New("crc mismatch")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrBadHeader        = errors.New("unexpected block header byte")
	ErrBadSequence      = errors.New("block sequence out of order")
	ErrBadComplement    = errors.New("sequence complement mismatch")
	ErrShortBlock       = errors.New("short block")
	ErrLongBlock        = errors.New("block longer than negotiated size")
	ErrDuplicate        = errors.New("duplicate block")
	ErrDiskRead         = errors.New("disk read failed")
	ErrDiskWrite        = errors.New("disk write failed")
	ErrFileOpen         = errors.New("file open failed")
	ErrCancelled        = errors.New("transfer cancelled by peer")
	ErrTooManyErrors    = errors.New("retry budget exhausted")
	ErrFallbackToNormal = errors.New("crc handshake failed, falling back to checksum")
)

// Retry budget shared by both roles: ten consecutive timeouts or fifteen
// total errors aborts the session.
const (
	maxConsecutiveTimeouts = 10
	maxTotalErrors         = 15
)
