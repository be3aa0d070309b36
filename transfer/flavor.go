package transfer

import "time"

// Protocol sentinel bytes.
const (
	bSOH = 0x01
	bSTX = 0x02
	bEOT = 0x04
	bACK = 0x06
	bNAK = 0x15
	bCAN = 0x18
	bSUB = 0x1A
	bC   = 'C'
	bG   = 'G'
)

const (
	shortBlockLen = 128
	longBlockLen  = 1024
)

// Flavor selects one member of the XMODEM/YMODEM protocol family.
type Flavor int

const (
	// XModem is classic 128-byte checksum XMODEM.
	XModem Flavor = iota
	// XModemRelaxed is XModem with a tenfold timeout budget, for links
	// with store-and-forward latency.
	XModemRelaxed
	// XModemCRC replaces the checksum with CRC-16.
	XModemCRC
	// XModem1K adds 1024-byte blocks to XModemCRC.
	XModem1K
	// XModem1KG streams 1K blocks without per-block ACKs.
	XModem1KG
	// YModem is batch XMODEM: 1K blocks, CRC, and a metadata block 0
	// carrying filename, size, and mtime.
	YModem
	// YModemG is streaming YModem.
	YModemG
)

var flavorNames = map[Flavor]string{
	XModem:        "Xmodem",
	XModemRelaxed: "Xmodem Relaxed",
	XModemCRC:     "Xmodem CRC",
	XModem1K:      "Xmodem-1K",
	XModem1KG:     "Xmodem-1K/G",
	YModem:        "Ymodem",
	YModemG:       "Ymodem/G",
}

func (f Flavor) String() string {
	name, ok := flavorNames[f]
	if !ok {
		return "unknown"
	}
	return name
}

// firstByte is what the receiver transmits to start (or restart) the
// handshake: NAK for checksum mode, 'C' for CRC, 'G' for streaming.
func (f Flavor) firstByte() byte {
	switch f {
	case XModem, XModemRelaxed:
		return bNAK
	case XModem1KG, YModemG:
		return bG
	default:
		return bC
	}
}

// crc reports whether blocks carry a CRC-16 instead of a checksum.
func (f Flavor) crc() bool {
	return f != XModem && f != XModemRelaxed
}

// streaming reports whether the flavor runs without per-block ACKs.
func (f Flavor) streaming() bool {
	return f == XModem1KG || f == YModemG
}

// batch reports whether the flavor transfers multiple files with
// metadata blocks.
func (f Flavor) batch() bool {
	return f == YModem || f == YModemG
}

// blockLen is the data length the sender uses for data blocks.
func (f Flavor) blockLen() int {
	switch f {
	case XModem1K, XModem1KG, YModem, YModemG:
		return longBlockLen
	default:
		return shortBlockLen
	}
}

// timeout is the inactivity window before a retry fires.
func (f Flavor) timeout() time.Duration {
	if f == XModemRelaxed {
		return 100 * time.Second
	}
	return 10 * time.Second
}
