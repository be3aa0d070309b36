package transfer

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// buildBlock0 assembles the YMODEM metadata payload: filename, NUL,
// decimal size, space, octal mtime, NUL, padded to the block length.  An
// empty FileInfo produces the batch-terminating null block.
func buildBlock0(info FileInfo, blockLen int) []byte {
	payload := make([]byte, blockLen)
	if info.Name == "" {
		return payload
	}

	meta := fmt.Sprintf("%s\x00%d %o\x00", info.Name, info.Size, info.ModTime.Unix())
	copy(payload, meta)
	return payload
}

// parseBlock0 extracts the file metadata from a YMODEM block 0 payload.
// A zero-value FileInfo (empty name) signals end of batch.
func parseBlock0(payload []byte) (FileInfo, error) {
	nameEnd := bytes.IndexByte(payload, 0)
	if nameEnd < 0 {
		return FileInfo{}, fmt.Errorf("block 0: missing filename terminator")
	}
	if nameEnd == 0 {
		return FileInfo{}, nil
	}

	info := FileInfo{Name: string(payload[:nameEnd])}

	rest := payload[nameEnd+1:]
	if restEnd := bytes.IndexByte(rest, 0); restEnd >= 0 {
		rest = rest[:restEnd]
	}

	fields := strings.Fields(string(rest))
	if len(fields) >= 1 {
		size, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return FileInfo{}, fmt.Errorf("block 0: bad size %q", fields[0])
		}
		info.Size = size
	}
	if len(fields) >= 2 {
		mtime, err := strconv.ParseInt(fields[1], 8, 64)
		if err != nil {
			return FileInfo{}, fmt.Errorf("block 0: bad mtime %q", fields[1])
		}
		info.ModTime = time.Unix(mtime, 0)
	}

	return info, nil
}
