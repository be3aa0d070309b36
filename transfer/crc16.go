package transfer

// crc16Table is the lookup table for CRC-16/XMODEM: polynomial 0x1021,
// initial value 0, non-reflected, no final XOR.
var crc16Table = buildCRC16Table()

func buildCRC16Table() [256]uint16 {
	var table [256]uint16
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
	return table
}

// CRC16 computes the CRC-16/XMODEM of data.
func CRC16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc = crc<<8 ^ crc16Table[byte(crc>>8)^b]
	}
	return crc
}

// checksum8 computes the modulo-256 sum used by the checksum flavors.
func checksum8(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}
