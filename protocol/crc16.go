package protocol

// CRC16 is the CRC-16/MCRF4XX variant (poly 0x1021 reflected, init 0xFFFF)
// computed over the header and payload of every frame
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, d := range data {
		d ^= byte(crc)
		d ^= d << 4
		w := uint16(d)
		crc = (w<<8 | crc>>8) ^ w>>4 ^ w<<3
	}
	return crc
}
