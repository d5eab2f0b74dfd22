package record

import "hash/crc32"

// CalculateCRC computes the CRC32 checksum of the fixed fields followed by the variable payload, using the IEEE polynomial.
func CalculateCRC(fields, payload []byte) uint32 {
	crc := crc32.ChecksumIEEE(fields)
	return crc32.Update(crc, crc32.IEEETable, payload)
}

// ValidateCRC returns true if the provided checksum matches the computed CRC32 of fields and payload
func ValidateCRC(fields, payload []byte, checksum uint32) bool {
	expectedChecksum := CalculateCRC(fields, payload)
	return expectedChecksum == checksum
}
