package protocol

// remapAddress folds the flash mirror window at 0x00800000 back down
// to 0x00000000. Addresses below the mirror threshold are returned
// unchanged.
func remapAddress(addr uint32) uint32 {
	if addr >= mirrorThreshold {
		return addr - mirrorThreshold
	}
	return addr
}
