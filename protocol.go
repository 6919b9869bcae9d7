package sacn

import "encoding/binary"

// Wire-level constants from ANSI E1.31-2016, named with the VectorXxx
// convention used throughout this package.
const (
	rootPreambleSize  = 0x0010
	rootPostambleSize = 0x0000

	VectorRootData      = 0x00000004 // E131_DATA_PACKET root vector
	VectorRootExtended  = 0x00000008 // shared by SYNC and DISCOVERY
	VectorFramingData   = 0x00000002 // VECTOR_E131_DATA_PACKET (framing)
	VectorFramingSync   = 0x00000001 // VECTOR_E131_EXTENDED_SYNCHRONIZATION
	VectorFramingDisc   = 0x00000002 // VECTOR_E131_EXTENDED_DISCOVERY
	VectorDMPSetProp    = 0x02
	VectorUniverseDisc  = 0x00000001 // VECTOR_UNIVERSE_DISCOVERY_UNIVERSE_LIST

	dmpAddrTypeAndDataType = 0xa1

	sourceNameLen = 64
	dmxSlotCount  = 512

	// MaxUniversesPerDiscoveryPage is the wire limit on universe numbers a
	// single UNIVERSE_DISCOVERY page can carry.
	MaxUniversesPerDiscoveryPage = 512

	dataPDUMinLen      = 126
	syncPDULen         = 49
	discoveryPDUMinLen = 120
)

// acnPacketIdentifier is the 12-byte "ASC-E1.17\0\0\0" ACN packet identifier.
var acnPacketIdentifier = [12]byte{
	0x41, 0x53, 0x43, 0x2d, 0x45, 0x31, 0x2e, 0x31, 0x37, 0x00, 0x00, 0x00,
}

// putRootLayer writes the 22-byte root layer (preamble + flags&length +
// vector) at buf[0:22] and the CID at buf[22:38]. totalLen is the full PDU
// length.
func putRootLayer(buf []byte, totalLen int, rootVector uint32, cid CID) {
	binary.BigEndian.PutUint16(buf[0:2], rootPreambleSize)
	binary.BigEndian.PutUint16(buf[2:4], rootPostambleSize)
	copy(buf[4:16], acnPacketIdentifier[:])
	binary.BigEndian.PutUint16(buf[16:18], flagsAndLength(totalLen-16))
	binary.BigEndian.PutUint32(buf[18:22], rootVector)
	copy(buf[22:38], cid[:])
}

// flagsAndLength packs the upper nibble (always 0x7) with a 12-bit length.
func flagsAndLength(n int) uint16 {
	return 0x7000 | (uint16(n) & 0x0fff)
}

func pduLength(flagsLen uint16) int {
	return int(flagsLen & 0x0fff)
}

func decodeRootLayer(data []byte) (rootVector uint32, cid CID, err error) {
	if len(data) < 38 {
		return 0, cid, malformedPacket("buffer shorter than root layer")
	}
	if data[4] != acnPacketIdentifier[0] || data[5] != acnPacketIdentifier[1] || data[6] != acnPacketIdentifier[2] {
		return 0, cid, malformedPacket("ACN packet identifier mismatch")
	}
	declared := pduLength(binary.BigEndian.Uint16(data[16:18])) + 16
	if declared > len(data) {
		return 0, cid, malformedPacket("declared root layer length exceeds buffer")
	}
	rootVector = binary.BigEndian.Uint32(data[18:22])
	if rootVector != VectorRootData && rootVector != VectorRootExtended {
		return 0, cid, malformedPacket("root vector mismatch")
	}
	copy(cid[:], data[22:38])
	return rootVector, cid, nil
}

// padName writes s into a fixed-width, null-padded field, truncating if
// necessary.
func padName(buf []byte, s string) {
	n := copy(buf, s)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
}

func readName(buf []byte) string {
	i := 0
	for i < len(buf) && buf[i] != 0 {
		i++
	}
	return string(buf[:i])
}

// normalizeDMX pads or truncates data to exactly dmxSlotCount bytes,
// normalized to exactly 512 bytes on storage.
func normalizeDMX(data []byte) [dmxSlotCount]byte {
	var out [dmxSlotCount]byte
	n := copy(out[:], data)
	_ = n
	return out
}

// PacketKind distinguishes the three decodable PDU variants.
type PacketKind int

const (
	KindData PacketKind = iota
	KindSync
	KindDiscovery
)

// Decode inspects the root and framing vectors of a received datagram and
// returns its PacketKind alongside the decoded variant (*DataPacket,
// *SyncPacket, or *DiscoveryPacket). It never panics on truncated or
// garbage input; malformed buffers yield a *MalformedPacketError. Used by
// the passive capture path (cmd/sacn-sniff), which has no a priori
// expectation of which PDU type a given datagram carries.
func Decode(data []byte) (PacketKind, any, error) {
	rootVector, _, err := decodeRootLayer(data)
	if err != nil {
		return 0, nil, err
	}

	switch rootVector {
	case VectorRootData:
		pkt, err := DecodeDataPacket(data)
		return KindData, pkt, err
	case VectorRootExtended:
		if len(data) < 44 {
			return 0, nil, malformedPacket("buffer shorter than framing vector")
		}
		framingVector := binary.BigEndian.Uint32(data[40:44])
		switch framingVector {
		case VectorFramingSync:
			pkt, err := DecodeSyncPacket(data)
			return KindSync, pkt, err
		case VectorFramingDisc:
			pkt, err := DecodeDiscoveryPacket(data)
			return KindDiscovery, pkt, err
		default:
			return 0, nil, malformedPacket("framing vector mismatch")
		}
	default:
		return 0, nil, malformedPacket("root vector mismatch")
	}
}
