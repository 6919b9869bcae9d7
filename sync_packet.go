package sacn

import "encoding/binary"

// SyncPacket is a decoded or to-be-encoded E1.31 SYNCHRONIZATION PDU
// (49 bytes on the wire).
type SyncPacket struct {
	CID          CID
	Sequence     uint8
	SyncUniverse uint16
}

// NewSyncPacket validates syncUniverse and returns a populated SyncPacket.
func NewSyncPacket(cid CID, sequence uint8, syncUniverse uint16) (*SyncPacket, error) {
	if err := checkSyncUniverse(int(syncUniverse)); err != nil {
		return nil, err
	}
	return &SyncPacket{CID: cid, Sequence: sequence, SyncUniverse: syncUniverse}, nil
}

// Encode serializes the SYNC PDU to its bit-exact 49-byte wire form.
func (p *SyncPacket) Encode() []byte {
	buf := make([]byte, syncPDULen)

	putRootLayer(buf, syncPDULen, VectorRootExtended, p.CID)

	framingLen := syncPDULen - 38
	binary.BigEndian.PutUint16(buf[38:40], flagsAndLength(framingLen))
	binary.BigEndian.PutUint32(buf[40:44], VectorFramingSync)
	buf[44] = p.Sequence
	binary.BigEndian.PutUint16(buf[45:47], p.SyncUniverse)
	// buf[47:49] reserved, already zero

	return buf
}

// DecodeSyncPacket decodes a SYNC PDU.
func DecodeSyncPacket(data []byte) (*SyncPacket, error) {
	if len(data) < syncPDULen {
		return nil, malformedPacket("SYNC PDU shorter than 49 bytes")
	}

	rootVector, cid, err := decodeRootLayer(data)
	if err != nil {
		return nil, err
	}
	if rootVector != VectorRootExtended {
		return nil, malformedPacket("root vector is not VECTOR_ROOT_E131_EXTENDED")
	}

	framingVector := binary.BigEndian.Uint32(data[40:44])
	if framingVector != VectorFramingSync {
		return nil, malformedPacket("framing vector is not VECTOR_E131_EXTENDED_SYNCHRONIZATION")
	}

	return &SyncPacket{
		CID:          cid,
		Sequence:     data[44],
		SyncUniverse: binary.BigEndian.Uint16(data[45:47]),
	}, nil
}
