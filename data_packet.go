package sacn

import "encoding/binary"

// Options flags, a single byte in the DATA PDU's framing layer.
const (
	optionForceSync       = 1 << 5
	optionStreamTerminated = 1 << 6
	optionPreviewData      = 1 << 7
)

// StartCode identifies the DMX start code carried in the first wire byte of
// the DMP layer's property values.
type StartCode byte

const (
	// StartCodeNull (0x00) marks ordinary DMX level data.
	StartCodeNull StartCode = 0x00
	// StartCodePerAddressPriority (0xDD) marks per-slot priority data. See
	// Optional; gated by a feature flag since most deployments don't use it.
	StartCodePerAddressPriority StartCode = 0xdd
)

// DataPacket is a decoded or to-be-encoded E1.31 DATA PDU.
type DataPacket struct {
	CID        CID
	SourceName string
	Priority   uint8
	SyncUniverse uint16
	Sequence   uint8
	Universe   uint16
	Data       [dmxSlotCount]byte
	StartCode  StartCode

	PreviewData      bool
	StreamTerminated bool
	ForceSync        bool
}

// DataPacketOptions is the constructor's validated input. Zero-value
// StartCode means StartCodeNull; zero-value Data is 512 zero bytes.
type DataPacketOptions struct {
	CID          CID
	SourceName   string
	Priority     uint8
	SyncUniverse uint16
	Sequence     uint8
	Universe     uint16
	Data         []byte
	StartCode    StartCode

	PreviewData      bool
	StreamTerminated bool
	ForceSync        bool
}

// NewDataPacket validates opts and returns a populated DataPacket. DMX
// data is normalized to exactly 512 bytes.
func NewDataPacket(opts DataPacketOptions) (*DataPacket, error) {
	if err := CheckUniverse(int(opts.Universe)); err != nil {
		return nil, err
	}
	if err := checkSyncUniverse(int(opts.SyncUniverse)); err != nil {
		return nil, err
	}
	if err := CheckPriority(int(opts.Priority)); err != nil {
		return nil, err
	}

	p := &DataPacket{
		CID:              opts.CID,
		SourceName:       opts.SourceName,
		Priority:         opts.Priority,
		SyncUniverse:     opts.SyncUniverse,
		Sequence:         opts.Sequence,
		Universe:         opts.Universe,
		Data:             normalizeDMX(opts.Data),
		StartCode:        opts.StartCode,
		PreviewData:      opts.PreviewData,
		StreamTerminated: opts.StreamTerminated,
		ForceSync:        opts.ForceSync,
	}
	return p, nil
}

// SetData normalizes data to exactly 512 bytes (right-padded with zeros, or
// truncated).
func (p *DataPacket) SetData(data []byte) {
	p.Data = normalizeDMX(data)
}

// IncrementSequence wraps 255 -> 0.
func (p *DataPacket) IncrementSequence() {
	p.Sequence++
}

func (p *DataPacket) options() byte {
	var b byte
	if p.PreviewData {
		b |= optionPreviewData
	}
	if p.StreamTerminated {
		b |= optionStreamTerminated
	}
	if p.ForceSync {
		b |= optionForceSync
	}
	return b
}

// Encode serializes the DATA PDU to its bit-exact wire form (638 bytes when
// carrying all 512 slots\).
func (p *DataPacket) Encode() []byte {
	totalLen := dataPDUMinLen + dmxSlotCount
	buf := make([]byte, totalLen)

	putRootLayer(buf, totalLen, VectorRootData, p.CID)

	framingLen := totalLen - 38
	binary.BigEndian.PutUint16(buf[38:40], flagsAndLength(framingLen))
	binary.BigEndian.PutUint32(buf[40:44], VectorFramingData)
	padName(buf[44:108], p.SourceName)
	buf[108] = p.Priority
	binary.BigEndian.PutUint16(buf[109:111], p.SyncUniverse)
	buf[111] = p.Sequence
	buf[112] = p.options()
	binary.BigEndian.PutUint16(buf[113:115], p.Universe)

	dmpLen := totalLen - 115
	binary.BigEndian.PutUint16(buf[115:117], flagsAndLength(dmpLen))
	buf[117] = VectorDMPSetProp
	buf[118] = dmpAddrTypeAndDataType
	binary.BigEndian.PutUint16(buf[119:121], 0) // first property address
	binary.BigEndian.PutUint16(buf[121:123], 1) // address increment
	binary.BigEndian.PutUint16(buf[123:125], uint16(dmxSlotCount+1))
	buf[125] = byte(p.StartCode)
	copy(buf[126:], p.Data[:])

	return buf
}

// DecodeDataPacket decodes a DATA PDU, validating the root, framing and DMP
// vectors. Of the length fields, only the root layer's declared length and
// the DMP property value count are checked against the buffer; the framing
// and DMP flags&length fields are not checked.
func DecodeDataPacket(data []byte) (*DataPacket, error) {
	if len(data) < dataPDUMinLen {
		return nil, malformedPacket("DATA PDU shorter than 126 bytes")
	}

	rootVector, cid, err := decodeRootLayer(data)
	if err != nil {
		return nil, err
	}
	if rootVector != VectorRootData {
		return nil, malformedPacket("root vector is not VECTOR_ROOT_E131_DATA")
	}

	framingVector := binary.BigEndian.Uint32(data[40:44])
	if framingVector != VectorFramingData {
		return nil, malformedPacket("framing vector is not VECTOR_E131_DATA_PACKET")
	}

	if data[117] != VectorDMPSetProp {
		return nil, malformedPacket("DMP vector is not VECTOR_DMP_SET_PROPERTY")
	}

	propCount := binary.BigEndian.Uint16(data[123:125])
	if propCount < 1 {
		return nil, malformedPacket("DMP property value count is zero")
	}
	dmxLen := int(propCount) - 1
	if dmxLen > dmxSlotCount {
		dmxLen = dmxSlotCount
	}
	if len(data) < 126+dmxLen {
		return nil, malformedPacket("buffer shorter than declared DMP payload")
	}

	options := data[112]
	p := &DataPacket{
		CID:              cid,
		SourceName:       readName(data[44:108]),
		Priority:         data[108],
		SyncUniverse:     binary.BigEndian.Uint16(data[109:111]),
		Sequence:         data[111],
		Universe:         binary.BigEndian.Uint16(data[113:115]),
		StartCode:        StartCode(data[125]),
		PreviewData:      options&optionPreviewData != 0,
		StreamTerminated: options&optionStreamTerminated != 0,
		ForceSync:        options&optionForceSync != 0,
	}
	copy(p.Data[:], data[126:126+dmxLen])

	return p, nil
}
