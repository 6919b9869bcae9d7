package sacn

import "encoding/binary"

// DiscoveryPacket is a decoded or to-be-encoded E1.31 UNIVERSE_DISCOVERY PDU.
type DiscoveryPacket struct {
	CID        CID
	SourceName string
	Page       uint8
	LastPage   uint8
	Universes  []uint16
}

// NewDiscoveryPacket validates opts and returns a populated DiscoveryPacket.
// More than MaxUniversesPerDiscoveryPage universes is rejected with an
// InvalidArgumentError; use BuildDiscoveryPages to split a full universe
// list into pages.
func NewDiscoveryPacket(cid CID, sourceName string, page, lastPage uint8, universes []uint16) (*DiscoveryPacket, error) {
	if len(universes) > MaxUniversesPerDiscoveryPage {
		return nil, invalidArgument("universes per page", len(universes))
	}
	return &DiscoveryPacket{
		CID:        cid,
		SourceName: sourceName,
		Page:       page,
		LastPage:   lastPage,
		Universes:  universes,
	}, nil
}

// BuildDiscoveryPages splits a sorted universe list into
// ceil(len(universes)/512) UNIVERSE_DISCOVERY pages, splitting whenever the
// universe count exceeds a single page's capacity.
func BuildDiscoveryPages(cid CID, sourceName string, universes []uint16) []*DiscoveryPacket {
	if len(universes) == 0 {
		return nil
	}

	totalPages := (len(universes) + MaxUniversesPerDiscoveryPage - 1) / MaxUniversesPerDiscoveryPage
	pages := make([]*DiscoveryPacket, 0, totalPages)

	for page := 0; page < totalPages; page++ {
		start := page * MaxUniversesPerDiscoveryPage
		end := start + MaxUniversesPerDiscoveryPage
		if end > len(universes) {
			end = len(universes)
		}
		// Error is unreachable: the slice is bounded to MaxUniversesPerDiscoveryPage.
		p, _ := NewDiscoveryPacket(cid, sourceName, uint8(page), uint8(totalPages-1), universes[start:end])
		pages = append(pages, p)
	}

	return pages
}

// Encode serializes the UNIVERSE_DISCOVERY PDU to its bit-exact
// 120+2*len(Universes)-byte wire form.
func (p *DiscoveryPacket) Encode() []byte {
	universeCount := len(p.Universes)
	if universeCount > MaxUniversesPerDiscoveryPage {
		universeCount = MaxUniversesPerDiscoveryPage
	}
	totalLen := discoveryPDUMinLen + universeCount*2
	buf := make([]byte, totalLen)

	putRootLayer(buf, totalLen, VectorRootExtended, p.CID)

	framingLen := totalLen - 38
	binary.BigEndian.PutUint16(buf[38:40], flagsAndLength(framingLen))
	binary.BigEndian.PutUint32(buf[40:44], VectorFramingDisc)
	padName(buf[44:108], p.SourceName)
	binary.BigEndian.PutUint32(buf[108:112], 0) // reserved

	udlLen := totalLen - 112
	binary.BigEndian.PutUint16(buf[112:114], flagsAndLength(udlLen))
	binary.BigEndian.PutUint32(buf[114:118], VectorUniverseDisc)
	buf[118] = p.Page
	buf[119] = p.LastPage
	for i := 0; i < universeCount; i++ {
		binary.BigEndian.PutUint16(buf[120+i*2:122+i*2], p.Universes[i])
	}

	return buf
}

// DecodeDiscoveryPacket decodes a UNIVERSE_DISCOVERY PDU.
func DecodeDiscoveryPacket(data []byte) (*DiscoveryPacket, error) {
	if len(data) < discoveryPDUMinLen {
		return nil, malformedPacket("UNIVERSE_DISCOVERY PDU shorter than 120 bytes")
	}

	rootVector, cid, err := decodeRootLayer(data)
	if err != nil {
		return nil, err
	}
	if rootVector != VectorRootExtended {
		return nil, malformedPacket("root vector is not VECTOR_ROOT_E131_EXTENDED")
	}

	framingVector := binary.BigEndian.Uint32(data[40:44])
	if framingVector != VectorFramingDisc {
		return nil, malformedPacket("framing vector is not VECTOR_E131_EXTENDED_DISCOVERY")
	}

	udlVector := binary.BigEndian.Uint32(data[114:118])
	if udlVector != VectorUniverseDisc {
		return nil, malformedPacket("universe discovery list vector mismatch")
	}

	remaining := len(data) - discoveryPDUMinLen
	n := remaining / 2
	universes := make([]uint16, n)
	for i := 0; i < n; i++ {
		off := discoveryPDUMinLen + i*2
		universes[i] = binary.BigEndian.Uint16(data[off : off+2])
	}

	return &DiscoveryPacket{
		CID:        cid,
		SourceName: readName(data[44:108]),
		Page:       data[118],
		LastPage:   data[119],
		Universes:  universes,
	}, nil
}
