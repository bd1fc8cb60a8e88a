package spi

// CycleOpcode is the FCYCLE subfield of HSFSTS_CTL: the kind of flash cycle
// a command drives. The core only ever drives Read, Write, and BlockErase
// directly; the rest are part of the documented register surface.
type CycleOpcode uint8

const (
	CycleRead CycleOpcode = iota
	cycleRsvd1
	CycleWrite
	CycleBlockErase
	CycleSectorErase
	CycleReadSfdp
	CycleReadJedec
	CycleReadStatus
	CycleWriteStatus
	CycleRpmcOp1
	CycleRpmcOp2
	CycleRsvd
)

func (c CycleOpcode) String() string {
	switch c {
	case CycleRead:
		return "Read"
	case CycleWrite:
		return "Write"
	case CycleBlockErase:
		return "BlockErase"
	case CycleSectorErase:
		return "SectorErase"
	case CycleReadSfdp:
		return "ReadSfdp"
	case CycleReadJedec:
		return "ReadJedec"
	case CycleReadStatus:
		return "ReadStatus"
	case CycleWriteStatus:
		return "WriteStatus"
	case CycleRpmcOp1:
		return "RpmcOp1"
	case CycleRpmcOp2:
		return "RpmcOp2"
	default:
		return "Rsvd"
	}
}

// FdoSection tags which Flash Descriptor section an FDO indirect read
// targets. It occupies bits 14:12 of FDOC; the index occupies bits 11:2.
type FdoSection uint8

const (
	FdoMap FdoSection = iota
	FdoComponent
	FdoRegion
	FdoMaster
)

func (s FdoSection) String() string {
	switch s {
	case FdoMap:
		return "Map"
	case FdoComponent:
		return "Component"
	case FdoRegion:
		return "Region"
	case FdoMaster:
		return "Master"
	default:
		return "FdoSection(?)"
	}
}

// fdoc composes the FDOC control word: section<<12 | (index&0x3FF)<<2.
func fdoc(section FdoSection, index uint16) uint32 {
	return uint32(section)<<12 | (uint32(index)&0x3FF)<<2
}
