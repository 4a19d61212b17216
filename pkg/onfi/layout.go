package onfi

import (
	"encoding/binary"
	"fmt"
)

// Parameter page geometry.
const (
	// ParamPageLen is the size of one copy of the parameter page.
	ParamPageLen = 256
	// ParamPageCRCLen is the number of leading bytes covered by the page CRC.
	ParamPageCRCLen = 254
	// DefaultParamPageCount is assumed for devices older than ONFI 2.1,
	// which do not report how many redundant copies they store.
	DefaultParamPageCount = 3
	// ExtSectionUnit is the granularity of extended page and section lengths.
	ExtSectionUnit = 16
	// ECCCodewordSize is the only codeword size described by the base page.
	ECCCodewordSize = 528
	// ECCDeferred in the correctability byte means the ECC requirements live
	// in the extended parameter page.
	ECCDeferred = 0xFF
)

// Extended parameter page geometry.
const (
	extSigOffset       = 2
	extSectionTypeBase = 16
	extSectionTypeLast = 30
	extSectionDataBase = 32
	extInlineSections  = (extSectionTypeLast-extSectionTypeBase)/2 + 1
	// ExtHeaderLen is the fixed part of the extended parameter page.
	ExtHeaderLen = extSectionDataBase
)

// Signatures. A copy is accepted when at least sigMinMatch bytes match.
var (
	ParamPageSignature = [4]byte{'O', 'N', 'F', 'I'}
	ExtPageSignature   = [4]byte{'E', 'P', 'P', 'S'}
)

const sigMinMatch = 2

// Field locates a little-endian integer or byte string inside a page.
type Field struct {
	Name   string
	Offset int
	Width  int
}

// Base parameter page layout.
var (
	FieldSignature       = Field{"signature", 0, 4}
	FieldRevision        = Field{"revision", 4, 2}
	FieldFeatures        = Field{"features", 6, 2}
	FieldOptCommands     = Field{"optional commands", 8, 2}
	FieldExtPageLen      = Field{"extended page length", 12, 2}
	FieldParamPageCount  = Field{"parameter page count", 14, 1}
	FieldManufacturer    = Field{"manufacturer", 32, 12}
	FieldModel           = Field{"model", 44, 20}
	FieldJEDECID         = Field{"JEDEC manufacturer ID", 64, 1}
	FieldPageSize        = Field{"page size", 80, 4}
	FieldSpareSize       = Field{"spare size", 84, 2}
	FieldPagesPerBlock   = Field{"pages per block", 92, 4}
	FieldBlocksPerLUN    = Field{"blocks per LUN", 96, 4}
	FieldNumberOfLUNs    = Field{"number of LUNs", 100, 1}
	FieldAddressCycles   = Field{"address cycles", 101, 1}
	FieldBitsPerCell     = Field{"bits per cell", 102, 1}
	FieldMaxBadBlocks    = Field{"max bad blocks per LUN", 103, 2}
	FieldEraseValue      = Field{"block endurance value", 105, 1}
	FieldEraseMultiplier = Field{"block endurance multiplier", 106, 1}
	FieldPartialProgram  = Field{"partial programs per page", 110, 1}
	FieldECCBits         = Field{"ECC correctability", 112, 1}
	FieldCRC             = Field{"integrity CRC", 254, 2}
)

// Extended parameter page layout.
var (
	FieldExtCRC       = Field{"extended integrity CRC", 0, 2}
	FieldExtSignature = Field{"extended signature", extSigOffset, 4}
)

// Feature bits in FieldFeatures.
const (
	Feature16BitBus          = 1 << 0
	FeatureRandomPageProgram = 1 << 2
	FeatureExtParamPage      = 1 << 7
)

// End returns the offset just past the field.
func (f Field) End() int {
	return f.Offset + f.Width
}

// Bytes returns the raw bytes of the field.
func (f Field) Bytes(buf []byte) []byte {
	return buf[f.Offset:f.End()]
}

// Uint decodes the field as a little-endian unsigned integer of up to 4 bytes.
func (f Field) Uint(buf []byte) uint32 {
	b := f.Bytes(buf)
	switch f.Width {
	case 1:
		return uint32(b[0])
	case 2:
		return uint32(binary.LittleEndian.Uint16(b))
	case 4:
		return binary.LittleEndian.Uint32(b)
	}
	panic(fmt.Sprintf("onfi: field %s has width %d, not an integer", f.Name, f.Width))
}

// PutUint encodes v into the field.
func (f Field) PutUint(buf []byte, v uint32) {
	b := f.Bytes(buf)
	switch f.Width {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, v)
	default:
		panic(fmt.Sprintf("onfi: field %s has width %d, not an integer", f.Name, f.Width))
	}
}

// sigMatches counts the bytes of sig found at offset in buf.
func sigMatches(buf []byte, offset int, sig [4]byte) int {
	n := 0
	for i, c := range sig {
		if buf[offset+i] == c {
			n++
		}
	}
	return n
}
