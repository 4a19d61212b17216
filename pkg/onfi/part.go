package onfi

import (
	"fmt"
)

// Version is an ONFI revision bit as found in the revision field.
type Version uint16

// Supported revisions. Bit 0 is reserved and marks the field invalid.
const (
	VersionInvalid Version = 1 << 0
	Version10      Version = 1 << 1
	Version20      Version = 1 << 2
	Version21      Version = 1 << 3
	Version22      Version = 1 << 4
	Version23      Version = 1 << 5
	Version30      Version = 1 << 6
)

// supportedVersions is in priority order. The first mask present in the
// revision field wins.
var supportedVersions = []Version{
	Version30,
	Version23,
	Version22,
	Version21,
	Version20,
	Version10,
}

var versionNames = map[Version]string{
	Version10: "1.0",
	Version20: "2.0",
	Version21: "2.1",
	Version22: "2.2",
	Version23: "2.3",
	Version30: "3.0",
}

func (v Version) String() string {
	if s, ok := versionNames[v]; ok {
		return s
	}
	return fmt.Sprintf("Version(%#04x)", uint16(v))
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// resolveVersion picks the revision a part is driven as.
func resolveVersion(rev uint16) (Version, bool) {
	for _, v := range supportedVersions {
		if rev&uint16(v) != 0 {
			return v, true
		}
	}
	return 0, false
}

// DefectMark describes where factory bad block marks are found.
type DefectMark int

// Defect mark policies.
const (
	// DefectSpareL1Pg1OrNAll0: first byte of the spare area in the first or
	// last page of the block is 0x00.
	DefectSpareL1Pg1OrNAll0 DefectMark = iota
	// DefectSpareAnyPg1OrNAll0: any spare byte in the first or last page is 0x00.
	DefectSpareAnyPg1OrNAll0
	// DefectSpareB6W1Pg1Or2: byte 6 (8-bit bus) or word 1 (16-bit bus) of
	// the spare area in the first or second page.
	DefectSpareB6W1Pg1Or2
	// DefectSpareL1Pg1Or2: first spare byte in the first or second page.
	DefectSpareL1Pg1Or2
	// DefectPgL1OrNPg1Or2: first or last byte of the main area in the first
	// or second page.
	DefectPgL1OrNPg1Or2
)

var defectMarkNames = map[DefectMark]string{
	DefectSpareL1Pg1OrNAll0:  "spare byte 0 of first or last page is 0x00",
	DefectSpareAnyPg1OrNAll0: "any spare byte of first or last page is 0x00",
	DefectSpareB6W1Pg1Or2:    "spare byte 6/word 1 of first or second page",
	DefectSpareL1Pg1Or2:      "spare byte 0 of first or second page",
	DefectPgL1OrNPg1Or2:      "first or last main byte of first or second page",
}

func (d DefectMark) String() string {
	if s, ok := defectMarkNames[d]; ok {
		return s
	}
	return fmt.Sprintf("DefectMark(%d)", int(d))
}

// MarshalText implements encoding.TextMarshaler.
func (d DefectMark) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// PartDescriptor is the geometry and feature description of an attached
// part. It is only valid when discovery returned no error.
type PartDescriptor struct {
	Version             Version
	Manufacturer        string
	Model               string
	JEDECManufacturerID uint8

	BusWidth          int
	RandomPageProgram bool

	PageSize      uint16
	SpareSize     uint16
	PagesPerBlock uint16
	BlocksPerLUN  uint32

	NumberOfLUNs        uint8
	RowAddressCycles    uint8
	ColumnAddressCycles uint8
	BitsPerCell         uint8

	MaxBadBlocksPerLUN      uint16
	MaxEraseCount           uint32
	PartialPageProgramCount uint8

	ECCCorrectionBits uint8
	ECCCodewordSize   uint32

	DefectMark DefectMark

	// ParamPageCount is the number of base page copies the part stores.
	ParamPageCount int
	// ExtPageLength is the extended page length in bytes, 0 if absent.
	ExtPageLength int
}

// BlockSize returns the main area size of one block in bytes.
func (d *PartDescriptor) BlockSize() uint64 {
	return uint64(d.PageSize) * uint64(d.PagesPerBlock)
}

// LUNSize returns the main area size of one LUN in bytes.
func (d *PartDescriptor) LUNSize() uint64 {
	return d.BlockSize() * uint64(d.BlocksPerLUN)
}

func (d *PartDescriptor) String() string {
	return fmt.Sprintf("PartDescriptor{ONFI %v, %s %s, x%d, page %d+%d, %d pages/block, %d blocks/LUN, ECC %d bits/%d bytes}",
		d.Version, d.Manufacturer, d.Model, d.BusWidth, d.PageSize, d.SpareSize,
		d.PagesPerBlock, d.BlocksPerLUN, d.ECCCorrectionBits, d.ECCCodewordSize)
}
