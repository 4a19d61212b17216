package onfi

import (
	"encoding/binary"
	"fmt"

	"github.com/go-restruct/restruct"
	"github.com/sigurn/crc16"

	"github.com/tinytoy-sec/onfiprobe/pkg/unicode"
)

// ImageSpec describes a synthetic parameter page address space, used to
// produce fixtures and to emulate parts.
type ImageSpec struct {
	// Revision is the raw revision field; several bits may be set.
	Revision uint16
	Features uint16

	Manufacturer string
	Model        string
	JEDECID      uint8

	PageSize      uint32
	SpareSize     uint16
	PagesPerBlock uint32
	BlocksPerLUN  uint32
	NumberOfLUNs  uint8
	// AddressCycles holds row cycles in the low nibble, column cycles in
	// the high nibble.
	AddressCycles uint8
	BitsPerCell   uint8

	MaxBadBlocks    uint16
	EraseValue      uint8
	EraseMultiplier uint8
	PartialPrograms uint8
	ECCBits         uint8

	// ParamPageCount is written to the page (ONFI 2.1 and later) and
	// decides where the extended page starts. Defaults to Copies.
	ParamPageCount uint8
	// Copies is the number of redundant base pages written. Defaults to 3.
	Copies int

	// Ext, if set, adds an extended parameter page and sets its feature bit.
	Ext *ExtImageSpec
}

// ExtImageSpec describes a synthetic extended parameter page.
type ExtImageSpec struct {
	// Sections fills the inline descriptor slots in order.
	Sections []SectionSpec
	// Payload is placed right after the 32 byte header.
	Payload []byte
	// Length is the page length in bytes, rounded up to 16. Defaults to the
	// smallest length holding the header and payload.
	Length int
	// Copies defaults to 3.
	Copies int
}

// SectionSpec is one inline section descriptor.
type SectionSpec struct {
	Type SectionType
	// Length in bytes, must be a multiple of 16.
	Length int
}

// DefaultImageSpec describes a plain 8-bit ONFI 2.0 SLC part without an
// extended page.
func DefaultImageSpec() ImageSpec {
	return ImageSpec{
		Revision:        uint16(Version20 | Version10),
		Features:        FeatureRandomPageProgram,
		Manufacturer:    "ONFIPROBE",
		Model:           "SYNTH-NAND-4G",
		JEDECID:         0x2c,
		PageSize:        2048,
		SpareSize:       64,
		PagesPerBlock:   64,
		BlocksPerLUN:    4096,
		NumberOfLUNs:    1,
		AddressCycles:   0x23,
		BitsPerCell:     1,
		MaxBadBlocks:    80,
		EraseValue:      1,
		EraseMultiplier: 5,
		PartialPrograms: 4,
		ECCBits:         4,
	}
}

func (s *ImageSpec) copies() int {
	if s.Copies > 0 {
		return s.Copies
	}
	return DefaultParamPageCount
}

func (s *ImageSpec) paramPageCount() int {
	if s.ParamPageCount > 0 {
		return int(s.ParamPageCount)
	}
	return s.copies()
}

// ParamPage encodes one copy of the base parameter page with a valid CRC.
func (s ImageSpec) ParamPage() []byte {
	buf := make([]byte, ParamPageLen)
	copy(FieldSignature.Bytes(buf), ParamPageSignature[:])
	FieldRevision.PutUint(buf, uint32(s.Revision))
	features := s.Features
	if s.Ext != nil {
		features |= FeatureExtParamPage
		FieldExtPageLen.PutUint(buf, uint32(s.Ext.length()/ExtSectionUnit))
	}
	FieldFeatures.PutUint(buf, uint32(features))
	FieldParamPageCount.PutUint(buf, uint32(s.paramPageCount()))
	copy(FieldManufacturer.Bytes(buf), unicode.UTF8ToONFI(s.Manufacturer, FieldManufacturer.Width))
	copy(FieldModel.Bytes(buf), unicode.UTF8ToONFI(s.Model, FieldModel.Width))
	FieldJEDECID.PutUint(buf, uint32(s.JEDECID))
	FieldPageSize.PutUint(buf, s.PageSize)
	FieldSpareSize.PutUint(buf, uint32(s.SpareSize))
	FieldPagesPerBlock.PutUint(buf, s.PagesPerBlock)
	FieldBlocksPerLUN.PutUint(buf, s.BlocksPerLUN)
	FieldNumberOfLUNs.PutUint(buf, uint32(s.NumberOfLUNs))
	FieldAddressCycles.PutUint(buf, uint32(s.AddressCycles))
	FieldBitsPerCell.PutUint(buf, uint32(s.BitsPerCell))
	FieldMaxBadBlocks.PutUint(buf, uint32(s.MaxBadBlocks))
	FieldEraseValue.PutUint(buf, uint32(s.EraseValue))
	FieldEraseMultiplier.PutUint(buf, uint32(s.EraseMultiplier))
	FieldPartialProgram.PutUint(buf, uint32(s.PartialPrograms))
	FieldECCBits.PutUint(buf, uint32(s.ECCBits))
	SealParamPage(buf)
	return buf
}

// SealParamPage recomputes the CRC trailer of a base page.
func SealParamPage(buf []byte) {
	FieldCRC.PutUint(buf, uint32(crc16.Checksum(buf[:ParamPageCRCLen], onfiCRC)))
}

// SealExtPage recomputes the CRC of an extended page.
func SealExtPage(buf []byte) {
	FieldExtCRC.PutUint(buf, uint32(crc16.Checksum(buf[FieldExtCRC.End():], onfiCRC)))
}

func (e *ExtImageSpec) length() int {
	n := e.Length
	if n == 0 {
		n = ExtHeaderLen + len(e.Payload)
	}
	return (n + ExtSectionUnit - 1) / ExtSectionUnit * ExtSectionUnit
}

func (e *ExtImageSpec) copies() int {
	if e.Copies > 0 {
		return e.Copies
	}
	return 3
}

// Page encodes one copy of the extended page with a valid CRC.
func (e *ExtImageSpec) Page() ([]byte, error) {
	if len(e.Sections) > extInlineSections {
		return nil, fmt.Errorf("%d sections, only %d inline slots", len(e.Sections), extInlineSections)
	}
	hdr := extHeader{Signature: ExtPageSignature}
	for i, sec := range e.Sections {
		if sec.Length%ExtSectionUnit != 0 || sec.Length/ExtSectionUnit > 0xff {
			return nil, fmt.Errorf("section %d: length %d not encodable", i, sec.Length)
		}
		hdr.Sections[i] = sectionDescriptor{Type: uint8(sec.Type), Length: uint8(sec.Length / ExtSectionUnit)}
	}
	head, err := restruct.Pack(binary.LittleEndian, &hdr)
	if err != nil {
		return nil, err
	}
	n := e.length()
	if len(head)+len(e.Payload) > n {
		return nil, fmt.Errorf("header and payload need %d bytes, page is %d", len(head)+len(e.Payload), n)
	}
	buf := make([]byte, n)
	copy(buf, head)
	copy(buf[len(head):], e.Payload)
	SealExtPage(buf)
	return buf, nil
}

// BuildImage lays out the redundant base pages followed by the redundant
// extended pages, as a part presents them in its parameter page address
// space.
func BuildImage(s ImageSpec) ([]byte, error) {
	pp := s.ParamPage()
	var img []byte
	for i := 0; i < s.copies(); i++ {
		img = append(img, pp...)
	}
	if s.Ext == nil {
		return img, nil
	}

	ep, err := s.Ext.Page()
	if err != nil {
		return nil, err
	}
	start := s.paramPageCount() * ParamPageLen
	if len(img) < start {
		img = append(img, make([]byte, start-len(img))...)
	}
	img = img[:start]
	for i := 0; i < s.Ext.copies(); i++ {
		img = append(img, ep...)
	}
	return img, nil
}
