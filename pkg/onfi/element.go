package onfi

import (
	"encoding/json"
	"fmt"
)

// Visitor walks a discovered Part.
type Visitor interface {
	Run(Element) error
	Visit(Element) error
}

// Element is a node of a discovered Part.
type Element interface {
	// Buf returns the raw bytes backing the element.
	Buf() []byte
	// Apply calls the visitor on the element.
	Apply(v Visitor) error
	// ApplyChildren calls the visitor on each child of the element.
	ApplyChildren(v Visitor) error
}

// Part is the result of discovery: the descriptor plus the validated raw
// pages it was decoded from.
type Part struct {
	Descriptor *PartDescriptor
	ParamPage  *ParameterPage
	ExtPage    *ExtendedPage `json:",omitempty"`

	// Metadata for extraction
	ExtractPath string `json:",omitempty"`
}

// Buf returns the validated base parameter page.
func (p *Part) Buf() []byte {
	if p.ParamPage == nil {
		return nil
	}
	return p.ParamPage.Buf()
}

// Apply calls the visitor on the Part.
func (p *Part) Apply(v Visitor) error {
	return v.Visit(p)
}

// ApplyChildren calls the visitor on the parameter pages.
func (p *Part) ApplyChildren(v Visitor) error {
	if p.ParamPage != nil {
		if err := p.ParamPage.Apply(v); err != nil {
			return err
		}
	}
	if p.ExtPage != nil {
		if err := p.ExtPage.Apply(v); err != nil {
			return err
		}
	}
	return nil
}

func (p *Part) String() string {
	return fmt.Sprintf("Part{%v, ext=%t}", p.Descriptor, p.ExtPage != nil)
}

// ParameterPage is the copy of the base parameter page that validated.
type ParameterPage struct {
	// Copy is the index of the redundant copy that was accepted.
	Copy int
	// Offset is where the copy starts in the parameter page address space.
	Offset uint32
	CRC    uint16
	// SignatureMatches is the number of signature bytes found intact.
	SignatureMatches int

	buf         []byte
	ExtractPath string `json:",omitempty"`
}

// Buf returns the page bytes.
func (pp *ParameterPage) Buf() []byte {
	return pp.buf
}

// SetBuf sets the page bytes.
func (pp *ParameterPage) SetBuf(buf []byte) {
	pp.buf = buf
}

// Apply calls the visitor on the ParameterPage.
func (pp *ParameterPage) Apply(v Visitor) error {
	return v.Visit(pp)
}

// ApplyChildren is a no-op, the base page has no children.
func (pp *ParameterPage) ApplyChildren(v Visitor) error {
	return nil
}

// ExtendedPage is the copy of the extended parameter page that validated.
type ExtendedPage struct {
	Copy             int
	Offset           uint32
	Length           int
	CRC              uint16
	SignatureMatches int
	Sections         []*Section `json:",omitempty"`

	buf         []byte
	ExtractPath string `json:",omitempty"`
}

// Buf returns the page bytes.
func (ep *ExtendedPage) Buf() []byte {
	return ep.buf
}

// SetBuf sets the page bytes.
func (ep *ExtendedPage) SetBuf(buf []byte) {
	ep.buf = buf
}

// Apply calls the visitor on the ExtendedPage.
func (ep *ExtendedPage) Apply(v Visitor) error {
	return v.Visit(ep)
}

// ApplyChildren calls the visitor on each section.
func (ep *ExtendedPage) ApplyChildren(v Visitor) error {
	for _, s := range ep.Sections {
		if err := s.Apply(v); err != nil {
			return err
		}
	}
	return nil
}

// SectionType tags an extended parameter page section.
type SectionType uint8

// Section types understood by the parser. Anything else is malformed.
const (
	SectionUnused    SectionType = 0
	SectionSpecifier SectionType = 1
	SectionECCInfo   SectionType = 2
)

func (t SectionType) String() string {
	switch t {
	case SectionUnused:
		return "unused"
	case SectionSpecifier:
		return "section specifier"
	case SectionECCInfo:
		return "ECC information"
	}
	return fmt.Sprintf("SectionType(%d)", uint8(t))
}

// MarshalJSON prints the type by name.
func (t SectionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// SectionPhase tells where a section descriptor was found.
type SectionPhase string

// Section phases.
const (
	PhaseInline    SectionPhase = "inline"
	PhaseSpecifier SectionPhase = "specifier"
)

// Section is one type/length-coded section of the extended page.
type Section struct {
	Phase SectionPhase
	// Index is the slot (inline) or table entry (specifier) of the section.
	Index int
	Type  SectionType
	// DataOffset is the page offset the section data is read from.
	DataOffset int
	// Length is the section length in bytes, 0 for specifier table entries.
	Length int

	buf         []byte
	ExtractPath string `json:",omitempty"`
}

// Buf returns the section data.
func (s *Section) Buf() []byte {
	return s.buf
}

// Apply calls the visitor on the Section.
func (s *Section) Apply(v Visitor) error {
	return v.Visit(s)
}

// ApplyChildren is a no-op, sections have no children.
func (s *Section) ApplyChildren(v Visitor) error {
	return nil
}
