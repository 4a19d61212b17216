package onfi

import (
	"encoding/binary"

	"github.com/go-restruct/restruct"
	"github.com/sigurn/crc16"
)

// extHeader is the fixed part of the extended parameter page.
type extHeader struct {
	CRC       uint16
	Signature [4]byte
	Reserved  [10]byte
	Sections  [extInlineSections]sectionDescriptor
}

type sectionDescriptor struct {
	Type uint8
	// Length is in units of ExtSectionUnit bytes.
	Length uint8
}

// readExtPage fills s.ext with the first valid copy of the extended page.
// Copies follow the base page copies, back to back.
func (p *Prober) readExtPage(s *Scratch, d *PartDescriptor) (*ExtendedPage, error) {
	n := d.ExtPageLength
	if n > len(s.ext) {
		return nil, newError(StageExtRead, -1, ErrNotSupported,
			"extended page of %d bytes exceeds the %d byte buffer", n, len(s.ext))
	}
	if n < ExtHeaderLen {
		return nil, newError(StageExtRead, -1, ErrNotSupported,
			"extended page of %d bytes is shorter than its %d byte header", n, ExtHeaderLen)
	}

	buf := s.ext[:n]
	base := uint32(d.ParamPageCount * ParamPageLen)
	for i := 0; i < p.cfg.MaxExtPageCopies; i++ {
		off := base + uint32(i*n)
		if err := p.r.ParamPageReadAt(off, buf); err != nil {
			e := newError(StageExtRead, int(off), ErrIO, "reading copy %d", i)
			e.Cause = err
			return nil, e
		}

		m := sigMatches(buf, FieldExtSignature.Offset, ExtPageSignature)
		if m < sigMinMatch {
			return nil, newError(StageExtRead, int(off), ErrIO,
				"copy %d has %d/4 signature bytes, no further valid copies", i, m)
		}

		want := uint16(FieldExtCRC.Uint(buf))
		got := crc16.Checksum(buf[FieldExtCRC.End():], p.cfg.CRC)
		if got != want {
			p.cfg.Logger.Warnf("onfi: extended page copy %d at %#x: CRC %#04x, page says %#04x", i, off, got, want)
			continue
		}
		p.cfg.Logger.Debugf("onfi: extended page copy %d at %#x valid (%d bytes)", i, off, n)

		ep := &ExtendedPage{
			Copy:             i,
			Offset:           off,
			Length:           n,
			CRC:              want,
			SignatureMatches: m,
		}
		ep.SetBuf(append([]byte(nil), buf...))
		return ep, nil
	}
	return nil, newError(StageExtRead, -1, ErrIO,
		"could not recover a valid extended page from %d copies", p.cfg.MaxExtPageCopies)
}

type sectionWalker struct {
	buf      []byte
	d        *PartDescriptor
	eccFound bool
	sections []*Section
}

func (w *sectionWalker) add(phase SectionPhase, index int, t SectionType, off, length int) {
	end := off + length
	if t == SectionECCInfo && length == 0 {
		end = off + 2
	}
	if end > len(w.buf) {
		end = len(w.buf)
	}
	if off > end {
		off = end
	}
	w.sections = append(w.sections, &Section{
		Phase:      phase,
		Index:      index,
		Type:       t,
		DataOffset: off,
		Length:     length,
		buf:        w.buf[off:end],
	})
}

// captureECC reads the correctability and codeword size exponent at off.
func (w *sectionWalker) captureECC(off int) error {
	if w.eccFound {
		return newError(StageExtParse, off, ErrNotSupported, "driver supports only one ECC scheme")
	}
	if off+2 > len(w.buf) {
		return newError(StageExtParse, off, ErrIO, "ECC information beyond the %d byte page", len(w.buf))
	}
	bits, exp := w.buf[off], w.buf[off+1]
	if exp >= 32 {
		return newError(StageExtParse, off+1, ErrNotSupported, "ECC codeword size 2^%d", exp)
	}
	w.d.ECCCorrectionBits = bits
	w.d.ECCCodewordSize = 1 << exp
	w.eccFound = true
	return nil
}

// parseExtSections walks the section descriptors of a validated extended
// page. The eight inline slots are read first; if all are used, the
// section specifier table lists the types of the remaining sections.
func parseExtSections(buf []byte, d *PartDescriptor) ([]*Section, bool, error) {
	var hdr extHeader
	if err := restruct.Unpack(buf[:ExtHeaderLen], binary.LittleEndian, &hdr); err != nil {
		e := newError(StageExtParse, 0, ErrIO, "decoding header")
		e.Cause = err
		return nil, false, e
	}

	w := &sectionWalker{buf: buf, d: d}
	typeOff, dataOff := extSectionTypeBase, extSectionDataBase
	specOff, specLen, haveSpec := 0, 0, false
	terminated := false

inline:
	for slot := 0; ; slot++ {
		desc := hdr.Sections[slot]
		t := SectionType(desc.Type)
		secLen := int(desc.Length) * ExtSectionUnit
		switch t {
		case SectionUnused:
			terminated = true
			break inline
		case SectionSpecifier:
			specOff, specLen, haveSpec = dataOff, secLen, true
		case SectionECCInfo:
			if err := w.captureECC(dataOff); err != nil {
				return nil, false, err
			}
		default:
			return nil, false, newError(StageExtParse, typeOff, ErrIO,
				"invalid section type %d in slot %d", desc.Type, slot)
		}
		w.add(PhaseInline, slot, t, dataOff, secLen)

		dataOff += secLen
		typeOff += 2
		if dataOff > len(buf) || typeOff > extSectionTypeLast {
			break
		}
	}

	if terminated || typeOff <= extSectionTypeLast {
		return w.sections, w.eccFound, nil
	}

	if !haveSpec {
		return nil, false, newError(StageExtParse, extSectionTypeLast, ErrIO,
			"all %d inline sections used but extra sections not specified", extInlineSections)
	}
	// Only the type byte of each table entry is consulted, and ECC data is
	// read where the inline walk stopped.
	for i := 0; i < specLen/2; i++ {
		off := specOff + i
		if off >= len(buf) {
			return nil, false, newError(StageExtParse, off, ErrIO, "section specifier beyond the %d byte page", len(buf))
		}
		t := SectionType(buf[off])
		switch t {
		case SectionUnused:
			continue
		case SectionECCInfo:
			if err := w.captureECC(dataOff); err != nil {
				return nil, false, err
			}
			w.add(PhaseSpecifier, i, t, dataOff, 0)
		default:
			return nil, false, newError(StageExtParse, off, ErrIO,
				"invalid section type %d in specifier entry %d", buf[off], i)
		}
	}
	return w.sections, w.eccFound, nil
}
