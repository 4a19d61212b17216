package onfi

import (
	"math"

	"github.com/sigurn/crc16"
	"golang.org/x/exp/constraints"

	"github.com/tinytoy-sec/onfiprobe/pkg/unicode"
)

// pow10 scales the block endurance value by its multiplier byte.
var pow10 = [...]uint64{
	1,
	10,
	100,
	1000,
	10000,
	100000,
	1000000,
	10000000,
	100000000,
	1000000000,
}

// readParamPage fills s.param with the first redundant copy whose signature
// and CRC check out.
func (p *Prober) readParamPage(s *Scratch) (*ParameterPage, error) {
	buf := s.param[:]
	for i := 0; i < p.cfg.MaxParamPageCopies; i++ {
		off := uint32(i * ParamPageLen)
		if err := p.r.ParamPageReadAt(off, buf); err != nil {
			e := newError(StageParamRead, int(off), ErrIO, "reading copy %d", i)
			e.Cause = err
			return nil, e
		}

		// Fewer than two intact signature bytes means we ran past the last
		// copy, not that this one is corrupt.
		m := sigMatches(buf, FieldSignature.Offset, ParamPageSignature)
		if m < sigMinMatch {
			return nil, newError(StageParamRead, int(off), ErrIO,
				"copy %d has %d/4 signature bytes, no further valid copies", i, m)
		}

		want := uint16(FieldCRC.Uint(buf))
		got := crc16.Checksum(buf[:ParamPageCRCLen], p.cfg.CRC)
		if got != want {
			p.cfg.Logger.Warnf("onfi: parameter page copy %d at %#x: CRC %#04x, page says %#04x", i, off, got, want)
			continue
		}
		p.cfg.Logger.Debugf("onfi: parameter page copy %d at %#x valid (%d/4 signature bytes)", i, off, m)

		pp := &ParameterPage{
			Copy:             i,
			Offset:           off,
			CRC:              want,
			SignatureMatches: m,
		}
		pp.SetBuf(append([]byte(nil), buf...))
		return pp, nil
	}
	return nil, newError(StageParamRead, -1, ErrIO,
		"could not recover a valid parameter page from %d copies", p.cfg.MaxParamPageCopies)
}

// parseParamPage decodes a validated base page into d and reports whether
// the part has an extended parameter page.
func parseParamPage(buf []byte, d *PartDescriptor) (bool, error) {
	rev := uint16(FieldRevision.Uint(buf))
	if rev&uint16(VersionInvalid) != 0 {
		return false, newError(StageParamParse, FieldRevision.Offset, ErrNotAvailable,
			"revision field %#04x flagged invalid by the device", rev)
	}
	v, ok := resolveVersion(rev)
	if !ok {
		return false, newError(StageParamParse, FieldRevision.Offset, ErrNotSupported,
			"no supported ONFI revision in %#04x", rev)
	}
	d.Version = v

	features := FieldFeatures.Uint(buf)
	extSupported := features&FeatureExtParamPage != 0
	d.RandomPageProgram = features&FeatureRandomPageProgram != 0
	d.BusWidth = 8
	if features&Feature16BitBus != 0 {
		d.BusWidth = 16
	}

	d.ExtPageLength = 0
	if extSupported {
		d.ExtPageLength = int(FieldExtPageLen.Uint(buf)) * ExtSectionUnit
	}

	d.ParamPageCount = DefaultParamPageCount
	if v >= Version21 {
		d.ParamPageCount = int(FieldParamPageCount.Uint(buf))
	}

	d.Manufacturer = unicode.ONFIToUTF8(FieldManufacturer.Bytes(buf))
	d.Model = unicode.ONFIToUTF8(FieldModel.Bytes(buf))
	d.JEDECManufacturerID = uint8(FieldJEDECID.Uint(buf))
	d.NumberOfLUNs = uint8(FieldNumberOfLUNs.Uint(buf))
	cycles := uint8(FieldAddressCycles.Uint(buf))
	d.RowAddressCycles = cycles & 0x0f
	d.ColumnAddressCycles = cycles >> 4
	d.BitsPerCell = uint8(FieldBitsPerCell.Uint(buf))

	var err error
	if d.PageSize, err = narrowField[uint16](buf, FieldPageSize); err != nil {
		return false, err
	}
	if d.SpareSize, err = narrowField[uint16](buf, FieldSpareSize); err != nil {
		return false, err
	}
	if d.PagesPerBlock, err = narrowField[uint16](buf, FieldPagesPerBlock); err != nil {
		return false, err
	}
	if d.BlocksPerLUN, err = narrowField[uint32](buf, FieldBlocksPerLUN); err != nil {
		return false, err
	}

	d.MaxBadBlocksPerLUN = uint16(FieldMaxBadBlocks.Uint(buf))
	if d.MaxEraseCount, err = eraseCount(buf); err != nil {
		return false, err
	}

	d.PartialPageProgramCount = uint8(FieldPartialProgram.Uint(buf))
	d.ECCCorrectionBits = uint8(FieldECCBits.Uint(buf))
	if d.ECCCorrectionBits == ECCDeferred {
		if !extSupported {
			return false, newError(StageParamParse, FieldECCBits.Offset, ErrNotSupported,
				"ECC requirements deferred to an extended parameter page the part does not have")
		}
		d.ECCCodewordSize = 0
	} else {
		d.ECCCodewordSize = ECCCodewordSize
	}

	// Every supported revision marks factory bad blocks the same way.
	d.DefectMark = DefectSpareL1Pg1OrNAll0

	return extSupported, nil
}

// narrowField decodes f and checks that it fits the descriptor field type.
func narrowField[T constraints.Unsigned](buf []byte, f Field) (T, error) {
	raw := f.Uint(buf)
	v := T(raw)
	if uint64(v) != uint64(raw) {
		return 0, newError(StageParamParse, f.Offset, ErrNotSupported,
			"%s %d does not fit in %T", f.Name, raw, v)
	}
	return v, nil
}

func eraseCount(buf []byte) (uint32, error) {
	value := FieldEraseValue.Uint(buf)
	mult := FieldEraseMultiplier.Uint(buf)
	if mult >= uint32(len(pow10)) {
		return 0, newError(StageParamParse, FieldEraseMultiplier.Offset, ErrNotSupported,
			"block endurance multiplier %d exceeds %d", mult, len(pow10)-1)
	}
	n := uint64(value) * pow10[mult]
	if n > math.MaxUint32 {
		return 0, newError(StageParamParse, FieldEraseValue.Offset, ErrNotSupported,
			"block endurance %d x 10^%d exceeds 32 bits", value, mult)
	}
	return uint32(n), nil
}
