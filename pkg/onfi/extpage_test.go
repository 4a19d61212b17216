package onfi

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// deferredSpec returns an ONFI 3.0 part whose ECC requirements live in the
// extended page.
func deferredSpec(ext *ExtImageSpec) ImageSpec {
	spec := DefaultImageSpec()
	spec.Revision = uint16(Version30 | Version23 | Version22 | Version21 | Version20 | Version10)
	spec.ECCBits = ECCDeferred
	spec.PageSize = 8192
	spec.SpareSize = 448
	spec.PagesPerBlock = 256
	spec.BitsPerCell = 2
	spec.Ext = ext
	return spec
}

type sectionSummary struct {
	Phase      SectionPhase
	Index      int
	Type       SectionType
	DataOffset int
	Length     int
}

func summarize(sections []*Section) []sectionSummary {
	var out []sectionSummary
	for _, s := range sections {
		out = append(out, sectionSummary{s.Phase, s.Index, s.Type, s.DataOffset, s.Length})
	}
	return out
}

func TestExtPageInlineECC(t *testing.T) {
	ext := &ExtImageSpec{
		Sections: []SectionSpec{
			{Type: SectionECCInfo, Length: 16},
			{Type: SectionUnused},
		},
		Payload: []byte{24, 10, 0x64, 0x00, 0x03, 0x03},
	}
	img := mustBuild(t, deferredSpec(ext))
	r := &countingReader{r: Buffer(img)}
	p, err := NewProber(r, quiet)
	if err != nil {
		t.Fatal(err)
	}
	part, err := p.Probe(HeapAllocator{})
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}

	d := part.Descriptor
	if d.ECCCorrectionBits != 24 || d.ECCCodewordSize != 1024 {
		t.Errorf("ECC = %d bits / %d bytes, want 24 / 1024", d.ECCCorrectionBits, d.ECCCodewordSize)
	}
	if d.Version != Version30 {
		t.Errorf("Version = %v, want 3.0", d.Version)
	}
	if d.ExtPageLength != 48 {
		t.Errorf("ExtPageLength = %d, want 48", d.ExtPageLength)
	}

	want := []sectionSummary{{PhaseInline, 0, SectionECCInfo, 32, 16}}
	if diff := cmp.Diff(want, summarize(part.ExtPage.Sections)); diff != "" {
		t.Errorf("sections mismatch (-want +got):\n%s", diff)
	}
	if got := part.ExtPage.Sections[0].Buf(); len(got) != 16 || got[0] != 24 {
		t.Errorf("section data = %x", got)
	}

	wantReads := []uint32{0, 3 * ParamPageLen}
	if diff := cmp.Diff(wantReads, r.offsets); diff != "" {
		t.Errorf("read offsets mismatch (-want +got):\n%s", diff)
	}
}

func TestExtPageSpecifierPhase(t *testing.T) {
	var sections []SectionSpec
	for i := 0; i < 7; i++ {
		sections = append(sections, SectionSpec{Type: SectionSpecifier})
	}
	sections = append(sections, SectionSpec{Type: SectionSpecifier, Length: 16})

	payload := make([]byte, 18)
	// Specifier table at 32: entries are single type bytes.
	copy(payload, []byte{0, 0, 2, 0, 0, 0, 0, 0})
	// ECC data is read where the inline walk stopped, 32 + 16.
	payload[16], payload[17] = 40, 11

	part, err := attach(t, mustBuild(t, deferredSpec(&ExtImageSpec{Sections: sections, Payload: payload})))
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	d := part.Descriptor
	if d.ECCCorrectionBits != 40 || d.ECCCodewordSize != 2048 {
		t.Errorf("ECC = %d bits / %d bytes, want 40 / 2048", d.ECCCorrectionBits, d.ECCCodewordSize)
	}

	got := summarize(part.ExtPage.Sections)
	if len(got) != 9 {
		t.Fatalf("got %d sections, want 8 inline + 1 specified: %+v", len(got), got)
	}
	if want := (sectionSummary{PhaseSpecifier, 2, SectionECCInfo, 48, 0}); got[8] != want {
		t.Errorf("specified section = %+v, want %+v", got[8], want)
	}
	if got[7].Length != 16 || got[7].DataOffset != 32 {
		t.Errorf("last inline section = %+v", got[7])
	}
}

func TestExtPageTerminatorSkipsSpecifierPhase(t *testing.T) {
	// The inline list ends with a terminator, so the specifier table is never
	// read and the invalid type inside it does not matter.
	ext := &ExtImageSpec{
		Sections: []SectionSpec{
			{Type: SectionSpecifier, Length: 16},
			{Type: SectionECCInfo, Length: 16},
		},
		Payload: append(make([]byte, 16), 8, 9),
	}
	ext.Payload[0] = 0x7f
	part, err := attach(t, mustBuild(t, deferredSpec(ext)))
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if d := part.Descriptor; d.ECCCorrectionBits != 8 || d.ECCCodewordSize != 512 {
		t.Errorf("ECC = %d / %d, want 8 / 512", d.ECCCorrectionBits, d.ECCCodewordSize)
	}
	if n := len(part.ExtPage.Sections); n != 2 {
		t.Errorf("got %d sections, want 2", n)
	}
}

func TestExtPageSectionErrors(t *testing.T) {
	eightSpecifiers := func(tableLen int) []SectionSpec {
		var s []SectionSpec
		for i := 0; i < 7; i++ {
			s = append(s, SectionSpec{Type: SectionSpecifier})
		}
		return append(s, SectionSpec{Type: SectionSpecifier, Length: tableLen})
	}

	tests := []struct {
		name    string
		ext     *ExtImageSpec
		wantErr error
	}{
		{
			name: "invalid inline type",
			ext: &ExtImageSpec{Sections: []SectionSpec{
				{Type: SectionSpecifier, Length: 16},
				{Type: 3, Length: 16},
			}, Length: 64},
			wantErr: ErrIO,
		},
		{
			name: "duplicate inline ECC",
			ext: &ExtImageSpec{Sections: []SectionSpec{
				{Type: SectionECCInfo, Length: 16},
				{Type: SectionECCInfo, Length: 16},
			}, Payload: []byte{8, 9}},
			wantErr: ErrNotSupported,
		},
		{
			name: "invalid specified type",
			ext: &ExtImageSpec{
				Sections: eightSpecifiers(16),
				Payload:  []byte{0, 5},
				Length:   64,
			},
			wantErr: ErrIO,
		},
		{
			name: "ECC inline and specified",
			ext: &ExtImageSpec{
				Sections: append([]SectionSpec{{Type: SectionECCInfo}}, eightSpecifiers(16)[1:]...),
				Payload:  append([]byte{2}, make([]byte, 17)...),
				Length:   64,
			},
			wantErr: ErrNotSupported,
		},
		{
			name: "ECC beyond page",
			ext: &ExtImageSpec{
				Sections: eightSpecifiers(16),
				Payload:  []byte{2},
				Length:   48,
			},
			wantErr: ErrIO,
		},
		{
			name: "codeword exponent too large",
			ext: &ExtImageSpec{
				Sections: []SectionSpec{{Type: SectionECCInfo, Length: 16}},
				Payload:  []byte{8, 40},
			},
			wantErr: ErrNotSupported,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := attach(t, mustBuild(t, deferredSpec(tt.ext)))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Probe() error = %v, want %v", err, tt.wantErr)
			}
			var pe *ParseError
			if !errors.As(err, &pe) || pe.Stage != StageExtParse {
				t.Errorf("error = %v, want an extended page parse error", err)
			}
		})
	}
}

func TestExtPageCapacity(t *testing.T) {
	ext := &ExtImageSpec{
		Sections: []SectionSpec{{Type: SectionECCInfo, Length: 16}},
		Payload:  []byte{8, 9},
		Length:   256,
	}
	img := mustBuild(t, deferredSpec(ext))

	r := &countingReader{r: Buffer(img)}
	p, err := NewProber(r, quiet, WithExtPageCapacity(128))
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Probe(HeapAllocator{})
	if !errors.Is(err, ErrNotSupported) {
		t.Fatalf("Probe() error = %v, want ErrNotSupported", err)
	}
	if len(r.offsets) != 1 {
		t.Errorf("reads = %v, want only the base page read", r.offsets)
	}

	if _, err := attach(t, img, WithExtPageCapacity(256)); err != nil {
		t.Errorf("Probe() with exact capacity error = %v", err)
	}
}

func TestExtPageTooShort(t *testing.T) {
	spec := deferredSpec(&ExtImageSpec{Length: 32})
	pp := spec.ParamPage()
	FieldExtPageLen.PutUint(pp, 1)
	SealParamPage(pp)
	img := append(append(append([]byte(nil), pp...), pp...), pp...)
	img = append(img, make([]byte, 64)...)

	_, err := attach(t, img)
	if !errors.Is(err, ErrNotSupported) {
		t.Fatalf("Probe() error = %v, want ErrNotSupported", err)
	}
}

func TestExtPageCopies(t *testing.T) {
	ext := &ExtImageSpec{
		Sections: []SectionSpec{{Type: SectionECCInfo, Length: 16}},
		Payload:  []byte{8, 9},
		Copies:   4,
	}
	spec := deferredSpec(ext)
	img := mustBuild(t, spec)
	extStart := 3 * ParamPageLen
	n := ext.length()
	corrupt := func(img []byte, copies ...int) []byte {
		out := append([]byte(nil), img...)
		for _, c := range copies {
			out[extStart+c*n+20] ^= 0xff
		}
		return out
	}

	part, err := attach(t, corrupt(img, 0, 1))
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if part.ExtPage.Copy != 2 || part.ExtPage.Offset != uint32(extStart+2*n) {
		t.Errorf("ExtPage copy %d at %#x, want copy 2", part.ExtPage.Copy, part.ExtPage.Offset)
	}

	r := &countingReader{r: Buffer(corrupt(img, 0, 1, 2))}
	p, err := NewProber(r, quiet)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Probe(HeapAllocator{}); !errors.Is(err, ErrIO) {
		t.Fatalf("Probe() error = %v, want ErrIO", err)
	}
	if len(r.offsets) != 4 {
		t.Errorf("reads = %v, want 1 base + 3 extended", r.offsets)
	}

	if _, err := attach(t, corrupt(img, 0, 1, 2), WithMaxExtPageCopies(4)); err != nil {
		t.Errorf("Probe() with 4 extended copies error = %v", err)
	}
}

func TestExtPageSignature(t *testing.T) {
	ext := &ExtImageSpec{
		Sections: []SectionSpec{{Type: SectionECCInfo, Length: 16}},
		Payload:  []byte{8, 9},
	}
	page, err := ext.Page()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		sig     string
		wantErr bool
	}{
		{"intact", "EPPS", false},
		{"two", "ExxS", false},
		{"one", "xxxS", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := append([]byte(nil), page...)
			copy(p[FieldExtSignature.Offset:], tt.sig)
			SealExtPage(p)

			pp := deferredSpec(ext).ParamPage()
			img := append(append(append([]byte(nil), pp...), pp...), pp...)
			img = append(img, p...)

			_, err := attach(t, img)
			if tt.wantErr != (err != nil) {
				t.Fatalf("Probe() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrIO) {
				t.Errorf("Probe() error = %v, want ErrIO", err)
			}
		})
	}
}

func TestECCDeferredWithoutECCSection(t *testing.T) {
	ext := &ExtImageSpec{Sections: []SectionSpec{{Type: SectionSpecifier, Length: 16}}, Length: 64}
	part, err := attach(t, mustBuild(t, deferredSpec(ext)))
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if d := part.Descriptor; d.ECCCorrectionBits != ECCDeferred || d.ECCCodewordSize != 0 {
		t.Errorf("ECC = %d / %d, want deferred markers kept", d.ECCCorrectionBits, d.ECCCodewordSize)
	}
}
