// Package onfi discovers NAND parts through their ONFI parameter pages.
//
// Discovery runs in four stages: find a CRC-valid copy of the 256-byte base
// parameter page, decode its geometry and feature fields, and, when the part
// advertises one, find and walk the extended parameter page for its ECC
// requirements. The controller is reached through ParamPageReader; the
// descriptor storage comes from an Allocator.
//
//	d, err := onfi.AddPart(onfi.Buffer(image), onfi.HeapAllocator{})
//	if errors.Is(err, onfi.ErrNotSupported) {
//	    // the part cannot be driven
//	}
package onfi

import (
	"sync"

	"github.com/tinytoy-sec/onfiprobe/pkg/log"
)

// Scratch holds the page buffers used during discovery.
type Scratch struct {
	param [ParamPageLen]byte
	ext   []byte
}

// NewScratch returns buffers able to hold an extended page of extCapacity bytes.
func NewScratch(extCapacity int) *Scratch {
	return &Scratch{ext: make([]byte, extCapacity)}
}

// Prober runs discovery against one controller. Calls to Probe on the same
// Prober are serialised since they share its scratch buffers.
type Prober struct {
	r   ParamPageReader
	cfg Config

	mu      sync.Mutex
	scratch *Scratch
}

// NewProber returns a Prober reading through r.
func NewProber(r ParamPageReader, opts ...Option) (*Prober, error) {
	if r == nil {
		return nil, newError(StageAttach, -1, ErrNullPointer, "no parameter page reader")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.DefaultLogger
	}
	if cfg.CRC == nil {
		cfg.CRC = onfiCRC
	}
	if cfg.MaxParamPageCopies < 1 || cfg.MaxExtPageCopies < 1 {
		return nil, newError(StageAttach, -1, ErrNotSupported,
			"copy limits must be positive, got %d and %d", cfg.MaxParamPageCopies, cfg.MaxExtPageCopies)
	}
	if cfg.ExtPageCapacity < 0 {
		return nil, newError(StageAttach, -1, ErrNotSupported,
			"negative extended page capacity %d", cfg.ExtPageCapacity)
	}
	return &Prober{
		r:       r,
		cfg:     cfg,
		scratch: NewScratch(cfg.ExtPageCapacity),
	}, nil
}

// Config returns the effective configuration.
func (p *Prober) Config() Config {
	return p.cfg
}

// Probe allocates a descriptor from alloc and runs discovery. On error the
// descriptor must not be used.
func (p *Prober) Probe(alloc Allocator) (*Part, error) {
	if alloc == nil {
		return nil, newError(StageAttach, -1, ErrNullPointer, "no allocator")
	}
	d, err := alloc.AllocPart()
	if err == nil && d == nil {
		err = ErrNullPointer
	}
	if err != nil {
		e := newError(StageAttach, -1, ErrAlloc, "allocating part descriptor")
		e.Cause = err
		p.cfg.Logger.Errorf("%v", e)
		return nil, e
	}
	*d = PartDescriptor{}

	p.mu.Lock()
	defer p.mu.Unlock()

	part, err := p.discover(p.scratch, d)
	if err != nil {
		p.cfg.Logger.Errorf("%v", err)
		return nil, err
	}
	p.cfg.Logger.Infof("onfi: attached %v", d)
	return part, nil
}

func (p *Prober) discover(s *Scratch, d *PartDescriptor) (*Part, error) {
	pp, err := p.readParamPage(s)
	if err != nil {
		return nil, err
	}
	hasExt, err := parseParamPage(pp.Buf(), d)
	if err != nil {
		return nil, err
	}
	part := &Part{Descriptor: d, ParamPage: pp}
	if !hasExt {
		return part, nil
	}

	ep, err := p.readExtPage(s, d)
	if err != nil {
		return nil, err
	}
	sections, eccFound, err := parseExtSections(ep.Buf(), d)
	if err != nil {
		return nil, err
	}
	ep.Sections = sections
	part.ExtPage = ep
	if d.ECCCorrectionBits == ECCDeferred && !eccFound {
		p.cfg.Logger.Warnf("onfi: ECC requirements deferred to the extended page, which has no ECC section")
	}
	return part, nil
}

// AddPart discovers the part behind r and returns its descriptor. It uses
// its own scratch buffers, so concurrent calls for different controllers
// are safe.
func AddPart(r ParamPageReader, alloc Allocator, opts ...Option) (*PartDescriptor, error) {
	p, err := NewProber(r, opts...)
	if err != nil {
		return nil, err
	}
	part, err := p.Probe(alloc)
	if err != nil {
		return nil, err
	}
	return part.Descriptor, nil
}
