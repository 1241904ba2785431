package field

// Builder assembles an output record: allocate, stamp metadata, fill
// values through a component's own accessor, then hand the result to
// the I/O layer.
type Builder struct {
	mx, my int
	meta   Metadata
}

// NewBuilder starts a record of mx × my cells.
func NewBuilder(mx, my int) *Builder {
	return &Builder{mx: mx, my: my}
}

// Stamp sets the record's metadata.
func (b *Builder) Stamp(meta Metadata) *Builder {
	b.meta = meta
	return b
}

// Glaciological overrides whether the record is written in display units.
func (b *Builder) Glaciological(on bool) *Builder {
	b.meta.WriteInGlaciologicalUnits = on
	return b
}

// Fill allocates the record and populates it with fill.  The stamped
// metadata is re-applied afterwards so fill cannot alter it.
func (b *Builder) Fill(fill func(*Field) error) (*Field, error) {
	f := New(b.meta, b.mx, b.my)
	if err := fill(f); err != nil {
		return nil, err
	}
	f.SetMetadata(b.meta)
	return f, nil
}
