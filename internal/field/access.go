package field

// AccessList opens access windows on a set of fields and closes them all
// at once.  Typical use:
//
//	list := field.NewAccessList(temp, elevation, latitude)
//	defer list.End()
type AccessList struct {
	fields []*Field
}

// NewAccessList opens an access window on every field given.
func NewAccessList(fields ...*Field) *AccessList {
	l := &AccessList{}
	for _, f := range fields {
		l.Add(f)
	}
	return l
}

// Add opens an access window on f and remembers it.
func (l *AccessList) Add(f *Field) {
	f.BeginAccess()
	l.fields = append(l.fields, f)
}

// End closes every window opened through l, in reverse order.  Calling
// End twice is a no-op.
func (l *AccessList) End() {
	for i := len(l.fields) - 1; i >= 0; i-- {
		l.fields[i].EndAccess()
	}
	l.fields = nil
}
