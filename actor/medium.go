package actor

// Medium is an opaque identity token classifying a transport channel. It
// carries no data and has no behavior of its own; two Mediums are equal iff
// they are the same instance. A Signal implementation may inspect its own
// Medium to decide propagation delay or reception effect, but
// the core never does.
type Medium struct {
	name string
}

// NewMedium creates a new, distinct Medium. name is used only for
// diagnostics (String, logging) and has no bearing on equality: two
// Mediums created with the same name are still distinct instances.
func NewMedium(name string) *Medium {
	return &Medium{name: name}
}

func (m *Medium) String() string {
	if m == nil {
		return "<nil medium>"
	}
	return m.name
}
