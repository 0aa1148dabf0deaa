package packetbus

// Verb is a named operation identity drawn from an open set of verb
// enumerations. Identity is the pair (owning-set name, member name), never a
// raw integer, so verb sets declared in different packages can cross the
// wire without colliding.
//
// A custom verb set is any type whose values report a stable set name and
// member name:
//
//	type InventoryVerb int
//
//	const (
//	    Reserve InventoryVerb = iota
//	    Release
//	)
//
//	func (v InventoryVerb) VerbSet() string  { return "inventory" }
//	func (v InventoryVerb) VerbName() string { return [...]string{"reserve", "release"}[v] }
type Verb interface {
	VerbSet() string
	VerbName() string
}

// SameVerb reports whether two verbs share the same identity pair.
func SameVerb(a, b Verb) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.VerbSet() == b.VerbSet() && a.VerbName() == b.VerbName()
}

// CoreVerb is the built-in verb set shipped with the bus.
type CoreVerb int

const (
	Ping CoreVerb = iota
	Get
	Put
	Delete
	List
)

const coreVerbSet = "core"

var coreVerbNames = [...]string{
	Ping:   "ping",
	Get:    "get",
	Put:    "put",
	Delete: "delete",
	List:   "list",
}

// VerbSet returns "core".
func (v CoreVerb) VerbSet() string { return coreVerbSet }

// VerbName returns the member name, e.g. "get".
func (v CoreVerb) VerbName() string {
	if int(v) >= 0 && int(v) < len(coreVerbNames) {
		return coreVerbNames[v]
	}
	return "unknown"
}

func (v CoreVerb) String() string { return v.VerbSet() + "/" + v.VerbName() }

// CoreVerbs returns all members of the built-in verb set, in declaration
// order. Handy as (part of) the candidate list for DecodePacket.
func CoreVerbs() []Verb {
	verbs := make([]Verb, 0, len(coreVerbNames))
	for v := range coreVerbNames {
		verbs = append(verbs, CoreVerb(v))
	}
	return verbs
}

// ResolveVerb maps a wire-level (set, name) reference back to a concrete
// verb from the supplied candidate list. The candidates are the verbs this
// deployment accepts for one decode call; there is no global registry.
// Returns *UnknownVerbError when no candidate matches both names.
func ResolveVerb(set, name string, candidates []Verb) (Verb, error) {
	for _, v := range candidates {
		if v.VerbSet() == set && v.VerbName() == name {
			return v, nil
		}
	}
	return nil, &UnknownVerbError{Set: set, Name: name}
}
