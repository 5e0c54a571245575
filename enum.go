package tablekit

import (
	"fmt"
	"sync"
)

// Member is one declared value of an Enum, with a human label.
type Member struct {
	Key   string
	Value any
	Label string
}

// Enum is a closed set of members an enum-kinded field accepts. Enums are
// declared once, at registration time; there is no dynamic synthesis.
type Enum struct {
	name    string
	members []Member
	byKey   map[string]Member
}

// NewEnum declares an enum type. The first member is the conventional
// default for fresh entities.
func NewEnum(name string, members ...Member) *Enum {
	e := &Enum{name: name, members: members, byKey: make(map[string]Member, len(members))}
	for _, m := range members {
		e.byKey[m.Key] = m
	}
	return e
}

// Name returns the declared enum type name.
func (e *Enum) Name() string { return e.name }

// Members returns the declared members in order.
func (e *Enum) Members() []Member { return e.members }

// Keys returns the member keys in declaration order.
func (e *Enum) Keys() []string {
	out := make([]string, len(e.members))
	for i, m := range e.members {
		out[i] = m.Key
	}
	return out
}

// Labels returns the member labels in declaration order.
func (e *Enum) Labels() []string {
	out := make([]string, len(e.members))
	for i, m := range e.members {
		out[i] = m.Label
	}
	return out
}

// Default returns the first declared member.
func (e *Enum) Default() (Member, bool) {
	if len(e.members) == 0 {
		return Member{}, false
	}
	return e.members[0], true
}

// Resolve maps v to a member: a Member passes through, a string matches a
// key first, then any value matches on stored value.
func (e *Enum) Resolve(v any) (Member, bool) {
	if m, ok := v.(Member); ok {
		if _, declared := e.byKey[m.Key]; declared {
			return m, true
		}
		return Member{}, false
	}
	if key, ok := v.(string); ok {
		if m, ok := e.byKey[key]; ok {
			return m, true
		}
	}
	for _, m := range e.members {
		if eqValue(m.Value, v) {
			return m, true
		}
	}
	return Member{}, false
}

// Field returns a pre-built field declaration bound to this enum.
func (e *Enum) Field(name string) *Field { return EnumField(name, e) }

var (
	enumMu  sync.RWMutex
	enumReg = map[string]*Enum{}
)

// RegisterEnum declares and registers an enum type globally, so generated
// entities can look it up by name.
func RegisterEnum(name string, members ...Member) *Enum {
	e := NewEnum(name, members...)
	enumMu.Lock()
	enumReg[name] = e
	enumMu.Unlock()
	return e
}

// LookupEnum returns a registered enum type.
func LookupEnum(name string) (*Enum, error) {
	enumMu.RLock()
	e, ok := enumReg[name]
	enumMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("enum %q is not registered", name)
	}
	return e, nil
}
