// Package match decides which contact records denote the same person.
package match

import (
	"fmt"
	"sort"
	"strings"
)

// Attribute is a record property two contacts can be matched on.
type Attribute string

const (
	// Email matches on normalized EMAIL values.
	Email Attribute = "email"
	// Names matches on normalized FN values and the rendered N value.
	Names Attribute = "names"
	// Tel matches on normalized TEL numbers.
	Tel Attribute = "tel"
	// Mobiles matches on normalized TEL numbers typed as cell phones.
	Mobiles Attribute = "mobiles"
)

var aliases = map[string]Attribute{
	"email":     Email,
	"mail":      Email,
	"names":     Names,
	"name":      Names,
	"fn":        Names,
	"full-name": Names,
	"tel":       Tel,
	"telephone": Tel,
	"phone":     Tel,
	"mobiles":   Mobiles,
	"mobile":    Mobiles,
	"cell":      Mobiles,
}

// DefaultAttributes is used when configuration names none.
var DefaultAttributes = []Attribute{Email, Names, Tel}

// AttributeSet is an enabled set of match attributes.
type AttributeSet map[Attribute]bool

// NewAttributeSet builds a set from the given attributes.
func NewAttributeSet(attrs ...Attribute) AttributeSet {
	set := make(AttributeSet, len(attrs))
	for _, a := range attrs {
		set[a] = true
	}
	return set
}

// ParseAttributes resolves user-supplied attribute names, accepting aliases.
// An empty list yields DefaultAttributes.
func ParseAttributes(names []string) (AttributeSet, error) {
	if len(names) == 0 {
		return NewAttributeSet(DefaultAttributes...), nil
	}
	set := make(AttributeSet, len(names))
	for _, raw := range names {
		for _, name := range strings.Split(raw, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			attr, ok := aliases[name]
			if !ok {
				return nil, fmt.Errorf("unknown match attribute %q (expected email, names, tel or mobiles)", name)
			}
			set[attr] = true
		}
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no match attributes given")
	}
	return set, nil
}

// Sorted returns the enabled attributes in a stable order.
func (s AttributeSet) Sorted() []Attribute {
	out := make([]Attribute, 0, len(s))
	for a, on := range s {
		if on {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s AttributeSet) String() string {
	parts := make([]string, 0, len(s))
	for _, a := range s.Sorted() {
		parts = append(parts, string(a))
	}
	return strings.Join(parts, ",")
}
