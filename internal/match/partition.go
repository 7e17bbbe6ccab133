package match

import "github.com/uncaged-coder/vcardtools/internal/vcard"

// Class is one identity class: indices into the partitioned input, ascending.
type Class struct {
	Members []int
}

// Options configures partitioning.
type Options struct {
	Attributes AttributeSet
	// PhoneDigits is the trailing digit count used to compare phone numbers.
	PhoneDigits int
}

// Partition groups records into identity classes. Two records are joined when
// they share a normalized value for any enabled attribute, and classes are the
// transitive closure of that relation. Every record lands in exactly one class.
// Classes are ordered by their lowest member index.
func Partition(records []vcard.Record, opts Options) []Class {
	uf := newUnionFind(len(records))

	first := make(map[string]int)
	for _, attr := range opts.Attributes.Sorted() {
		for i, r := range records {
			for _, key := range Keys(r, attr, opts.PhoneDigits) {
				k := string(attr) + "\x00" + key
				if j, ok := first[k]; ok {
					uf.union(j, i)
				} else {
					first[k] = i
				}
			}
		}
	}

	// Walking indices in order creates classes in order of their lowest member.
	byRoot := make(map[int]*Class)
	var classes []*Class
	for i := range records {
		root := uf.find(i)
		c, ok := byRoot[root]
		if !ok {
			c = &Class{}
			byRoot[root] = c
			classes = append(classes, c)
		}
		c.Members = append(c.Members, i)
	}

	out := make([]Class, len(classes))
	for i, c := range classes {
		out[i] = *c
	}
	return out
}

// Matches reports whether a and b match directly on any enabled attribute.
func Matches(a, b vcard.Record, opts Options) bool {
	for _, attr := range opts.Attributes.Sorted() {
		seen := make(map[string]bool)
		for _, k := range Keys(a, attr, opts.PhoneDigits) {
			seen[k] = true
		}
		for _, k := range Keys(b, attr, opts.PhoneDigits) {
			if seen[k] {
				return true
			}
		}
	}
	return false
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}
