package allocation

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/samber/lo"
)

// Allocation is a bindable IP:port on a node.
type Allocation struct {
	ID       int    `json:"id"`
	IP       string `json:"ip"`
	Alias    string `json:"alias,omitempty"`
	Port     int    `json:"port"`
	Assigned bool   `json:"assigned"`
}

func (a Allocation) Category() Category {
	return Classify(a.IP)
}

// Best picks with DefaultPriority.
func Best(allocations []Allocation) (Allocation, bool) {
	return DefaultPriority.Best(allocations)
}

// Best returns the first unassigned allocation of the highest priority
// category present, keeping list order within a category.
func (p Priority) Best(allocations []Allocation) (Allocation, bool) {
	buckets := linkedhashmap.New()
	for _, c := range p {
		buckets.Put(c, []Allocation(nil))
	}

	for _, a := range allocations {
		if a.Assigned {
			continue
		}
		v, ok := buckets.Get(a.Category())
		if !ok {
			continue
		}
		buckets.Put(a.Category(), append(v.([]Allocation), a))
	}

	it := buckets.Iterator()
	for it.Next() {
		if bucket := it.Value().([]Allocation); len(bucket) > 0 {
			return bucket[0], true
		}
	}
	return Allocation{}, false
}

type CategoryCount struct {
	Total      int `json:"total"`
	Unassigned int `json:"unassigned"`
}

// Summary counts allocations for diagnostics. It plays no part in selection.
type Summary struct {
	Total      int                        `json:"total"`
	Assigned   int                        `json:"assigned"`
	Unassigned int                        `json:"unassigned"`
	ByCategory map[Category]CategoryCount `json:"by_category"`
}

func Summarize(allocations []Allocation) Summary {
	s := Summary{
		Total:      len(allocations),
		Assigned:   lo.CountBy(allocations, func(a Allocation) bool { return a.Assigned }),
		ByCategory: make(map[Category]CategoryCount, len(Categories)),
	}
	s.Unassigned = s.Total - s.Assigned

	for _, c := range Categories {
		s.ByCategory[c] = CategoryCount{}
	}
	for _, a := range allocations {
		cc := s.ByCategory[a.Category()]
		cc.Total++
		if !a.Assigned {
			cc.Unassigned++
		}
		s.ByCategory[a.Category()] = cc
	}
	return s
}

// LocalhostOnly reports whether every free allocation is a loopback address.
func (s Summary) LocalhostOnly() bool {
	return s.Unassigned > 0 && s.Unassigned == s.ByCategory[Localhost].Unassigned
}
