package node

// Node is a point-in-time snapshot of a panel node's capacity.
type Node struct {
	ID              int
	Name            string
	Memory          int
	MemoryAllocated int
	Disk            int
	DiskAllocated   int
}

// Requirement is the minimum memory and disk a server needs, in the panel's units (MiB).
type Requirement struct {
	Memory int `json:"memory"`
	Disk   int `json:"disk"`
}

func (n Node) FreeMemory() int {
	return n.Memory - n.MemoryAllocated
}

func (n Node) FreeDisk() int {
	return n.Disk - n.DiskAllocated
}

// Fits reports whether the node has at least the required free memory and disk.
func (n Node) Fits(req Requirement) bool {
	return n.FreeMemory() >= req.Memory && n.FreeDisk() >= req.Disk
}

// Roomier reports whether n should replace best: more free memory wins,
// and free disk breaks an exact memory tie.
func (n Node) Roomier(best Node) bool {
	if n.FreeMemory() != best.FreeMemory() {
		return n.FreeMemory() > best.FreeMemory()
	}
	return n.FreeDisk() > best.FreeDisk()
}
