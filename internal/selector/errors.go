package selector

import (
	"fmt"

	"github.com/nduyhai/placement/internal/allocation"
	"github.com/nduyhai/placement/internal/node"
)

// Kind identifies why a selection attempt failed.
type Kind int

const (
	NoSuitableNode Kind = iota + 1
	InsufficientNodeResources
	NoAllocationsConfigured
	AllAllocationsInUse
	LocalhostOnly
	NoSuitableAllocation
)

var kindNames = map[Kind]string{
	NoSuitableNode:            "no_suitable_node",
	InsufficientNodeResources: "insufficient_node_resources",
	NoAllocationsConfigured:   "no_allocations_configured",
	AllAllocationsInUse:       "all_allocations_in_use",
	LocalhostOnly:             "localhost_only",
	NoSuitableAllocation:      "no_suitable_allocation",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a terminal selection failure. NodeID and Summary are set for
// failures that happen after a node was chosen.
type Error struct {
	Kind        Kind
	NodeID      int
	NodeName    string
	Requirement node.Requirement
	Summary     *allocation.Summary
}

func (e *Error) Error() string {
	switch e.Kind {
	case NoSuitableNode:
		return fmt.Sprintf("no suitable node found with %d MiB memory and %d MiB disk free", e.Requirement.Memory, e.Requirement.Disk)
	case InsufficientNodeResources:
		return fmt.Sprintf("node %d does not have enough resources", e.NodeID)
	case NoAllocationsConfigured:
		return fmt.Sprintf("node %d has no allocations configured", e.NodeID)
	case AllAllocationsInUse:
		return fmt.Sprintf("all %d allocations on node %d are in use", e.total(), e.NodeID)
	case LocalhostOnly:
		return fmt.Sprintf("node %d only has localhost allocations available", e.NodeID)
	case NoSuitableAllocation:
		return fmt.Sprintf("no suitable allocation found on node %d", e.NodeID)
	}
	return e.Kind.String()
}

// Is matches any *Error of the same kind, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func (e *Error) total() int {
	if e.Summary == nil {
		return 0
	}
	return e.Summary.Total
}

var (
	ErrNoSuitableNode            = &Error{Kind: NoSuitableNode}
	ErrInsufficientNodeResources = &Error{Kind: InsufficientNodeResources}
	ErrNoAllocationsConfigured   = &Error{Kind: NoAllocationsConfigured}
	ErrAllAllocationsInUse       = &Error{Kind: AllAllocationsInUse}
	ErrLocalhostOnly             = &Error{Kind: LocalhostOnly}
	ErrNoSuitableAllocation      = &Error{Kind: NoSuitableAllocation}
)
