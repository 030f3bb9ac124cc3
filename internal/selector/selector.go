package selector

import (
	"context"
	"fmt"

	"github.com/nduyhai/placement/internal/allocation"
	"github.com/nduyhai/placement/internal/node"
)

// HostingAPI is the slice of the panel the selector reads from.
type HostingAPI interface {
	GetNode(ctx context.Context, id int) (node.Node, error)
	ListAllocations(ctx context.Context, nodeID int) ([]allocation.Allocation, error)
}

// Placement is a chosen node and the allocation to bind on it.
type Placement struct {
	Node       node.Node
	Allocation allocation.Allocation
}

// Selector picks a node and allocation from live panel state. It holds no
// state between calls and takes no reservations.
type Selector struct {
	api      HostingAPI
	priority allocation.Priority
}

func New(api HostingAPI, priority allocation.Priority) *Selector {
	if len(priority) == 0 {
		priority = allocation.DefaultPriority
	}
	return &Selector{api: api, priority: priority}
}

// BestAllocationID returns the allocation a new server should bind to. A
// non-nil preferred node skips node comparison.
func (s *Selector) BestAllocationID(ctx context.Context, req node.Requirement, candidates []int, preferred *int) (int, error) {
	p, err := s.place(ctx, req, candidates, preferred)
	if err != nil {
		return 0, err
	}
	return p.Allocation.ID, nil
}

// place runs SelectOn for a preferred node and Select otherwise.
func (s *Selector) place(ctx context.Context, req node.Requirement, candidates []int, preferred *int) (Placement, error) {
	if preferred != nil {
		return s.SelectOn(ctx, req, *preferred)
	}
	return s.Select(ctx, req, candidates)
}

// Select picks the eligible candidate with the most free memory, then free
// disk, keeping the first seen on a full tie.
func (s *Selector) Select(ctx context.Context, req node.Requirement, candidates []int) (Placement, error) {
	var (
		best  node.Node
		found bool
	)
	for _, id := range candidates {
		n, err := s.api.GetNode(ctx, id)
		if err != nil {
			return Placement{}, fmt.Errorf("fetch node %d: %w", id, err)
		}
		if !n.Fits(req) {
			continue
		}
		if !found || n.Roomier(best) {
			best, found = n, true
		}
	}
	if !found {
		return Placement{}, &Error{Kind: NoSuitableNode, Requirement: req}
	}
	return s.allocate(ctx, req, best)
}

// SelectOn places the workload on a single caller-chosen node.
func (s *Selector) SelectOn(ctx context.Context, req node.Requirement, nodeID int) (Placement, error) {
	n, err := s.api.GetNode(ctx, nodeID)
	if err != nil {
		return Placement{}, fmt.Errorf("fetch node %d: %w", nodeID, err)
	}
	if !n.Fits(req) {
		return Placement{}, &Error{Kind: InsufficientNodeResources, NodeID: n.ID, NodeName: n.Name, Requirement: req}
	}
	return s.allocate(ctx, req, n)
}

func (s *Selector) allocate(ctx context.Context, req node.Requirement, n node.Node) (Placement, error) {
	allocs, err := s.api.ListAllocations(ctx, n.ID)
	if err != nil {
		return Placement{}, fmt.Errorf("list allocations for node %d: %w", n.ID, err)
	}

	if a, ok := s.priority.Best(allocs); ok {
		return Placement{Node: n, Allocation: a}, nil
	}

	summary := allocation.Summarize(allocs)
	return Placement{}, &Error{
		Kind:        diagnose(summary),
		NodeID:      n.ID,
		NodeName:    n.Name,
		Requirement: req,
		Summary:     &summary,
	}
}

func diagnose(s allocation.Summary) Kind {
	switch {
	case s.Total == 0:
		return NoAllocationsConfigured
	case s.Unassigned == 0:
		return AllAllocationsInUse
	case s.LocalhostOnly():
		return LocalhostOnly
	default:
		return NoSuitableAllocation
	}
}
