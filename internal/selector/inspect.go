package selector

import (
	"context"
	"fmt"

	"github.com/nduyhai/placement/internal/allocation"
	"github.com/nduyhai/placement/internal/node"
	"github.com/samber/lo"
)

// NodeReport describes how a candidate node would fare for a requirement.
type NodeReport struct {
	NodeID     int                 `json:"node_id"`
	NodeName   string              `json:"node_name,omitempty"`
	FreeMemory int                 `json:"free_memory"`
	FreeDisk   int                 `json:"free_disk"`
	Eligible   bool                `json:"eligible"`
	Summary    *allocation.Summary `json:"summary,omitempty"`
	Issues     []string            `json:"issues"`
}

// Healthy reports whether the node could take the workload right now.
func (r NodeReport) Healthy() bool {
	return len(r.Issues) == 0
}

// Inspect checks every candidate without stopping at the first problem.
func (s *Selector) Inspect(ctx context.Context, req node.Requirement, candidates []int) []NodeReport {
	return lo.Map(candidates, func(id int, _ int) NodeReport {
		return s.inspect(ctx, req, id)
	})
}

func (s *Selector) inspect(ctx context.Context, req node.Requirement, id int) NodeReport {
	r := NodeReport{NodeID: id, Issues: []string{}}

	n, err := s.api.GetNode(ctx, id)
	if err != nil {
		r.Issues = append(r.Issues, fmt.Sprintf("could not fetch node: %v", err))
		return r
	}
	r.NodeName = n.Name
	r.FreeMemory = n.FreeMemory()
	r.FreeDisk = n.FreeDisk()
	r.Eligible = n.Fits(req)
	if !r.Eligible {
		r.Issues = append(r.Issues, fmt.Sprintf("insufficient resources: %d MiB memory and %d MiB disk free, %d and %d required",
			r.FreeMemory, r.FreeDisk, req.Memory, req.Disk))
	}

	allocs, err := s.api.ListAllocations(ctx, id)
	if err != nil {
		r.Issues = append(r.Issues, fmt.Sprintf("could not list allocations: %v", err))
		return r
	}
	summary := allocation.Summarize(allocs)
	r.Summary = &summary

	if _, ok := s.priority.Best(allocs); !ok {
		e := &Error{Kind: diagnose(summary), NodeID: id, NodeName: n.Name, Summary: &summary}
		r.Issues = append(r.Issues, e.Error())
	}
	return r
}
