package pterodactyl

import (
	"errors"
	"fmt"

	"github.com/nduyhai/placement/internal/allocation"
	"github.com/nduyhai/placement/internal/node"
)

// ErrMalformed is returned when a panel payload fails ingestion checks.
var ErrMalformed = errors.New("malformed panel response")

type nodeResource struct {
	Object     string         `json:"object"`
	Attributes nodeAttributes `json:"attributes"`
}

type nodeAttributes struct {
	ID                 int                `json:"id"`
	Name               string             `json:"name"`
	Memory             int                `json:"memory"`
	Disk               int                `json:"disk"`
	AllocatedResources allocatedResources `json:"allocated_resources"`
}

type allocatedResources struct {
	Memory int `json:"memory"`
	Disk   int `json:"disk"`
}

func (r nodeResource) toNode() (node.Node, error) {
	a := r.Attributes
	switch {
	case a.ID <= 0:
		return node.Node{}, fmt.Errorf("%w: node id %d", ErrMalformed, a.ID)
	case a.Memory < 0 || a.Disk < 0:
		return node.Node{}, fmt.Errorf("%w: node %d has negative capacity", ErrMalformed, a.ID)
	case a.AllocatedResources.Memory < 0 || a.AllocatedResources.Disk < 0:
		return node.Node{}, fmt.Errorf("%w: node %d has negative allocated resources", ErrMalformed, a.ID)
	}
	return node.Node{
		ID:              a.ID,
		Name:            a.Name,
		Memory:          a.Memory,
		MemoryAllocated: a.AllocatedResources.Memory,
		Disk:            a.Disk,
		DiskAllocated:   a.AllocatedResources.Disk,
	}, nil
}

type allocationList struct {
	Object string               `json:"object"`
	Data   []allocationResource `json:"data"`
	Meta   struct {
		Pagination pagination `json:"pagination"`
	} `json:"meta"`
}

type pagination struct {
	Total       int `json:"total"`
	Count       int `json:"count"`
	PerPage     int `json:"per_page"`
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

type allocationResource struct {
	Object     string `json:"object"`
	Attributes struct {
		ID       int     `json:"id"`
		IP       string  `json:"ip"`
		Alias    *string `json:"alias"`
		Port     int     `json:"port"`
		Assigned bool    `json:"assigned"`
	} `json:"attributes"`
}

func (r allocationResource) toAllocation(nodeID int) (allocation.Allocation, error) {
	a := r.Attributes
	switch {
	case a.ID <= 0:
		return allocation.Allocation{}, fmt.Errorf("%w: allocation id %d on node %d", ErrMalformed, a.ID, nodeID)
	case a.IP == "":
		return allocation.Allocation{}, fmt.Errorf("%w: allocation %d has no ip", ErrMalformed, a.ID)
	case a.Port < 1 || a.Port > 65535:
		return allocation.Allocation{}, fmt.Errorf("%w: allocation %d has port %d", ErrMalformed, a.ID, a.Port)
	}
	out := allocation.Allocation{
		ID:       a.ID,
		IP:       a.IP,
		Port:     a.Port,
		Assigned: a.Assigned,
	}
	if a.Alias != nil {
		out.Alias = *a.Alias
	}
	return out, nil
}
