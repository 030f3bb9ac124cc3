package selector

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/httplog/v2"
	"github.com/google/uuid"
	"github.com/nduyhai/placement/internal/httpx"
	"github.com/nduyhai/placement/internal/journal"
	"github.com/nduyhai/placement/internal/node"
	"github.com/nduyhai/placement/internal/policy"
	"github.com/nduyhai/placement/internal/pterodactyl"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

type API struct {
	Selector *Selector
	Journal  *journal.Journal
	Guard    policy.Guard
	Logger   *httplog.Logger
}

func NewAPI(selector *Selector, j *journal.Journal, guard policy.Guard, logger *httplog.Logger) *API {
	return &API{Selector: selector, Journal: j, Guard: guard, Logger: logger}
}

type SelectionRequest struct {
	Memory        int   `json:"memory"`
	Disk          int   `json:"disk"`
	Nodes         []int `json:"nodes"`
	PreferredNode *int  `json:"preferred_node,omitempty"`
}

func (r SelectionRequest) requirement() node.Requirement {
	return node.Requirement{Memory: r.Memory, Disk: r.Disk}
}

func (r SelectionRequest) validate() error {
	if r.Memory < 0 || r.Disk < 0 {
		return errors.New("memory and disk must not be negative")
	}
	if r.PreferredNode == nil && len(r.Nodes) == 0 {
		return errors.New("nodes must not be empty without a preferred_node")
	}
	if r.PreferredNode != nil && *r.PreferredNode <= 0 {
		return fmt.Errorf("invalid preferred_node %d", *r.PreferredNode)
	}
	for _, id := range r.Nodes {
		if id <= 0 {
			return fmt.Errorf("invalid node id %d", id)
		}
	}
	return nil
}

type SelectionResponse struct {
	ID           uuid.UUID `json:"id"`
	NodeID       int       `json:"node_id"`
	NodeName     string    `json:"node_name"`
	AllocationID int       `json:"allocation_id"`
	IP           string    `json:"ip"`
	Port         int       `json:"port"`
}

func (a *API) SelectHandler(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		a.badRequest(w, err.Error())
		return
	}

	p, err := a.Selector.place(r.Context(), req.requirement(), req.Nodes, req.PreferredNode)

	rec := journal.Record{
		Memory:        req.Memory,
		Disk:          req.Disk,
		Candidates:    req.Nodes,
		PreferredNode: req.PreferredNode,
	}
	if err != nil {
		rec.Message = err.Error()
		var selErr *Error
		if errors.As(err, &selErr) {
			rec.ErrorKind = selErr.Kind.String()
			rec.NodeID = selErr.NodeID
		} else {
			rec.ErrorKind = "upstream"
		}
		a.record(rec)
		a.writeSelectionError(w, r, err)
		return
	}

	rec.NodeID = p.Node.ID
	rec.AllocationID = p.Allocation.ID
	rec = a.record(rec)

	a.Logger.Info("Allocation selected",
		slog.Int("node_id", p.Node.ID),
		slog.String("node_name", p.Node.Name),
		slog.Int("allocation_id", p.Allocation.ID),
		slog.String("category", string(p.Allocation.Category())))

	httpx.WriteJSON(w, http.StatusCreated, SelectionResponse{
		ID:           rec.ID,
		NodeID:       p.Node.ID,
		NodeName:     p.Node.Name,
		AllocationID: p.Allocation.ID,
		IP:           p.Allocation.IP,
		Port:         p.Allocation.Port,
	})
}

type InspectionRequest struct {
	Memory int   `json:"memory"`
	Disk   int   `json:"disk"`
	Nodes  []int `json:"nodes"`
}

func (a *API) InspectHandler(w http.ResponseWriter, r *http.Request) {
	var req InspectionRequest
	if !a.decode(w, r, &req) {
		return
	}
	sr := SelectionRequest{Memory: req.Memory, Disk: req.Disk, Nodes: req.Nodes}
	if err := sr.validate(); err != nil {
		a.badRequest(w, err.Error())
		return
	}

	httpx.WriteJSON(w, http.StatusOK, a.Selector.Inspect(r.Context(), sr.requirement(), req.Nodes))
}

func (a *API) RecentHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			a.badRequest(w, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = min(n, maxRecentLimit)
	}

	records, err := a.Journal.Recent(limit)
	if err != nil {
		a.Logger.Error("Error reading journal", slog.Any("error", err))
		httpx.WriteError(w, httpx.ErrResponse{HTTPStatusCode: http.StatusInternalServerError, Message: "could not read journal"})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, records)
}

func (a *API) PurgeHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.Guard.Allow("purge journal"); err != nil {
		httpx.WriteError(w, httpx.ErrResponse{HTTPStatusCode: http.StatusForbidden, Message: err.Error()})
		return
	}

	n, err := a.Journal.Purge()
	if err != nil {
		a.Logger.Error("Error purging journal", slog.Any("error", err))
		httpx.WriteError(w, httpx.ErrResponse{HTTPStatusCode: http.StatusInternalServerError, Message: "could not purge journal"})
		return
	}
	a.Logger.Info("Journal purged", slog.Int("records", n))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields()
	if err := d.Decode(v); err != nil {
		msg := fmt.Sprintf("Error unmarshalling body: %v", err)
		a.Logger.Info(msg)
		a.badRequest(w, msg)
		return false
	}
	return true
}

func (a *API) badRequest(w http.ResponseWriter, msg string) {
	httpx.WriteError(w, httpx.ErrResponse{HTTPStatusCode: http.StatusBadRequest, Message: msg})
}

func (a *API) record(rec journal.Record) journal.Record {
	stored, err := a.Journal.Append(rec)
	if err != nil {
		a.Logger.Error("Error writing journal", slog.Any("error", err))
		return rec
	}
	return stored
}

func (a *API) writeSelectionError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		selErr *Error
		apiErr *pterodactyl.APIError
	)
	switch {
	case errors.As(err, &selErr):
		attrs := []any{
			slog.String("kind", selErr.Kind.String()),
			slog.Int("memory", selErr.Requirement.Memory),
			slog.Int("disk", selErr.Requirement.Disk),
		}
		if selErr.NodeID != 0 {
			attrs = append(attrs, slog.Int("node_id", selErr.NodeID), slog.String("node_name", selErr.NodeName))
		}
		if selErr.Summary != nil {
			attrs = append(attrs, slog.Any("summary", selErr.Summary))
		}
		a.Logger.Warn(selErr.Error(), attrs...)
		httplog.LogEntrySetField(r.Context(), "selection_kind", slog.StringValue(selErr.Kind.String()))

		httpx.WriteError(w, httpx.ErrResponse{
			HTTPStatusCode: http.StatusConflict,
			Message:        selErr.Error(),
			Kind:           selErr.Kind.String(),
		})
	case errors.As(err, &apiErr):
		a.Logger.Error("Failed to select allocation", slog.Any("error", err), slog.Int("status", apiErr.StatusCode))
		httpx.WriteError(w, httpx.ErrResponse{
			HTTPStatusCode: http.StatusBadRequest,
			Message:        err.Error(),
			Detail:         apiErr.Detail,
		})
	default:
		a.Logger.Error("Failed to select allocation", slog.Any("error", err))
		httpx.WriteError(w, httpx.ErrResponse{HTTPStatusCode: http.StatusBadGateway, Message: err.Error()})
	}
}
