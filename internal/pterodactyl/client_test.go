package pterodactyl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nduyhai/placement/internal/allocation"
	"github.com/nduyhai/placement/internal/node"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(Config{BaseURL: srv.URL + "/", APIKey: "ptla_test", Timeout: 5 * time.Second})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestGetNode(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/application/nodes/3" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer ptla_test" {
			t.Errorf("Authorization = %q", got)
		}
		writeJSON(w, http.StatusOK, `{
			"object": "node",
			"attributes": {
				"id": 3, "name": "fra-1", "memory": 16384, "disk": 100000,
				"allocated_resources": {"memory": 4096, "disk": 25000}
			}
		}`)
	}))

	got, err := c.GetNode(context.Background(), 3)
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	want := node.Node{ID: 3, Name: "fra-1", Memory: 16384, MemoryAllocated: 4096, Disk: 100000, DiskAllocated: 25000}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetNode mismatch (-want +got):\n%s", diff)
	}
}

func TestGetNodeMalformed(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"object":"node","attributes":{"id":3,"memory":-1,"disk":10}}`)
	}))

	_, err := c.GetNode(context.Background(), 3)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestGetNodeAPIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"errors":[{"code":"NotFoundHttpException","status":"404","detail":"The requested resource could not be found on the server."}]}`)
	}))

	_, err := c.GetNode(context.Background(), 99)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
	if apiErr.Detail != "The requested resource could not be found on the server." {
		t.Errorf("Detail = %q", apiErr.Detail)
	}
}

func TestListAllocationsPaginates(t *testing.T) {
	var pages []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/application/nodes/5/allocations" {
			t.Errorf("path = %s", r.URL.Path)
		}
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		if r.URL.Query().Get("per_page") != "100" {
			t.Errorf("per_page = %s", r.URL.Query().Get("per_page"))
		}
		switch page {
		case "1":
			writeJSON(w, http.StatusOK, `{"object":"list","data":[
				{"object":"allocation","attributes":{"id":10,"ip":"10.0.0.1","alias":null,"port":25565,"assigned":true}},
				{"object":"allocation","attributes":{"id":11,"ip":"8.8.8.8","alias":"play.example.com","port":25566,"assigned":false}}
			],"meta":{"pagination":{"total":3,"count":2,"per_page":2,"current_page":1,"total_pages":2}}}`)
		case "2":
			writeJSON(w, http.StatusOK, `{"object":"list","data":[
				{"object":"allocation","attributes":{"id":12,"ip":"127.0.0.1","port":25567,"assigned":false}}
			],"meta":{"pagination":{"total":3,"count":1,"per_page":2,"current_page":2,"total_pages":2}}}`)
		default:
			t.Errorf("unexpected page %s", page)
			writeJSON(w, http.StatusOK, `{"object":"list","data":[]}`)
		}
	}))

	got, err := c.ListAllocations(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListAllocations: %v", err)
	}
	want := []allocation.Allocation{
		{ID: 10, IP: "10.0.0.1", Port: 25565, Assigned: true},
		{ID: 11, IP: "8.8.8.8", Alias: "play.example.com", Port: 25566},
		{ID: 12, IP: "127.0.0.1", Port: 25567},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListAllocations mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"1", "2"}, pages); diff != "" {
		t.Errorf("pages mismatch (-want +got):\n%s", diff)
	}
}

func TestListAllocationsEmpty(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"object":"list","data":[],"meta":{"pagination":{"total":0,"count":0,"per_page":100,"current_page":1,"total_pages":1}}}`)
	}))

	got, err := c.ListAllocations(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListAllocations: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d allocations, want 0", len(got))
	}
}

func TestListAllocationsMalformed(t *testing.T) {
	list := func(attrs string) string {
		return fmt.Sprintf(`{"object":"list","data":[{"object":"allocation","attributes":%s}],"meta":{"pagination":{"total_pages":1}}}`, attrs)
	}
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{name: "missing id", contentType: "application/json", body: list(`{"id":0,"ip":"8.8.8.8","port":25565}`)},
		{name: "missing ip", contentType: "application/json", body: list(`{"id":1,"ip":"","port":25565}`)},
		{name: "bad port", contentType: "application/json", body: list(`{"id":1,"ip":"8.8.8.8","port":70000}`)},
		{name: "html page", contentType: "text/html", body: `<html>maintenance</html>`},
		{name: "empty object", contentType: "application/json", body: `{}`},
		{name: "wrong object", contentType: "application/json", body: `{"object":"node","attributes":{"id":1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(tt.body))
			}))
			got, err := c.ListAllocations(context.Background(), 1)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("ListAllocations = %v, %v, want ErrMalformed", got, err)
			}
		})
	}
}

func TestAPIErrorWithoutDetail(t *testing.T) {
	e := newAPIError(http.StatusBadGateway, "<html>bad gateway</html>")
	if e.Detail != "" {
		t.Errorf("Detail = %q, want empty", e.Detail)
	}
	if e.Error() != "panel returned 502" {
		t.Errorf("Error() = %q", e.Error())
	}
}
