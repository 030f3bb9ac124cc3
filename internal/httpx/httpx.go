package httpx

import (
	"encoding/json"
	"net/http"
)

type ErrResponse struct {
	HTTPStatusCode int    `json:"-"`
	Message        string `json:"error"`
	Kind           string `json:"kind,omitempty"`
	Detail         string `json:"detail,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, e ErrResponse) {
	WriteJSON(w, e.HTTPStatusCode, e)
}
