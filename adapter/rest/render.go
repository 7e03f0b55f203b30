package rest

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
)

// renderJSON renders 'v' as JSON and writes it as a response into w.
func renderJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

type errorResponse struct {
	Error string `json:"error"`
}

func renderJSONError(w http.ResponseWriter, status int, err error) {
	renderJSON(w, status, errorResponse{Error: err.Error()})
}

// readRequestJSON reads and decodes a JSON body into v. A Content-Type
// header, when present, must be application/json.
func readRequestJSON(req *http.Request, v any) error {
	if contentType := req.Header.Get("Content-Type"); contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return err
		}
		if mediaType != "application/json" {
			return fmt.Errorf("expect application/json Content-Type, got %s", mediaType)
		}
	}

	return json.NewDecoder(req.Body).Decode(v)
}
