package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vaniflow/vaniflow/internal/domain"
	"github.com/vaniflow/vaniflow/internal/store"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
	Service string `json:"service,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps any error to the structured failure body. Unclassified
// errors become opaque 500s so internals never leak.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *domain.Error
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		}
		writeJSON(w, appErr.Status, errorBody{Error: errorDetail{
			Reason:  appErr.Reason,
			Message: appErr.Message,
			Service: appErr.Service,
		}})
		return
	}

	s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{
		Reason:  "internal",
		Message: "internal server error",
	}})
}

// decodeBody parses a JSON request body, tolerating an empty body.
func decodeBody(r *http.Request, into any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return domain.BadRequestf("invalid request body")
	}
	return nil
}

// serializeDoc exposes a stored document with its id under "id".
func serializeDoc(doc store.Doc) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == store.IDField {
			out["id"] = v
			continue
		}
		out[k] = v
	}
	return out
}

func serializeDocs(docs []store.Doc) []map[string]any {
	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		out = append(out, serializeDoc(doc))
	}
	return out
}

// docID reads the generated id off a stored document.
func docID(doc store.Doc) string {
	id, _ := doc[store.IDField].(string)
	return id
}
