package backendtest

import (
	"encoding/json"
	"net/http"

	"codeberg.org/mutker/powerctl/internal/backend"
)

type wireRequest struct {
	ID         uint64 `json:"id"`
	Function   string `json:"function"`
	Parameters []any  `json:"parameters"`
}

type wireResponse struct {
	ID     uint64 `json:"id"`
	Result []any  `json:"result"`
}

// Handler serves inv over the backend's HTTP call protocol. Invoker errors
// become a 500 with the error text as body.
func Handler(inv backend.Invoker) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /usdpl/call", func(w http.ResponseWriter, r *http.Request) {
		var req wireRequest
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		result, err := inv.Invoke(r.Context(), req.Function, req.Parameters)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(wireResponse{ID: req.ID, Result: result})
	})

	return mux
}
