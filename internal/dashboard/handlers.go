package dashboard

import (
	"encoding/json"
	"net/http"
)

// statsResponse is the JSON response for the stats endpoint.
type statsResponse struct {
	ActiveMounts map[string]int `json:"active_mounts"`
	Total        int            `json:"total"`
}

func (d *Dashboard) handleStats(w http.ResponseWriter, r *http.Request) {
	mounts := d.ActiveMounts()
	total := 0
	for _, n := range mounts {
		total += n
	}
	writeJSON(w, http.StatusOK, statsResponse{ActiveMounts: mounts, Total: total})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
