package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, errName, message string) {
	log.Printf("[ERROR] HTTP %d - %s: %s", status, errName, message)
	writeJSON(w, status, ErrorResponse{Error: errName, Message: message})
}
