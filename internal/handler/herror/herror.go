package herror

import (
	"encoding/json"
	"log"
	"net/http"
)

const (
	CODE_AUTH_HEADER_MISSING = iota + 100
	CODE_AUTH_TOKEN_INVALID
)

type Error struct {
	Code int    `json:"code"`
	Text string `json:"text,omitempty"`
}

func RespondErrorWithCode(w http.ResponseWriter, httpCode, appCode int) {
	w.WriteHeader(httpCode)
	RespondJSON(w, Error{Code: appCode})
}

func RespondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
