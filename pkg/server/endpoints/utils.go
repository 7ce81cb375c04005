package endpoints

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/acgn-assistant/acgn-assistant/pkg/identity"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

func respondWithError(w http.ResponseWriter, code int, payload interface{}) {
	respondWithJSON(w, code, map[string]interface{}{"error": payload})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithMessage writes {"error": {"error": msg}}
func respondWithMessage(w http.ResponseWriter, code int, msg string) {
	respondWithError(w, code, map[string]string{"error": msg})
}

// respondInternal logs err and hides it from the client
func respondInternal(w http.ResponseWriter, logger *zap.Logger, msg string, err error) {
	logger.Error(msg, zap.Error(err))
	respondWithMessage(w, http.StatusInternalServerError, "internal server error")
}

// decodeJSON reads the body into dst and validates it. On failure it has
// already written a 422 response.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			respondWithMessage(w, http.StatusUnprocessableEntity, "request body is required")
			return false
		}
		respondWithMessage(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return false
	}
	if err := validateStruct(dst); err != nil {
		respondWithMessage(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		respondWithMessage(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return false
	}
	if err := validateStruct(dst); err != nil {
		respondWithMessage(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

// pathID parses a uuid path variable. Ids that don't parse can't exist, so
// the caller answers with its usual 404.
func pathID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	return id, err == nil
}

// queryInt reads an integer query parameter, falling back to def when it is
// absent. A malformed value is reported as not ok.
func queryInt(r *http.Request, name string, def int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// queryBool treats 1/true/yes/on as true
func queryBool(r *http.Request, name string) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(name))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// currentIdentity returns the caller set by the JWT middleware. Routes using
// it are always mounted behind that middleware.
func currentIdentity(r *http.Request) *identity.Identity {
	id, _ := identity.Get(r.Context())
	return id
}

// clientIP is the caller's address as text, or "" when unknown
func clientIP(r *http.Request) string {
	if ip := identity.ClientIP(r); ip != nil {
		return ip.String()
	}
	return ""
}
