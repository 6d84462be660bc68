package main

import (
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"

	"spamfilter/classifier"
	"spamfilter/logger"

	jsoniterator "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

const maxMessageSize = 1 << 20

var json = jsoniterator.ConfigCompatibleWithStandardLibrary

type server struct {
	model *classifier.Model
	log   *logger.Logger
}

func newServer(m *classifier.Model, l *logger.Logger) *server {
	return &server{
		model: m,
		log:   l,
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/classify", s.classifyHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	return mux
}

type classifyRequest struct {
	Text string `json:"text"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		// Headers are out already, nothing left to tell the client
		return
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (s *server) classifyHandler(w http.ResponseWriter, r *http.Request) {
	// Params: mode of the request body, plain text or JSON
	defer r.Body.Close()

	if r.Method != http.MethodPost {
		code := http.StatusMethodNotAllowed
		http.Error(w, http.StatusText(code), code)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMessageSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("message exceeds %d bytes", tooLarge.Limit))
			return
		}

		writeError(w, http.StatusBadRequest, "can't read body")
		return
	}

	var text string

	switch mode := r.URL.Query().Get("mode"); mode {
	case "", "plain":
		text = string(data)
	case "json":
		var req classifyRequest

		err = json.Unmarshal(data, &req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		text = req.Text
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unexpected mode %q", mode))
		return
	}

	res := s.model.Classify(text)
	s.log.Debugf("classified %d bytes: %s", len(text), res)

	writeJSON(w, http.StatusOK, res)
}

func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
