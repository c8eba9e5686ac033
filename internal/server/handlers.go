package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"

	"github.com/yourusername/navwatch/internal/dashboard"
	"github.com/yourusername/navwatch/internal/ingest"
)

// handleUpdate runs the ingest pipeline for one request
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	client := clientIP(r)

	if !s.limiter.Allow(client) {
		s.writeResult(w, s.ingest.Reject(ingest.NewError(ingest.KindRateLimited, ingest.MsgRateLimited), client))
		return
	}

	var body []byte
	if r.Method == http.MethodPost {
		var err error
		body, err = io.ReadAll(io.LimitReader(r.Body, ingest.MaxBodyBytes+1))
		if err != nil {
			s.logger.WithError(err).WithField("request_id", RequestID(r.Context())).Warn("Failed to read request body")
			body = nil
		}
	}

	result := s.ingest.Handle(r.Context(), ingest.Request{
		Method:     r.Method,
		Body:       body,
		RemoteAddr: client,
	})
	if result.Code == http.StatusMethodNotAllowed {
		w.Header().Set("Allow", http.MethodPost)
	}
	s.writeResult(w, result)
}

func (s *Server) writeResult(w http.ResponseWriter, result ingest.Result) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(result.Response); err != nil {
		s.logger.WithError(err).Error("Failed to encode update response")
		http.Error(w, ingest.MsgInternalError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(result.Code)
	_, _ = w.Write(buf.Bytes())
}

// handleDashboard renders the status page
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view := s.dashboard.Build(r.Context())

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, view); err != nil {
		s.logger.WithError(err).WithField("request_id", RequestID(r.Context())).Error("Dashboard render failed")
		http.Error(w, ingest.MsgInternalError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleScript serves the refresh script
func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(dashboard.Script())
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
