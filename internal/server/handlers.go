package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/qrdeck/qrdeck/internal/logging"
	"github.com/qrdeck/qrdeck/internal/model"
	"github.com/qrdeck/qrdeck/internal/qrcode"
	"github.com/qrdeck/qrdeck/internal/storage"
	"github.com/qrdeck/qrdeck/internal/validate"
)

type ackResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	ID      string `json:"id,omitempty"`
}

type listResponse struct {
	Projects []model.Project `json:"projects"`
}

type saveRequest struct {
	ID      string `json:"id" validate:"omitempty,max=128"`
	Name    string `json:"name" validate:"required,max=128"`
	Text    string `json:"text" validate:"required,max=2048"`
	Time    string `json:"time"`
	QRColor string `json:"qrColor" validate:"omitempty,hexcolor,len=7"`
	BGColor string `json:"bgColor" validate:"omitempty,hexcolor,len=7"`
	QRImage string `json:"qrImage"`
}

type updateRequest struct {
	Name string `json:"name" validate:"required,max=128"`
	Text string `json:"text" validate:"required,max=2048"`
}

type colorRequest struct {
	QRColor string `json:"qrColor" validate:"required,hexcolor,len=7"`
	BGColor string `json:"bgColor" validate:"required,hexcolor,len=7"`
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.List()
	if err != nil {
		s.internalError(w, r, "list projects", err)
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	writeJSON(w, http.StatusOK, listResponse{Projects: projects})
}

func (s *Server) handleSaveProject(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	} else if existing, err := s.store.Get(id); err == nil && existing != nil {
		writeJSON(w, http.StatusConflict, ackResponse{Message: "Project already exists"})
		return
	}

	p := model.Project{
		ID:      id,
		Name:    req.Name,
		Text:    req.Text,
		QRColor: req.QRColor,
		BGColor: req.BGColor,
		QRImage: req.QRImage,
	}
	p.Touch(s.opts.Now())
	if err := s.store.Put(p); err != nil {
		s.internalError(w, r, "save project", err)
		return
	}
	logging.InfoContext(r.Context(), "project created", logging.KeyProject, id)
	writeJSON(w, http.StatusCreated, ackResponse{OK: true, ID: id})
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}

	p.Name = req.Name
	p.Text = req.Text
	p.Touch(s.opts.Now())
	if err := s.store.Put(*p); err != nil {
		s.internalError(w, r, "update project", err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{OK: true})
}

func (s *Server) handleUpdateColor(w http.ResponseWriter, r *http.Request) {
	var req colorRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}

	p.QRColor = req.QRColor
	p.BGColor = req.BGColor
	p.Touch(s.opts.Now())
	if err := s.store.Put(*p); err != nil {
		s.internalError(w, r, "update color", err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{OK: true})
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(id); err != nil {
		if storage.IsErrKeyNotFound(err) {
			writeJSON(w, http.StatusNotFound, ackResponse{Message: "Project not found"})
			return
		}
		s.internalError(w, r, "delete project", err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{OK: true})
}

func (s *Server) handleScanAnalytics(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}
	events, err := s.store.Scans(p.ID)
	if err != nil {
		s.internalError(w, r, "scan analytics", err)
		return
	}
	writeJSON(w, http.StatusOK, model.ScanAnalytics{ScanCount: p.ScanCount, ScanEvents: events})
}

// handleTrack records a scan and redirects to the project's payload.
// Payloads that are not URLs redirect to a web search for them.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	now := s.opts.Now().UTC()

	event := model.ScanEvent{
		Timestamp: now.Format("2006-01-02T15:04:05.000Z07:00"),
		UserAgent: validate.TruncateString(r.UserAgent(), 512),
		Location:  locationFrom(r),
	}
	p, err := s.store.RecordScan(id, event, now)
	if err != nil {
		if storage.IsErrKeyNotFound(err) {
			s.metrics.RecordUnknownScan()
			http.NotFound(w, r)
			return
		}
		s.internalError(w, r, "track", err)
		return
	}
	s.metrics.RecordScan(now)

	logging.DebugContext(r.Context(), "scan recorded", logging.KeyProject, id, logging.KeyCount, p.ScanCount)
	http.Redirect(w, r, qrcode.LinkToOpen(p.Text), http.StatusFound)
}

func locationFrom(r *http.Request) *model.Location {
	city := strings.TrimSpace(r.Header.Get(HeaderGeoCity))
	country := strings.TrimSpace(r.Header.Get(HeaderGeoCountry))
	if city == "" && country == "" {
		return nil
	}
	return &model.Location{City: city, Country: country}
}

// lookup loads the project named by the {id} route parameter, writing a
// 404 when it does not exist.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*model.Project, bool) {
	id := chi.URLParam(r, "id")
	p, err := s.store.Get(id)
	if err != nil {
		if storage.IsErrKeyNotFound(err) {
			writeJSON(w, http.StatusNotFound, ackResponse{Message: "Project not found"})
			return nil, false
		}
		s.internalError(w, r, "get project", err)
		return nil, false
	}
	return p, true
}

// decodeRequest parses and validates a JSON body, writing a 400 on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ackResponse{Message: "Request body too large"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, ackResponse{Message: "Invalid JSON body"})
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ackResponse{Message: err.Error()})
		return false
	}
	return true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logging.ErrorContext(r.Context(), "request failed", logging.KeyOperation, op, logging.KeyError, err)
	s.metrics.RecordError(op, err, s.opts.Now())
	writeJSON(w, http.StatusInternalServerError, ackResponse{Message: "Internal server error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to write response", logging.KeyError, err)
	}
}
