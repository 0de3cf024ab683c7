package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"renovationcost/services"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var errUploadTooLarge = errors.New("file exceeds max size")

// readUpload reads the "file" field of a multipart form, bounded by the
// configured upload limit.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, "", fmt.Errorf("invalid multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("file is required: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, "", fmt.Errorf("%w (%d bytes)", errUploadTooLarge, s.cfg.MaxUploadBytes)
	}
	return data, sanitizeFilename(header.Filename), nil
}

func (s *Server) uploadError(w http.ResponseWriter, err error) {
	if errors.Is(err, errUploadTooLarge) {
		ErrorToast(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	ErrorToast(w, http.StatusBadRequest, err.Error())
}

// isKind reports whether the detected type is want or descends from it.
func isKind(m *mimetype.MIME, want string) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is(want) {
			return true
		}
	}
	return false
}

// roomView is one extracted room as returned to clients.
type roomView struct {
	Name       string                  `json:"name"`
	Properties services.RoomProperties `json:"properties"`
	Selectable bool                    `json:"selectable"`
	Selected   bool                    `json:"selected"`
}

type roomsResponse struct {
	Survey   string          `json:"survey"`
	Rooms    []roomView      `json:"rooms"`
	Errors   []roomErrorView `json:"errors"`
	Sections map[string]int  `json:"sections,omitempty"`
}

type roomErrorView struct {
	Label string `json:"label"`
	Row   int    `json:"row"`
	Error string `json:"error"`
}

func (s *Server) handleSurveyUpload(w http.ResponseWriter, r *http.Request) {
	ws := GetWorkspace(r)

	data, name, err := s.readUpload(w, r)
	if err != nil {
		s.uploadError(w, err)
		return
	}
	if mt := mimetype.Detect(data); !isKind(mt, "text/plain") {
		ErrorToast(w, http.StatusUnsupportedMediaType, fmt.Sprintf("survey export must be a text file, got %s", mt.String()))
		return
	}

	sections, err := services.ParseSections(data)
	if err != nil {
		var encErr *services.EncodingError
		if errors.As(err, &encErr) {
			ErrorToast(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("failed to parse survey", "file", name, "error", err)
		ErrorToast(w, http.StatusInternalServerError, "failed to parse survey")
		return
	}
	ext := services.ExtractRooms(sections, services.DefaultSurveyColumns())

	counts := make(map[string]int)
	for _, sec := range sections {
		counts[sec.Kind.String()]++
	}

	ws.mu.Lock()
	ws.SurveyName = name
	ws.Extraction = ext
	ws.Selection = services.NewSession(ext)
	ws.Selection.ReductionPercent = ws.Budget.ReductionPercent
	resp := roomsView(ws)
	ws.mu.Unlock()
	resp.Sections = counts

	s.log.Info("survey loaded",
		"session", ws.ID,
		"file", name,
		"sections", len(sections),
		"rooms", len(ext.Order),
		"row_errors", len(ext.Errors),
	)
	SetToast(w, "success", fmt.Sprintf("%d rooms loaded from %s", len(ext.Order), name))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	ws := GetWorkspace(r)

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if !ws.hasSurvey() {
		ErrorToast(w, http.StatusConflict, "no survey loaded")
		return
	}
	writeJSON(w, http.StatusOK, roomsView(ws))
}

// roomsView must be called with ws.mu held.
func roomsView(ws *Workspace) roomsResponse {
	selectable := make(map[string]bool)
	for _, name := range ws.Extraction.SelectableRooms() {
		selectable[name] = true
	}

	resp := roomsResponse{
		Survey: ws.SurveyName,
		Rooms:  []roomView{},
		Errors: []roomErrorView{},
	}
	for _, name := range ws.Extraction.Order {
		resp.Rooms = append(resp.Rooms, roomView{
			Name:       name,
			Properties: ws.Extraction.Rooms[name],
			Selectable: selectable[name],
			Selected:   selectable[name] && ws.Selection.Rooms[name],
		})
	}
	for _, e := range ws.Extraction.Errors {
		resp.Errors = append(resp.Errors, roomErrorView{Label: e.Label, Row: e.Row, Error: e.Err.Error()})
	}
	return resp
}

func (s *Server) handlePriceListUpload(w http.ResponseWriter, r *http.Request) {
	ws := GetWorkspace(r)

	data, name, err := s.readUpload(w, r)
	if err != nil {
		s.uploadError(w, err)
		return
	}
	if mt := mimetype.Detect(data); !isKind(mt, xlsxMIME) && !isKind(mt, "application/zip") {
		ErrorToast(w, http.StatusUnsupportedMediaType, fmt.Sprintf("price list must be an .xlsx workbook, got %s", mt.String()))
		return
	}

	rows, err := services.LoadPriceList(bytes.NewReader(data), services.PriceListOptions{Sheet: s.cfg.PriceListSheet})
	if err != nil {
		ErrorToast(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	catalog := services.BuildCatalog(rows, nil)

	ws.mu.Lock()
	ws.Catalog = catalog
	ws.mu.Unlock()

	s.log.Info("price list loaded",
		"session", ws.ID,
		"file", name,
		"categories", len(catalog.Categories()),
		"activities", catalog.Len(),
	)
	SetToast(w, "success", fmt.Sprintf("%d activities loaded from %s", catalog.Len(), name))
	writeJSON(w, http.StatusOK, catalogView(catalog, nil, "", nil))
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
