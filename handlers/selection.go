package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"renovationcost/services"
)

type activityView struct {
	Key         string                 `json:"key"`
	Item        string                 `json:"item"`
	Name        string                 `json:"name"`
	Unit        string                 `json:"unit"`
	UnitPrice   float64                `json:"unit_price"`
	Measurement string                 `json:"measurement"`
	Mode        services.CostMode      `json:"mode"`
	Input       services.QuantityInput `json:"input"`
	Seed        *float64               `json:"seed,omitempty"`
	Enabled     *bool                  `json:"enabled,omitempty"`
	Saved       *services.CostInput    `json:"saved,omitempty"`
}

type categoryView struct {
	Name       string         `json:"name"`
	Activities []activityView `json:"activities"`
}

type activitiesResponse struct {
	Room       string         `json:"room,omitempty"`
	Categories []categoryView `json:"categories"`
}

// catalogView lists the catalog by category. When props is not nil the
// activities also carry the seed value and the saved state for room.
func catalogView(c *services.Catalog, props *services.RoomProperties, room string, sel *services.Session) activitiesResponse {
	resp := activitiesResponse{Room: room, Categories: []categoryView{}}
	for _, cat := range c.Categories() {
		cv := categoryView{Name: cat, Activities: []activityView{}}
		for _, a := range c.Activities(cat) {
			av := activityView{
				Key:         a.Key(),
				Item:        a.Item,
				Name:        a.Name,
				Unit:        a.Unit,
				UnitPrice:   a.UnitPrice,
				Measurement: a.Measurement,
				Mode:        a.Mode,
				Input:       services.QuantityInputFor(a.Unit),
			}
			if props != nil {
				seed := services.Seed(a, *props)
				enabled := sel.Enabled(room, a.Key())
				av.Seed = &seed
				av.Enabled = &enabled
				if in, ok := sel.Entries[services.EntryKey{Room: room, Activity: a.Key()}]; ok {
					av.Saved = &in
				}
			}
			cv.Activities = append(cv.Activities, av)
		}
		resp.Categories = append(resp.Categories, cv)
	}
	return resp
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	ws := GetWorkspace(r)

	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.Catalog == nil {
		ErrorToast(w, http.StatusConflict, "no price list loaded")
		return
	}

	room := r.URL.Query().Get("room")
	if room == "" {
		writeJSON(w, http.StatusOK, catalogView(ws.Catalog, nil, "", nil))
		return
	}
	props, ok := ws.Extraction.Rooms[room]
	if !ok {
		ErrorToast(w, http.StatusNotFound, "unknown room: "+room)
		return
	}
	writeJSON(w, http.StatusOK, catalogView(ws.Catalog, &props, room, ws.Selection))
}

// pathParam returns a decoded URL parameter. Room names carry '#', spaces
// and accents, so clients percent-encode them. chi matches on r.URL.RawPath
// when it is set and on the already decoded r.URL.Path otherwise, so only
// the first case needs unescaping.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

// selectableRoom must be called with ws.mu held.
func selectableRoom(ws *Workspace, room string) bool {
	for _, name := range ws.Extraction.SelectableRooms() {
		if name == room {
			return true
		}
	}
	return false
}

type selectRoomRequest struct {
	Selected bool `json:"selected"`
}

func (s *Server) handleSelectRoom(w http.ResponseWriter, r *http.Request) {
	ws := GetWorkspace(r)
	room := pathParam(r, "room")

	var req selectRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorToast(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	if !selectableRoom(ws, room) {
		ErrorToast(w, http.StatusNotFound, "unknown room: "+room)
		return
	}
	ws.Selection.SelectRoom(room, req.Selected)

	writeJSON(w, http.StatusOK, map[string]any{
		"room":     room,
		"selected": req.Selected,
		"rooms":    ws.Selection.SelectedRooms(ws.Extraction),
	})
}

type saveActivityResponse struct {
	Room     string              `json:"room"`
	Activity string              `json:"activity"`
	Input    services.CostInput  `json:"input"`
	Result   services.CostResult `json:"result"`
}

// handleSaveActivity enables an activity for a room. A JSON body with
// quantity and height overwrites the saved inputs; an empty body keeps them.
func (s *Server) handleSaveActivity(w http.ResponseWriter, r *http.Request) {
	ws := GetWorkspace(r)
	room := pathParam(r, "room")
	key := pathParam(r, "activity")

	var in *services.CostInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		ErrorToast(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	a, props, ok := s.lookupEntry(w, ws, room, key)
	if !ok {
		return
	}

	if in == nil {
		ws.Selection.Enable(room, key)
	} else if err := ws.Selection.Save(room, key, *in); err != nil {
		ErrorToast(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	saved := ws.Selection.Entries[services.EntryKey{Room: room, Activity: key}]
	res, err := services.Evaluate(a, props, saved)
	if err != nil {
		ErrorToast(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if res.MissingMeasurement {
		SetToast(w, "warning", "room "+room+" has no value for "+a.Measurement+"; using 0")
	}

	writeJSON(w, http.StatusOK, saveActivityResponse{
		Room:     room,
		Activity: key,
		Input:    saved,
		Result:   res,
	})
}

func (s *Server) handleDisableActivity(w http.ResponseWriter, r *http.Request) {
	ws := GetWorkspace(r)
	room := pathParam(r, "room")
	key := pathParam(r, "activity")

	ws.mu.Lock()
	defer ws.mu.Unlock()

	if _, _, ok := s.lookupEntry(w, ws, room, key); !ok {
		return
	}
	ws.Selection.Disable(room, key)
	w.WriteHeader(http.StatusNoContent)
}

// lookupEntry resolves a (room, activity) pair and writes the error
// response when either is unknown. It must be called with ws.mu held.
func (s *Server) lookupEntry(w http.ResponseWriter, ws *Workspace, room, key string) (services.Activity, services.RoomProperties, bool) {
	if ws.Catalog == nil {
		ErrorToast(w, http.StatusConflict, "no price list loaded")
		return services.Activity{}, services.RoomProperties{}, false
	}
	if !selectableRoom(ws, room) {
		ErrorToast(w, http.StatusNotFound, "unknown room: "+room)
		return services.Activity{}, services.RoomProperties{}, false
	}
	a, ok := ws.Catalog.Lookup(key)
	if !ok {
		ErrorToast(w, http.StatusNotFound, "unknown activity: "+key)
		return services.Activity{}, services.RoomProperties{}, false
	}
	return a, ws.Extraction.Rooms[room], true
}

type budgetRequest struct {
	ReductionPercent float64 `json:"reduction_percent"`
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	ws := GetWorkspace(r)

	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorToast(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	budget := ws.Budget
	budget.ReductionPercent = req.ReductionPercent
	if err := budget.Validate(); err != nil {
		ErrorToast(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	ws.Budget = budget
	ws.Selection.ReductionPercent = budget.ReductionPercent

	writeJSON(w, http.StatusOK, budget)
}
