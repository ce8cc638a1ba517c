package timesheet

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/timecard/internal/http/auth"
	"github.com/MrJamesThe3rd/timecard/internal/importer"
	"github.com/MrJamesThe3rd/timecard/internal/timesheet"
)

const maxUploadSize = 5 << 20

type Handler struct {
	svc       *timesheet.Service
	importSvc *importer.Service
}

func NewHandler(svc *timesheet.Service, importSvc *importer.Service) *Handler {
	return &Handler{svc: svc, importSvc: importSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))

		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/pending", h.pending)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.updateHeader)
		r.Post("/{id}/clock-in", h.clockIn)
		r.Post("/{id}/clock-out", h.clockOut)
		r.Post("/{id}/submit", h.submit)
		r.Post("/{id}/approve", h.approve)
		r.Patch("/days/{dayID}", h.updateDay)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.AllowContentType("multipart/form-data"))

		r.Post("/{id}/days/import", h.importDays)
	})
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", timesheet.ErrInvalidInput, name)
	}

	return id, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTimesheetRequest
	if err := decodeOptional(r.Body, &req); err != nil {
		writeError(w, err)
		return
	}

	monthYear, err := parseMonth(req.MonthYear)
	if err != nil {
		writeError(w, err)
		return
	}

	ts, created, err := h.svc.Create(r.Context(), timesheet.CreateParams{
		EquipmentID:     req.EquipmentID,
		DriverID:        req.DriverID,
		MonthYear:       monthYear,
		ProjectLocation: req.ProjectLocation,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	writeJSON(w, status, toResponse(ts))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := timesheet.ListFilter{}
	query := r.URL.Query()

	if s := query.Get("status"); s != "" {
		status := timesheet.Status(s)
		if !status.Valid() {
			writeError(w, fmt.Errorf("%w: unknown status %q", timesheet.ErrInvalidInput, s))
			return
		}

		filter.Status = &status
	}

	if s := query.Get("equipment_id"); s != "" {
		filter.EquipmentID = new(s)
	}

	if s := query.Get("driver_id"); s != "" {
		filter.DriverID = new(s)
	}

	if s := query.Get("month_year"); s != "" {
		monthYear, err := parseMonth(s)
		if err != nil {
			writeError(w, err)
			return
		}

		filter.MonthYear = &monthYear
	}

	sheets, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(sheets))
}

func (h *Handler) pending(w http.ResponseWriter, r *http.Request) {
	sheets, err := h.svc.Pending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(sheets))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	ts, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(ts))
}

func (h *Handler) updateHeader(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	patch, err := decodeHeaderPatch(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	ts, err := h.svc.UpdateHeader(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(ts))
}

func (h *Handler) clockIn(w http.ResponseWriter, r *http.Request) {
	h.punch(w, r, h.svc.ClockIn)
}

func (h *Handler) clockOut(w http.ResponseWriter, r *http.Request) {
	h.punch(w, r, h.svc.ClockOut)
}

type punchFunc func(ctx context.Context, id uuid.UUID, logDate *time.Time) (*timesheet.Timesheet, error)

func (h *Handler) punch(w http.ResponseWriter, r *http.Request, fn punchFunc) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req punchRequest
	if err := decodeOptional(r.Body, &req); err != nil {
		writeError(w, err)
		return
	}

	logDate, err := parseLogDate(req.LogDate)
	if err != nil {
		writeError(w, err)
		return
	}

	ts, err := fn(r.Context(), id, logDate)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(ts))
}

func (h *Handler) updateDay(w http.ResponseWriter, r *http.Request) {
	dayID, err := pathID(r, "dayID")
	if err != nil {
		writeError(w, err)
		return
	}

	patch, err := decodeDayPatch(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	ts, err := h.svc.UpdateDay(r.Context(), dayID, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(ts))
}

func (h *Handler) importDays(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, fmt.Errorf("%w: failed to parse form: %w", timesheet.ErrInvalidInput, err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("%w: file field is required", timesheet.ErrInvalidInput))
		return
	}
	defer file.Close()

	rows, err := h.importSvc.Import(importer.Format(r.FormValue("format")), file)
	if err != nil {
		writeError(w, err)
		return
	}

	ts, err := h.svc.ImportDays(r.Context(), id, rows)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(ts))
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	ts, err := h.svc.Submit(r.Context(), id, auth.Actor(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(ts))
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req approveRequest
	if err := decodeOptional(r.Body, &req); err != nil {
		writeError(w, err)
		return
	}

	ts, err := h.svc.Approve(r.Context(), id, req.Comment, auth.Actor(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(ts))
}
