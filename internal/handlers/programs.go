package handlers

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"coach-hub/internal/common/errors"
	"coach-hub/internal/common/logging"
	"coach-hub/internal/common/validation"
	"coach-hub/internal/programcsv"
	"coach-hub/internal/upload"
)

const (
	// multipartMemory is how much of a form is kept in memory before
	// net/http spills it to disk.
	multipartMemory = 8 << 20
	// multipartOverhead allows for boundaries and the other form fields.
	multipartOverhead = 1 << 20
)

// UploadForm holds the optional form fields of a CSV upload.
type UploadForm struct {
	Type string `json:"type" validate:"omitempty,program_type"`
	Mode string `json:"mode" validate:"omitempty,upload_mode"`
}

// CommitRequest overrides the mode or program type chosen at upload time.
type CommitRequest struct {
	Mode string `json:"mode" validate:"omitempty,upload_mode"`
	Type string `json:"type" validate:"omitempty,program_type"`
}

// UploadResponse is the session after the file has been parsed.
type UploadResponse struct {
	Session programcsv.SessionSnapshot `json:"session"`
}

// UploadProgramCSV parses a program CSV into a new upload session
// @Summary Upload a program CSV
// @Description Spools and parses a CSV for the activity. The response carries the sealed validation report and sample rows; nothing is persisted until the session is committed.
// @Tags programs
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param activityId path string true "Activity ID"
// @Param file formData file true "CSV file"
// @Param type formData string false "Program type override: fitness or nutrition"
// @Param mode formData string false "Upload mode: append (default) or replace"
// @Success 201 {object} UploadResponse "Parsed session"
// @Failure 400 {object} ErrorResponse "Invalid form or unreadable CSV"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Caller is not a coach"
// @Failure 429 {object} ErrorResponse "Too many uploads"
// @Router /api/programs/{activityId}/csv [post]
func (h *Handlers) UploadProgramCSV(w http.ResponseWriter, r *http.Request) {
	actor, err := coachFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	activityID := mux.Vars(r)["activityId"]

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			h.writeError(w, r, errors.ValidationError(fmt.Sprintf("el archivo supera el tamaño máximo de %d bytes", h.maxUploadBytes)))
			return
		}
		h.writeError(w, r, errors.ValidationError("invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := UploadForm{Type: r.FormValue("type"), Mode: r.FormValue("mode")}
	if err := validation.ValidateStruct(&form); err != nil {
		h.writeError(w, r, err)
		return
	}
	override, err := programcsv.ParseProgramType(form.Type)
	if err != nil {
		h.writeError(w, r, errors.ValidationError(err.Error()))
		return
	}
	mode, err := programcsv.ParseUploadMode(form.Mode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, errors.ValidationError("field 'file' is required"))
		return
	}
	defer file.Close()

	session := h.sessions.Create(activityID, actor.CoachID)
	log := h.logger.WithContext(r.Context()).WithFields(
		logging.String("session_id", session.ID),
		logging.String("activity_id", activityID),
	)

	path, err := h.sessions.Spool(session, file)
	if err != nil {
		_ = h.sessions.Delete(session.ID)
		h.writeError(w, r, err)
		return
	}

	if _, err := session.Load(r.Context(), h.ingestor, path, header.Filename, override, mode); err != nil {
		log.Warn("Program CSV rejected", logging.Err(err))
		_ = h.sessions.Delete(session.ID)
		h.writeError(w, r, err)
		return
	}

	snap := session.Snapshot()
	if snap.Preview != nil && snap.Preview.Report != nil {
		log.Info("Program CSV parsed",
			logging.String("program_type", string(snap.Preview.Type)),
			logging.Int("rows", snap.Preview.Report.TotalRows),
			logging.Int("invalid_rows", snap.Preview.Report.InvalidRows),
		)
	}
	writeJSON(w, http.StatusCreated, UploadResponse{Session: snap})
}

// GetUploadSession returns an upload session
// @Summary Get an upload session
// @Description Returns the current state, preview and validation report of an upload session
// @Tags programs
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Success 200 {object} programcsv.SessionSnapshot "Session"
// @Failure 404 {object} ErrorResponse "Session not found"
// @Router /api/programs/csv/{sessionId} [get]
func (h *Handlers) GetUploadSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.ownedSession(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// CommitUploadSession persists the previewed rows
// @Summary Commit an upload session
// @Description Re-reads the spooled file and writes its valid rows. In replace mode the activity's rows of that program type are deleted first.
// @Tags programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param request body CommitRequest false "Mode or type override"
// @Success 200 {object} upload.Result "Rows written"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 404 {object} ErrorResponse "Session not found"
// @Failure 409 {object} ErrorResponse "Session has no parsed file"
// @Failure 502 {object} upload.Result "The store rejected the upload"
// @Router /api/programs/csv/{sessionId}/commit [post]
func (h *Handlers) CommitUploadSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.ownedSession(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req CommitRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		h.writeError(w, r, err)
		return
	}

	var (
		mode        programcsv.UploadMode
		programType programcsv.ProgramType
	)
	if req.Mode != "" {
		if mode, err = programcsv.ParseUploadMode(req.Mode); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	if req.Type != "" {
		if programType, err = programcsv.ParseProgramType(req.Type); err != nil {
			h.writeError(w, r, errors.ValidationError(err.Error()))
			return
		}
	}

	op, ok := session.BeginCommit()
	if !ok {
		h.writeError(w, r, errors.PreconditionError("no hay un archivo listo para subir"))
		return
	}
	if mode != "" {
		op.Mode = mode
	}
	if programType != "" {
		op.Type = programType
	}

	result := h.executor.Execute(r.Context(), op, upload.Target{
		ActivityID: session.ActivityID,
		CoachID:    session.CoachID,
	})
	if !result.Success {
		session.AbortCommit()
		writeJSON(w, http.StatusBadGateway, result)
		return
	}
	session.MarkCommitted()
	writeJSON(w, http.StatusOK, result)
}

// DeleteUploadSession discards an upload session
// @Summary Discard an upload session
// @Description Drops the preview and the spooled file
// @Tags programs
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Success 204 "Session discarded"
// @Failure 404 {object} ErrorResponse "Session not found"
// @Router /api/programs/csv/{sessionId} [delete]
func (h *Handlers) DeleteUploadSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.ownedSession(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.sessions.Delete(session.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedSession loads the session named in the path. Sessions of other
// coaches are reported as missing.
func (h *Handlers) ownedSession(r *http.Request) (*programcsv.Session, error) {
	actor, err := coachFrom(r)
	if err != nil {
		return nil, err
	}
	session, err := h.sessions.Get(mux.Vars(r)["sessionId"])
	if err != nil {
		return nil, err
	}
	if session.CoachID != actor.CoachID {
		return nil, errors.NotFoundError("upload session")
	}
	return session, nil
}
