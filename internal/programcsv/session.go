package programcsv

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"coach-hub/internal/common/errors"
	"coach-hub/internal/common/logging"

	"github.com/google/uuid"
)

// SessionState is where an upload session is in its lifecycle.
type SessionState string

const (
	SessionEmpty      SessionState = "empty"
	SessionParsing    SessionState = "parsing"
	SessionReady      SessionState = "ready"
	SessionFailed     SessionState = "failed"
	SessionCommitting SessionState = "committing"
	SessionCommitted  SessionState = "committed"
)

// Session holds the preview of one uploaded file for one activity. Selecting
// a new file resets it; nothing carries over from the previous file.
type Session struct {
	ID         string
	ActivityID string
	CoachID    string

	mu        sync.RWMutex
	state     SessionState
	preview   *Preview
	operation *Operation
	failure   string
	spoolPath string
	createdAt time.Time
	touchedAt time.Time
}

// SessionSnapshot is a copy of a session's state safe to serialize.
type SessionSnapshot struct {
	ID         string       `json:"id"`
	ActivityID string       `json:"activityId"`
	State      SessionState `json:"state"`
	Preview    *Preview     `json:"preview,omitempty"`
	Operation  *Operation   `json:"operation,omitempty"`
	Error      string       `json:"error,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// Snapshot returns a deep copy of the session's current state.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := SessionSnapshot{
		ID:         s.ID,
		ActivityID: s.ActivityID,
		State:      s.state,
		Preview:    s.preview.Clone(),
		Error:      s.failure,
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.touchedAt,
	}
	if s.operation != nil {
		op := *s.operation
		op.Report = s.operation.Report.Clone()
		snap.Operation = &op
	}
	return snap
}

// State returns the session's lifecycle state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Reset discards the preview, the operation and the spooled file.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked(time.Now())
}

func (s *Session) resetLocked(now time.Time) {
	if s.spoolPath != "" {
		if err := os.Remove(s.spoolPath); err != nil && !os.IsNotExist(err) {
			logging.Warn("Failed to remove spooled upload",
				logging.String("session_id", s.ID),
				logging.String("path", s.spoolPath),
				logging.Err(err),
			)
		}
	}
	s.state = SessionEmpty
	s.preview = nil
	s.operation = nil
	s.failure = ""
	s.spoolPath = ""
	s.touchedAt = now
}

// BeginCommit claims the recorded operation for execution. Only one caller
// gets it; the session stays claimed until MarkCommitted or AbortCommit.
func (s *Session) BeginCommit() (Operation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.operation == nil || s.state != SessionReady {
		return Operation{}, false
	}
	s.state = SessionCommitting
	s.touchedAt = time.Now()
	op := *s.operation
	op.Report = s.operation.Report.Clone()
	return op, true
}

// AbortCommit returns a claimed session to ready so the upload can be retried.
func (s *Session) AbortCommit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionCommitting {
		s.state = SessionReady
		s.touchedAt = time.Now()
	}
}

// MarkCommitted records that the operation was executed. The spool file is
// released; the last preview stays readable.
func (s *Session) MarkCommitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spoolPath != "" {
		_ = os.Remove(s.spoolPath)
		s.spoolPath = ""
	}
	s.state = SessionCommitted
	s.touchedAt = time.Now()
}

// Load ingests the spooled file at path, recording throttled progress on the
// session and the upload operation on success.
func (s *Session) Load(ctx context.Context, in *Ingestor, path, fileName string, override ProgramType, mode UploadMode) (*Preview, error) {
	s.mu.Lock()
	s.state = SessionParsing
	s.preview = newPreview()
	s.operation = nil
	s.failure = ""
	s.touchedAt = time.Now()
	s.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		s.fail(err)
		return nil, errors.InternalError("failed to open spooled upload", err)
	}
	defer f.Close()

	preview, err := in.Ingest(ctx, f, override, func(p *Preview) {
		s.mu.Lock()
		s.preview = p
		s.touchedAt = time.Now()
		s.mu.Unlock()
	})
	if err != nil {
		s.fail(err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SessionReady
	s.preview = preview
	s.operation = &Operation{
		Type:     preview.Type,
		File:     path,
		FileName: fileName,
		Mode:     mode,
		Report:   preview.Report.Clone(),
	}
	s.touchedAt = time.Now()
	return preview.Clone(), nil
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SessionFailed
	s.failure = errors.UserMessage(err)
	s.touchedAt = time.Now()
}

// SessionStore keeps upload sessions in memory and their files on disk.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	dir      string
	maxBytes int64
	logger   logging.Logger
	now      func() time.Time
}

// NewSessionStore creates the spool directory if needed. maxBytes <= 0
// disables the size limit.
func NewSessionStore(dir string, maxBytes int64, logger logging.Logger) (*SessionStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("cannot create spool directory %s", dir)).WithContext("cause", err.Error())
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		dir:      dir,
		maxBytes: maxBytes,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Create registers a new empty session.
func (st *SessionStore) Create(activityID, coachID string) *Session {
	now := st.now()
	s := &Session{
		ID:         uuid.NewString(),
		ActivityID: activityID,
		CoachID:    coachID,
		state:      SessionEmpty,
		createdAt:  now,
		touchedAt:  now,
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get returns a session by id.
func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, errors.NotFoundError("upload session")
	}
	return s, nil
}

// Delete resets and forgets a session.
func (st *SessionStore) Delete(id string) error {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if !ok {
		return errors.NotFoundError("upload session")
	}
	s.Reset()
	return nil
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Spool resets the session and copies r to a file owned by it, returning the
// file's path.
func (st *SessionStore) Spool(s *Session, r io.Reader) (string, error) {
	s.Reset()

	path := filepath.Join(st.dir, s.ID+"-"+uuid.NewString()+".csv")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", errors.InternalError("failed to create spool file", err)
	}

	src := r
	if st.maxBytes > 0 {
		src = io.LimitReader(r, st.maxBytes+1)
	}
	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return "", errors.InternalError("failed to spool upload", copyErr)
	case closeErr != nil:
		_ = os.Remove(path)
		return "", errors.InternalError("failed to spool upload", closeErr)
	case st.maxBytes > 0 && n > st.maxBytes:
		_ = os.Remove(path)
		return "", errors.ValidationError(fmt.Sprintf("el archivo supera el tamaño máximo de %d bytes", st.maxBytes))
	}

	s.mu.Lock()
	s.spoolPath = path
	s.touchedAt = st.now()
	s.mu.Unlock()
	return path, nil
}

// Sweep removes sessions untouched for longer than ttl and returns how many
// were dropped.
func (st *SessionStore) Sweep(ttl time.Duration) int {
	cutoff := st.now().Add(-ttl)

	st.mu.Lock()
	var expired []*Session
	for id, s := range st.sessions {
		s.mu.RLock()
		stale := s.touchedAt.Before(cutoff) && s.state != SessionParsing && s.state != SessionCommitting
		s.mu.RUnlock()
		if stale {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.Reset()
	}
	if len(expired) > 0 {
		st.logger.Info("Expired upload sessions", logging.Int("count", len(expired)))
	}
	return len(expired)
}
