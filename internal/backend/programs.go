package backend

import (
	"context"
	"net/http"
	"net/url"

	"coach-hub/internal/programcsv"
	"coach-hub/internal/upload"
)

func programsPath(activityID string) string {
	return "/api/programs/" + url.PathEscape(activityID)
}

// DeletePrograms implements upload.ProgramStore
func (c *Client) DeletePrograms(ctx context.Context, target upload.Target, programType programcsv.ProgramType) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   programsPath(target.ActivityID),
		query: url.Values{
			"programType": {string(programType)},
			"coachId":     {target.CoachID},
		},
	})
}

type insertProgramsBody struct {
	ProgramType string                  `json:"programType"`
	CoachID     string                  `json:"coachId"`
	UploadMode  string                  `json:"uploadMode"`
	Rows        []programcsv.ProgramRow `json:"rows"`
}

// InsertPrograms implements upload.ProgramStore. The insert never deletes:
// uploadMode is always append.
func (c *Client) InsertPrograms(ctx context.Context, target upload.Target, programType programcsv.ProgramType, rows []programcsv.ProgramRow) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   programsPath(target.ActivityID) + "/rows",
		body: insertProgramsBody{
			ProgramType: string(programType),
			CoachID:     target.CoachID,
			UploadMode:  upload.InsertMode,
			Rows:        rows,
		},
	})
}

var _ upload.ProgramStore = (*Client)(nil)
