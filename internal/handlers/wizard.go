package handlers

import (
	"net/http"

	"coach-hub/internal/common/errors"
	"coach-hub/internal/wizard"
)

// NavigateRequest moves a wizard from the step the client is on.
type NavigateRequest struct {
	Type       string `json:"type" validate:"required,product_type"`
	Editing    bool   `json:"editing"`
	Current    string `json:"current"`
	Action     string `json:"action" validate:"required,oneof=start next back goto select"`
	Step       int    `json:"step" validate:"omitempty,min=1"`
	SelectType string `json:"selectType" validate:"required_if=Action select"`
}

// WizardState is where the wizard stands after a request.
type WizardState struct {
	Type          wizard.ProductType `json:"type"`
	Steps         []wizard.Step      `json:"steps"`
	Current       wizard.Step        `json:"current"`
	CurrentNumber int                `json:"currentNumber"`
	Total         int                `json:"total"`
	Moved         bool               `json:"moved"`
}

// GetWizardSteps lists the steps of a product type
// @Summary List wizard steps
// @Description Returns the ordered creation steps of a product type
// @Tags wizard
// @Produce json
// @Security BearerAuth
// @Param type query string true "Product type: program, workshop or document"
// @Success 200 {object} WizardState "Steps, positioned on the first one"
// @Failure 400 {object} ErrorResponse "Unknown product type"
// @Router /api/wizard/steps [get]
func (h *Handlers) GetWizardSteps(w http.ResponseWriter, r *http.Request) {
	t, err := wizard.ParseProductType(r.URL.Query().Get("type"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	nav, err := wizard.NewNavigator(t, false)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wizardState(nav, false))
}

// NavigateWizard applies a navigation action
// @Summary Navigate the product wizard
// @Description Starts a wizard or moves it. Jumps ahead of the next step are ignored and reported with moved=false.
// @Tags wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body NavigateRequest true "Navigation action"
// @Success 200 {object} WizardState "New position"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Router /api/wizard/navigate [post]
func (h *Handlers) NavigateWizard(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := wizard.ParseProductType(req.Type)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var nav *wizard.Navigator
	if req.Action == "start" || req.Current == "" {
		nav, err = wizard.NewNavigator(t, req.Editing)
	} else {
		nav, err = wizard.Resume(t, wizard.Step(req.Current))
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	moved := false
	switch req.Action {
	case "start":
		moved = true
	case "next":
		moved = nav.Next()
	case "back":
		moved = nav.Back()
	case "goto":
		if req.Step == 0 {
			h.writeError(w, r, errors.ValidationError("field 'step' is required"))
			return
		}
		moved = nav.GoToStep(req.Step)
	case "select":
		next, err := wizard.ParseProductType(req.SelectType)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if err := nav.SelectType(next); err != nil {
			h.writeError(w, r, err)
			return
		}
		moved = true
	}
	writeJSON(w, http.StatusOK, wizardState(nav, moved))
}

func wizardState(nav *wizard.Navigator, moved bool) WizardState {
	return WizardState{
		Type:          nav.Type(),
		Steps:         wizard.Steps(nav.Type()),
		Current:       nav.Current(),
		CurrentNumber: nav.CurrentNumber(),
		Total:         nav.Total(),
		Moved:         moved,
	}
}
