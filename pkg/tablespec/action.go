package tablespec

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Warky-Devs/TableSpec/pkg/common"
)

// ExportActionName is the name of the built-in export action.
const ExportActionName = "export"

// Action is a toolbar or row action offered by the table.
type Action struct {
	Name        string     `json:"name"`
	Label       string     `json:"label"`
	Message     string     `json:"message"`
	RowSelected bool       `json:"rowSelected"`
	NeedConfirm bool       `json:"needConfirm"`
	Handler     ActionFunc `json:"-"`
}

// NewAction declares an action; the label defaults to the humanized name.
func NewAction(name string) Action {
	return Action{Name: name, Label: humanize(name)}
}

func (a Action) WithLabel(label string) Action {
	a.Label = label
	return a
}

// WithConfirm asks the client to confirm with message before running.
func (a Action) WithConfirm(message string) Action {
	a.NeedConfirm = true
	a.Message = message
	return a
}

// ForSelection marks the action as working on the selected rows.
func (a Action) ForSelection() Action {
	a.RowSelected = true
	return a
}

func (a Action) WithHandler(fn ActionFunc) Action {
	a.Handler = fn
	return a
}

// ExportAction is the built-in action exporting the current view as CSV.
func ExportAction() Action {
	return Action{Name: ExportActionName, Label: "Export"}
}

// RunAction dispatches req to the handler of the named action. The query of
// req.URL is handed to the handler so it can act on the current view.
func RunAction(ctx context.Context, db common.Database, def *Definition, req common.ActionRequest) (any, error) {
	action, ok := def.Action(req.Action)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, req.Action)
	}
	if action.Handler == nil {
		return nil, fmt.Errorf("%w: %s has no handler", ErrUnknownAction, req.Action)
	}
	query := ExportQuery(Query{Params: url.Values{ExportURLParam: {req.URL}}})
	return action.Handler(ActionContext{
		Ctx:        ctx,
		DB:         db,
		Definition: def,
		Action:     action,
		IDs:        append([]string(nil), req.IDs...),
		Query:      query,
	})
}
