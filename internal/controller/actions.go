package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/phillip-england/empdesk/internal/apiclient"
)

type ActionKind string

const (
	ActionDelete         ActionKind = "delete"
	ActionMarkAttendance ActionKind = "mark-attendance"
	ActionViewAttendance ActionKind = "view-attendance"
)

var ErrUnknownAction = errors.New("unknown action")

var rowActionOrder = []ActionKind{ActionMarkAttendance, ActionViewAttendance, ActionDelete}

var actionLabels = map[ActionKind]string{
	ActionMarkAttendance: "Mark Today",
	ActionViewAttendance: "View",
	ActionDelete:         "Delete",
}

type Action struct {
	Kind       ActionKind
	EmployeeID apiclient.ID
}

func (a Action) String() string {
	return string(a.Kind) + ":" + a.EmployeeID.String()
}

// ParseAction reads the "<kind>:<id>" value carried by a row button.
func ParseAction(value string) (Action, error) {
	kind, id, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, value)
	}
	action := Action{Kind: ActionKind(strings.TrimSpace(kind)), EmployeeID: apiclient.ID(strings.TrimSpace(id))}
	if _, known := actionLabels[action.Kind]; !known || action.EmployeeID == "" {
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, value)
	}
	return action, nil
}

// Dispatch routes a row action to its handler.
func (c *Controller) Dispatch(ctx context.Context, ui Prompter, action Action) error {
	if action.EmployeeID == "" {
		return fmt.Errorf("%w: missing employee id", ErrUnknownAction)
	}
	switch action.Kind {
	case ActionDelete:
		return c.Delete(ctx, ui, action.EmployeeID)
	case ActionMarkAttendance:
		return c.MarkAttendance(ctx, ui, action.EmployeeID)
	case ActionViewAttendance:
		return c.ViewAttendance(ctx, ui, action.EmployeeID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action.Kind)
	}
}
