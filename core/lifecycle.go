// SPDX-License-Identifier: MPL-2.0

package core

import (
	"slices"
	"strings"

	"hawkeye/model"
)

type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionPublish Action = "publish"
	ActionGoLive  Action = "go_live"
	ActionRetire  Action = "retire"
)

type transition struct {
	from []model.ChartStatus
	to   model.ChartStatus
}

var transitions = map[Action]transition{
	ActionSubmit:  {from: []model.ChartStatus{model.StatusDraft}, to: model.StatusReview},
	ActionApprove: {from: []model.ChartStatus{model.StatusReview}, to: model.StatusApproved},
	ActionReject:  {from: []model.ChartStatus{model.StatusReview}, to: model.StatusDraft},
	ActionPublish: {from: []model.ChartStatus{model.StatusReview, model.StatusApproved}, to: model.StatusLive},
	ActionGoLive:  {from: []model.ChartStatus{model.StatusLive}, to: model.StatusPortalLive},
	ActionRetire:  {from: []model.ChartStatus{model.StatusLive, model.StatusPortalLive}, to: model.StatusRetired},
}

// Advance returns the status a chart moves to when action is applied in status current.
func Advance(current model.ChartStatus, action Action) (model.ChartStatus, error) {
	t, ok := transitions[action]
	if !ok {
		return current, validationErrorf("unknown action %q", action)
	}
	if !slices.Contains(t.from, current) {
		required := make([]string, len(t.from))
		for i, s := range t.from {
			required[i] = string(s)
		}
		return current, validationErrorf("cannot %s chart in status %q: requires %s", action, current, strings.Join(required, " or "))
	}
	return t.to, nil
}
