package entity

import (
	"sort"
	"strings"
)

// DefaultStageOrder is used for stages the CRM returns without an order.
const DefaultStageOrder = 9999

type Stage struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Order  int    `json:"order"`
	Active bool   `json:"active"`
}

// Is reports whether the stage name equals name, ignoring case.
func (s Stage) Is(name string) bool {
	return strings.EqualFold(strings.TrimSpace(s.Name), name)
}

// Mentions reports whether the stage name contains fragment, ignoring case.
func (s Stage) Mentions(fragment string) bool {
	return strings.Contains(strings.ToLower(s.Name), strings.ToLower(fragment))
}

type StageList []Stage

// Sorted returns a copy ordered by Order ascending. Stages sharing an order
// keep the sequence the CRM returned them in.
func (l StageList) Sorted() StageList {
	out := make(StageList, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// IndexOf returns the position of the stage with the given id, or -1.
func (l StageList) IndexOf(id int) int {
	for i, s := range l {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (l StageList) At(index int) (Stage, bool) {
	if index < 0 || index >= len(l) {
		return Stage{}, false
	}
	return l[index], true
}

// LeadSnapshot is what the dashboard knows about a lead when it opens the
// status bar.
type LeadSnapshot struct {
	LeadID   int  `json:"lead_id"`
	StatusID int  `json:"status_id"`
	IsLost   bool `json:"is_lost"`
	IsWon    bool `json:"is_won"`
}

type LeadProgressState struct {
	CurrentStageIndex int  `json:"current_stage_index"`
	IsLost            bool `json:"is_lost"`
	IsWon             bool `json:"is_won"`
}

// DeriveProgress matches the lead's status against the stage list. An
// unknown status leaves the lead on the first stage.
func DeriveProgress(stages StageList, lead LeadSnapshot) LeadProgressState {
	state := LeadProgressState{IsLost: lead.IsLost, IsWon: lead.IsWon}
	if idx := stages.IndexOf(lead.StatusID); idx != -1 {
		state.CurrentStageIndex = idx
	}
	return state
}

// Terminal reports whether the lead can no longer change status.
func (s LeadProgressState) Terminal() bool {
	return s.IsLost || s.IsWon
}
