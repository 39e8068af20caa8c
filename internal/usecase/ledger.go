package usecase

import (
	"context"
	"unicode/utf8"

	"github.com/xavierca1/leadflow/internal/entity"
)

const DefaultPreviewLength = 80

// RemarkLedger mirrors the remarks the CRM holds for one lead, in the order
// the CRM returns them.
type RemarkLedger struct {
	gateway  CRMGateway
	leadID   int
	entries  []entity.Remark
	selected int
}

func NewRemarkLedger(gateway CRMGateway, leadID int) *RemarkLedger {
	return &RemarkLedger{gateway: gateway, leadID: leadID}
}

// Refresh replaces the local entries. On failure the previous entries are
// kept.
func (l *RemarkLedger) Refresh(ctx context.Context) error {
	remarks, err := l.gateway.ListRemarks(ctx, l.leadID)
	if err != nil {
		return remoteError(err)
	}
	l.entries = remarks
	if _, ok := l.find(l.selected); !ok {
		l.selected = 0
	}
	return nil
}

func (l *RemarkLedger) Entries() []entity.Remark {
	out := make([]entity.Remark, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *RemarkLedger) Len() int { return len(l.entries) }

// ForStage returns the first remark logged against a stage.
func (l *RemarkLedger) ForStage(stageID int) (entity.Remark, bool) {
	for _, r := range l.entries {
		if r.StageID == stageID {
			return r, true
		}
	}
	return entity.Remark{}, false
}

type TimelineEntry struct {
	Remark    entity.Remark `json:"remark"`
	Preview   string        `json:"preview"`
	Truncated bool          `json:"truncated"`
	Selected  bool          `json:"selected"`
}

func (l *RemarkLedger) Timeline(previewLen int) []TimelineEntry {
	if previewLen <= 0 {
		previewLen = DefaultPreviewLength
	}
	out := make([]TimelineEntry, 0, len(l.entries))
	for _, r := range l.entries {
		preview, truncated := Truncate(r.Text, previewLen)
		out = append(out, TimelineEntry{
			Remark:    r,
			Preview:   preview,
			Truncated: truncated,
			Selected:  l.selected != 0 && r.ID == l.selected,
		})
	}
	return out
}

// Select opens the detail view of a remark.
func (l *RemarkLedger) Select(remarkID int) (entity.Remark, bool) {
	r, ok := l.find(remarkID)
	if ok {
		l.selected = remarkID
	}
	return r, ok
}

func (l *RemarkLedger) Selected() (entity.Remark, bool) {
	if l.selected == 0 {
		return entity.Remark{}, false
	}
	return l.find(l.selected)
}

func (l *RemarkLedger) ClearSelection() { l.selected = 0 }

func (l *RemarkLedger) find(id int) (entity.Remark, bool) {
	if id == 0 {
		return entity.Remark{}, false
	}
	for _, r := range l.entries {
		if r.ID == id {
			return r, true
		}
	}
	return entity.Remark{}, false
}

// Truncate cuts s to at most n runes, ending with an ellipsis when cut.
func Truncate(s string, n int) (string, bool) {
	if utf8.RuneCountInString(s) <= n {
		return s, false
	}
	runes := []rune(s)
	if n <= 1 {
		return string(runes[:n]), true
	}
	return string(runes[:n-1]) + "…", true
}
