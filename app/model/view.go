package model

import "time"

// ComplaintView is a complaint with its user references resolved to
// summaries. Outer fields shadow the embedded ones in JSON.
type ComplaintView struct {
	*Complaint
	ReportedBy *UserSummary `json:"reportedBy"`
	AssignedTo *UserSummary `json:"assignedTo,omitempty"`
	Notes      []NoteView   `json:"notes"`
}

// NoteView is a note with its author expanded to a user summary.
type NoteView struct {
	Content string       `json:"content"`
	AddedBy *UserSummary `json:"addedBy"`
	AddedAt time.Time    `json:"addedAt"`
}

// UserIDs lists every user referenced by the complaints, without duplicates.
func UserIDs(complaints ...*Complaint) []string {
	seen := map[string]bool{}
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, c := range complaints {
		add(c.ReportedBy)
		add(c.AssignedTo)
		for _, n := range c.Notes {
			add(n.AddedBy)
		}
	}
	return ids
}

// NewComplaintView resolves references through users (keyed by id string).
// Unknown ids keep the raw id so the payload never loses the reference.
func NewComplaintView(c *Complaint, users map[string]*User) *ComplaintView {
	summary := func(id string) *UserSummary {
		if id == "" {
			return nil
		}
		if u, ok := users[id]; ok {
			return u.Public()
		}
		return &UserSummary{ID: id}
	}

	v := &ComplaintView{
		Complaint:  c,
		ReportedBy: summary(c.ReportedBy),
		AssignedTo: summary(c.AssignedTo),
		Notes:      make([]NoteView, 0, len(c.Notes)),
	}
	for _, n := range c.Notes {
		v.Notes = append(v.Notes, NoteView{Content: n.Content, AddedBy: summary(n.AddedBy), AddedAt: n.AddedAt})
	}
	return v
}
