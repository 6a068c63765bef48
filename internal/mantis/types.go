package mantis

import "fmt"

// ObjectRef is MantisConnect's generic {id, name} reference.
type ObjectRef struct {
	ID   int64  `xml:"id,omitempty"`
	Name string `xml:"name,omitempty"`
}

// AccountData identifies a tracker user.
type AccountData struct {
	ID       int64  `xml:"id,omitempty"`
	Name     string `xml:"name,omitempty"`
	RealName string `xml:"real_name,omitempty"`
}

// IssueData is the subset of the MantisConnect issue type used by the bot.
type IssueData struct {
	ID              int64        `xml:"id,omitempty"`
	Project         *ObjectRef   `xml:"project,omitempty"`
	Category        string       `xml:"category,omitempty"`
	Priority        *ObjectRef   `xml:"priority,omitempty"`
	Severity        *ObjectRef   `xml:"severity,omitempty"`
	Status          *ObjectRef   `xml:"status,omitempty"`
	Reproducibility *ObjectRef   `xml:"reproducibility,omitempty"`
	ViewState       *ObjectRef   `xml:"view_state,omitempty"`
	Summary         string       `xml:"summary,omitempty"`
	Description     string       `xml:"description,omitempty"`
	Handler         *AccountData `xml:"handler,omitempty"`
}

// NoteData is an issue note.
type NoteData struct {
	Text string `xml:"text"`
}

// ProjectData describes a project visible to the authenticated account.
type ProjectData struct {
	ID      int64      `xml:"id"`
	Name    string     `xml:"name"`
	Status  *ObjectRef `xml:"status,omitempty"`
	Enabled bool       `xml:"enabled"`
}

// Fault is a SOAP fault returned by the tracker.
type Fault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

func (f *Fault) Error() string {
	return fmt.Sprintf("soap fault %s: %s", f.Code, f.String)
}
