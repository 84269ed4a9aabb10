package manifest

// CurrentVersion is the record format written by Save.
const CurrentVersion = "2.0.0"

// TimeLayout formats every timestamp in the record.
const TimeLayout = "2006-01-02 15:04:05"

// Status is the health of a linked project as of its last check.
type Status string

// Project statuses.
const (
	StatusOK      Status = "ok"
	StatusFixed   Status = "fixed"
	StatusMissing Status = "missing"
	StatusBroken  Status = "broken"
)

// Entry is one linked project.
type Entry struct {
	ID          string `json:"id"`
	Path        string `json:"path"`
	TplDir      string `json:"tpl_dir,omitempty"`
	LinkedAt    string `json:"linked_at"`
	LastCheckAt string `json:"last_check_at,omitempty"`
	Status      Status `json:"status,omitempty"`
	IsGit       bool   `json:"is_git"`
}

// Record is the decoded record file.
type Record struct {
	Version  string   `json:"version"`
	Projects []*Entry `json:"linked-projects"`
}
