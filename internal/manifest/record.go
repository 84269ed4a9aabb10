package manifest

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"

	"github.com/zco-team/zco-claude/internal/fsutil"
	"github.com/zco-team/zco-claude/internal/platform"
	"github.com/zco-team/zco-claude/internal/schema"
)

//go:embed schema/record.schema.json
var schemaBytes []byte

var validator = schema.New("record.schema.json", schemaBytes)

// ErrUnsupportedVersion is returned for records written by a newer major
// version of the tool.
var ErrUnsupportedVersion = errors.New("unsupported record version")

// LinkedDirs are the .claude subdirectories Verify inspects for dangling links.
var LinkedDirs = []string{"rules", "hooks", "skills", "commands"}

// New returns an empty record in the current format.
func New() *Record {
	return &Record{Version: CurrentVersion, Projects: []*Entry{}}
}

// Load reads the record at path. A missing file yields an empty record.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}
	rec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// Parse decodes a record in either the current or the legacy layout.
func Parse(data []byte) (*Record, error) {
	var head struct {
		Version  string            `json:"version"`
		Projects []json.RawMessage `json:"linked-projects"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parsing record JSON: %w", err)
	}
	if head.Version == "" {
		return parseLegacy(head.Projects)
	}

	v, err := semver.NewVersion(head.Version)
	if err != nil {
		return nil, fmt.Errorf("record version %q: %w", head.Version, err)
	}
	current := semver.MustParse(CurrentVersion)
	if v.Major() > current.Major() {
		return nil, fmt.Errorf("%w %s (this build reads up to %d.x)", ErrUnsupportedVersion, v, current.Major())
	}

	res, err := validator.ValidateBytes(data)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		msgs := make([]string, len(res.Issues))
		for i, issue := range res.Issues {
			msgs[i] = issue.String()
		}
		return nil, fmt.Errorf("invalid record: %s", strings.Join(msgs, "; "))
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing record JSON: %w", err)
	}
	if rec.Projects == nil {
		rec.Projects = []*Entry{}
	}
	return &rec, nil
}

// parseLegacy reads [[path, timestamp], ...] entries. Entries without a path
// are dropped.
func parseLegacy(items []json.RawMessage) (*Record, error) {
	rec := New()
	for i, raw := range items {
		var pair []string
		if err := json.Unmarshal(raw, &pair); err != nil {
			return nil, fmt.Errorf("legacy record entry %d: %w", i, err)
		}
		if len(pair) == 0 || pair[0] == "" {
			continue
		}
		e := &Entry{ID: uuid.NewString(), Path: pair[0]}
		if len(pair) > 1 {
			e.LinkedAt = pair[1]
		}
		if existing := rec.Find(e.Path); existing != nil {
			existing.LinkedAt = e.LinkedAt
			continue
		}
		rec.Projects = append(rec.Projects, e)
	}
	return rec, nil
}

// Save writes the record atomically in the current format.
func (r *Record) Save(path string) error {
	r.Version = CurrentVersion
	if r.Projects == nil {
		r.Projects = []*Entry{}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	return fsutil.WriteAtomic(path, append(data, '\n'), 0644)
}

// Find returns the entry for path, compared after resolving symlinks, or nil.
func (r *Record) Find(path string) *Entry {
	want := platform.Resolve(path)
	for _, e := range r.Projects {
		if e.Path == path || platform.Resolve(e.Path) == want {
			return e
		}
	}
	return nil
}

// Upsert records project as linked from tplDir at now and returns its entry.
// The path is stored resolved, so one project reached through different
// symlinks has a single entry.
func (r *Record) Upsert(project, tplDir string, now time.Time) *Entry {
	e := r.Refresh(project, tplDir, now)
	e.LinkedAt = now.Format(TimeLayout)
	return e
}

// Refresh is Upsert for a project that was repaired rather than linked: an
// existing entry keeps its linked_at, a new one gets now.
func (r *Record) Refresh(project, tplDir string, now time.Time) *Entry {
	path := platform.Resolve(project)
	ts := now.Format(TimeLayout)

	e := r.Find(path)
	if e == nil {
		e = &Entry{ID: uuid.NewString()}
		r.Projects = append(r.Projects, e)
	}
	e.Path = path
	e.TplDir = tplDir
	if e.LinkedAt == "" {
		e.LinkedAt = ts
	}
	e.LastCheckAt = ts
	e.Status = StatusOK
	e.IsGit = isGit(path)
	return e
}

// Verify refreshes every entry's status, git flag and check time.
func (r *Record) Verify(now time.Time) {
	ts := now.Format(TimeLayout)
	for _, e := range r.Projects {
		e.LastCheckAt = ts
		e.Status = Check(e.Path)
		e.IsGit = e.Status != StatusMissing && isGit(e.Path)
	}
}

// Check reports a project's status: missing when the directory is gone,
// broken when a link under .claude is dangling, ok otherwise.
func Check(project string) Status {
	info, err := os.Stat(project)
	if err != nil || !info.IsDir() {
		return StatusMissing
	}
	claude := filepath.Join(project, ".claude")
	for _, sub := range LinkedDirs {
		dir := filepath.Join(claude, sub)
		if platform.IsSymlink(dir) {
			if _, err := os.Stat(dir); err != nil {
				return StatusBroken
			}
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, de := range entries {
			p := filepath.Join(dir, de.Name())
			if !platform.IsSymlink(p) {
				continue
			}
			if _, err := os.Stat(p); err != nil {
				return StatusBroken
			}
		}
	}
	return StatusOK
}

// Prune removes entries whose project directory no longer exists and returns
// them.
func (r *Record) Prune() []*Entry {
	var removed []*Entry
	r.Projects = slices.DeleteFunc(r.Projects, func(e *Entry) bool {
		info, err := os.Stat(e.Path)
		if err == nil && info.IsDir() {
			return false
		}
		removed = append(removed, e)
		return true
	})
	return removed
}

func isGit(project string) bool {
	return platform.Exists(filepath.Join(project, ".git"))
}
