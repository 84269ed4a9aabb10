// Package plan updates the YAML front matter of plan documents: status
// transitions, created/updated timestamps, tags, sequence number and
// priority. Everything else in the file, including unknown keys, key order
// and the Markdown body, is preserved.
package plan

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/zco-team/zco-claude/internal/fsutil"
)

// TimeLayout formats created_at and updated_at.
const TimeLayout = "2006-01-02 15:04:05"

// DefaultStatus is assumed for plans without a recognizable status.
const DefaultStatus = "draft:0"

// DefaultPriority is written when a plan has no priority.
const DefaultPriority = "p2:中:可纳入后续迭代计划"

// Enum is one allowed value of a front matter field with its description.
type Enum struct {
	Value string
	Label string
}

// Statuses lists the status values in lifecycle order.
var Statuses = []Enum{
	{"draft:0", "起稿中"},
	{"ready:1", "准备就绪"},
	{"ongoing:2", "进行中"},
	{"completed:3", "执行完成"},
	{"failed:4", "执行失败"},
	{"canceled:5", "已取消"},
	{"archived:8", "已归档"},
}

// Priorities lists the priority values, most urgent first.
var Priorities = []Enum{
	{"p0:紧急:重要", "紧急且重要"},
	{"p1:高:当前迭代/排期内重点解决", "高优先级"},
	{DefaultPriority, "中等优先级"},
	{"p3:低:可记录，待后续评估", "低优先级"},
	{"p4:无:不影响当前迭代/排期", "无优先级"},
}

// Actions maps each action to the status it sets.
var Actions = []struct {
	Name   string
	Status string
}{
	{"start", "ongoing:2"},
	{"complete", "completed:3"},
	{"fail", "failed:4"},
	{"cancel", "canceled:5"},
}

var legacyStatuses = map[string]string{
	"pending":     "draft:0",
	"in-progress": "ongoing:2",
	"completed":   "completed:3",
	"cancelled":   "canceled:5",
}

var seqPattern = regexp.MustCompile(`^plan\.(\d+)\.`)

var (
	// ErrNoFrontMatter is returned for files that do not start with a
	// ---\n ... ---\n block.
	ErrNoFrontMatter = errors.New("No YAML front matter found")
	// ErrNotMapping is returned when the front matter is not a YAML mapping.
	ErrNotMapping = errors.New("YAML front matter must be a dictionary")
)

// IsStatus reports whether s is one of Statuses.
func IsStatus(s string) bool {
	return slices.ContainsFunc(Statuses, func(e Enum) bool { return e.Value == s })
}

// StatusFor returns the status an action sets.
func StatusFor(action string) (string, bool) {
	for _, a := range Actions {
		if a.Name == action {
			return a.Status, true
		}
	}
	return "", false
}

func actionNames() string {
	names := make([]string, len(Actions))
	for i, a := range Actions {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// NormalizeStatus maps a status to its enum form. Values with a colon must be
// known enum values; others are legacy names. Anything unrecognized becomes
// DefaultStatus.
func NormalizeStatus(s string) string {
	if strings.Contains(s, ":") {
		if IsStatus(s) {
			return s
		}
		return DefaultStatus
	}
	if v, ok := legacyStatuses[strings.ToLower(s)]; ok {
		return v
	}
	return DefaultStatus
}

// Document is a plan file split into front matter and body.
type Document struct {
	Name string
	root *yaml.Node
	meta *yaml.Node
	body string
}

// Parse splits content into front matter and body. name is used in error
// messages and to derive the sequence number.
func Parse(name string, content []byte) (*Document, error) {
	const fence = "---\n"
	if !bytes.HasPrefix(content, []byte(fence)) {
		return nil, noFrontMatter(name)
	}
	end := bytes.Index(content[len(fence):], []byte(fence))
	if end < 0 {
		return nil, noFrontMatter(name)
	}
	yamlText := content[len(fence) : len(fence)+end]
	body := content[len(fence)+end+len(fence):]

	var doc yaml.Node
	if err := yaml.Unmarshal(yamlText, &doc); err != nil {
		return nil, fmt.Errorf("Malformed YAML in %s: %w", name, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w, got %s", ErrNotMapping, kindName(&doc))
	}
	return &Document{Name: name, root: &doc, meta: doc.Content[0], body: string(body)}, nil
}

func noFrontMatter(name string) error {
	return fmt.Errorf("%w in %s. File must start with ---\\n and end YAML section with ---\\n", ErrNoFrontMatter, name)
}

func kindName(doc *yaml.Node) string {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return "empty document"
	}
	switch doc.Content[0].Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}

// Get returns the scalar value of key and whether the key is present.
func (d *Document) Get(key string) (string, bool) {
	v := d.lookup(key)
	if v == nil {
		return "", false
	}
	if v.Kind != yaml.ScalarNode || v.Tag == "!!null" {
		return "", true
	}
	return v.Value, true
}

// Tags returns the tags list.
func (d *Document) Tags() []string {
	v := d.lookup("tags")
	if v == nil {
		return []string{}
	}
	switch v.Kind {
	case yaml.SequenceNode:
		tags := make([]string, 0, len(v.Content))
		for _, item := range v.Content {
			tags = append(tags, item.Value)
		}
		return tags
	case yaml.ScalarNode:
		if v.Tag == "!!null" || v.Value == "" {
			return []string{}
		}
		return []string{v.Value}
	}
	return []string{}
}

func (d *Document) lookup(key string) *yaml.Node {
	for i := 0; i+1 < len(d.meta.Content); i += 2 {
		if d.meta.Content[i].Value == key {
			return d.meta.Content[i+1]
		}
	}
	return nil
}

// set replaces the value of key, appending the key when absent.
func (d *Document) set(key string, value *yaml.Node) {
	for i := 0; i+1 < len(d.meta.Content); i += 2 {
		if d.meta.Content[i].Value == key {
			d.meta.Content[i+1] = value
			return
		}
	}
	d.meta.Content = append(d.meta.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}

func (d *Document) setString(key, value string) {
	d.set(key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value})
}

func (d *Document) setTags(tags []string) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, t := range tags {
		seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t})
	}
	d.set("tags", seq)
}

// Bytes renders the document back to file content.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, fmt.Errorf("encoding front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding front matter: %w", err)
	}
	buf.WriteString("---\n")
	buf.WriteString(d.body)
	return buf.Bytes(), nil
}

// Transition sets status to newStatus and maintains the derived fields:
// created_at on first use, updated_at always, tags when given, seq from the
// file name when missing and priority when missing or empty. It returns the
// normalized previous status.
func (d *Document) Transition(newStatus string, tags *Tags, now time.Time) (string, error) {
	if !IsStatus(newStatus) {
		return "", fmt.Errorf("invalid status: %s", newStatus)
	}
	ts := now.Format(TimeLayout)

	old, ok := d.Get("status")
	if !ok {
		old = DefaultStatus
	}
	old = NormalizeStatus(old)

	d.setString("status", newStatus)
	if created, _ := d.Get("created_at"); created == "" {
		d.setString("created_at", ts)
	}
	d.setString("updated_at", ts)

	if tags != nil {
		d.setTags(tags.List)
	}
	if _, ok := d.Get("seq"); !ok {
		if m := seqPattern.FindStringSubmatch(filepath.Base(d.Name)); m != nil {
			if seq, err := strconv.Atoi(m[1]); err == nil {
				d.set("seq", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(seq)})
			}
		}
	}
	if p, _ := d.Get("priority"); p == "" {
		d.setString("priority", DefaultPriority)
	}
	return old, nil
}

// Load reads and parses the plan at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("Plan file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("Failed to read file %s: %w", path, err)
	}
	return Parse(filepath.Base(path), data)
}

// Save writes the document to path atomically, keeping the file mode.
func (d *Document) Save(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	perm := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := fsutil.WriteAtomic(path, data, perm); err != nil {
		return fmt.Errorf("Failed to write file %s: %w", path, err)
	}
	return nil
}
