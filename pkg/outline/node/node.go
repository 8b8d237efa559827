// Package node defines the value types for entries in the outline tree.
package node

import "time"

// Type identifies the kind of a node and selects its payload variant.
type Type string

// Node types.
const (
	TypeFolder      Type = "folder"
	TypeTask        Type = "task"
	TypeNote        Type = "note"
	TypeProject     Type = "project"
	TypeArea        Type = "area"
	TypeTemplate    Type = "template"
	TypeSmartFolder Type = "smart_folder"
)

// Status is the completion state of a task.
type Status string

// Task statuses.
const (
	StatusOpen Status = "open"
	StatusDone Status = "done"
)

// Priority orders tasks by urgency.
type Priority int

// Task priorities.
const (
	PriorityNone Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
)

// Node is one entry in the outline tree. It is an immutable value: all
// changes flow through the mutation engine and produce a new Node.
type Node struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Type      Type      `json:"type"`
	ParentID  string    `json:"parent_id,omitempty"` // empty means root
	SortOrder int       `json:"sort_order"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Payload Payload `json:"payload,omitempty"`
}

// Payload is the type-specific part of a node. Exactly one variant is
// present, selected by the node's Type.
type Payload interface {
	payload()
}

// Task is the payload of task nodes.
type Task struct {
	Status        Status     `json:"status"`
	Priority      Priority   `json:"priority"`
	Description   string     `json:"description,omitempty"`
	Due           *time.Time `json:"due,omitempty"`
	EarliestStart *time.Time `json:"earliest_start,omitempty"`
	Archived      bool       `json:"archived,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// Note is the payload of note nodes.
type Note struct {
	Body string `json:"body"`
}

// Template is the payload of template nodes. TargetNodeID names the
// parent under which instances are created.
type Template struct {
	Description     string `json:"description,omitempty"`
	Category        string `json:"category,omitempty"`
	UsageCount      int    `json:"usage_count"`
	TargetNodeID    string `json:"target_node_id,omitempty"`
	CreateContainer bool   `json:"create_container,omitempty"`
}

// SmartFolder is the payload of smart-folder nodes. Their children are
// virtual, produced by evaluating the referenced rule.
type SmartFolder struct {
	RuleID      string `json:"rule_id"`
	AutoRefresh bool   `json:"auto_refresh,omitempty"`
	Description string `json:"description,omitempty"`
}

// Folder is the payload of folder nodes.
type Folder struct {
	Description string `json:"description,omitempty"`
}

func (Task) payload()        {}
func (Note) payload()        {}
func (Template) payload()    {}
func (SmartFolder) payload() {}
func (Folder) payload()      {}

// IsRoot reports whether the node has no parent.
func (n Node) IsRoot() bool {
	return n.ParentID == ""
}

// Task returns the task payload, if this is a task node.
func (n Node) Task() (Task, bool) {
	p, ok := n.Payload.(Task)
	return p, ok
}

// Note returns the note payload, if this is a note node.
func (n Node) Note() (Note, bool) {
	p, ok := n.Payload.(Note)
	return p, ok
}

// Template returns the template payload, if this is a template node.
func (n Node) Template() (Template, bool) {
	p, ok := n.Payload.(Template)
	return p, ok
}

// SmartFolder returns the smart-folder payload, if this is a smart folder.
func (n Node) SmartFolder() (SmartFolder, bool) {
	p, ok := n.Payload.(SmartFolder)
	return p, ok
}

// Folder returns the folder payload, if this is a folder node.
func (n Node) Folder() (Folder, bool) {
	p, ok := n.Payload.(Folder)
	return p, ok
}

// Completed reports whether the node is a task marked done.
func (n Node) Completed() bool {
	t, ok := n.Task()
	return ok && t.Status == StatusDone
}

// HasTag reports whether the node carries the given tag.
func (n Node) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
