// Package linker wires a template tree of rules, hooks, skills and commands
// into a project's .claude directory with absolute symlinks. Init performs
// the full project setup (links, project-local settings, .claudeignore and
// the linked-projects record); Repair and RepairAll bring existing links back
// in line with the template.
package linker
