// Package platform provides cross-platform filesystem operations used when
// linking a template tree into a project: symlink creation and inspection,
// path identity checks, and permission changes. Windows without developer
// mode cannot create symlinks; callers get an error and report it.
package platform
