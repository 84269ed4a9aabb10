// Package manifest keeps the record of projects linked to a template
// directory. The record is a versioned JSON file; the unversioned
// [[path, timestamp], ...] layout written by earlier releases is read and
// upgraded on the next save.
package manifest
