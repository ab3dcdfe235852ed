// Package filesystem provides implementations of types.FS backed by the
// OS filesystem and by afero for in-memory testing.
package filesystem
