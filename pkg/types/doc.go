// Package types defines the shared data model for confsync: the manifest
// schema, install plans, backup records, and the version stamp, plus the
// filesystem seam used to keep the engine testable.
package types
