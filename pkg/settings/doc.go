// Package settings implements the structured settings document model and
// the field-level merge policies that combine team defaults with a user's
// existing settings without losing their customizations.
package settings
