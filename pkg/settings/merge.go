package settings

import (
	"sort"
	"strings"
)

// Recognized top-level settings keys with non-default merge policies.
const (
	keyPermissions     = "permissions"
	keyModel           = "model"
	keyStatusLine      = "statusLine"
	keyAlwaysThinking  = "alwaysThinkingEnabled"
	keyEnabledPlugins  = "enabledPlugins"
	keyFeedbackSurvey  = "feedbackSurveyState"
	keySchema          = "$schema"
	keyPermissionAllow = "allow"
	keyPermissionDeny  = "deny"
	keyPermissionAsk   = "ask"
)

// HomePlaceholder is the template token for the invoking user's home
// directory. It must be resolved before a document is merged or written.
const HomePlaceholder = "{{HOME}}"

// Merge combines an incoming team document (source) with the user's
// existing document (dest) under fixed field policies:
//
//   - permissions.allow: union of both, deduplicated and sorted
//   - permissions.deny, permissions.ask: user's lists are preserved
//   - enabledPlugins: union of keys, source wins on conflict
//   - model, statusLine, alwaysThinkingEnabled: source overwrites
//   - feedbackSurveyState: user's value is preserved
//   - $schema: taken from source when present
//   - any other key: user's value if present, otherwise source's
//
// Both inputs are left untouched. The result encodes identically
// regardless of the key order either input was parsed from.
func Merge(source, dest Value) Value {
	result := dest.Clone()
	if !result.IsMap() {
		result = NewMap()
	}

	if source.Has(keyPermissions) || dest.Has(keyPermissions) {
		srcPerms, _ := source.Get(keyPermissions)
		destPerms, _ := dest.Get(keyPermissions)
		result.Set(keyPermissions, mergePermissions(srcPerms, destPerms))
	}

	for _, key := range []string{keyModel, keyStatusLine, keyAlwaysThinking} {
		if val, ok := source.Get(key); ok {
			result.Set(key, val.Clone())
		}
	}

	if source.Has(keyEnabledPlugins) || dest.Has(keyEnabledPlugins) {
		srcPlugins, _ := source.Get(keyEnabledPlugins)
		destPlugins, _ := dest.Get(keyEnabledPlugins)
		result.Set(keyEnabledPlugins, mergePlugins(srcPlugins, destPlugins))
	}

	if val, ok := dest.Get(keyFeedbackSurvey); ok {
		result.Set(keyFeedbackSurvey, val.Clone())
	}

	if val, ok := source.Get(keySchema); ok {
		result.Set(keySchema, val.Clone())
	}

	// Unrecognized keys: preserve dest, fill from source
	for _, key := range source.Keys() {
		if isRecognizedKey(key) {
			continue
		}
		if !result.Has(key) {
			val, _ := source.Get(key)
			result.Set(key, val.Clone())
		}
	}

	return result
}

func isRecognizedKey(key string) bool {
	switch key {
	case keyPermissions, keyModel, keyStatusLine, keyAlwaysThinking,
		keyEnabledPlugins, keyFeedbackSurvey, keySchema:
		return true
	}
	return false
}

// mergePermissions unions the allow lists and preserves the user's deny
// and ask lists.
func mergePermissions(source, dest Value) Value {
	result := NewMap()

	allow := unionStringLists(listOf(source, keyPermissionAllow), listOf(dest, keyPermissionAllow))
	if len(allow) > 0 {
		items := make([]Value, len(allow))
		for i, entry := range allow {
			items[i] = String(entry)
		}
		result.Set(keyPermissionAllow, List(items...))
	}

	if val, ok := dest.Get(keyPermissionDeny); ok {
		result.Set(keyPermissionDeny, val.Clone())
	}
	if val, ok := dest.Get(keyPermissionAsk); ok {
		result.Set(keyPermissionAsk, val.Clone())
	}

	return result
}

func listOf(v Value, key string) []Value {
	val, ok := v.Get(key)
	if !ok || val.Kind() != KindList {
		return nil
	}
	return val.Items()
}

func unionStringLists(lists ...[]Value) []string {
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, item := range list {
			if item.Kind() == KindString {
				seen[item.Str()] = true
			}
		}
	}
	union := make([]string, 0, len(seen))
	for entry := range seen {
		union = append(union, entry)
	}
	sort.Strings(union)
	return union
}

// mergePlugins unions plugin maps, with the source value winning when
// both declare the same plugin.
func mergePlugins(source, dest Value) Value {
	result := NewMap()
	for _, key := range dest.Keys() {
		val, _ := dest.Get(key)
		result.Set(key, val.Clone())
	}
	for _, key := range source.Keys() {
		val, _ := source.Get(key)
		result.Set(key, val.Clone())
	}
	return result
}

// ResolveTemplates replaces the home directory placeholder in every
// string value of the document. Incoming documents are resolved before
// any merge so a merged document never carries an unresolved token.
func ResolveTemplates(v Value, homeDir string) Value {
	switch v.Kind() {
	case KindString:
		if strings.Contains(v.Str(), HomePlaceholder) {
			return String(strings.ReplaceAll(v.Str(), HomePlaceholder, homeDir))
		}
		return v
	case KindList:
		items := make([]Value, len(v.Items()))
		for i, item := range v.Items() {
			items[i] = ResolveTemplates(item, homeDir)
		}
		return List(items...)
	case KindMap:
		result := NewMap()
		for _, key := range v.Keys() {
			val, _ := v.Get(key)
			result.Set(key, ResolveTemplates(val, homeDir))
		}
		return result
	}
	return v
}

// ResolveTemplateString replaces the home directory placeholder in raw
// file content, for template-flagged non-settings files.
func ResolveTemplateString(content, homeDir string) string {
	return strings.ReplaceAll(content, HomePlaceholder, homeDir)
}
