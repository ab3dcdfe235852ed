package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, doc string) Value {
	t.Helper()
	v, err := Parse([]byte(doc))
	require.NoError(t, err)
	return v
}

func TestMergeTeamDefaultsWithUserSettings(t *testing.T) {
	dest := mustParse(t, `{
		"model": "fast",
		"permissions": {"allow": ["Read"], "deny": ["Bash"]},
		"enabledPlugins": {"p1": true}
	}`)
	source := mustParse(t, `{
		"model": "smart",
		"permissions": {"allow": ["Write"]},
		"enabledPlugins": {"p2": true}
	}`)

	merged := Merge(source, dest)

	model, _ := merged.Get("model")
	assert.Equal(t, "smart", model.Str())

	perms, _ := merged.Get("permissions")
	allow, _ := perms.Get("allow")
	require.Equal(t, 2, allow.Len())
	assert.Equal(t, "Read", allow.Items()[0].Str())
	assert.Equal(t, "Write", allow.Items()[1].Str())

	deny, ok := perms.Get("deny")
	require.True(t, ok)
	assert.Equal(t, "Bash", deny.Items()[0].Str())

	plugins, _ := merged.Get("enabledPlugins")
	assert.True(t, plugins.Has("p1"))
	assert.True(t, plugins.Has("p2"))
}

func TestMergeAllowUnionDeduplicatesAndSorts(t *testing.T) {
	dest := mustParse(t, `{"permissions": {"allow": ["Write", "Read"]}}`)
	source := mustParse(t, `{"permissions": {"allow": ["Read", "Edit"]}}`)

	merged := Merge(source, dest)
	perms, _ := merged.Get("permissions")
	allow, _ := perms.Get("allow")

	got := make([]string, 0, allow.Len())
	for _, item := range allow.Items() {
		got = append(got, item.Str())
	}
	assert.Equal(t, []string{"Edit", "Read", "Write"}, got)
}

func TestMergePreservesUserDenyAskAndSurveyState(t *testing.T) {
	dest := mustParse(t, `{
		"permissions": {"deny": ["Bash"], "ask": ["WebFetch"]},
		"feedbackSurveyState": {"lastShownTime": 1735689600123}
	}`)
	source := mustParse(t, `{
		"permissions": {"deny": ["Edit"], "ask": []},
		"feedbackSurveyState": {"lastShownTime": 0}
	}`)

	merged := Merge(source, dest)

	perms, _ := merged.Get("permissions")
	deny, _ := perms.Get("deny")
	assert.Equal(t, "Bash", deny.Items()[0].Str())
	ask, _ := perms.Get("ask")
	assert.Equal(t, "WebFetch", ask.Items()[0].Str())

	survey, _ := merged.Get("feedbackSurveyState")
	lastShown, _ := survey.Get("lastShownTime")
	assert.Equal(t, "1735689600123", string(lastShown.Num()))
}

func TestMergePluginConflictSourceWins(t *testing.T) {
	dest := mustParse(t, `{"enabledPlugins": {"p1": false, "p3": true}}`)
	source := mustParse(t, `{"enabledPlugins": {"p1": true, "p2": true}}`)

	merged := Merge(source, dest)
	plugins, _ := merged.Get("enabledPlugins")

	p1, _ := plugins.Get("p1")
	assert.True(t, p1.BoolVal(), "source decision should win on conflict")
	assert.True(t, plugins.Has("p2"))
	assert.True(t, plugins.Has("p3"))
}

func TestMergeOverwriteKeys(t *testing.T) {
	dest := mustParse(t, `{
		"model": "fast",
		"statusLine": {"type": "custom", "command": "old.sh"},
		"alwaysThinkingEnabled": false
	}`)
	source := mustParse(t, `{
		"model": "smart",
		"statusLine": {"type": "custom", "command": "new.sh"},
		"alwaysThinkingEnabled": true
	}`)

	merged := Merge(source, dest)

	model, _ := merged.Get("model")
	assert.Equal(t, "smart", model.Str())

	statusLine, _ := merged.Get("statusLine")
	command, _ := statusLine.Get("command")
	assert.Equal(t, "new.sh", command.Str())

	thinking, _ := merged.Get("alwaysThinkingEnabled")
	assert.True(t, thinking.BoolVal())
}

func TestMergeUnknownKeysPreserveThenFill(t *testing.T) {
	dest := mustParse(t, `{"customUserKey": "mine"}`)
	source := mustParse(t, `{"customUserKey": "theirs", "teamOnlyKey": "added"}`)

	merged := Merge(source, dest)

	userKey, _ := merged.Get("customUserKey")
	assert.Equal(t, "mine", userKey.Str())

	teamKey, ok := merged.Get("teamOnlyKey")
	require.True(t, ok)
	assert.Equal(t, "added", teamKey.Str())
}

func TestMergeSchemaTakenFromSource(t *testing.T) {
	dest := mustParse(t, `{}`)
	source := mustParse(t, `{"$schema": "https://example.com/settings.schema.json"}`)

	merged := Merge(source, dest)
	schema, ok := merged.Get("$schema")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/settings.schema.json", schema.Str())
}

func TestMergeDeterministicUnderKeyPermutation(t *testing.T) {
	destA := mustParse(t, `{"model": "fast", "permissions": {"allow": ["Read"], "deny": ["Bash"]}, "enabledPlugins": {"p1": true}}`)
	destB := mustParse(t, `{"enabledPlugins": {"p1": true}, "permissions": {"deny": ["Bash"], "allow": ["Read"]}, "model": "fast"}`)
	srcA := mustParse(t, `{"model": "smart", "permissions": {"allow": ["Write"]}}`)
	srcB := mustParse(t, `{"permissions": {"allow": ["Write"]}, "model": "smart"}`)

	outA, err := Encode(Merge(srcA, destA))
	require.NoError(t, err)
	outB, err := Encode(Merge(srcB, destB))
	require.NoError(t, err)

	assert.Equal(t, outA, outB, "merge result must not depend on input key order")
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	dest := mustParse(t, `{"permissions": {"allow": ["Read"]}}`)
	source := mustParse(t, `{"permissions": {"allow": ["Write"]}}`)

	Merge(source, dest)

	destPerms, _ := dest.Get("permissions")
	destAllow, _ := destPerms.Get("allow")
	require.Equal(t, 1, destAllow.Len())
	assert.Equal(t, "Read", destAllow.Items()[0].Str())
}

func TestResolveTemplates(t *testing.T) {
	doc := mustParse(t, `{
		"statusLine": {"command": "{{HOME}}/.config/app/statusline.sh"},
		"paths": ["{{HOME}}/bin", "/usr/bin"],
		"count": 2
	}`)

	resolved := ResolveTemplates(doc, "/home/user")

	statusLine, _ := resolved.Get("statusLine")
	command, _ := statusLine.Get("command")
	assert.Equal(t, "/home/user/.config/app/statusline.sh", command.Str())

	paths, _ := resolved.Get("paths")
	assert.Equal(t, "/home/user/bin", paths.Items()[0].Str())
	assert.Equal(t, "/usr/bin", paths.Items()[1].Str())

	data, err := Encode(resolved)
	require.NoError(t, err)
	assert.NotContains(t, string(data), HomePlaceholder)
}

func TestResolveTemplateString(t *testing.T) {
	content := "export APP_HOME={{HOME}}/.config/app\n"
	assert.Equal(t, "export APP_HOME=/home/user/.config/app\n",
		ResolveTemplateString(content, "/home/user"))
}
