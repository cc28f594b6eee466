package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkill(t *testing.T, root, dir, content string) string {
	t.Helper()
	skillDir := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(skillDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(skillDir, "SKILL.md"), []byte(content), 0o644))
	return skillDir
}

func TestNewDiscovery(t *testing.T) {
	t.Run("with default dirs", func(t *testing.T) {
		discovery, err := NewDiscovery()
		require.NoError(t, err)
		assert.Len(t, discovery.skillDirs, 2)
	})

	t.Run("with custom dirs", func(t *testing.T) {
		customDirs := []string{"/tmp/skills1", "/tmp/skills2"}
		discovery, err := NewDiscovery(WithSkillDirs(customDirs...))
		require.NoError(t, err)
		assert.Equal(t, customDirs, discovery.skillDirs)
	})
}

func TestDiscoverSkills(t *testing.T) {
	tmpDir := t.TempDir()

	tweetDir := writeSkill(t, tmpDir, "tweet-archiver", `---
name: tweet-archiver
description: Archive tweets with their media into a local bundle
---

# Tweet Archiver

## Instructions
Run skillet tweet archive <id-or-url>.
`)

	writeSkill(t, tmpDir, "image-gen", `---
name: image-gen
description: Generate images from text prompts
---

# Image Generation

Some content here.
`)

	discovery, err := NewDiscovery(WithSkillDirs(tmpDir))
	require.NoError(t, err)

	skills, err := discovery.DiscoverSkills()
	require.NoError(t, err)
	assert.Len(t, skills, 2)

	archiver, exists := skills["tweet-archiver"]
	require.True(t, exists)
	assert.Equal(t, "tweet-archiver", archiver.Name)
	assert.Equal(t, "Archive tweets with their media into a local bundle", archiver.Description)
	assert.Equal(t, tweetDir, archiver.Directory)
	assert.Contains(t, archiver.Content, "# Tweet Archiver")
	assert.NotContains(t, archiver.Content, "description:")
}

func TestDiscoverSkillsSkipsBrokenOnes(t *testing.T) {
	tmpDir := t.TempDir()

	writeSkill(t, tmpDir, "good", "---\nname: good\ndescription: fine\n---\nbody")
	writeSkill(t, tmpDir, "no-frontmatter", "# Just a heading")
	writeSkill(t, tmpDir, "missing-name", "---\ndescription: nameless\n---\nbody")

	// Directory without a SKILL.md at all
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "empty"), 0o755))

	discovery, err := NewDiscovery(WithSkillDirs(tmpDir))
	require.NoError(t, err)

	skills, err := discovery.DiscoverSkills()
	require.NoError(t, err)
	assert.Len(t, skills, 1)
	assert.Contains(t, skills, "good")
}

func TestFirstDirectoryWins(t *testing.T) {
	localDir := t.TempDir()
	globalDir := t.TempDir()

	writeSkill(t, localDir, "dup", "---\nname: dup\ndescription: local copy\n---\nlocal")
	writeSkill(t, globalDir, "dup", "---\nname: dup\ndescription: global copy\n---\nglobal")

	discovery, err := NewDiscovery(WithSkillDirs(localDir, globalDir))
	require.NoError(t, err)

	skill, err := discovery.GetSkill("dup")
	require.NoError(t, err)
	assert.Equal(t, "local copy", skill.Description)
}

func TestGetSkillNotFound(t *testing.T) {
	discovery, err := NewDiscovery(WithSkillDirs(t.TempDir()))
	require.NoError(t, err)

	_, err = discovery.GetSkill("nope")
	assert.ErrorContains(t, err, "skill 'nope' not found")
}

func TestListSkillNames(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, tmpDir, "a", "---\nname: a\ndescription: d\n---\n")
	writeSkill(t, tmpDir, "b", "---\nname: b\ndescription: d\n---\n")

	discovery, err := NewDiscovery(WithSkillDirs(tmpDir))
	require.NoError(t, err)

	names, err := discovery.ListSkillNames()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestParseMetadata(t *testing.T) {
	t.Run("complete frontmatter", func(t *testing.T) {
		metadata, err := parseMetadata(map[string]interface{}{
			"name":        "tweet-archiver",
			"description": "Archive tweets with their media",
		})
		require.NoError(t, err)
		assert.Equal(t, "tweet-archiver", metadata.Name)
		assert.Equal(t, "Archive tweets with their media", metadata.Description)
	})

	t.Run("nil frontmatter", func(t *testing.T) {
		_, err := parseMetadata(nil)
		assert.ErrorContains(t, err, "missing frontmatter")
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := parseMetadata(map[string]interface{}{"description": "x"})
		assert.ErrorContains(t, err, "name is required")
	})

	t.Run("non-string name", func(t *testing.T) {
		_, err := parseMetadata(map[string]interface{}{"name": 42, "description": "x"})
		assert.ErrorContains(t, err, "name is required")
	})
}

func TestFilterByAllowlist(t *testing.T) {
	skills := map[string]*Skill{
		"a": {Name: "a"},
		"b": {Name: "b"},
	}

	t.Run("empty allowlist returns all", func(t *testing.T) {
		assert.Len(t, FilterByAllowlist(skills, nil), 2)
	})

	t.Run("filters to named skills", func(t *testing.T) {
		filtered := FilterByAllowlist(skills, []string{"a", "missing"})
		assert.Len(t, filtered, 1)
		assert.Contains(t, filtered, "a")
	})
}

func TestValidate(t *testing.T) {
	t.Run("all skills valid", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeSkill(t, tmpDir, "good", "---\nname: good\ndescription: fine\n---\nbody")

		discovery, err := NewDiscovery(WithSkillDirs(tmpDir))
		require.NoError(t, err)
		assert.NoError(t, discovery.Validate())
	})

	t.Run("aggregates every broken skill", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeSkill(t, tmpDir, "good", "---\nname: good\ndescription: fine\n---\nbody")
		writeSkill(t, tmpDir, "broken-one", "# no frontmatter")
		writeSkill(t, tmpDir, "broken-two", "---\nname: x\n---\nno description")
		require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "no-skill-md"), 0o755))

		discovery, err := NewDiscovery(WithSkillDirs(tmpDir))
		require.NoError(t, err)

		err = discovery.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken-one")
		assert.Contains(t, err.Error(), "broken-two")
		assert.Contains(t, err.Error(), "no-skill-md")
		assert.NotContains(t, err.Error(), "good:")
	})
}
