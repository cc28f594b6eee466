// Package skills discovers the agent skill packages in this repository:
// directories containing a SKILL.md instruction document with YAML
// frontmatter describing the skill's name and purpose.
package skills

// Skill represents a discovered skill with its metadata
type Skill struct {
	Name        string // Unique name from frontmatter
	Description string // Brief description of what the skill does
	Directory   string // Full path to the skill directory
	Content     string // Body of SKILL.md without the frontmatter
}

// Metadata is the parsed YAML frontmatter of a SKILL.md file
type Metadata struct {
	Name        string
	Description string
}
