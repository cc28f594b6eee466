package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/skillforge/skillet/pkg/presenter"
	"github.com/skillforge/skillet/pkg/skills"
)

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Inspect the agent skills in this repository",
	Long:  `List, show and validate the agent skill packages (directories with a SKILL.md).`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var skillListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available skills",
	Long:  `List all available skills with their names, descriptions, and directory paths.`,
	Run: func(_ *cobra.Command, _ []string) {
		listSkillsCmd()
	},
}

var skillShowCmd = &cobra.Command{
	Use:   "show <skill-name>",
	Short: "Print a skill's instruction document",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		showSkillCmd(args[0])
	},
}

var skillValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate every skill package",
	Long:  `Check every skill directory for a parseable SKILL.md with the required frontmatter, reporting all problems at once.`,
	Run: func(_ *cobra.Command, _ []string) {
		validateSkillsCmd()
	},
}

func init() {
	skillCmd.AddCommand(skillListCmd)
	skillCmd.AddCommand(skillShowCmd)
	skillCmd.AddCommand(skillValidateCmd)
	rootCmd.AddCommand(skillCmd)
}

func listSkillsCmd() {
	discovery, err := skills.NewDiscovery()
	if err != nil {
		presenter.Error(err, "Failed to initialize skill discovery")
		os.Exit(1)
	}

	allSkills, err := discovery.DiscoverSkills()
	if err != nil {
		presenter.Error(err, "Failed to discover skills")
		os.Exit(1)
	}

	if len(allSkills) == 0 {
		presenter.Info("No skills installed")
		return
	}

	names := make([]string, 0, len(allSkills))
	for name := range allSkills {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDIRECTORY\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t---------\t-----------")

	for _, name := range names {
		skill := allSkills[name]
		description := skill.Description
		if len(description) > 60 {
			description = description[:57] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", skill.Name, skill.Directory, description)
	}
	tw.Flush()
}

func showSkillCmd(name string) {
	discovery, err := skills.NewDiscovery()
	if err != nil {
		presenter.Error(err, "Failed to initialize skill discovery")
		os.Exit(1)
	}

	skill, err := discovery.GetSkill(name)
	if err != nil {
		presenter.Error(err, "Skill not found")
		os.Exit(1)
	}

	fmt.Println(skill.Content)
}

func validateSkillsCmd() {
	discovery, err := skills.NewDiscovery()
	if err != nil {
		presenter.Error(err, "Failed to initialize skill discovery")
		os.Exit(1)
	}

	if err := discovery.Validate(); err != nil {
		presenter.Error(err, "Skill validation failed")
		os.Exit(1)
	}

	presenter.Success("All skills are valid")
}
