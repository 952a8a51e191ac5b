package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/hum2song/engine/internal/engineconfig"
	"github.com/hum2song/engine/internal/harness"
	"github.com/spf13/cobra"
)

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	headStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
)

func newRootCommand() *cobra.Command {
	cfg := engineconfig.Load()
	var fixturesDir string

	root := &cobra.Command{
		Use:   "harness",
		Short: "Drive the hum2song engine's contract fixtures and property checks",
	}
	root.PersistentFlags().StringVar(&fixturesDir, "fixtures-dir", cfg.FixturesDir, "directory of *.yaml contract fixtures")

	root.AddCommand(newFixturesCommand(&fixturesDir))
	root.AddCommand(newPropertiesCommand())
	root.AddCommand(newAllCommand(&fixturesDir))

	return root
}

func newFixturesCommand(fixturesDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "fixtures",
		Short: "Run every *.yaml contract fixture and print a pass/fail summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFixtures(*fixturesDir)
		},
	}
}

func newPropertiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "properties",
		Short: "Run the in-process property checks (go test equivalent, no framework output)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(headStyle.Render("property checks run via `go test ./internal/harness/...`"))
			fmt.Println("this subcommand exists for symmetry with `fixtures`; there is no separate non-test driver for random-sequence properties.")
			return nil
		},
	}
}

func newAllCommand(fixturesDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run fixtures, then point at the property test command",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runFixtures(*fixturesDir); err != nil {
				return err
			}
			fmt.Println()
			fmt.Println(headStyle.Render("run `go test ./internal/harness/...` for property checks"))
			return nil
		},
	}
}

func runFixtures(dir string) error {
	fixtures, err := harness.LoadFixtures(dir)
	if err != nil {
		return err
	}

	fmt.Println(headStyle.Render(fmt.Sprintf("running %d fixture(s) from %s", len(fixtures), dir)))

	failures := 0
	for _, f := range fixtures {
		res := harness.RunFixture(f, nil, nil)
		if res.Ok {
			fmt.Printf("%s %s (%s)\n", passStyle.Render("PASS"), res.Name, res.Detail)
			continue
		}
		failures++
		fmt.Printf("%s %s: %s\n", failStyle.Render("FAIL"), res.Name, res.Detail)
	}

	fmt.Println()
	if failures > 0 {
		fmt.Println(failStyle.Render(fmt.Sprintf("%d/%d fixture(s) failed", failures, len(fixtures))))
		return fmt.Errorf("%d fixture(s) failed", failures)
	}
	fmt.Println(passStyle.Render(fmt.Sprintf("all %d fixture(s) passed", len(fixtures))))
	return nil
}
