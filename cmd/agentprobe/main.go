package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mpataki/agentprobe/internal/agentscript"
	"github.com/mpataki/agentprobe/internal/config"
	"github.com/mpataki/agentprobe/internal/models"
	"github.com/mpataki/agentprobe/internal/orchestrator"
	"github.com/mpataki/agentprobe/internal/report"
	"github.com/mpataki/agentprobe/internal/rubric"
	"github.com/mpataki/agentprobe/internal/rules"
	"github.com/mpataki/agentprobe/internal/sforce"
	"github.com/mpataki/agentprobe/internal/skills"
	"github.com/mpataki/agentprobe/internal/storage"
	"github.com/mpataki/agentprobe/internal/synth"
	"github.com/mpataki/agentprobe/internal/testspec"
	"github.com/mpataki/agentprobe/internal/tui"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "agentprobe",
		Short: "Black-box test harness for Agentforce agents",
		Long:  "Agentprobe reads Agent Script files, synthesizes test specs from their structure, and drives them through Agent Testing Center.",
		RunE:  runTUI,
	}

	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newShowCommand())
	rootCmd.AddCommand(newDeleteCommand())
	rootCmd.AddCommand(newScoreCommand())
	rootCmd.AddCommand(newSuggestCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	// The TUI only reads history, so pipeline output has nowhere to go.
	orch := orchestrator.New(store, &sforce.Client{}, io.Discard)

	app := tui.NewApp(orch)
	p := tea.NewProgram(app, tea.WithAltScreen())

	_, err = p.Run()
	return err
}

func newGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a test spec from an Agent Script file",
		RunE: func(cmd *cobra.Command, args []string) error {
			agentFile, _ := cmd.Flags().GetString("agent-file")
			agentDir, _ := cmd.Flags().GetString("agent-dir")
			output, _ := cmd.Flags().GetString("output")
			rulesPath, _ := cmd.Flags().GetString("rules")
			plain, _ := cmd.Flags().GetBool("plain")
			verbose, _ := cmd.Flags().GetBool("verbose")

			if agentFile == "" && agentDir == "" {
				return fmt.Errorf("either --agent-file or --agent-dir is required")
			}

			path, err := agentscript.FindAgentFile("", agentDir, agentFile)
			if err != nil {
				return err
			}

			fmt.Printf("Parsing: %s\n", path)

			structure, err := agentscript.ParseFile(path)
			if err != nil {
				return err
			}

			if structure.AgentName == "" {
				fmt.Fprintln(os.Stderr, "Warning: Could not extract agent_name from file")
				structure.AgentName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}

			var gen synth.Generator
			var ruleSet *rules.RuleSet
			if rulesPath != "" {
				ruleSet, err = rules.Load(rulesPath)
				if err != nil {
					return fmt.Errorf("failed to load rules: %w", err)
				}
				defer ruleSet.Close()
				gen.Overrides = ruleSet
			}

			doc := gen.Document(structure, structure.AgentName)

			if ruleSet != nil {
				for _, line := range ruleSet.Logs() {
					report.Hint(os.Stdout, "[rules] %s", line)
				}
			}

			renderer := testspec.SelectRenderer()
			if plain {
				renderer = testspec.PlainRenderer{}
			}

			if err := testspec.WriteFile(output, doc, renderer); err != nil {
				return err
			}

			if verbose {
				report.GenerationSummary(os.Stdout, structure, doc.TestCases)
				report.TransitionWarnings(os.Stdout, structure)
			} else {
				fmt.Printf("Generated %d test cases\n", len(doc.TestCases))
				fmt.Printf("Output: %s\n", output)
			}

			report.GenerateNextSteps(os.Stdout, output, structure.AgentName)
			return nil
		},
	}

	cmd.Flags().String("agent-file", "", "Path to .agent file")
	cmd.Flags().String("agent-dir", "", "Path to aiAuthoringBundle directory")
	cmd.Flags().StringP("output", "o", "", "Output YAML file path")
	cmd.Flags().String("rules", "", "Lua rules file overriding synthesized utterances")
	cmd.Flags().Bool("plain", false, "Force the hand-assembled YAML renderer")
	cmd.Flags().BoolP("verbose", "v", false, "Print detailed summary")
	cmd.MarkFlagRequired("output")
	return cmd
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a spec and run it against an org",
		RunE: func(cmd *cobra.Command, args []string) error {
			agentName, _ := cmd.Flags().GetString("agent-name")
			targetOrg, _ := cmd.Flags().GetString("target-org")
			agentFile, _ := cmd.Flags().GetString("agent-file")
			agentDir, _ := cmd.Flags().GetString("agent-dir")
			outputDir, _ := cmd.Flags().GetString("output-dir")
			wait, _ := cmd.Flags().GetInt("wait")
			skipCreate, _ := cmd.Flags().GetBool("skip-create")
			skipCheck, _ := cmd.Flags().GetBool("skip-check")

			cfg, err := config.New()
			if err != nil {
				return err
			}

			if err := cfg.EnsureDataDir(); err != nil {
				return err
			}

			if outputDir == "" {
				outputDir = cfg.OutputDir
			}

			store, err := storage.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			orch := orchestrator.New(store, &sforce.Client{}, os.Stdout)

			outcome, err := orch.Execute(cmd.Context(), orchestrator.RunOptions{
				AgentName:  agentName,
				AgentFile:  agentFile,
				AgentDir:   agentDir,
				TargetOrg:  targetOrg,
				OutputDir:  outputDir,
				Wait:       wait,
				SkipCreate: skipCreate,
				SkipCheck:  skipCheck,
			})
			if err != nil {
				var pre *orchestrator.PreflightError
				if errors.As(err, &pre) {
					fmt.Println()
					fmt.Println("FALLBACK: Use sf agent preview for manual testing:")
					fmt.Printf("   sf agent preview --api-name %s --target-org %s\n", agentName, targetOrg)
					store.Close()
					os.Exit(1)
				}
				return fmt.Errorf("run failed: %w", err)
			}

			report.FixSuggestions(os.Stdout, outcome.Summary, agentName)

			if outcome.Summary.Failed > 0 {
				store.Close()
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().String("agent-name", "", "Agent API name")
	cmd.Flags().String("target-org", "", "Target org alias or username")
	cmd.Flags().String("agent-file", "", "Path to .agent file")
	cmd.Flags().String("agent-dir", "", "Path to aiAuthoringBundle directory")
	cmd.Flags().String("output-dir", "", "Directory for the generated spec (default from config)")
	cmd.Flags().Int("wait", 10, "Minutes to wait for test completion")
	cmd.Flags().Bool("skip-create", false, "Skip test creation and run the existing test")
	cmd.Flags().Bool("skip-check", false, "Skip the Agent Testing Center availability check")
	cmd.MarkFlagRequired("agent-name")
	cmd.MarkFlagRequired("target-org")
	return cmd
}

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent test runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			cfg, err := config.New()
			if err != nil {
				return err
			}

			if err := cfg.EnsureDataDir(); err != nil {
				return err
			}

			store, err := storage.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(limit)
			if err != nil {
				return err
			}

			if len(runs) == 0 {
				fmt.Println("No test runs found.")
				return nil
			}

			for _, run := range runs {
				line := fmt.Sprintf("#%-3d %-18s [%s] %s  %s",
					run.ID, run.AgentName, run.Status, run.TargetOrg,
					storage.FormatTimeAgo(run.CreatedAt))
				if run.Status == models.RunStatusComplete {
					line += fmt.Sprintf("  %d/%d passed", run.Passed, run.Passed+run.Failed)
				}
				fmt.Println(line)
			}

			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to list")
	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a test run and its case results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run ID: %w", err)
			}

			cfg, err := config.New()
			if err != nil {
				return err
			}

			if err := cfg.EnsureDataDir(); err != nil {
				return err
			}

			store, err := storage.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(runID)
			if err != nil {
				return fmt.Errorf("failed to get run: %w", err)
			}

			fmt.Printf("Run #%d: %s\n", run.ID, run.AgentName)
			fmt.Printf("Status: %s\n", run.Status)
			fmt.Printf("Target Org: %s\n", run.TargetOrg)
			if run.SpecPath != "" {
				fmt.Printf("Spec: %s\n", run.SpecPath)
			}
			if run.TestAPIName != "" {
				fmt.Printf("Test: %s\n", run.TestAPIName)
			}
			if run.Status == models.RunStatusComplete {
				fmt.Printf("Result: %d/%d passed\n", run.Passed, run.Passed+run.Failed)
			}
			if run.Error != "" {
				fmt.Printf("Error: %s\n", run.Error)
			}

			cases, err := store.GetCaseResultsForRun(runID)
			if err != nil {
				return err
			}

			if len(cases) > 0 {
				fmt.Println("\nTest Cases:")
				for _, c := range cases {
					fmt.Printf("  %d. %s [%s]\n", c.Seq, c.Name, c.Outcome)
					if c.Outcome == models.CaseOutcomeFailed {
						if c.ExpectedTopic != "" && c.ActualTopic != "" {
							fmt.Printf("     expected topic %s, got %s\n", c.ExpectedTopic, c.ActualTopic)
						}
						if c.Message != "" {
							fmt.Printf("     %s\n", truncate(c.Message, 70))
						}
					}
				}
			}

			return nil
		},
	}
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a test run and its case results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run ID: %w", err)
			}

			cfg, err := config.New()
			if err != nil {
				return err
			}

			if err := cfg.EnsureDataDir(); err != nil {
				return err
			}

			store, err := storage.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteRun(runID); err != nil {
				return fmt.Errorf("failed to delete run: %w", err)
			}

			fmt.Printf("Deleted run #%d\n", runID)
			return nil
		},
	}
}

func newScoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "score <file>...",
		Short: "Score Salesforce integration files against the review rubric",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				rep, err := rubric.Score(path)
				if err != nil {
					return err
				}
				// Files the rubric has no checks for are skipped quietly.
				if rep == nil {
					continue
				}
				report.RubricReport(os.Stdout, rep)
			}
			return nil
		},
	}
}

// newSuggestCommand reads a prompt event from stdin and emits a JSON
// suggestion message. It is meant to run from an editor hook, so every
// failure path stays silent rather than blocking the prompt.
func newSuggestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest skills for a prompt read from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			registryPath, _ := cmd.Flags().GetString("registry")

			if registryPath == "" {
				cfg, err := config.New()
				if err != nil {
					return nil
				}
				registryPath = cfg.RegistryPath
			}

			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return nil
			}

			prompt := gjson.GetBytes(data, "prompt").String()
			var files []string
			gjson.GetBytes(data, "activeFiles").ForEach(func(_, v gjson.Result) bool {
				files = append(files, v.String())
				return true
			})

			reg, err := skills.LoadRegistry(registryPath)
			if err != nil {
				return nil
			}

			message := skills.Suggest(prompt, files, reg)
			if message == "" {
				return nil
			}

			out, err := json.Marshal(map[string]string{"output_message": message})
			if err != nil {
				return nil
			}
			fmt.Println(string(out))

			return nil
		},
	}

	cmd.Flags().String("registry", "", "Path to the skills registry JSON (default from config)")
	return cmd
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
