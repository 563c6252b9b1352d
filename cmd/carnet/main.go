package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ombrelin/carnet/internal/archive"
	"github.com/ombrelin/carnet/internal/journal"
	"github.com/ombrelin/carnet/internal/lifecycle"
	carnetmcp "github.com/ombrelin/carnet/internal/mcp"
	"github.com/ombrelin/carnet/internal/note"
	"github.com/ombrelin/carnet/internal/ui"
)

// Set via ldflags at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func buildVersion() string {
	if commit == "none" {
		return version
	}
	return fmt.Sprintf("%s (%s, %s)", version, commit, date)
}

var rootFlag string

func main() {
	var noColor bool

	rootCmd := &cobra.Command{
		Use:   "carnet",
		Short: "carnet — daily note journal",
		Long:  "A local CLI tool that manages the lifecycle of a daily note: write it in the noting area, archive it into a dated history, and keep the year index in sync.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ui.Init(noColor)
		},
	}

	rootCmd.Version = buildVersion()
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "Journal root (defaults to $CARNET_ROOT or the current directory)")

	// Command groups
	rootCmd.AddGroup(
		&cobra.Group{ID: "note", Title: "Note Commands:"},
		&cobra.Group{ID: "inspect", Title: "Inspection Commands:"},
		&cobra.Group{ID: "config", Title: "Configuration:"},
	)

	initC := initCmd()
	initC.GroupID = "config"
	doctorC := doctorCmd()
	doctorC.GroupID = "config"
	configC := configCmd()
	configC.GroupID = "config"

	startC := startCmd()
	startC.GroupID = "note"
	finishC := finishCmd()
	finishC.GroupID = "note"
	revertC := revertCmd()
	revertC.GroupID = "note"

	statusC := statusCmd()
	statusC.GroupID = "inspect"
	showC := showCmd()
	showC.GroupID = "inspect"
	draftsC := draftsCmd()
	draftsC.GroupID = "inspect"
	backupsC := backupsCmd()
	backupsC.GroupID = "inspect"

	rootCmd.AddCommand(initC)
	rootCmd.AddCommand(startC)
	rootCmd.AddCommand(finishC)
	rootCmd.AddCommand(revertC)
	rootCmd.AddCommand(statusC)
	rootCmd.AddCommand(showC)
	rootCmd.AddCommand(draftsC)
	rootCmd.AddCommand(backupsC)
	rootCmd.AddCommand(doctorC)
	rootCmd.AddCommand(configC)
	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(completionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// journalRoot resolves the root, --root beating the environment.
func journalRoot() string {
	if rootFlag != "" {
		return rootFlag
	}
	return journal.Root()
}

func loadJournal() (*journal.Journal, error) {
	return journal.Load(journalRoot())
}

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:     "init",
		Short:   "Initialize the journal directory structure",
		Long:    "Create the journal layout under the root: noting_area/, notes/<year>/ with its README.md index, and back_office/ with the note template, drafts bin, index backups, and config.yaml.",
		Example: "  carnet init\n  carnet init --root ~/journal\n  carnet init --force",
		RunE: func(cmd *cobra.Command, args []string) error {
			root := journalRoot()
			if err := journal.Init(root, force); err != nil {
				return err
			}
			ui.Success("Journal initialized")
			ui.Detail("Root:", root)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Reinitialize even if the journal already exists")
	return cmd
}

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "start",
		Short:   "Start a new note from the template",
		Long:    "Copy the template note into the noting area. A note already in progress is set aside as a draft first, so nothing is lost.",
		Example: "  carnet start",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := loadJournal()
			if err != nil {
				return err
			}

			ui.Banner("start", j.Locale().DayMonth(time.Now()))

			res, err := lifecycle.Start(j)
			if err != nil {
				return err
			}
			if res.DraftName != "" {
				ui.Info(fmt.Sprintf("Previous note set aside as draft %s", ui.Bold(res.DraftName)))
			}
			for _, name := range res.Copied {
				ui.Detail("copied:", name)
			}
			ui.Success("Note started — edit noting_area/README.md")
			return nil
		},
	}
}

func finishCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "finish",
		Short:   "Archive the current note and update the year index",
		Long:    "Archive the noting area under notes/<year>/<month>/<date>, keeping only assets the note references, then add the note's link to the year index. The pre-edit index is backed up so the finish can be reverted. A note identical to the template is skipped.",
		Example: "  carnet finish",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := loadJournal()
			if err != nil {
				return err
			}

			ui.Banner("finish", j.Locale().DayMonth(time.Now()))

			res, err := lifecycle.Finish(j)
			if err != nil {
				return err
			}
			if res.Skipped {
				ui.Info(fmt.Sprintf("Nothing to finish: %s", res.Reason))
				return nil
			}

			for _, name := range res.Copied {
				ui.Detail("archived:", name)
			}
			for _, name := range res.SkippedAssets {
				ui.Detail("skipped:", ui.Dim(name+" (not referenced)"))
			}
			ui.Success(fmt.Sprintf("Note archived under %s", res.EntryPath))
			ui.KeyValue("Month:  ", res.MonthName)
			ui.KeyValue("Link:   ", ui.Dim(res.Link))
			ui.KeyValue("Summary:", res.Summary)
			ui.KeyValue("Backup: ", res.BackupName)

			if j.Config.Notify.OnFinish {
				ui.Notify("carnet", fmt.Sprintf("Note %s archived", res.DateKey))
			}
			return nil
		},
	}
}

func revertCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "revert",
		Short:   "Undo the most recent finish",
		Long:    "Bring the most recent archived note back into the noting area, restore the year index from its backup, and delete the archive entry. Only entries finished within the freshness window (24h by default) can be reverted.",
		Example: "  carnet revert\n  carnet revert --yes",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := loadJournal()
			if err != nil {
				return err
			}

			if !yes {
				proceed, err := ui.Confirm("Revert the most recent finish? The archive entry will be deleted.")
				if err != nil {
					return err
				}
				if !proceed {
					ui.Info("Cancelled.")
					return nil
				}
			}

			ui.Banner("revert", j.Locale().DayMonth(time.Now()))

			res, err := lifecycle.Revert(j)
			if err != nil {
				return err
			}
			if res.DraftName != "" {
				ui.Info(fmt.Sprintf("Working note set aside as draft %s", ui.Bold(res.DraftName)))
			}
			if res.Skipped {
				ui.Info(fmt.Sprintf("Nothing to revert: %s", res.Reason))
				return nil
			}

			ui.Success(fmt.Sprintf("Entry %s reverted into the noting area", res.EntryDate))
			if res.IndexRestored {
				ui.KeyValue("Index:  ", fmt.Sprintf("restored from %s", res.BackupName))
			} else {
				ui.Warning("Year index left untouched (no backup found) — it may be out of sync")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the journal state",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := loadJournal()
			if err != nil {
				return err
			}
			st, err := lifecycle.Report(j)
			if err != nil {
				return err
			}

			ui.SectionHeader("Journal")
			ui.KeyValue("Root:   ", j.Root)

			stateStr := st.State.String()
			if st.State == lifecycle.Active {
				stateStr = ui.Green(stateStr)
				if st.Changed {
					stateStr += " " + ui.Yellow("(modified)")
				} else {
					stateStr += " " + ui.Dim("(untouched template)")
				}
			} else {
				stateStr = ui.Dim(stateStr)
			}
			ui.KeyValue("Note:   ", stateStr)

			if st.LatestEntry != nil {
				ui.KeyValue("Latest: ", fmt.Sprintf("%s %s", st.LatestEntry.Date,
					ui.Dim(j.Locale().DayMonth(st.LatestEntry.Day))))
			} else {
				ui.KeyValue("Latest: ", ui.Dim("no archived notes"))
			}
			ui.KeyValue("Drafts: ", fmt.Sprintf("%d", st.Drafts))
			ui.KeyValue("Backups:", fmt.Sprintf("%d", st.Backups))
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Render the current note",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := loadJournal()
			if err != nil {
				return err
			}
			docPath, err := note.DocumentPath(j.NotingArea())
			if err != nil {
				return err
			}
			if docPath == "" {
				ui.EmptyState("No note in progress. Use 'carnet start' to begin one.")
				return nil
			}
			data, err := os.ReadFile(docPath)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", docPath, err)
			}
			ui.RenderMarkdown(string(data))
			return nil
		},
	}
}

func draftsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drafts",
		Short: "List draft snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := loadJournal()
			if err != nil {
				return err
			}
			return printSnapshots(j, j.DraftsDir(), "No drafts. Notes are set aside here when 'carnet start' or 'carnet revert' finds one in progress.")
		},
	}
}

func backupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List year index backups",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := loadJournal()
			if err != nil {
				return err
			}
			return printSnapshots(j, j.BackupsDir(), "No index backups. One is taken on every 'carnet finish'.")
		},
	}
}

func printSnapshots(j *journal.Journal, dir, emptyMsg string) error {
	snaps, err := archive.ListSnapshots(dir)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		ui.EmptyState(emptyMsg)
		return nil
	}
	var rows [][]string
	for _, s := range snaps {
		rows = append(rows, []string{s.Name, j.Locale().DayMonth(s.Day), fmt.Sprintf("%d", s.Serial)})
	}
	ui.Table([]string{"NAME", "DAY", "SERIAL"}, rows)
	return nil
}

func doctorCmd() *cobra.Command {
	var fix bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the health of the journal layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			root := journalRoot()
			if _, err := loadJournal(); err != nil {
				return err
			}

			if fix {
				ui.Banner("doctor", "repair mode")
				fixed := journal.FixIssues(root)
				for _, f := range fixed {
					ui.Success(fmt.Sprintf("[FIXED] %s", f))
				}
				if len(fixed) == 0 {
					ui.EmptyState("Nothing to fix.")
				}
			} else {
				ui.Banner("doctor", "health check")
			}

			issues := journal.CheckHealth(root)
			if len(issues) == 0 {
				ui.Success("Everything looks good")
				return nil
			}

			hasError := false
			for _, issue := range issues {
				if issue.Severity == "error" {
					ui.Error(fmt.Sprintf("[ERR]  %s", issue.Message))
					hasError = true
				} else {
					ui.Warning(fmt.Sprintf("[WARN] %s", issue.Message))
				}
			}
			if hasError {
				os.Exit(2)
			}
			os.Exit(1)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "Repair missing directories, config, and year index skeletons")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and edit carnet configuration",
	}
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configSetCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := loadJournal()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(j.Config)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

func configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  "Set a carnet configuration value. Valid keys: note.locale, note.summary_max_chars, revert.freshness_hours, notify.on_finish.",
		Example: `  carnet config set note.locale en
  carnet config set revert.freshness_hours 48`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := loadJournal()
			if err != nil {
				return err
			}
			if err := j.SetConfigValue(args[0], args[1]); err != nil {
				return err
			}
			ui.Success(fmt.Sprintf("Set %s = %s", args[0], args[1]))
			return nil
		},
	}
}

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Model Context Protocol server",
	}
	cmd.AddCommand(mcpServeCmd())
	return cmd
}

func mcpServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run carnet as an MCP server over stdio",
		Long:  "Start carnet as a Model Context Protocol (MCP) server over stdio, exposing the journal lifecycle (status, start, finish, revert) to MCP-compatible tools.",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := loadJournal()
			if err != nil {
				return err
			}
			server := carnetmcp.NewServer(j, version)
			return server.Run(cmd.Context())
		},
	}
}

func completionCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish]",
		Short:     "Generate shell completion scripts",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			default:
				return fmt.Errorf("unsupported shell: %s (use bash, zsh, or fish)", args[0])
			}
		},
	}
}
