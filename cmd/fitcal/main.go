package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"fitcal/internal/app"
	"fitcal/internal/config"
	"fitcal/internal/fitcal"
	"fitcal/internal/model"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer
// a.Close(). operation identifies the CLI command being run.
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.New(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// confirm prompts on stdout and reads a yes/no answer from stdin.
func confirm(prompt string) (bool, error) {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// readPassphrase prompts for a passphrase without echoing it.
func readPassphrase(prompt string) (string, error) {
	fmt.Print(prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(pw), nil
}

var rootCmd = &cobra.Command{
	Use:   "fitcal",
	Short: "Personal fitness-tracking calendar",
}

// config command

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		fmt.Printf("Database: %s (%s)\n", cfg.Database.Type, cfg.Database.DataDir)
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:    %s (%s)\n", v.Name, v.Type)
		}
		return nil
	},
}

// keys command

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage backup encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a backup encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("KeysInit")
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Encryptor().IsConfigured() {
			return fmt.Errorf("encryption keys already exist")
		}

		passphrase, err := readPassphrase("Passphrase for new private key: ")
		if err != nil {
			return err
		}
		again, err := readPassphrase("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if passphrase != again {
			return fmt.Errorf("passphrases do not match")
		}

		if err := a.Encryptor().Setup(passphrase); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}

		fmt.Println("Encryption keys generated.")
		return nil
	},
}

// add command

var (
	addType     string
	addTitle    string
	addDate     string
	addStart    string
	addDuration float64
	addDistance float64
	addCalories float64
	addAvgHR    float64
	addMaxHR    float64
	addNotes    string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("AddActivity")
		if err != nil {
			return err
		}
		defer a.Close()

		activity := &model.Activity{
			Type:            model.ActivityType(addType),
			Title:           addTitle,
			Date:            addDate,
			StartTime:       addStart,
			DurationMinutes: addDuration,
			Notes:           addNotes,
			Source:          model.SourceManual,
		}
		if cmd.Flags().Changed("distance") {
			activity.DistanceKm = &addDistance
		}
		if cmd.Flags().Changed("calories") {
			activity.Calories = &addCalories
		}
		if cmd.Flags().Changed("avg-hr") {
			activity.AvgHeartRate = &addAvgHR
		}
		if cmd.Flags().Changed("max-hr") {
			activity.MaxHeartRate = &addMaxHR
		}

		if err := a.Service().AddActivity(activity); err != nil {
			return fmt.Errorf("adding activity: %w", err)
		}

		fmt.Printf("Added %s on %s (%s)\n", activity.Title, activity.Date, activity.ID)
		return nil
	},
}

// list command

var (
	listView string
	listDate string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List activities and pain log entries for a calendar view",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := fitcal.ViewMode(listView)
		if !fitcal.ValidViewMode(mode) {
			return fmt.Errorf("unknown view %q (want day, week, month, year or heatmap)", listView)
		}

		anchor := time.Now()
		if listDate != "" {
			var err error
			anchor, err = fitcal.ParseDateKey(listDate)
			if err != nil {
				return err
			}
		}

		a, err := newApp("List")
		if err != nil {
			return err
		}
		defer a.Close()

		start, end := fitcal.RangeKeys(anchor, mode, a.WeekStart())
		activities, err := a.Service().ActivitiesInRange(start, end)
		if err != nil {
			return fmt.Errorf("querying activities: %w", err)
		}
		logs, err := a.Service().BodyLogsInRange(start, end)
		if err != nil {
			return fmt.Errorf("querying body logs: %w", err)
		}

		sort.Slice(activities, func(i, j int) bool {
			if activities[i].Date != activities[j].Date {
				return activities[i].Date < activities[j].Date
			}
			return activities[i].StartTime < activities[j].StartTime
		})

		fmt.Println(fitcal.ViewTitle(anchor, mode, a.WeekStart()))
		fmt.Println()
		for _, act := range activities {
			line := fmt.Sprintf("%s  %-20s %6.1f min", act.Date, act.Title, act.DurationMinutes)
			if act.StartTime != "" {
				line += "  @" + act.StartTime
			}
			fmt.Printf("%s  [%s]\n", line, act.ID)
		}
		if len(activities) == 0 {
			fmt.Println("No activities.")
		}
		if len(logs) > 0 {
			fmt.Println()
			for _, e := range logs {
				fmt.Printf("%s  pain %-5s severity %d  [%s]\n", e.Date, e.Category, e.Severity, e.ID)
			}
		}
		return nil
	},
}

// delete command

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an activity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("DeleteActivity")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().DeleteActivity(args[0]); err != nil {
			return fmt.Errorf("deleting activity: %w", err)
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

// clear command

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all activities and pain log entries",
	Long: `Delete all activities and pain log entries.

The current record counts are shown and the destructive clear requires
confirmation. The clear is transactional: it either fully applies or
leaves the store unchanged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Clear")
		if err != nil {
			return err
		}
		defer a.Close()

		activities, err := a.Service().CountActivities()
		if err != nil {
			return fmt.Errorf("counting activities: %w", err)
		}
		logs, err := a.Service().CountBodyLogs()
		if err != nil {
			return fmt.Errorf("counting body logs: %w", err)
		}

		fmt.Printf("This will delete %d activities and %d body logs.\n", activities, logs)

		if !clearYes {
			ok, err := confirm("Delete ALL current data?")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Clear cancelled.")
				return nil
			}
		}

		if err := a.Service().ClearAll(); err != nil {
			return fmt.Errorf("clearing store: %w", err)
		}

		fmt.Println("All data deleted.")
		return nil
	},
}

// count command

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Show record counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Count")
		if err != nil {
			return err
		}
		defer a.Close()

		activities, err := a.Service().CountActivities()
		if err != nil {
			return fmt.Errorf("counting activities: %w", err)
		}
		logs, err := a.Service().CountBodyLogs()
		if err != nil {
			return fmt.Errorf("counting body logs: %w", err)
		}

		fmt.Printf("Activities: %d\n", activities)
		fmt.Printf("Body logs:  %d\n", logs)
		return nil
	},
}

// log command

var (
	logDate     string
	logCategory string
	logSeverity int
	logNotes    string
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Manage the body pain log",
}

var logAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a pain observation",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("AddBodyLog")
		if err != nil {
			return err
		}
		defer a.Close()

		entry := &model.BodyLogEntry{
			Date:     logDate,
			Category: model.PainCategory(logCategory),
			Severity: logSeverity,
			Notes:    logNotes,
		}
		if err := a.Service().AddBodyLog(entry); err != nil {
			return fmt.Errorf("adding body log: %w", err)
		}

		fmt.Printf("Logged %s pain (severity %d) on %s (%s)\n", entry.Category, entry.Severity, entry.Date, entry.ID)
		return nil
	},
}

var (
	logListView string
	logListDate string
)

var logListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pain log entries for a calendar view",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := fitcal.ViewMode(logListView)
		if !fitcal.ValidViewMode(mode) {
			return fmt.Errorf("unknown view %q (want day, week, month, year or heatmap)", logListView)
		}

		anchor := time.Now()
		if logListDate != "" {
			var err error
			anchor, err = fitcal.ParseDateKey(logListDate)
			if err != nil {
				return err
			}
		}

		a, err := newApp("ListBodyLogs")
		if err != nil {
			return err
		}
		defer a.Close()

		start, end := fitcal.RangeKeys(anchor, mode, a.WeekStart())
		logs, err := a.Service().BodyLogsInRange(start, end)
		if err != nil {
			return fmt.Errorf("querying body logs: %w", err)
		}

		sort.Slice(logs, func(i, j int) bool {
			if logs[i].Date != logs[j].Date {
				return logs[i].Date < logs[j].Date
			}
			return logs[i].CreatedAt.Before(logs[j].CreatedAt)
		})

		fmt.Println(fitcal.ViewTitle(anchor, mode, a.WeekStart()))
		fmt.Println()
		for _, e := range logs {
			line := fmt.Sprintf("%s  pain %-5s severity %d", e.Date, e.Category, e.Severity)
			if e.Notes != "" {
				line += "  " + e.Notes
			}
			fmt.Printf("%s  [%s]\n", line, e.ID)
		}
		if len(logs) == 0 {
			fmt.Println("No entries.")
		}
		return nil
	},
}

var logDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a pain observation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("DeleteBodyLog")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().DeleteBodyLog(args[0]); err != nil {
			return fmt.Errorf("deleting body log: %w", err)
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

// import command

var importYes bool

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import activities from a vendor CSV export",
	Long: `Import activities from a vendor CSV export.

The file is parsed first and a preview is shown; nothing is written until
the import is confirmed. Rows that cannot be resolved are skipped and
counted. Activities matching an already-stored session (same date, type,
duration and start time) are deduplicated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Import")
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening import file: %w", err)
		}
		defer f.Close()

		result, err := a.Parser().Parse(f)
		if err != nil {
			return fmt.Errorf("parsing import file: %w", err)
		}

		fmt.Printf("Parsed %d activities, skipped %d rows.\n", len(result.Activities), result.Skipped)
		for _, w := range result.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
		for i, act := range result.Activities {
			if i == 5 {
				fmt.Printf("  ... and %d more\n", len(result.Activities)-5)
				break
			}
			fmt.Printf("  %s  %-20s %6.1f min  %s\n", act.Date, act.Title, act.DurationMinutes, act.Type)
		}

		if len(result.Activities) == 0 {
			fmt.Println("Nothing to import.")
			return nil
		}

		if !importYes {
			ok, err := confirm("Import these activities?")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Import cancelled.")
				return nil
			}
		}

		imported, err := a.Service().ImportActivities(result.Activities)
		if err != nil {
			return fmt.Errorf("importing activities: %w", err)
		}

		fmt.Printf("Added %d activities, skipped %d duplicates.\n", imported.Added, imported.Skipped)
		return nil
	},
}

// backup commands

var backupEncrypt bool

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Store a full snapshot in the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Backup")
		if err != nil {
			return err
		}
		defer a.Close()

		name, err := a.Service().BackupToVault(backupEncrypt)
		if err != nil {
			return fmt.Errorf("creating backup: %w", err)
		}

		fmt.Printf("Backup stored: %s\n", name)
		return nil
	},
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List backups in the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListBackups")
		if err != nil {
			return err
		}
		defer a.Close()

		names, err := a.Service().ListBackups()
		if err != nil {
			return fmt.Errorf("listing backups: %w", err)
		}

		if len(names) == 0 {
			fmt.Println("No backups.")
			return nil
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var restoreYes bool

var restoreCmd = &cobra.Command{
	Use:   "restore <name>",
	Short: "Replace the entire store with a backup from the vault",
	Long: `Replace the entire store with a backup from the vault.

The backup is fetched and validated first; the incoming record counts are
shown and the destructive replace-all requires confirmation. The replace is
transactional: it either fully applies or leaves the store unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Restore")
		if err != nil {
			return err
		}
		defer a.Close()

		name := args[0]
		var decrypt fitcal.DecryptionContext
		if strings.HasSuffix(name, ".age") {
			passphrase, err := readPassphrase("Passphrase for private key: ")
			if err != nil {
				return err
			}
			decrypt, err = a.Encryptor().Unlock(passphrase)
			if err != nil {
				return fmt.Errorf("unlocking private key: %w", err)
			}
		}

		doc, err := a.Service().FetchBackup(name, decrypt)
		if err != nil {
			return fmt.Errorf("fetching backup: %w", err)
		}

		fmt.Printf("Backup %s (version %d, exported %s)\n", name, doc.Version, doc.ExportedAt.Format(time.RFC3339))
		fmt.Printf("  %d activities, %d body logs\n", len(doc.Activities), len(doc.BodyLogs))

		if !restoreYes {
			ok, err := confirm("Replace ALL current data with this backup?")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Restore cancelled.")
				return nil
			}
		}

		if err := a.Service().RestoreSnapshot(doc); err != nil {
			return fmt.Errorf("restoring backup: %w", err)
		}

		fmt.Printf("Restored %d activities and %d body logs.\n", len(doc.Activities), len(doc.BodyLogs))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configListCmd)
	keysCmd.AddCommand(keysInitCmd)
	logCmd.AddCommand(logAddCmd, logListCmd, logDeleteCmd)

	addCmd.Flags().StringVar(&addType, "type", "other", "activity type (basketball, yoga, open_water_swimming, weightlifting, running, cycling, other)")
	addCmd.Flags().StringVar(&addTitle, "title", "", "display title")
	addCmd.Flags().StringVar(&addDate, "date", "", "activity date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&addStart, "start", "", "start time (HH:MM:SS)")
	addCmd.Flags().Float64Var(&addDuration, "duration", 0, "duration in minutes")
	addCmd.Flags().Float64Var(&addDistance, "distance", 0, "distance in km")
	addCmd.Flags().Float64Var(&addCalories, "calories", 0, "calories burned")
	addCmd.Flags().Float64Var(&addAvgHR, "avg-hr", 0, "average heart rate")
	addCmd.Flags().Float64Var(&addMaxHR, "max-hr", 0, "max heart rate")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "free-text notes")
	addCmd.MarkFlagRequired("date")
	addCmd.MarkFlagRequired("duration")

	listCmd.Flags().StringVar(&listView, "view", "week", "view granularity (day, week, month, year, heatmap)")
	listCmd.Flags().StringVar(&listDate, "date", "", "anchor date (YYYY-MM-DD, default today)")

	logListCmd.Flags().StringVar(&logListView, "view", "week", "view granularity (day, week, month, year, heatmap)")
	logListCmd.Flags().StringVar(&logListDate, "date", "", "anchor date (YYYY-MM-DD, default today)")

	logAddCmd.Flags().StringVar(&logDate, "date", "", "observed date (YYYY-MM-DD)")
	logAddCmd.Flags().StringVar(&logCategory, "category", "", "pain category (back, knee)")
	logAddCmd.Flags().IntVar(&logSeverity, "severity", 0, "severity 1 (mild) to 5 (severe)")
	logAddCmd.Flags().StringVar(&logNotes, "notes", "", "free-text notes")
	logAddCmd.MarkFlagRequired("date")
	logAddCmd.MarkFlagRequired("category")
	logAddCmd.MarkFlagRequired("severity")

	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "skip the confirmation prompt")
	importCmd.Flags().BoolVar(&importYes, "yes", false, "skip the confirmation prompt")
	backupCmd.Flags().BoolVar(&backupEncrypt, "encrypt", false, "encrypt the backup with the configured public key")
	restoreCmd.Flags().BoolVar(&restoreYes, "yes", false, "skip the confirmation prompt")

	rootCmd.AddCommand(configCmd, keysCmd, addCmd, listCmd, deleteCmd, clearCmd, countCmd, logCmd, importCmd, backupCmd, backupsCmd, restoreCmd)
}
