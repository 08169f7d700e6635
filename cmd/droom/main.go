package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"

	"dataroom/internal/app"
	"dataroom/internal/config"
	"dataroom/internal/dataroom"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a DataroomApp. The caller must defer
// app.Close().
func newApp(ctx context.Context) (*app.DataroomApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewDataroomApp(ctx, cfg, defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "droom",
	Short: "Personal cloud file storage",
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

		// The token names the namespace all uploads land under, so it is
		// read from the terminal rather than argv.
		token, err := promptSecret("Identity token: ")
		if err != nil {
			return err
		}

		cfg := config.NewConfig(token, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Printf("Store:    filesystem (%s)\n", cfg.Store.FSStoreRoot)
		fmt.Println("Edit the file to switch to an S3 store or a JWT identity.")
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
		fmt.Printf("Store:    %s\n", describeStore(cfg.Store))
		fmt.Printf("Identity: %s\n", cfg.Identity.Type)
		fmt.Printf("Folder:   %s\n", displayFolder(cfg.Folder))
		return nil
	},
}

// ls command
var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List files in the active folder",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.List(cmd.Context())
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Println("No files.")
			return nil
		}

		for _, r := range records {
			fmt.Printf("%10d  %s  %s\n",
				r.Size,
				r.LastModified.Format("2006-01-02 15:04:05"),
				r.Path,
			)
		}
		return nil
	},
}

// upload command
var uploadCmd = &cobra.Command{
	Use:   "upload FILE...",
	Short: "Upload files to the active folder",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recursive, _ := cmd.Flags().GetBool("recursive")

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		printer := newProgressPrinter()
		a.SetTaskObserver(printer.observe)

		batch, err := a.Upload(cmd.Context(), args, recursive)
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}

		if len(batch.Tasks()) == 0 {
			fmt.Println("No files to upload.")
			return nil
		}

		result, err := batch.Wait(cmd.Context())
		if err != nil {
			batch.Cancel()
			return fmt.Errorf("upload interrupted: %w", err)
		}

		if result.PartialFailure() {
			fmt.Printf("Uploaded %d file(s), %d failed: %s\n",
				result.Uploaded,
				len(result.Failed),
				strings.Join(result.Failed, ", "),
			)
			return fmt.Errorf("%d upload(s) failed", len(result.Failed))
		}

		fmt.Printf("Uploaded %d file(s)\n", result.Uploaded)
		return nil
	},
}

// rm command
var rmCmd = &cobra.Command{
	Use:   "rm PATH",
	Short: "Delete a file from the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

// folder command
var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Manage the active folder",
}

var folderSetCmd = &cobra.Command{
	Use:   "set PREFIX",
	Short: "Switch the active folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		prefix := normalizeFolder(args[0])
		records, err := a.ChangeFolder(cmd.Context(), prefix)
		if err != nil {
			// The folder is switched and persisted even when the refresh
			// fails; report both.
			fmt.Printf("Folder set to %s\n", displayFolder(prefix))
			return err
		}

		fmt.Printf("Folder set to %s (%d files)\n", displayFolder(prefix), len(records))
		return nil
	},
}

var folderResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Switch back to the root folder",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.ResetFolder(cmd.Context())
		if err != nil {
			fmt.Println("Folder reset to root")
			return err
		}

		fmt.Printf("Folder reset to root (%d files)\n", len(records))
		return nil
	},
}

var folderShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active folder",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Println(displayFolder(cfg.Folder))
		return nil
	},
}

// normalizeFolder shapes user input into a folder prefix: no leading
// slash, one trailing slash.
func normalizeFolder(raw string) string {
	prefix := strings.Trim(strings.TrimSpace(raw), "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

func displayFolder(prefix string) string {
	if prefix == "" {
		return "(root)"
	}
	return prefix
}

func describeStore(cfg config.StoreConfig) string {
	switch cfg.Type {
	case "s3":
		return fmt.Sprintf("s3 (bucket %s)", cfg.S3Bucket)
	case "filesystem":
		return fmt.Sprintf("filesystem (%s)", cfg.FSStoreRoot)
	default:
		return cfg.Type
	}
}

// progressPrinter prints one line per finished upload. It receives full
// task snapshots, so each terminal task is remembered by destination to
// keep the output to one line per file.
type progressPrinter struct {
	mu      sync.Mutex
	printed map[string]bool
}

func newProgressPrinter() *progressPrinter {
	return &progressPrinter{printed: make(map[string]bool)}
}

func (p *progressPrinter) observe(tasks []dataroom.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range tasks {
		if !t.Status.Terminal() || p.printed[t.Destination] {
			continue
		}
		p.printed[t.Destination] = true
		switch t.Status {
		case dataroom.TaskCompleted:
			fmt.Printf("  done  %s -> %s\n", t.Name, t.Destination)
		case dataroom.TaskFailed:
			fmt.Printf("  fail  %s: %v\n", t.Name, t.Err)
		}
	}
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// folder subcommands
	folderCmd.AddCommand(folderSetCmd)
	folderCmd.AddCommand(folderResetCmd)
	folderCmd.AddCommand(folderShowCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().BoolP("recursive", "r", false, "Recurse into subdirectories")
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(folderCmd)
}
