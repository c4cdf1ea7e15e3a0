package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pdxmph/leadbox/internal/config"
	"github.com/pdxmph/leadbox/internal/db"
	"github.com/pdxmph/leadbox/internal/directory"
	"github.com/pdxmph/leadbox/internal/logger"
	"github.com/pdxmph/leadbox/internal/selection"
	"github.com/pdxmph/leadbox/internal/tasks"
	_ "github.com/pdxmph/leadbox/internal/tasks/taskwarrior"
	"github.com/pdxmph/leadbox/internal/tui"
)

// app holds what every command shares once the root command has run
type app struct {
	configPath string
	cfg        *config.Config
	log        *slog.Logger
	logFile    *os.File
}

func main() {
	a := &app{}
	if err := execute(newRootCmd(a), a); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// execute runs the command tree and releases what setup opened, whether or
// not the command succeeded
func execute(root *cobra.Command, a *app) error {
	defer a.close()
	return root.Execute()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "leadbox",
		Short:         "Terminal inbox for real-estate leads",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config.toml (default ~/.config/leadbox/config.toml)")

	root.AddCommand(
		newInitCmd(a),
		newFixturesCmd(a),
		newListCmd(a),
		newStatusCmd(a),
		newNoteCmd(a),
		newBackendsCmd(),
	)
	return root
}

// setup loads .env, the config file and the log file
func (a *app) setup() error {
	// A missing .env is fine
	_ = godotenv.Load()

	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFrom(a.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// The TUI owns the terminal, so logs always go to a file
	f, err := logger.OpenFile(a.cfg.Log.Path)
	if err != nil {
		return err
	}
	a.logFile = f
	a.log = logger.Init(a.cfg.Log.Level, a.cfg.Log.Format, f)
	return nil
}

func (a *app) close() {
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// openDirectory opens the database and loads every contact into a store
// that journals changes back to it
func (a *app) openDirectory() (*db.DB, *directory.Store, error) {
	database, err := db.Open(a.cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}

	records, err := database.ListRecords()
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("loading contacts: %w", err)
	}

	store := directory.New(
		directory.WithJournal(database),
		directory.WithLogger(logger.Named(a.log, "directory")),
	)
	if err := store.LoadRecords(records); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("loading contacts: %w", err)
	}

	a.log.Info("directory loaded", "contacts", store.Len(), "db", a.cfg.Database.Path)
	return database, store, nil
}

// taskManager starts follow-up task creation for status changes
func (a *app) taskManager(store *directory.Store) (*tasks.Manager, func(), error) {
	manager, err := tasks.NewManager(a.cfg.Tasks.Backend, a.log)
	if err != nil {
		return nil, nil, err
	}
	a.log.Info("task backend", "name", manager.Name(), "enabled", manager.IsEnabled())
	return manager, manager.Watch(store), nil
}

func (a *app) runTUI() error {
	database, store, err := a.openDirectory()
	if err != nil {
		return err
	}
	defer database.Close()

	manager, stop, err := a.taskManager(store)
	if err != nil {
		return err
	}
	defer stop()

	sel := selection.New(store)
	defer sel.Close()

	var opts []tui.Option
	if manager.IsEnabled() {
		opts = append(opts,
			tui.WithFollowUps(manager.Backend()),
			tui.WithFollowUpResults(manager.Results()),
		)
	}
	model := tui.New(store, sel, a.cfg.Agent.Name, opts...)

	// Start the program
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
