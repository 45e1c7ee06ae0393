package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/storefront/internal/config"
	"github.com/zulandar/storefront/internal/db"
	"golang.org/x/term"
	"gorm.io/gorm"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBResetCmd())
	cmd.AddCommand(newDBSeedCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the storefront database",
		Long:  "Creates the MySQL database when needed, migrates all tables and seeds the countdown timer.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to storefront config file")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fmt.Fprintf(out, "Loaded config for %q from %s\n", cfg.StoreName, configPath)

	if cfg.Database.Driver == "mysql" {
		adminDB, err := db.ConnectAdmin(cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to MySQL at %s:%d: %w", cfg.Database.Host, cfg.Database.Port, err)
		}
		defer db.Close(adminDB)
		fmt.Fprintf(out, "Connected to MySQL at %s:%d\n", cfg.Database.Host, cfg.Database.Port)

		if err := db.CreateDatabase(adminDB, cfg.Database.Name); err != nil {
			return err
		}
		fmt.Fprintf(out, "Database %s ready\n", cfg.Database.Name)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", describeDB(cfg.Database), err)
	}
	defer db.Close(gormDB)

	if err := migrateAndSeed(out, gormDB, cfg); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nStorefront database initialized successfully.")
	return nil
}

// migrateAndSeed creates the tables and the countdown row.
func migrateAndSeed(out io.Writer, gormDB *gorm.DB, cfg *config.Config) error {
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	created, err := db.SeedTimer(gormDB, cfg.Timer.DefaultHours, time.Now())
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "Countdown timer started (%dh)\n", cfg.Timer.DefaultHours)
	}
	return nil
}

func newDBResetCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and re-initialize the storefront database",
		Long: `Drops every storefront table (or the whole MySQL database) and
re-creates it from config. All orders, chat history and visits are lost.

Without --yes the command asks for confirmation, and refuses to run when
stdin is not a terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBReset(cmd, configPath, yes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to storefront config file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func runDBReset(cmd *cobra.Command, configPath string, skipConfirm bool) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	target := describeDB(cfg.Database)

	if !skipConfirm {
		if !isInteractive(cmd.InOrStdin()) {
			return fmt.Errorf("refusing to reset %s without --yes: stdin is not a terminal", target)
		}
		if !confirmReset(cmd, target) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	if cfg.Database.Driver == "mysql" {
		adminDB, err := db.ConnectAdmin(cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to MySQL at %s:%d: %w", cfg.Database.Host, cfg.Database.Port, err)
		}
		defer db.Close(adminDB)
		if err := db.DropDatabase(adminDB, cfg.Database.Name); err != nil {
			return err
		}
		fmt.Fprintf(out, "Dropped database %s\n", cfg.Database.Name)
		if err := db.CreateDatabase(adminDB, cfg.Database.Name); err != nil {
			return err
		}
		fmt.Fprintf(out, "Database %s re-created\n", cfg.Database.Name)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", target, err)
	}
	defer db.Close(gormDB)

	if cfg.Database.Driver == "sqlite" {
		if err := gormDB.Migrator().DropTable(db.AllModels()...); err != nil {
			return fmt.Errorf("drop tables: %w", err)
		}
		fmt.Fprintf(out, "Dropped %d tables\n", len(db.AllModels()))
	}

	if err := migrateAndSeed(out, gormDB, cfg); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nStorefront database reset and re-initialized successfully.")
	return nil
}

// isInteractive reports whether in can answer a prompt. Readers that are not
// files, such as a buffer set with SetIn, are treated as interactive.
func isInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return true
	}
	return term.IsTerminal(int(f.Fd()))
}

func confirmReset(cmd *cobra.Command, target string) bool {
	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()

	fmt.Fprintf(out, "WARNING: This will permanently delete all data in %s.\n", target)
	fmt.Fprintln(out, "This action cannot be undone.")
	fmt.Fprintln(out)
	fmt.Fprint(out, "Type \"yes\" to confirm: ")

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()) == "yes"
	}
	return false
}

func newDBSeedCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo product catalog",
		Long:  "Inserts the demo products that are not already in the catalog. Existing products are left untouched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBSeed(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to storefront config file")
	return cmd
}

func runDBSeed(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	if err := migrateAndSeed(out, gormDB, cfg); err != nil {
		return err
	}
	n, err := db.SeedProducts(gormDB, db.DemoProducts())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded %d products\n", n)
	return nil
}
