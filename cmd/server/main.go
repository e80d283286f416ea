// The GTACOMPTA storage server: an authenticated HTTP store for named
// JSON collections, plus user-management commands that run against the
// local users file and exit without starting the listener.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/odizinne/gtacompta-storage/internal/config"
	"github.com/odizinne/gtacompta-storage/internal/db"
	"github.com/odizinne/gtacompta-storage/internal/logger"
	"github.com/odizinne/gtacompta-storage/internal/repository"
	"github.com/odizinne/gtacompta-storage/internal/server/handler/http"
	"github.com/odizinne/gtacompta-storage/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

var flags struct {
	configPath  string
	port        int
	password    string
	dataDir     string
	databaseDSN string
	verbose     bool
	readonly    bool
}

func main() {
	root := &cobra.Command{
		Use:     "gtacompta-server",
		Short:   "Remote storage server for GTACOMPTA",
		Version: cmp.Or(version, "N/A"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "config.json", "path to config file")
	root.PersistentFlags().StringVarP(&flags.dataDir, "data-dir", "d", "", "data directory path")
	root.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "enable verbose logging")
	root.Flags().IntVarP(&flags.port, "port", "p", 3000, "port to listen on")
	root.Flags().StringVarP(&flags.password, "password", "w", "1234", "server authentication password")
	root.Flags().StringVar(&flags.databaseDSN, "database-dsn", "", "store collections in PostgreSQL at this DSN")

	addUser := &cobra.Command{
		Use:   "add-user <username> <password>",
		Short: "Add a user account and exit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUserStore(cmd, func(users *repository.FileUserStore) error {
				if !users.Add(args[0], args[1], flags.readonly) {
					return fmt.Errorf("user %q already exists", args[0])
				}
				fmt.Printf("User %s added (%s)\n", args[0], accessLabel(flags.readonly))
				return nil
			})
		},
	}
	addUser.Flags().BoolVar(&flags.readonly, "readonly", false, "grant read-only access")

	deleteUser := &cobra.Command{
		Use:   "delete-user <username>",
		Short: "Delete a user account and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUserStore(cmd, func(users *repository.FileUserStore) error {
				if !users.Delete(args[0]) {
					return fmt.Errorf("user %q not found", args[0])
				}
				fmt.Printf("User %s deleted\n", args[0])
				return nil
			})
		},
	}

	listUsers := &cobra.Command{
		Use:   "list-users",
		Short: "List user accounts and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUserStore(cmd, func(users *repository.FileUserStore) error {
				fmt.Println("Registered users:")
				for _, u := range users.List() {
					fmt.Printf("  %s - %s\n", u.Name, accessLabel(u.ReadOnly))
				}
				return nil
			})
		},
	}

	root.AddCommand(addUser, deleteUser, listUsers)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadOptions merges the config file and environment with any flags the
// user set explicitly.
func loadOptions(cmd *cobra.Command) (*config.Options, error) {
	opts, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("port") {
		opts.Port = flags.port
	}
	if cmd.Flags().Changed("password") {
		opts.Password = flags.password
	}
	if flags.dataDir != "" {
		opts.DataDir = flags.dataDir
	}
	if cmd.Flags().Changed("database-dsn") {
		opts.DatabaseDSN = flags.databaseDSN
	}
	if flags.verbose {
		opts.Verbose = true
	}
	return opts, nil
}

func newLogger(opts *config.Options) (*zap.Logger, error) {
	log := logger.New()
	level := "info"
	if opts.Verbose {
		level = "debug"
	}
	if err := log.Init(level); err != nil {
		return nil, err
	}
	return log.Log, nil
}

func withUserStore(cmd *cobra.Command, fn func(*repository.FileUserStore) error) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	zapLogger, err := newLogger(opts)
	if err != nil {
		return err
	}
	defer func() { _ = zapLogger.Sync() }()

	users, err := repository.NewFileUserStore(opts.DataDir, zapLogger)
	if err != nil {
		return err
	}
	return fn(users)
}

func serve(cmd *cobra.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	zapLogger, err := newLogger(opts)
	if err != nil {
		return err
	}
	defer func() { _ = zapLogger.Sync() }()

	if opts.Password == "" {
		zapLogger.Warn("no server password set, the server is unprotected")
	}

	userRepo, err := repository.NewFileUserStore(opts.DataDir, zapLogger)
	if err != nil {
		return fmt.Errorf("init user store: %w", err)
	}

	var collectionRepo service.CollectionRepository
	if opts.DatabaseDSN != "" {
		pg, err := db.InitPostgres(opts.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("init database: %w", err)
		}
		defer pg.Close()
		collectionRepo = repository.NewPostgresCollectionStore(pg, zapLogger)
		zapLogger.Info("storing collections in PostgreSQL")
	} else {
		collectionRepo, err = repository.NewFileCollectionStore(opts.DataDir, zapLogger)
		if err != nil {
			return fmt.Errorf("init collection store: %w", err)
		}
	}

	userService := service.NewUserService(userRepo)
	collectionService := service.NewCollectionService(collectionRepo)

	storageHandler := &http.StorageHandler{
		Collections: collectionService,
		Users:       userService,
		DataDir:     opts.DataDir,
		Started:     time.Now(),
	}
	router := http.NewRouter(storageHandler, userService, opts.Password, zapLogger)

	server := &nethttp.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	printServerInfo(opts)
	zapLogger.Info("starting HTTP server",
		zap.Int("port", opts.Port),
		zap.String("dataDir", opts.DataDir))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	zapLogger.Info("server shutdown complete")
	return nil
}

func printServerInfo(opts *config.Options) {
	fmt.Println()
	fmt.Println("GTACOMPTA Database Server")
	fmt.Printf("  Port: %d\n", opts.Port)
	fmt.Printf("  Data Directory: %s\n", opts.DataDir)
	fmt.Println()
	fmt.Println("API Endpoints:")
	fmt.Println("  GET  /api/test              - Test connection")
	fmt.Println("  GET  /api/status            - Server status")
	fmt.Println("  GET  /api/load/<collection> - Load data")
	fmt.Println("  POST /api/save/<collection> - Save data")
	fmt.Println()
	fmt.Println("TLS is delegated to the reverse proxy in front of this server.")
	fmt.Println()
}

func accessLabel(readonly bool) string {
	if readonly {
		return "read-only"
	}
	return "full access"
}
