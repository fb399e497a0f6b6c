// NotesWebService is a concurrent web service that keeps a task list per account.
//
// Tasks are stored in MySQL (or SQLite for local runs) and can be created, updated,
// completed, re-activated, searched, filtered, paginated and deleted. The service reports
// the percentage of active and completed tasks of an account, both on an endpoint and as
// Prometheus gauges refreshed in the background after every change.
// Users sign in with a JWT token. A rate limit of 2 events per second with a burst of 20
// events protects against abuse, and sign-in attempts are throttled separately.
//
// The following endpoints are available:
//
//  1. POST /task/login - Login to the service
//  2. POST /task/logout - Revoke the current token
//  3. POST /task/create - Create a new task
//  4. POST /task/update - Update an existing task
//  5. POST /task/complete - Mark a task as completed
//  6. POST /task/activate - Mark a task as active
//  7. POST /task/delete - Delete an existing task
//  8. POST /task/clearCompleted - Delete every completed task of the account
//  9. GET /task/getid/{id} - Get a task by ID
//  10. GET /task/getAll - Get all tasks, with search, filter and pagination
//  11. GET /task/statistics - Active and completed percentages
//  12. GET /metrics - Display Prometheus metrics
//  13. GET /swagger/ - API documentation
//
// Besides serving (the default command), the binary can create the database schema
// ("migrate") and print the statistics of an account ("stats --account <id>").
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"NotesWebService/config"
	"NotesWebService/handlers"
	"NotesWebService/metrics"
	"NotesWebService/models"
	"NotesWebService/repository"
	"NotesWebService/statistics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

var log = logrus.New()

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.WithError(err).Fatal("notes failed")
	}
}

// newApp builds the command-line application: serve (default), migrate and stats.
func newApp() *cli.App {
	return &cli.App{
		Name:  "notes",
		Usage: "per-account task lists with statistics",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "file with environment variables to load",
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML configuration file",
				EnvVars: []string{"NOTES_CONFIG"},
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create the task table",
				Action: migrate,
			},
			{
				Name:  "stats",
				Usage: "print the statistics of an account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "account",
						Usage:    "account id",
						Required: true,
					},
				},
				Action: stats,
			},
		},
	}
}

// setup loads the configuration and configures the logger.
func setup(c *cli.Context) (*config.Config, error) {
	log.SetFormatter(&logrus.JSONFormatter{})
	if err := config.LoadEnvFile(c.String("env-file")); err != nil {
		log.WithError(err).Warn("Error loading .env file")
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)
	return cfg, nil
}

func openRepository(cfg *config.Config) (*repository.TaskRepository, func(), error) {
	db, err := repository.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, nil, err
	}
	log.WithField("driver", cfg.Database.Driver).Info("Connected to database")
	return repository.NewTaskRepository(db, cfg.Database.Driver), func() { db.Close() }, nil
}

func serve(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	repo, closeDB, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer closeDB()
	if err := repo.Migrate(c.Context); err != nil {
		return err
	}
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	auth := handlers.NewAuthenticator(cfg.SecretKey, cfg.Accounts)
	h := handlers.NewTaskHandler(repo, auth, metrics.NewStatsGauges(), log)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(h, cfg.RateLimit),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errs := make(chan error, 1)
	go func() {
		log.Info("Server listening on port " + cfg.Port)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	h.Wait()
	return nil
}

func migrate(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	repo, closeDB, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer closeDB()
	if err := repo.Migrate(c.Context); err != nil {
		return err
	}
	log.Info("Task table is ready")
	return nil
}

func stats(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	repo, closeDB, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	account := c.String("account")
	in := statistics.FromLoad(repo.ListTasks(c.Context, models.TaskFilter{AccountId: account}))
	if err := in.Err(); err != nil {
		log.WithError(err).WithField("account", account).Warn("failed to load tasks, printing zero statistics")
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(statistics.Compute(in))
}
