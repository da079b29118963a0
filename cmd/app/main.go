package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	sqliteadapter "github.com/sidhync-maker/workshop/internal/adapters/db/sqlite"
	httpadapter "github.com/sidhync-maker/workshop/internal/adapters/http"
	rpcadapter "github.com/sidhync-maker/workshop/internal/adapters/rpcjson"
	"github.com/sidhync-maker/workshop/internal/application"
	"github.com/sidhync-maker/workshop/internal/config"
	"github.com/sidhync-maker/workshop/internal/domain"
	"github.com/sidhync-maker/workshop/internal/logger"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "workshop",
		Usage: "Vehicle workshop server and CLI",
		Commands: []*cli.Command{
			serverCommand(),
			authCommand(),
			usersCommand(),
			purchasesCommand(),
			stockCommand(),
			billingCommand(),
			mechanicsCommand(),
			carModelsCommand(),
			exportCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Run HTTP server and JSON-RPC socket",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "HTTP listen address (WORKSHOP_HTTP_ADDR)"},
			&cli.StringFlag{Name: "rpc-socket", Usage: "JSON-RPC unix socket path (WORKSHOP_RPC_SOCKET)"},
			&cli.StringFlag{Name: "db-path", Usage: "SQLite database path (WORKSHOP_DB_PATH)"},
			&cli.StringFlag{Name: "bootstrap-username", Usage: "manager created when no manager exists"},
			&cli.StringFlag{Name: "bootstrap-password", Usage: "password for the bootstrap manager"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if c.IsSet("addr") {
				cfg.Server.HTTPAddr = c.String("addr")
			}
			if c.IsSet("rpc-socket") {
				cfg.Server.RPCSocket = c.String("rpc-socket")
			}
			if c.IsSet("db-path") {
				cfg.Database.Path = c.String("db-path")
			}
			if c.IsSet("bootstrap-username") {
				cfg.Bootstrap.Username = c.String("bootstrap-username")
			}
			if c.IsSet("bootstrap-password") {
				cfg.Bootstrap.Password = c.String("bootstrap-password")
			}
			return runServer(ctx, cfg)
		},
	}
}

func runServer(ctx context.Context, cfg config.Config) error {
	if err := logger.Init(cfg.Logger.Level, cfg.Logger.AsJSON); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := sqliteadapter.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}
	if err := sqliteadapter.RunMigrations(ctx, db); err != nil {
		return err
	}

	repo := sqliteadapter.NewWorkshopRepository(db)
	service := application.NewWorkshopService(repo, application.NewSessionStore(cfg.Server.SessionTTL))
	if err := service.BootstrapManager(ctx, cfg.Bootstrap.Username, cfg.Bootstrap.Password); err != nil {
		return err
	}

	rpcSrv, err := rpcadapter.Start(cfg.Server.RPCSocket, service)
	if err != nil {
		return err
	}
	defer func() { _ = rpcSrv.Close() }()

	srv := &http.Server{Addr: cfg.Server.HTTPAddr, Handler: httpadapter.NewRouter(service), ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(gctx, "server listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "shutting down", logger.Duration("timeout", cfg.Server.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authentication commands",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Login and store the session token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "transport", Value: "uds", Usage: "uds or http"},
					&cli.StringFlag{Name: "server", Value: defaultServer},
					&cli.StringFlag{Name: "socket", Value: defaultSocket},
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg := cliConfig{Transport: c.String("transport"), Server: c.String("server"), Socket: c.String("socket")}
					var out application.Session
					if err := doLogin(ctx, cfg, c.String("username"), c.String("password"), &out); err != nil {
						return err
					}
					cfg.Token = out.Token
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Printf("logged in as %s (%s)\n", out.Username, out.Role)
					return nil
				},
			},
			{
				Name:  "whoami",
				Usage: "Show the current session",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out application.Session
					if err := doWhoAmI(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printKV([][2]string{{"username", out.Username}, {"role", out.Role}, {"expires_at", formatTime(out.ExpiresAt)}})
					return nil
				},
			},
			{
				Name:  "logout",
				Usage: "End the session and clear the local token",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					_ = doLogout(ctx, cfg)
					cfg.Token = ""
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Println("logged out")
					return nil
				},
			},
		},
	}
}

func usersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Manage user accounts",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List users",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.User
					if err := doUsersList(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printUsers(out)
					return nil
				},
			},
			{
				Name:  "create",
				Usage: "Create a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "role", Value: domain.RoleMechanic, Usage: "manager or mechanic"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.User
					if err := doUsersCreate(ctx, cfg, c.String("username"), c.String("password"), c.String("role"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printUsers([]domain.User{out})
					return nil
				},
			},
		},
	}
}

func purchasesCommand() *cli.Command {
	return &cli.Command{
		Name:  "purchases",
		Usage: "Record and list spare part purchases",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Record a purchase and add it to stock",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "code", Required: true, Usage: "item code"},
					&cli.StringFlag{Name: "name", Required: true, Usage: "item name"},
					&cli.IntFlag{Name: "qty", Required: true},
					&cli.FloatFlag{Name: "rate", Required: true},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.Purchase
					if err := doPurchasesAdd(ctx, cfg, c.String("code"), c.String("name"), c.Int("qty"), c.Float("rate"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printPurchases([]domain.Purchase{out})
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List purchases, newest first",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.Purchase
					if err := doPurchasesList(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printPurchases(out)
					return nil
				},
			},
			{
				Name:  "import",
				Usage: "Import purchases from a CSV file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Required: true, Usage: "CSV with item_code,item_name,qty,rate"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					data, err := os.ReadFile(c.String("file"))
					if err != nil {
						return err
					}
					var out domain.ImportReport
					if err := doPurchasesImport(ctx, cfg, data, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printImportReport(out)
					return nil
				},
			},
		},
	}
}

func stockCommand() *cli.Command {
	return &cli.Command{
		Name:  "stock",
		Usage: "Stock levels",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List stock by item code",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.StockItem
					if err := doStockList(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printStock(out)
					return nil
				},
			},
		},
	}
}

func billingCommand() *cli.Command {
	return &cli.Command{
		Name:  "billing",
		Usage: "Customer bills",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a bill; parts cost comes from --purchase-ids or --purchase-amt",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "car-model", Required: true},
					&cli.StringFlag{Name: "complaints"},
					&cli.StringFlag{Name: "start-date"},
					&cli.StringFlag{Name: "end-date"},
					&cli.FloatFlag{Name: "labour"},
					&cli.FloatFlag{Name: "purchase-amt"},
					&cli.StringFlag{Name: "purchase-ids", Usage: "comma separated purchase ids"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					ids, err := parseIDs(c.String("purchase-ids"))
					if err != nil {
						return err
					}
					in := billingParams{
						BillingInput: application.BillingInput{
							CarModel:       c.String("car-model"),
							Complaints:     c.String("complaints"),
							StartDate:      c.String("start-date"),
							EndDate:        c.String("end-date"),
							Labour:         c.Float("labour"),
							PurchaseAmount: c.Float("purchase-amt"),
						},
						PurchaseIDs: ids,
					}
					var out domain.Billing
					if err := doBillingAdd(ctx, cfg, in, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printBills([]domain.Billing{out})
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List bills",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.Billing
					if err := doBillingList(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printBills(out)
					return nil
				},
			},
		},
	}
}

func mechanicsCommand() *cli.Command {
	return &cli.Command{
		Name:  "mechanics",
		Usage: "Mechanic work log",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Log a day of work",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Usage: "mechanic; managers must set it"},
					&cli.StringFlag{Name: "date", Usage: "work date YYYY-MM-DD, default today"},
					&cli.StringFlag{Name: "activity", Required: true},
					&cli.FloatFlag{Name: "earning"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.MechanicEntry
					if err := doMechanicsAdd(ctx, cfg, c.String("username"), c.String("date"), c.String("activity"), c.Float("earning"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printMechanicEntries([]domain.MechanicEntry{out})
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List work entries",
				Flags: []cli.Flag{&cli.StringFlag{Name: "username"}, jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.MechanicEntry
					if err := doMechanicsList(ctx, cfg, c.String("username"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printMechanicEntries(out)
					return nil
				},
			},
			{
				Name:  "earnings",
				Usage: "Total earnings per mechanic",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.MechanicEarning
					if err := doMechanicsEarnings(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printEarnings(out)
					return nil
				},
			},
		},
	}
}

func carModelsCommand() *cli.Command {
	return &cli.Command{
		Name:  "car-models",
		Usage: "Car model pick-list",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a car model",
				Flags: []cli.Flag{&cli.StringFlag{Name: "model", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out struct {
						Model    string `json:"model"`
						Inserted bool   `json:"inserted"`
					}
					if err := doCarModelsAdd(ctx, cfg, c.String("model"), &out); err != nil {
						return err
					}
					if out.Inserted {
						fmt.Printf("added %s\n", out.Model)
					} else {
						fmt.Printf("%s already listed\n", out.Model)
					}
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List car models",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.CarModel
					if err := doCarModelsList(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printCarModels(out)
					return nil
				},
			},
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export a listing as CSV",
		ArgsUsage: "<purchases|stock|billing|mechanics|car-models>",
		Flags:     []cli.Flag{&cli.StringFlag{Name: "out", Usage: "write to file instead of stdout"}},
		Action: func(ctx context.Context, c *cli.Command) error {
			dataset := c.Args().First()
			if dataset == "" {
				return fmt.Errorf("dataset is required")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := doExport(ctx, cfg, dataset)
			if err != nil {
				return err
			}
			if path := c.String("out"); path != "" {
				return os.WriteFile(path, data, 0o644)
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "output raw JSON"}
}

func parseIDs(input string) ([]uint, error) {
	parts := splitCSV(input)
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid purchase id %q", part)
		}
		ids = append(ids, uint(v))
	}
	return ids, nil
}

func jsonMarshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
