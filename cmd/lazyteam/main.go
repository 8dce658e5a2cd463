package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Joseda-hg/lazyteam/internal/api"
	"github.com/Joseda-hg/lazyteam/internal/config"
	"github.com/Joseda-hg/lazyteam/internal/db"
	"github.com/Joseda-hg/lazyteam/internal/members"
	"github.com/Joseda-hg/lazyteam/internal/profile"
	"github.com/Joseda-hg/lazyteam/internal/session"
	"github.com/Joseda-hg/lazyteam/internal/tui"
	"github.com/Joseda-hg/lazyteam/internal/web"
	"golang.org/x/term"
)

func main() {
	configPathFlag := flag.String("config", "", "config file path (.json or .yaml)")
	dbPathFlag := flag.String("db", "", "sqlite db path for the dev server")
	serveFlag := flag.Bool("serve", false, "run the dev server next to the client")
	serveOnlyFlag := flag.Bool("serve-only", false, "run the dev server only")
	portFlag := flag.Int("port", 0, "dev server port")
	apiFlag := flag.String("api", "", "API base URL")
	seedFlag := flag.Bool("seed", false, "seed demo employees and tasks into an empty db")
	employeeFlag := flag.String("employee", "", "log in as this employee before the UI starts")
	flag.Parse()

	cfgPath, err := resolveConfigPath(*configPathFlag)
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(filepath.Dir(cfgPath), "lazyteam.db")
	}
	if cfg.LogPath == "" {
		cfg.LogPath = filepath.Join(filepath.Dir(cfgPath), "lazyteam.log")
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		log.Fatal(err)
	}

	cfg, err = config.ApplyEnv(cfg, ".env")
	if err != nil {
		log.Fatal(err)
	}
	if *dbPathFlag != "" {
		cfg.DBPath = *dbPathFlag
	}
	if *serveFlag || *serveOnlyFlag {
		cfg.ServerEnabled = true
	}
	if *portFlag != 0 {
		cfg.ServerPort = *portFlag
	}
	if *apiFlag != "" {
		cfg.APIURL = *apiFlag
	}
	if cfg.APIURL == "" {
		cfg.APIURL = fmt.Sprintf("http://localhost:%d", cfg.ServerPort)
	}

	if cfg.ServerEnabled {
		store, err := openStore(cfg.DBPath)
		if err != nil {
			log.Fatal(err)
		}
		if *seedFlag {
			if err := store.Seed(context.Background()); err != nil {
				log.Fatal(err)
			}
		}

		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		handler := web.NewServer(store).Handler()
		if *serveOnlyFlag {
			log.Printf("Dev server running at http://localhost%s", addr)
			log.Fatal(http.ListenAndServe(addr, handler))
		}

		go func() {
			if err := http.ListenAndServe(addr, handler); err != nil {
				log.Printf("dev server error: %v", err)
			}
		}()
	}

	client := api.NewClient(cfg.APIURL, cfg.Timeout())
	profiles := profile.NewStore(client)
	manager := session.NewManager(client, profiles)
	defer manager.Close()

	if *employeeFlag != "" {
		if err := loginFromTerminal(manager, *employeeFlag); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	logFile, err := redirectLog(cfg.LogPath)
	if err != nil {
		log.Fatal(err)
	}
	defer logFile.Close()

	err = tui.Run(tui.Deps{
		Tasks:    client,
		Session:  manager,
		Members:  members.NewStore(client),
		Profiles: profiles,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

func openStore(dbPath string) (*db.Store, error) {
	if err := config.EnsureDir(dbPath); err != nil {
		return nil, err
	}

	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return nil, err
	}

	return db.NewStore(sqlDB), nil
}

func loginFromTerminal(manager *session.Manager, employeeID string) error {
	fmt.Fprintf(os.Stderr, "Password for %s: ", employeeID)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	return loginWithPassword(manager, employeeID, strings.TrimRight(string(password), "\r\n"))
}

func loginWithPassword(manager *session.Manager, employeeID, password string) error {
	_, err := manager.Login(context.Background(), employeeID, password)
	if err == nil {
		return nil
	}
	if message := manager.State().Error; message != "" {
		return fmt.Errorf("login: %s", message)
	}
	return fmt.Errorf("login: %w", err)
}

// redirectLog sends the standard logger to a file so background errors do
// not draw over the terminal UI.
func redirectLog(path string) (*os.File, error) {
	if err := config.EnsureDir(path); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(file)
	return file, nil
}
