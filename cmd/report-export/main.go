// report-export logs into the backend and writes every report to one .xlsx workbook.
//
// Usage:
//
//	SHOP_CONSOLE_PASSWORD=... go run ./cmd/report-export -phone 9876543210
//	go run ./cmd/report-export -out ./exports
//
// The session is kept under -session-dir, so later runs need no credentials
// until it expires or -logout is passed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmdatafocus/shop_console/client"
	"github.com/mmdatafocus/shop_console/config"
	"github.com/mmdatafocus/shop_console/models"
	"github.com/mmdatafocus/shop_console/reports"
	"github.com/mmdatafocus/shop_console/session"
)

const tokenFile = "token"

func defaultSessionDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shop-console"
	}
	return filepath.Join(home, ".shop-console")
}

func main() {
	phone := flag.String("phone", "", "Phone number to log in with when no saved session exists. Password is read from SHOP_CONSOLE_PASSWORD.")
	out := flag.String("out", ".", "Directory the workbook is written to")
	sessionDir := flag.String("session-dir", defaultSessionDir(), "Directory holding the saved session")
	logout := flag.Bool("logout", false, "Clear the saved session and exit")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	api := client.NewAPI(client.New(config.ApiBaseURL(), client.WithRateLimit(config.ApiRateLimitPerMin())), nil, nil)
	sessions := session.NewManager(api, session.NewFileStore(*sessionDir), config.SessionLifespan())
	tokenPath := filepath.Join(*sessionDir, tokenFile)

	if *logout {
		if s := restore(ctx, sessions, tokenPath); s != nil {
			_ = sessions.Logout(ctx, s.ID)
		}
		_ = os.Remove(tokenPath)
		fmt.Println("logged out")
		return
	}

	s := restore(ctx, sessions, tokenPath)
	if s == nil {
		if strings.TrimSpace(*phone) == "" {
			fmt.Fprintln(os.Stderr, "no saved session; pass -phone and set SHOP_CONSOLE_PASSWORD")
			os.Exit(2)
		}
		var signed string
		var err error
		s, signed, err = sessions.Login(ctx, *phone, os.Getenv("SHOP_CONSOLE_PASSWORD"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "login failed: %s\n", client.UserMessage(err))
			os.Exit(1)
		}
		if err := os.WriteFile(tokenPath, []byte(signed), 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "failed to save session: %v\n", err)
		}
	}
	if !s.Has(models.CapabilityReports) {
		fmt.Fprintln(os.Stderr, "access denied: the reports module is not enabled for this user")
		os.Exit(3)
	}

	bundle, err := reports.Fetch(ctx, api.Reports, s.Token, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load reports: %s\n", client.UserMessage(err))
		os.Exit(1)
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create %s: %v\n", *out, err)
		os.Exit(1)
	}
	path := filepath.Join(*out, reports.FileName(bundle))
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create %s: %v\n", path, err)
		os.Exit(1)
	}
	if err := reports.Export(f, bundle); err != nil {
		_ = f.Close()
		fmt.Fprintf(os.Stderr, "failed to write workbook: %v\n", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d stock rows, %d customers)\n", path, len(bundle.Stock), len(bundle.Balances))
}

// restore returns the saved session, or nil when there is none or it is no
// longer valid.
func restore(ctx context.Context, sessions *session.Manager, tokenPath string) *session.Session {
	raw, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil
	}
	s, err := sessions.FromToken(ctx, strings.TrimSpace(string(raw)))
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "saved session is invalid: %v\n", err)
		}
		_ = os.Remove(tokenPath)
		return nil
	}
	return s
}
