package system

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/hemma/internal/backup"
	"github.com/julianstephens/hemma/internal/cli"
	"github.com/julianstephens/hemma/internal/config"
	"github.com/julianstephens/hemma/internal/constants"
)

type confirmPrompter bool

func (p confirmPrompter) Confirm(string) (bool, error) { return bool(p), nil }
func (p confirmPrompter) Input(string) (string, error) { return "", nil }
func (p confirmPrompter) Password(string) (string, error) { return "", nil }

func setupTestContext(t *testing.T, confirm bool) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	gokeyring.MockInit()

	cfg := config.Default()
	cfg.Backend = constants.BackendJSON

	out := &bytes.Buffer{}
	ctx := cli.NewContext(t.TempDir(), cfg)
	ctx.Out = out
	ctx.Prompt = confirmPrompter(confirm)
	t.Cleanup(func() {
		if err := ctx.Close(); err != nil {
			t.Errorf("failed to close context: %v", err)
		}
	})
	return ctx, out
}

func TestInitCmd_Success(t *testing.T) {
	ctx, _ := setupTestContext(t, false)

	cmd := &InitCmd{Backend: constants.BackendJSON, StartDate: "2026-03-01"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg, err := config.Load(ctx.ConfigDir)
	if err != nil {
		t.Fatalf("failed to load written config: %v", err)
	}
	if cfg.Backend != constants.BackendJSON || cfg.StartDate != "2026-03-01" {
		t.Errorf("written config = %+v", cfg)
	}
	if _, err := os.Stat(ctx.StorePath()); err != nil {
		t.Errorf("store was not created at %s: %v", ctx.StorePath(), err)
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	ctx, _ := setupTestContext(t, false)

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Errorf("second init failed (should be idempotent): %v", err)
	}
}

func TestInitCmd_ExistingConfig(t *testing.T) {
	tests := []struct {
		name    string
		cmd     InitCmd
		wantErr bool
		wantURL string
	}{
		{"flags without force", InitCmd{APIURL: "https://sync.example.com/api"}, true, constants.DefaultAPIURL},
		{"force overwrites", InitCmd{Force: true, APIURL: "https://sync.example.com/api"}, false, "https://sync.example.com/api"},
		{"invalid url", InitCmd{Force: true, APIURL: "ftp://example.com"}, true, constants.DefaultAPIURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := setupTestContext(t, false)
			if err := ctx.Config.Save(ctx.ConfigDir); err != nil {
				t.Fatal(err)
			}

			cmd := tt.cmd
			err := cmd.Run(ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("init error = %v, wantErr %v", err, tt.wantErr)
			}
			cfg, err := config.Load(ctx.ConfigDir)
			if err != nil {
				t.Fatal(err)
			}
			if cfg.APIURL != tt.wantURL {
				t.Errorf("api_url = %q, want %q", cfg.APIURL, tt.wantURL)
			}
		})
	}
}

func TestSyncCmd_SignedOut(t *testing.T) {
	ctx, _ := setupTestContext(t, false)

	err := (&SyncCmd{}).Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "hemma login") {
		t.Errorf("sync error = %v, want login hint", err)
	}
}

func TestResetCmd(t *testing.T) {
	tests := []struct {
		name        string
		cmd         ResetCmd
		confirm     bool
		wantReset   bool
		wantBackups int
	}{
		{"declined", ResetCmd{}, false, false, 0},
		{"confirmed", ResetCmd{}, true, true, 1},
		{"skip prompt", ResetCmd{Yes: true}, false, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := setupTestContext(t, tt.confirm)
			a, err := ctx.App()
			if err != nil {
				t.Fatal(err)
			}
			a.Tracker.Toggle("fajr-prayer")
			a.Tracker.SetCurrentDay(4)

			cmd := tt.cmd
			if err := cmd.Run(ctx); err != nil {
				t.Fatalf("reset failed: %v", err)
			}

			reset := a.Tracker.CurrentDay() == 0 && !a.Tracker.Value("fajr-prayer").IsCompleted()
			if reset != tt.wantReset {
				t.Errorf("reset = %v, want %v", reset, tt.wantReset)
			}
			backups, err := backup.NewManager(ctx.StorePath()).ListBackups()
			if err != nil {
				t.Fatal(err)
			}
			if len(backups) != tt.wantBackups {
				t.Errorf("backups = %d, want %d", len(backups), tt.wantBackups)
			}
		})
	}
}

func TestStatusCmd(t *testing.T) {
	ctx, out := setupTestContext(t, false)

	if err := (&StatusCmd{}).Run(ctx); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Store:     " + filepath.Join(ctx.ConfigDir, constants.JSONFileName) + " (json)",
		"Server:    " + constants.DefaultAPIURL,
		"Account:   not signed in",
		"Watch:     not running",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}
