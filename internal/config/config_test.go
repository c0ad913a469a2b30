package config

import (
	"os"
	"strings"
	"testing"
)

func validArgs() []string {
	return []string{"-export-path", "out/project.glb", "-dump-path", "out/frames.gob"}
}

func TestNew_Defaults(t *testing.T) {
	os.Unsetenv(EnvHost)
	os.Unsetenv(EnvPort)

	cfg, err := New(validArgs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Host() != DefaultHost {
		t.Errorf("Host = %q, want %q", cfg.Host(), DefaultHost)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.Headless() {
		t.Error("Headless = true, want false by default")
	}
}

func TestNew_EnvOverride(t *testing.T) {
	os.Setenv(EnvPort, "9001")
	defer os.Unsetenv(EnvPort)

	cfg, err := New(validArgs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9001 {
		t.Errorf("Port = %d, want 9001", cfg.Port())
	}
}

func TestNew_FlagBeatsEnv(t *testing.T) {
	os.Setenv(EnvPort, "9001")
	defer os.Unsetenv(EnvPort)

	cfg, err := New(append(validArgs(), "-port", "9002"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9002 {
		t.Errorf("Port = %d, want 9002", cfg.Port())
	}
}

func TestNew_PathValidation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing export path",
			args:    []string{"-dump-path", "frames.gob"},
			wantErr: "export-path is required",
		},
		{
			name:    "missing dump path",
			args:    []string{"-export-path", "project.glb"},
			wantErr: "dump-path is required",
		},
		{
			name:    "wrong export suffix",
			args:    []string{"-export-path", "project.blend", "-dump-path", "frames.gob"},
			wantErr: `".glb" suffix`,
		},
		{
			name:    "wrong dump suffix",
			args:    []string{"-export-path", "project.glb", "-dump-path", "frames.pkl"},
			wantErr: `".gob" suffix`,
		},
		{
			name:    "wrong settings script suffix",
			args:    append(validArgs(), "-settings-script", "tweak.py"),
			wantErr: `".lua" suffix`,
		},
		{
			name:    "bad port",
			args:    append(validArgs(), "-port", "70000"),
			wantErr: "invalid port",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.args)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestDBPath_UnderDataDir(t *testing.T) {
	cfg, err := New(append(validArgs(), "-data-dir", "/tmp/recdata"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBPath() != "/tmp/recdata/"+DBFilename {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath(), "/tmp/recdata/"+DBFilename)
	}
}
