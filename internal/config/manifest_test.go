package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"

	"github.com/quantarax/netcanv/internal/wire"
)

func TestCreateProjectThenOpenProjectRoundTrips(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "mycanvas.netcanv")
	if _, err := CreateProject(dir); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	m, err := OpenProject(dir)
	if err != nil {
		t.Fatalf("OpenProject: %v", err)
	}
	if m.Version != CurrentManifestVersion {
		t.Fatalf("Version = %d, want %d", m.Version, CurrentManifestVersion)
	}
}

func TestOpenProjectRejectsFutureVersion(t *testing.T) {
	dir := t.TempDir()
	data, err := toml.Marshal(&ProjectManifest{Version: CurrentManifestVersion + 1})
	if err != nil {
		t.Fatalf("toml.Marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFileName), data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := OpenProject(dir); !errors.Is(err, ErrFutureVersion) {
		t.Fatalf("OpenProject error = %v, want ErrFutureVersion", err)
	}
}

func TestChunkFileNameFormatsCoordinate(t *testing.T) {
	got := ChunkFileName(wire.Coord{X: -3, Y: 7})
	if got != "-3,7.png" {
		t.Fatalf("ChunkFileName = %q, want -3,7.png", got)
	}
}

func TestChunkPathJoinsProjectDirectory(t *testing.T) {
	got := ChunkPath("/tmp/project.netcanv", wire.Coord{X: 1, Y: 2})
	want := filepath.Join("/tmp/project.netcanv", "1,2.png")
	if got != want {
		t.Fatalf("ChunkPath = %q, want %q", got, want)
	}
}
