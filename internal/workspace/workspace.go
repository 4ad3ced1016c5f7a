// Package workspace creates throwaway project directories that are mounted
// into MCP servers which detect the languages of their workspace.
package workspace

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"mcpprobe/pkg/logging"
)

const workspaceSubsystem = "Workspace"

// Profile names a fixture project layout.
type Profile string

const (
	ProfileMulti      Profile = "multi"
	ProfileGo         Profile = "go"
	ProfilePython     Profile = "python"
	ProfileJava       Profile = "java"
	ProfileTypeScript Profile = "typescript"
	// ProfileEmpty is an empty directory.
	ProfileEmpty Profile = "empty"
)

// DefaultProfile is used when a scenario does not name one.
const DefaultProfile = ProfileMulti

// Fixture files carry a .tmpl suffix so the go tool never treats them as
// part of this module.
const fixtureSuffix = ".tmpl"

//go:embed all:profiles
var profiles embed.FS

// Workspace is a temporary directory populated from a profile.
type Workspace struct {
	// Path is the absolute host path of the workspace.
	Path    string
	Profile Profile
}

// Profiles lists every profile Create accepts.
func Profiles() []Profile {
	out := []Profile{ProfileEmpty}
	entries, err := fs.ReadDir(profiles, "profiles")
	if err == nil {
		for _, e := range entries {
			if e.IsDir() {
				out = append(out, Profile(e.Name()))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseProfile validates a profile name. An empty name selects DefaultProfile.
func ParseProfile(name string) (Profile, error) {
	if name == "" {
		return DefaultProfile, nil
	}
	p := Profile(strings.ToLower(name))
	for _, known := range Profiles() {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown workspace profile %q", name)
}

// Create makes a new temporary directory and writes the profile's files to it.
// The caller owns the workspace and must call Remove.
func Create(profile Profile) (*Workspace, error) {
	if profile == "" {
		profile = DefaultProfile
	}
	if _, err := ParseProfile(string(profile)); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "mcpprobe-ws-")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	ws := &Workspace{Path: dir, Profile: profile}

	if profile != ProfileEmpty {
		if err := ws.populate(); err != nil {
			ws.Remove()
			return nil, err
		}
	}

	logging.Debug(workspaceSubsystem, "Created %s workspace at %s", profile, dir)
	return ws, nil
}

func (w *Workspace) populate() error {
	root := path.Join("profiles", string(w.Profile))
	return fs.WalkDir(profiles, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
		if rel == "" {
			return nil
		}
		target := filepath.Join(w.Path, filepath.FromSlash(strings.TrimSuffix(rel, fixtureSuffix)))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		data, err := profiles.ReadFile(p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", rel, err)
		}
		return nil
	})
}

// Files returns the workspace's files relative to Path, sorted, using
// forward slashes.
func (w *Workspace) Files() ([]string, error) {
	var files []string
	err := filepath.WalkDir(w.Path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.Path, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	sort.Strings(files)
	return files, err
}

// Remove deletes the workspace. It is safe to call more than once.
func (w *Workspace) Remove() {
	if w == nil || w.Path == "" {
		return
	}
	if err := os.RemoveAll(w.Path); err != nil {
		logging.Warn(workspaceSubsystem, "Failed to remove workspace %s: %v", w.Path, err)
	}
}
