package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// profileFile is the CLI's own settings file, separate from the server
// config passed with --config.
type profileFile struct {
	CurrentProfile string             `yaml:"current-profile"`
	Profiles       map[string]profile `yaml:"profiles"`
}

type profile struct {
	Backend string `yaml:"backend,omitempty"`
	Token   string `yaml:"token,omitempty"`
	Output  string `yaml:"output,omitempty"`
}

func (f *profileFile) active(override string) profile {
	name := f.CurrentProfile
	if override != "" {
		name = override
	}
	return f.Profiles[name]
}

// profilePath returns $GROUPDESK_CLI_CONFIG or ~/.groupdesk/cli.yaml.
func profilePath() string {
	if v := os.Getenv("GROUPDESK_CLI_CONFIG"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".groupdesk", "cli.yaml")
}

// loadProfiles reads the profile file. A missing file is not an error.
func loadProfiles(path string) (*profileFile, error) {
	pf := &profileFile{CurrentProfile: "default", Profiles: map[string]profile{}}
	if path == "" {
		return pf, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return pf, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading profile file: %w", err)
	}
	if err := yaml.Unmarshal(data, pf); err != nil {
		return nil, fmt.Errorf("parsing profile file: %w", err)
	}
	if pf.Profiles == nil {
		pf.Profiles = map[string]profile{}
	}
	return pf, nil
}

// resolve applies precedence flag > environment > profile for the
// connection settings.
func (o *cliOptions) resolve(cmd *cobra.Command) error {
	pf, err := loadProfiles(profilePath())
	if err != nil {
		return err
	}
	if o.profile != "" {
		if _, ok := pf.Profiles[o.profile]; !ok {
			return fmt.Errorf("unknown profile %q", o.profile)
		}
	}
	p := pf.active(o.profile)

	flags := cmd.Flags()
	if !flags.Changed("backend") {
		if v := os.Getenv("GROUPDESK_BACKEND_URL"); v == "" && p.Backend != "" {
			o.backend = p.Backend
		}
	}
	if !flags.Changed("token") {
		if v := os.Getenv("GROUPDESK_TOKEN"); v != "" {
			o.token = v
		} else {
			o.token = p.Token
		}
	}
	if !flags.Changed("output") {
		if v := os.Getenv("GROUPDESK_OUTPUT"); v != "" {
			o.output = v
		} else {
			o.output = p.Output
		}
	}

	if o.output != "" && o.output != "table" && o.output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", o.output)
	}
	return nil
}
