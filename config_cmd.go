package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/studybuddy-ai/studybuddy/internal/config"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the studybuddy config file",
	Long:    paragraph(fmt.Sprintf("\n%s the studybuddy config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("studybuddy config\nstudybuddy config --config path/to/config.yml\nstudybuddy config show"),
	Args:    cobra.NoArgs,
	// a broken config file must still be editable
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		err := loadConfig(cmd, args)
		if err != nil && cmd.Name() == "config" {
			log.Warn("Configuration is invalid", "error", err)
			return nil
		}
		return err
	},
	RunE: func(*cobra.Command, []string) error {
		file, err := ensureConfigFile()
		if err != nil {
			return err
		}

		c, err := editor.Cmd("StudyBuddy", file)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", file)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  paragraph(fmt.Sprintf("\n%s the configuration after applying the config file, environment and flags.", keyword("Print"))),
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if used := viper.ConfigFileUsed(); used != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), faint("# "+used))
		}
		return writeConfigYAML(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

func writeConfigYAML(w io.Writer, c config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("unable to encode configuration: %w", err)
	}
	return enc.Close()
}

// ensureConfigFile returns the config file path, writing the default
// configuration there first if it does not exist.
func ensureConfigFile() (string, error) {
	file := configFile
	if file == "" {
		file = defaultConfigFile
	}
	file = config.ExpandPath(file)

	if ext := path.Ext(file); ext != ".yaml" && ext != ".yml" {
		return "", fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
			return "", fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(file)
		if err != nil {
			return "", fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(config.DefaultYAML); err != nil {
			return "", fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return "", fmt.Errorf("unable to stat config file: %w", err)
	}
	return file, nil
}
