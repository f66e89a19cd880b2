package main

import (
	"fmt"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

var manCmd = &cobra.Command{
	Use:                   "man",
	Short:                 "Generates manpages",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Hidden:                true,
	Args:                  cobra.NoArgs,
	// man pages do not need a valid configuration
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(*cobra.Command, []string) error {
		manPage, err := mcobra.NewManPage(1, rootCmd)
		if err != nil {
			return err
		}

		manPage = manPage.WithSection("Environment", "GROQ_API_KEY is required for the study tools and the tutor.\n"+
			"STUDYBUDDY_DEBUG=true writes debug logs to the cache directory.\n"+
			"STUDYBUDDY_MOCK_AUDIO=true replaces the audio device with a silent mock.")
		fmt.Println(manPage.Build(roff.NewDocument()))
		return nil
	},
}
