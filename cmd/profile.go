package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-agent/internal/logger"
)

var profileCmd = &cobra.Command{
	Use:   "profile <resume>",
	Short: "Print the profile extracted from a resume as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		printProfile(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)

	profileCmd.Flags().Bool("with-text", false, "include the normalized resume text")
}

func printProfile(cmd *cobra.Command, path string) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		config = &Config{}
	}

	profile, err := loadProfile(path, config)
	if err != nil {
		logger.Fatal("loading resume", zap.String("path", path), zap.Error(err))
	}

	if !flagIsSet(cmd, "with-text") {
		profile.RawText = ""
	}

	pretty, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		logger.Fatal("encoding profile", zap.Error(err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
}
