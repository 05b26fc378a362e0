package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/job-agent/internal/notify"
)

const (
	app = "job-agent"
)

type Config struct {
	Resume    *ResumeConfig    `mapstructure:"resume"`
	Candidate *CandidateConfig `mapstructure:"candidate"`
	Search    *SearchConfig    `mapstructure:"search"`
	Ranking   *RankingConfig   `mapstructure:"ranking"`
	Filters   *FiltersConfig   `mapstructure:"filters"`
	Letters   *LettersConfig   `mapstructure:"letters"`
	Output    *OutputConfig    `mapstructure:"output"`
	Notify    *NotifyConfig    `mapstructure:"notify"`
}

type ResumeConfig struct {
	Path string `mapstructure:"path"`
	Dir  string `mapstructure:"dir"`
	// Skills extends the built-in skill vocabulary.
	Skills []string `mapstructure:"skills"`
}

type CandidateConfig struct {
	Name string `mapstructure:"name"`
}

type SearchConfig struct {
	Query           string        `mapstructure:"query"`
	Location        string        `mapstructure:"location"`
	Limit           int           `mapstructure:"limit"`
	Sources         []string      `mapstructure:"sources"`
	File            string        `mapstructure:"file"`
	UserAgent       string        `mapstructure:"user-agent"`
	RequestInterval time.Duration `mapstructure:"request-interval"`
}

type RankingConfig struct {
	TopK       int           `mapstructure:"top-k"`
	Encoder    string        `mapstructure:"encoder"`
	Dimensions int           `mapstructure:"dimensions"`
	Ollama     *OllamaConfig `mapstructure:"ollama"`
}

type FiltersConfig struct {
	ExcludeFile   string   `mapstructure:"exclude-file"`
	Companies     []string `mapstructure:"companies"`
	MinSimilarity float64  `mapstructure:"min-similarity"`
}

type LettersConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	PreferGenerative bool          `mapstructure:"prefer-generative"`
	Backend          string        `mapstructure:"backend"`
	MissingName      string        `mapstructure:"missing-name"`
	MaxTokens        int           `mapstructure:"max-tokens"`
	Timeout          time.Duration `mapstructure:"timeout"`
	Workers          int           `mapstructure:"workers"`
	Gemini           *GeminiConfig `mapstructure:"gemini"`
	Ollama           *OllamaConfig `mapstructure:"ollama"`
}

type GeminiConfig struct {
	APIKey      string  `mapstructure:"api-key"`
	APIKeyFile  string  `mapstructure:"api-key-file"`
	Model       string  `mapstructure:"model"`
	MaxRetries  int     `mapstructure:"max-retries"`
	Temperature float32 `mapstructure:"temperature"`
}

type OllamaConfig struct {
	BaseURL string `mapstructure:"base-url"`
	Model   string `mapstructure:"model"`
}

type OutputConfig struct {
	Dir           string   `mapstructure:"dir"`
	Formats       []string `mapstructure:"formats"`
	LettersDir    string   `mapstructure:"letters-dir"`
	LettersFormat string   `mapstructure:"letters-format"`
}

type NotifyConfig struct {
	Watchlist    string               `mapstructure:"watchlist"`
	Email        *notify.MailerConfig `mapstructure:"email"`
	Password     string               `mapstructure:"password"`
	PasswordFile string               `mapstructure:"password-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-agent matches a resume against job postings and writes cover letters for the best ones",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("letters.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("notify.password-file", "SMTP_PASSWORD_FILE"); err != nil {
		log.Fatalf("binding SMTP_PASSWORD_FILE environment variable: %v", err)
	}

	setDefaults(viper.GetViper())

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-agent.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("resume.dir", "data")
	v.SetDefault("search.limit", 20)
	v.SetDefault("search.sources", []string{"indeed", "demo"})
	v.SetDefault("search.request-interval", 2*time.Second)
	v.SetDefault("ranking.top-k", 30)
	v.SetDefault("ranking.encoder", "hashing")
	v.SetDefault("letters.enabled", true)
	v.SetDefault("letters.prefer-generative", true)
	v.SetDefault("letters.backend", "gemini")
	v.SetDefault("letters.missing-name", "strict")
	v.SetDefault("letters.timeout", 60*time.Second)
	v.SetDefault("letters.workers", 1)
	v.SetDefault("output.dir", "outputs")
	v.SetDefault("output.formats", []string{"csv"})
	v.SetDefault("output.letters-dir", "cover_letters")
	v.SetDefault("output.letters-format", "txt")
	v.SetDefault("notify.watchlist", "companies.txt")
}

func initConfig() {
	// Only run and profile read the config file.
	if runCmd.CalledAs() == "" && profileCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Without an explicit --config the defaults are enough to run.
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
