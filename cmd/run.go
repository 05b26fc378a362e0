package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-agent/internal/ai"
	"github.com/spigell/job-agent/internal/ai/gemini"
	aiollama "github.com/spigell/job-agent/internal/ai/ollama"
	"github.com/spigell/job-agent/internal/coverletter"
	"github.com/spigell/job-agent/internal/document"
	"github.com/spigell/job-agent/internal/embedding"
	embedollama "github.com/spigell/job-agent/internal/embedding/ollama"
	"github.com/spigell/job-agent/internal/export"
	"github.com/spigell/job-agent/internal/filtering"
	"github.com/spigell/job-agent/internal/jobs"
	"github.com/spigell/job-agent/internal/jobsource"
	"github.com/spigell/job-agent/internal/logger"
	"github.com/spigell/job-agent/internal/notify"
	"github.com/spigell/job-agent/internal/ranking"
	"github.com/spigell/job-agent/internal/resume"
	"github.com/spigell/job-agent/internal/secrets"
)

const (
	backendGemini = "gemini"
	backendOllama = "ollama"
	backendNone   = "none"

	encoderHashing = "hashing"
	encoderOllama  = "ollama"

	formatCSV  = "csv"
	formatXLSX = "xlsx"
)

var errNoResume = errors.New("no resume files found")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: parse the resume, fetch and rank postings, write letters",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("resume", "r", "", "resume file to use instead of searching resume.dir")
	runCmd.Flags().StringP("query", "q", "", "search query. Default is the role detected from the resume")
	runCmd.Flags().StringP("location", "l", "", "search location")
	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation")
	runCmd.Flags().Bool("no-letters", false, "skip cover letter generation")
	runCmd.Flags().Bool("exclude-processed", false, "append the processed postings to the exclude file")
	runCmd.Flags().Bool("dump", false, "dump the final postings to a temporary JSON file")

	viper.BindPFlag("resume.path", runCmd.Flags().Lookup("resume"))
	viper.BindPFlag("search.query", runCmd.Flags().Lookup("query"))
	viper.BindPFlag("search.location", runCmd.Flags().Lookup("location"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()
	now := time.Now()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}

	logger.Info("starting the job-agent", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	autoApprove := flagIsSet(cmd, "auto-approve")

	path, err := selectResume(config.Resume, autoApprove, logger)
	if err != nil {
		logger.Fatal("selecting a resume", zap.Error(err),
			zap.String("hint", "put a .pdf, .docx or .txt resume into resume.dir or pass --resume"),
		)
	}

	profile, err := loadProfile(path, config)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			logger.Fatal("resume not found", zap.String("path", path), zap.Error(err))
		}
		logger.Fatal("loading resume", zap.String("path", path), zap.Error(err))
	}

	logger.Info("resume parsed",
		zap.String("path", path),
		zap.Bool("name_found", profile.HasName()),
		zap.Strings("skills", profile.Skills),
		zap.String("target_role", string(profile.TargetRole)),
	)

	lettersEnabled := config.Letters.Enabled && !flagIsSet(cmd, "no-letters")
	policy, err := coverletter.ParsePolicy(config.Letters.MissingName)
	if err != nil {
		logger.Fatal("parsing letters.missing-name", zap.Error(err))
	}
	lettersFormat, err := export.ParseLettersFormat(config.Output.LettersFormat)
	if err != nil {
		logger.Fatal("parsing output.letters-format", zap.Error(err))
	}
	if lettersEnabled && policy == coverletter.PolicyStrict && !profile.HasName() {
		logger.Fatal("candidate name is required to sign cover letters",
			zap.Error(coverletter.ErrMissingName),
			zap.String("hint", "set candidate.name, use letters.missing-name: placeholder or pass --no-letters"),
		)
	}

	query := jobsource.Query{
		Text:     strings.TrimSpace(config.Search.Query),
		Location: strings.TrimSpace(config.Search.Location),
		Limit:    config.Search.Limit,
	}
	if query.Text == "" {
		query.Text = profile.TargetRole.Query()
		logger.Info("using detected role as query", zap.String("query", query.Text))
	}

	logger.Info("starting the search", zap.String("query", query.Text), zap.String("location", query.Location))

	sources, err := buildSources(config.Search, logger)
	if err != nil {
		logger.Fatal("building job sources", zap.Error(err))
	}

	fetched, err := jobsource.NewChain(logger, sources...).Fetch(ctx, query)
	if err != nil {
		logger.Fatal("getting postings", zap.Error(err))
	}

	encoder, err := buildEncoder(config.Ranking)
	if err != nil {
		logger.Fatal("building encoder", zap.Error(err))
	}

	ranked, err := ranking.New(encoder, logger).Rank(ctx, profile.RawText, fetched, config.Ranking.TopK)
	if err != nil {
		logger.Fatal("ranking postings", zap.Error(err))
	}
	logger.Info("postings ranked", zap.Int("fetched", len(fetched)), zap.Int("ranked", len(ranked)))

	filterCfg, steps := prepareFilters(config.Filters)
	for _, status := range filtering.Describe(steps) {
		logger.Debug("filter", zap.String("name", status.Name), zap.Bool("enabled", status.Enabled), zap.String("reason", status.Reason))
	}

	postings, err := filtering.Run(ctx, filterCfg, filtering.Deps{Logger: logger}, steps, &jobs.Postings{Items: ranked})
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	if postings.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no postings left after filters"))
		return
	}

	if lettersEnabled && !autoApprove {
		lettersEnabled = confirm(fmt.Sprintf("Generate cover letters for %d postings", postings.Len()))
	}

	if lettersEnabled {
		generator := buildGenerator(ctx, config.Letters, logger)
		synthesizer := coverletter.New(generator, coverletter.Options{
			Policy:    policy,
			MaxTokens: config.Letters.MaxTokens,
			Timeout:   config.Letters.Timeout,
			Workers:   config.Letters.Workers,
			Backend:   backendName(config.Letters, generator),
		}, logger)

		synthesizer.SynthesizeAll(ctx, profile, postings.Items, config.Letters.PreferGenerative && generator != nil)

		dir := export.LettersDir(config.Output.LettersDir, profile.Name, now)
		written, err := writeLetters(dir, lettersFormat, profile, postings.Items)
		if err != nil {
			logger.Error("writing cover letters", zap.Error(err))
		}
		logger.Info("cover letters saved",
			zap.String("dir", dir),
			zap.String("format", lettersFormat),
			zap.Int("count", len(written)),
		)
	}

	writeResults(config.Output, query.Text, now, postings.Items, logger)

	report, _ := json.MarshalIndent(postings.ReportByCompany(), "", "  ")
	logger.Debug(string(report), zap.Int("postings count", postings.Len()))

	notifyWatchlist(ctx, config.Notify, postings.Items, logger)

	if flagIsSet(cmd, "exclude-processed") {
		if err := appendToExcludeFile(config.Filters, postings); err != nil {
			logger.Error("updating exclude file", zap.Error(err))
		}
	}

	if flagIsSet(cmd, "dump") {
		filename, err := postings.DumpToTmpFile()
		if err != nil {
			logger.Error("dump results to file", zap.Error(err))
		} else {
			logger.Info("dumping result to file", zap.String("filename", filename))
		}
	}

	logger.Info("done", zap.Int("postings", postings.Len()))
}

func flagIsSet(cmd *cobra.Command, name string) bool {
	flag := cmd.Flag(name)
	return flag != nil && strings.EqualFold(flag.Value.String(), "true")
}

func confirm(label string) bool {
	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	_, err := prompt.Run()
	return err == nil
}

func loadProfile(path string, config *Config) (resume.Profile, error) {
	var vocabulary []string
	if config.Resume != nil && len(config.Resume.Skills) > 0 {
		vocabulary = append(resume.DefaultVocabulary(), config.Resume.Skills...)
	}

	profile, err := resume.Load(path, resume.NewExtractor(vocabulary))
	if err != nil {
		return profile, err
	}

	if config.Candidate != nil && strings.TrimSpace(config.Candidate.Name) != "" {
		profile = profile.WithName(strings.TrimSpace(config.Candidate.Name))
	}
	return profile, nil
}

// selectResume returns resume.path when set, otherwise a file from resume.dir.
// Several candidates are offered in a prompt unless autoApprove is set, in
// which case the first one (by name) is used.
func selectResume(cfg *ResumeConfig, autoApprove bool, logger *zap.Logger) (string, error) {
	if cfg == nil {
		cfg = &ResumeConfig{}
	}
	if path := strings.TrimSpace(cfg.Path); path != "" {
		return path, nil
	}

	files, err := document.Find(cfg.Dir)
	if err != nil {
		return "", err
	}

	switch {
	case len(files) == 0:
		return "", fmt.Errorf("%w in %s", errNoResume, cfg.Dir)
	case len(files) == 1 || autoApprove:
		if len(files) > 1 {
			logger.Warn("several resumes found, using the first one", zap.Strings("files", files))
		}
		return files[0], nil
	}

	items := make([]string, 0, len(files))
	for _, file := range files {
		items = append(items, filepath.Base(file))
	}
	resumePrompt := promptui.Select{
		Label: "Choose a resume and press ENTER",
		Items: items,
	}
	idx, _, err := resumePrompt.Run()
	if err != nil {
		return "", err
	}
	return files[idx], nil
}

func buildSources(cfg *SearchConfig, logger *zap.Logger) ([]jobsource.Source, error) {
	names := cfg.Sources
	if len(names) == 0 {
		names = []string{"demo"}
	}

	sources := make([]jobsource.Source, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "indeed":
			indeed := jobsource.NewIndeed(logger, cfg.RequestInterval)
			if cfg.UserAgent != "" {
				indeed.UserAgent = cfg.UserAgent
			}
			sources = append(sources, indeed)
		case "file":
			if cfg.File == "" {
				return nil, errors.New("search.file is required for the file source")
			}
			sources = append(sources, &jobsource.File{Path: cfg.File})
		case "demo":
			sources = append(sources, jobsource.Demo{})
		default:
			return nil, fmt.Errorf("unsupported job source: %s", name)
		}
	}
	return sources, nil
}

func buildEncoder(cfg *RankingConfig) (embedding.Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Encoder)) {
	case "", encoderHashing:
		return embedding.NewCached(embedding.NewHashing(cfg.Dimensions)), nil
	case encoderOllama:
		ollamaCfg := cfg.Ollama
		if ollamaCfg == nil {
			ollamaCfg = &OllamaConfig{}
		}
		return embedding.NewCached(embedollama.New(ollamaCfg.Model, embedollama.WithBaseURL(ollamaCfg.BaseURL))), nil
	default:
		return nil, fmt.Errorf("unsupported encoder: %s", cfg.Encoder)
	}
}

func prepareFilters(cfg *FiltersConfig) (*filtering.Config, []filtering.Filter) {
	if cfg == nil {
		cfg = &FiltersConfig{}
	}
	filterCfg := &filtering.Config{
		ExcludeFile:   cfg.ExcludeFile,
		Companies:     cfg.Companies,
		MinSimilarity: cfg.MinSimilarity,
	}

	steps := filtering.Defaults()
	if filterCfg.ExcludeFile == "" {
		filtering.DisableByName(steps, "exclude_file", "filters.exclude-file is not set")
	}
	if len(filterCfg.Companies) == 0 {
		filtering.DisableByName(steps, "companies", "filters.companies is empty")
	}
	if filterCfg.MinSimilarity == 0 {
		filtering.DisableByName(steps, "min_similarity", "filters.min-similarity is 0")
	}
	return filterCfg, steps
}

// buildGenerator returns nil when no backend is configured or it cannot be
// built; letters then come from the template.
func buildGenerator(ctx context.Context, cfg *LettersConfig, logger *zap.Logger) ai.Generator {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case backendGemini:
		geminiCfg := cfg.Gemini
		if geminiCfg == nil {
			geminiCfg = &GeminiConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			File:  geminiCfg.APIKeyFile,
			Env:   "GEMINI_API_KEY",
			Value: geminiCfg.APIKey,
		})
		if err != nil {
			logger.Warn("gemini is not available, using the template only", zap.Error(err),
				zap.String("hint", "set GEMINI_API_KEY, GEMINI_API_KEY_FILE or letters.gemini.api-key-file"),
			)
			return nil
		}

		opts := []gemini.Option{
			gemini.WithLogger(logger.With(zap.String("provider", backendGemini))),
			gemini.WithMaxRetries(geminiCfg.MaxRetries),
			gemini.WithSystemInstruction(coverletter.SystemInstruction),
		}
		if geminiCfg.Temperature > 0 {
			opts = append(opts, gemini.WithTemperature(geminiCfg.Temperature))
		}

		generator, err := gemini.NewGenerator(ctx, apiKey, geminiCfg.Model, opts...)
		if err != nil {
			logger.Warn("gemini is not available, using the template only", zap.Error(err))
			return nil
		}
		return generator
	case backendOllama:
		ollamaCfg := cfg.Ollama
		if ollamaCfg == nil {
			ollamaCfg = &OllamaConfig{}
		}
		return aiollama.New(ollamaCfg.Model, aiollama.WithBaseURL(ollamaCfg.BaseURL))
	case "", backendNone:
		return nil
	default:
		logger.Warn("unsupported letters backend, using the template only", zap.String("backend", cfg.Backend))
		return nil
	}
}

func backendName(cfg *LettersConfig, generator ai.Generator) string {
	if generator == nil {
		return backendNone
	}
	return strings.ToLower(strings.TrimSpace(cfg.Backend))
}

func writeLetters(dir, format string, profile resume.Profile, postings []*jobs.Posting) ([]string, error) {
	if format == export.FormatDOCX {
		sender := export.Sender{Name: profile.Name, Email: profile.Email, Phone: profile.Phone}
		return export.WriteLettersDOCX(dir, sender, postings)
	}
	return export.WriteLetters(dir, postings)
}

func writeResults(cfg *OutputConfig, query string, now time.Time, postings []*jobs.Posting, logger *zap.Logger) {
	for _, format := range cfg.Formats {
		format = strings.ToLower(strings.TrimSpace(format))

		var (
			path string
			err  error
		)
		switch format {
		case formatCSV:
			path = export.ResultsPath(cfg.Dir, query, ".csv", now)
			err = export.WriteCSVFile(path, postings)
		case formatXLSX:
			path = export.ResultsPath(cfg.Dir, query, ".xlsx", now)
			err = export.WriteXLSX(path, postings)
		default:
			logger.Warn("unsupported output format", zap.String("format", format))
			continue
		}

		if err != nil {
			logger.Error("writing results", zap.String("format", format), zap.Error(err))
			continue
		}
		logger.Info("results saved", zap.String("format", format), zap.String("path", path))
	}
}

func notifyWatchlist(ctx context.Context, cfg *NotifyConfig, postings []*jobs.Posting, logger *zap.Logger) {
	if cfg == nil || cfg.Watchlist == "" {
		return
	}

	watchlist, err := notify.LoadWatchlist(cfg.Watchlist)
	if err != nil {
		logger.Error("loading watchlist", zap.String("file", cfg.Watchlist), zap.Error(err))
		return
	}
	if watchlist.Empty() {
		return
	}

	matches := watchlist.Match(postings)
	logger.Info("watchlist checked", zap.Int("companies", len(watchlist.Companies)), zap.Int("matches", len(matches)))
	for _, posting := range matches {
		logger.Info("watchlist match", postingFields(posting)...)
	}

	if cfg.Email == nil || len(matches) == 0 {
		return
	}

	password, err := secrets.Load(secrets.Source{
		Name:  "smtp password",
		File:  cfg.PasswordFile,
		Env:   "SMTP_PASSWORD",
		Value: cfg.Password,
	})
	if err != nil {
		logger.Warn("sending alert without smtp auth", zap.Error(err))
		password = ""
	}

	mailer, err := notify.NewMailer(*cfg.Email, password, logger)
	if err != nil {
		logger.Error("building mailer", zap.Error(err))
		return
	}
	if err := mailer.Notify(ctx, matches); err != nil {
		logger.Error("sending watchlist alert", zap.Error(err))
	}
}

func postingFields(p *jobs.Posting) []zap.Field {
	return append(logger.PostingFields(p.ID, p.Company),
		zap.String("title", p.Title),
		zap.String("url", p.URL),
	)
}

func appendToExcludeFile(cfg *FiltersConfig, postings *jobs.Postings) error {
	if cfg == nil || cfg.ExcludeFile == "" {
		return errors.New("filters.exclude-file is not set")
	}

	excluded, err := jobs.LoadExcluded(cfg.ExcludeFile)
	if err != nil {
		return err
	}
	excluded.Append(postings.ToExcluded())
	return excluded.ToFile(cfg.ExcludeFile)
}

// redacted returns a copy of config without inline secrets, for logging.
func redacted(config *Config) *Config {
	clone := *config
	if config.Letters != nil && config.Letters.Gemini != nil && config.Letters.Gemini.APIKey != "" {
		letters := *config.Letters
		g := *config.Letters.Gemini
		g.APIKey = "***"
		letters.Gemini = &g
		clone.Letters = &letters
	}
	if config.Notify != nil && config.Notify.Password != "" {
		n := *config.Notify
		n.Password = "***"
		clone.Notify = &n
	}
	return &clone
}
