// Package cli wires the translation pipeline behind a cobra command.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"renpy-translator/internal/cache"
	"renpy-translator/internal/config"
	"renpy-translator/internal/filewalker"
	"renpy-translator/internal/script"
	"renpy-translator/internal/translation"
	"renpy-translator/internal/worker"

	"github.com/fatih/color"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var errAborted = errors.New("aborted by user")

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var (
		inputDir  string
		outputDir string
		language  string
		apiKey    string
		assumeYes bool
	)

	rootCmd := &cobra.Command{
		Use:          "renpy-translator",
		Short:        "Machine-translate extracted Ren'Py translation files",
		Long:         "Walks a directory of extracted Ren'Py translation files, estimates the translation cost, machine-translates uncached dialogue and writes the rewritten files under a mirrored output directory.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(inputDir, outputDir, language, apiKey, assumeYes)
		},
	}

	rootCmd.Flags().StringVarP(&inputDir, "input", "i", "", "directory containing the extracted translations (required)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory to write translated files to (required)")
	rootCmd.Flags().StringVarP(&language, "language", "l", "", "target language code (required)")
	rootCmd.Flags().StringVar(&apiKey, "api-key", "", "translation API key (overrides GOOGLE_API_KEY)")
	rootCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "answer yes to all confirmation prompts")
	rootCmd.MarkFlagRequired("input")
	rootCmd.MarkFlagRequired("output")
	rootCmd.MarkFlagRequired("language")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(inputDir, outputDir, language, apiKeyFlag string, assumeYes bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	apiKey := cfg.GoogleAPIKey
	if apiKeyFlag != "" {
		apiKey = apiKeyFlag
	}
	if apiKey == "" {
		return fmt.Errorf("no API key configured: set GOOGLE_API_KEY (or a .env file) or pass --api-key")
	}

	client := translation.NewGoogleClient(apiKey, "")

	// Validate the language code once, before any work.
	languages, err := client.Languages(ctx)
	if err != nil {
		return fmt.Errorf("list supported languages: %w", err)
	}
	if !slices.Contains(languages, language) {
		return fmt.Errorf("%q is not a supported language, valid languages are: %s",
			language, strings.Join(languages, ", "))
	}

	if _, err := os.Stat(outputDir); err == nil {
		if !confirm("The output directory exists. Do you want to overwrite it?", assumeYes) {
			fmt.Println("Aborted")
			return errAborted
		}
		if err := os.RemoveAll(outputDir); err != nil {
			return fmt.Errorf("remove output directory: %w", err)
		}
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if ps, ok := store.(*cache.PostgresStore); ok {
		defer ps.Close()
	}
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("load translation cache: %w", err)
	}
	// Persist whatever was translated, also on failed or interrupted runs.
	defer func() {
		if err := store.Persist(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to persist translation cache")
		}
	}()

	files, err := filewalker.Walk(inputDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Warn().Str("input", inputDir).Msg("No translation files found")
		return nil
	}

	var estimate script.Estimate
	for _, f := range files {
		fileEst := f.Estimate(ctx, store, language)
		estimate.Add(fileEst)
	}
	printEstimate(estimate)
	if !confirm("Do you want to start the translation? (this will incur the estimated cost)", assumeYes) {
		fmt.Println("Aborted")
		return errAborted
	}

	translator := translation.NewDeduped(client)
	bar := progressbar.Default(int64(len(files)), "translating")
	for _, f := range files {
		if err := translateFile(ctx, f, translator, store, language, cfg.WorkerCount); err != nil {
			return err
		}
		bar.Add(1)
	}

	rewriter := &script.Rewriter{InputRoot: inputDir, OutputRoot: outputDir}
	bar = progressbar.Default(int64(len(files)), "writing")
	for _, f := range files {
		outPath, err := rewriter.Rewrite(f)
		if err != nil {
			return err
		}
		log.Debug().Str("input", f.Filename).Str("output", outPath).Msg("File written")
		bar.Add(1)
	}

	log.Info().Int("files", len(files)).Str("output", outputDir).Msg("Translation complete")
	return nil
}

// translateFile resolves all dialogue lines of one file, in parallel when
// more than one worker is configured. Any line failure aborts the run: a
// partially translated line would corrupt the rewrite.
func translateFile(ctx context.Context, f *script.File, tr translation.Translator, store cache.Store, language string, workers int) error {
	if workers <= 1 {
		return f.Translate(ctx, tr, store, language)
	}

	pool := worker.NewPool(workers, func(ctx context.Context, line *script.Line) (struct{}, error) {
		return struct{}{}, line.Translate(ctx, tr, store, language)
	})
	results := pool.Execute(ctx, f.DialogueLines())

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := worker.FirstError(results); err != nil {
		return fmt.Errorf("%s: %w", f.Filename, err)
	}
	return nil
}

// printEstimate shows the pre-commitment cost and cache-hit summary.
func printEstimate(est script.Estimate) {
	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	cost := fmt.Sprintf("%.2f$", est.Cost)
	if est.Cost < 1 {
		cost = fmt.Sprintf("%.2f cents", est.Cost*100)
	}
	fmt.Printf("Estimated cost: %s (%s)\n", red(cost), green(fmt.Sprintf("%d cache hits", est.CacheHits)))
	fmt.Printf("%s: cached fragments are free, only uncached text is billed.\n", red("Note"))
}

// confirm asks a yes/no question on stdin.
func confirm(prompt string, assumeYes bool) bool {
	if assumeYes {
		return true
	}
	fmt.Printf("%s\n[y]es/[n]o: ", prompt)

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// openStore selects the configured cache backend.
func openStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	switch cfg.CacheBackend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect PostgreSQL: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping PostgreSQL: %w", err)
		}
		log.Info().Msg("Connected to PostgreSQL cache")
		return cache.NewPostgresStore(pool), nil
	case "json":
		return cache.NewJSONStore(cfg.CacheFile), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (valid: json, postgres)", cfg.CacheBackend)
	}
}

// setupContext creates a cancellable context wired to SIGINT/SIGTERM.
// Cancellation stops further backend calls; completed translations are
// still persisted on the way out.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}
