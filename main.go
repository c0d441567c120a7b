// veravista is a cultural-context aware messaging tool: simulated translation with
// cultural notes, cross-language connections and a debounced compose preview.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/veravista/veravista/bridge"
	"github.com/veravista/veravista/composer"
	"github.com/veravista/veravista/config"
	"github.com/veravista/veravista/culture"
	"github.com/veravista/veravista/i18n"
	"github.com/veravista/veravista/langmeta"
	"github.com/veravista/veravista/learning"
	"github.com/veravista/veravista/logging"
	"github.com/veravista/veravista/settings"
	"github.com/veravista/veravista/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir string
	verbose bool
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "veravista",
		Short: "Cultural-context aware translation and connection tools",
		Long: `veravista: cultural-context aware messaging tools.

Translates messages between English, Urdu and Chinese with cultural notes,
suggests cross-language connections and conversation starters, and previews
translations while you type. All translation is simulated locally.

Commands:
  language      Show or change the active cultural context
  translate     Translate text with cultural notes
  alternatives  Show alternative phrasings for different registers
  correct       Submit or list translation corrections
  notes         Cultural context notes for a conversation topic
  connections   Find people who share your interests in other languages
  starters      Conversation starters for a language pair
  track         Score a cross-language conversation
  compose       Compose a message with a live translation preview

Configuration is read from .veravista.yaml in --root, if present.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flags, inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Directory containing .veravista.yaml")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	root.AddCommand(
		newLanguageCmd(),
		newTranslateCmd(),
		newAlternativesCmd(),
		newCorrectCmd(),
		newNotesCmd(),
		newConnectionsCmd(),
		newStartersCmd(),
		newTrackCmd(),
		newComposeCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// Wiring
// ---------------------------------------------------------------------------

// app holds the services shared by all commands.
type app struct {
	cfg         *config.File
	logger      *zap.Logger
	prefs       *settings.FileStore
	culture     *culture.Context
	corrections *learning.POStore
	pipeline    *translate.Pipeline
	bridge      *bridge.Bridge
}

// setup loads configuration, restores the cultural context and builds the
// pipelines.
func setup() (*app, error) {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level)
	if err != nil {
		return nil, err
	}

	prefs, err := settings.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	cc := culture.New(prefs, culture.WithLogger(logger.Named("culture")))
	cc.Init(culture.DetectLocale(os.Getenv))
	i18n.Init(cc.Language())

	corrections := learning.NewPOStore(settings.CorrectionsDir(prefs.Dir), logger.Named("learning"))

	pipeline := translate.New(translate.Options{
		Translator: translate.NewDictionaryTranslator(&translate.DictionaryTranslatorConfig{
			ProcessingDelay: cfg.Translation.ProcessingDelay,
			Dictionary:      translate.MergeDictionary(translate.DefaultDictionary(), cfg.Dictionary()),
		}),
		Corrections: corrections,
		Logger:      logger.Named("translate"),
	})

	br, err := bridge.New(bridge.Options{
		MaxConnections:  cfg.Bridge.MaxConnections,
		SensitiveTopics: cfg.SensitiveTopics(),
		Logger:          logger.Named("bridge"),
	})
	if err != nil {
		return nil, err
	}

	if cfg.Path() != "" {
		logger.Debug("configuration loaded", zap.String("path", cfg.Path()))
	}

	return &app{
		cfg:         cfg,
		logger:      logger,
		prefs:       prefs,
		culture:     cc,
		corrections: corrections,
		pipeline:    pipeline,
		bridge:      br,
	}, nil
}

// close waits for background correction writes and flushes logs.
func (a *app) close() {
	a.pipeline.Wait()
	_ = a.logger.Sync()
}

// pair resolves --from/--to flags. An empty --from means the active
// language; an empty --to is an error.
func (a *app) pair(from, to string) (culture.Language, culture.Language, error) {
	source := a.culture.Language()
	if from != "" {
		l, err := culture.ParseLanguage(from)
		if err != nil {
			return "", "", err
		}
		source = l
	}
	if to == "" {
		return "", "", fmt.Errorf("--to is required (one of %s)", languageList())
	}
	target, err := culture.ParseLanguage(to)
	if err != nil {
		return "", "", err
	}
	return source, target, nil
}

func languageList() string {
	var names []string
	for _, l := range culture.Languages() {
		names = append(names, string(l))
	}
	return strings.Join(names, ", ")
}

func completeLanguages(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, l := range culture.Languages() {
		out = append(out, string(l)+"\t"+langmeta.Label(l))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func addPairFlags(cmd *cobra.Command, from, to *string) {
	cmd.Flags().StringVar(from, "from", "", "Source language (default: active language)")
	cmd.Flags().StringVar(to, "to", "", "Target language (required)")
	_ = cmd.RegisterFlagCompletionFunc("from", completeLanguages)
	_ = cmd.RegisterFlagCompletionFunc("to", completeLanguages)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// progressBar renders a colored bar for a 0-100 percentage.
func progressBar(percent, width int) string {
	percent = max(0, min(100, percent))
	filled := percent * width / 100

	color := colorRed
	switch {
	case percent >= 80:
		color = colorGreen
	case percent >= 50:
		color = colorYellow
	}
	return color + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + colorReset + fmt.Sprintf(" %3d%%", percent)
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("veravista version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// language (show / set / reset the cultural context)
// ---------------------------------------------------------------------------

func newLanguageCmd() *cobra.Command {
	var (
		overrides []string
		dense     bool
		indirect  bool
	)

	cmd := &cobra.Command{
		Use:   "language",
		Short: "Show or change the active cultural context",
		Long: `Show the active language and its cultural settings.

The active language comes from a previous "language set", or else from the
LANGUAGE, LC_ALL, LC_MESSAGES and LANG environment variables.

--override and the quiz flags adjust settings for this invocation only.

Examples:
  veravista language
  veravista language set urdu
  veravista language --override layoutDensity=dense`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			for _, kv := range overrides {
				key, value, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("--override expects key=value, got %q", kv)
				}
				if err := a.culture.UpdateCulturalSetting(culture.SettingKey(strings.TrimSpace(key)), strings.TrimSpace(value)); err != nil {
					return err
				}
			}
			if dense || indirect {
				a.culture.ApplyPreferenceQuiz(culture.QuizResults{
					PrefersDenseInformation:      dense,
					PrefersIndirectCommunication: indirect,
				})
			}

			showLanguage(cmd.OutOrStdout(), a.culture)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&overrides, "override", nil, "Override a cultural setting for this run (key=value)")
	cmd.Flags().BoolVar(&dense, "prefer-dense", false, "Quiz answer: prefer dense information layouts")
	cmd.Flags().BoolVar(&indirect, "prefer-indirect", false, "Quiz answer: prefer indirect communication")

	cmd.AddCommand(newLanguageSetCmd(), newLanguageResetCmd())
	return cmd
}

func newLanguageSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "set <language>",
		Short:             "Change and persist the active language",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeLanguages,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			lang, perr := culture.ParseLanguage(args[0])
			if perr != nil {
				lang = culture.Language(args[0])
			}
			changed, err := a.culture.ChangeLanguage(lang)
			if !changed {
				logWarning(i18n.T("Unsupported language %q, keeping %s"), args[0], a.culture.Language())
				return nil
			}
			i18n.Init(a.culture.Language())
			if err != nil {
				logWarning(i18n.T("Language changed for this session only: %v"), err)
			} else {
				logSuccess(i18n.T("Language changed to %s"), langmeta.Label(lang))
			}
			showLanguage(cmd.OutOrStdout(), a.culture)
			return nil
		},
	}
}

func newLanguageResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the saved language and use locale detection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootDir)
			if err != nil {
				return err
			}
			prefs, err := settings.NewFileStore(cfg.DataDir)
			if err != nil {
				return err
			}
			if err := prefs.Reset(); err != nil {
				return err
			}
			logSuccess(i18n.T("Saved language removed: %s"), prefs.Path())
			return nil
		},
	}
}

func showLanguage(w io.Writer, cc *culture.Context) {
	lang, s := cc.Snapshot()
	meta := langmeta.Of(lang)

	fmt.Fprintf(w, "%s: %s\n", i18n.T("Active language"), langmeta.Label(lang))
	fmt.Fprintf(w, "%s: %s\n", i18n.T("Script direction"), meta.Direction)
	fmt.Fprintf(w, "%s:\n", i18n.T("Cultural settings"))
	for _, key := range culture.SettingKeys() {
		v, _ := s.Get(key)
		fmt.Fprintf(w, "  %-18s %s\n", key, v)
	}
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	var (
		from, to string
		formal   bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "translate <text>...",
		Short: "Translate text with cultural notes",
		Long: `Translate text through the cultural translation pipeline.

Idioms and cultural references in the source are explained for the target
audience, and the result carries a confidence score.

Examples:
  veravista translate --to urdu "Hello"
  veravista translate --from english --to chinese --formal "Thank you"
  veravista translate --to chinese --json "It was a piece of cake"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			source, target, err := a.pair(from, to)
			if err != nil {
				return err
			}
			uc := map[string]any{}
			if formal {
				uc["formality"] = "formal"
			}

			res, err := a.pipeline.TranslateWithContext(cmd.Context(), strings.Join(args, " "), source, target, uc)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	addPairFlags(cmd, &from, &to)
	cmd.Flags().BoolVar(&formal, "formal", false, "Use a formal register")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func printResult(w io.Writer, res translate.Result) {
	fmt.Fprintln(w, res.TranslatedText)
	fmt.Fprintf(w, "\n%s: %s\n", i18n.T("Confidence"), progressBar(int(res.ConfidenceScore*100+0.5), 20))
	if len(res.CulturalNotes) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", i18n.T("Cultural notes"))
	for _, n := range res.CulturalNotes {
		fmt.Fprintf(w, "  • %s: %s\n", n.Original, n.Explanation)
	}
}

// ---------------------------------------------------------------------------
// alternatives
// ---------------------------------------------------------------------------

func newAlternativesCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "alternatives <phrase>...",
		Short: "Show alternative phrasings for different registers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			source, target, err := a.pair(from, to)
			if err != nil {
				return err
			}
			alts, err := a.pipeline.GetAlternativeTranslations(cmd.Context(), strings.Join(args, " "), source, target)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for i, alt := range alts {
				fmt.Fprintf(w, "%d. %s\n   %s %s\n", i+1, alt.Text, alt.ContextNote, progressBar(int(alt.ConfidenceScore*100+0.5), 10))
			}
			return nil
		},
	}

	addPairFlags(cmd, &from, &to)
	return cmd
}

// ---------------------------------------------------------------------------
// correct
// ---------------------------------------------------------------------------

func newCorrectCmd() *cobra.Command {
	var (
		from, to string
		list     bool
	)

	cmd := &cobra.Command{
		Use:   "correct <original> <machine translation> <corrected>",
		Short: "Submit or list translation corrections",
		Long: `Submit a correction to a machine translation.

Corrections are stored as gettext PO files in the data directory, one file
per language pair, so they can be reviewed with standard PO tooling.
Submitting the same correction twice has no effect.

Examples:
  veravista correct --to urdu "Good morning" "[ur] Good morning" "Subah bakhair"
  veravista correct --to urdu --list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			source, target, err := a.pair(from, to)
			if err != nil {
				return err
			}
			if list {
				return listCorrections(cmd.OutOrStdout(), a, source, target)
			}
			if len(args) != 3 {
				return fmt.Errorf("expected 3 arguments (original, machine translation, corrected), got %d", len(args))
			}

			ack := a.pipeline.SubmitTranslationCorrection(cmd.Context(), args[0], args[1], args[2], source, target)
			a.pipeline.Wait()
			logSuccess("%s", i18n.T(ack.Message))
			return nil
		},
	}

	addPairFlags(cmd, &from, &to)
	cmd.Flags().BoolVar(&list, "list", false, "List stored corrections for the language pair")
	return cmd
}

func listCorrections(w io.Writer, a *app, source, target culture.Language) error {
	cs, err := a.corrections.List(source, target)
	if err != nil {
		return err
	}
	if len(cs) == 0 {
		logInfo(i18n.T("No corrections for %s → %s"), source, target)
		return nil
	}
	fmt.Fprintf(w, i18n.N("%d correction", "%d corrections", len(cs))+"\n", len(cs))
	for _, c := range cs {
		fmt.Fprintf(w, "  %s\n    - %s\n    + %s\n", c.Original, c.MachineTranslated, c.Corrected)
	}
	if summary, err := a.corrections.Summary(); err == nil {
		logInfo("%s: %s", i18n.T("Ledger"), summary)
	}
	return nil
}

// ---------------------------------------------------------------------------
// notes
// ---------------------------------------------------------------------------

func newNotesCmd() *cobra.Command {
	var from, to, topic string

	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Cultural context notes for a conversation topic",
		Long: `Print communication style, topic sensitivity and etiquette notes for a
conversation between speakers of two languages.

Example:
  veravista notes --from english --to chinese --topic "political criticism"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			source, target, err := a.pair(from, to)
			if err != nil {
				return err
			}
			notes, err := a.bridge.GetCulturalContextNotes(cmd.Context(), source, target, topic)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, n := range notes {
				fmt.Fprintf(w, "[%s]\n  %s\n", n.Type, n.Note)
			}
			return nil
		},
	}

	addPairFlags(cmd, &from, &to)
	cmd.Flags().StringVar(&topic, "topic", "", "Conversation topic")
	return cmd
}

// ---------------------------------------------------------------------------
// connections
// ---------------------------------------------------------------------------

func newConnectionsCmd() *cobra.Command {
	var user, interests, langs string

	cmd := &cobra.Command{
		Use:   "connections",
		Short: "Find people who share your interests in other languages",
		Long: `Rank people in other languages by how many interests you share.

Example:
  veravista connections --user me --interests poetry,cooking --langs urdu,chinese`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			var targets []culture.Language
			for _, s := range splitList(langs) {
				l, err := culture.ParseLanguage(s)
				if err != nil {
					return err
				}
				targets = append(targets, l)
			}
			if len(targets) == 0 {
				for _, l := range culture.Languages() {
					if l != a.culture.Language() {
						targets = append(targets, l)
					}
				}
			}

			found, err := a.bridge.FindCrossLanguageConnections(cmd.Context(), user, a.culture.Language(), splitList(interests), targets)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, lang := range targets {
				conns := found[lang]
				fmt.Fprintf(w, "%s (%s)\n", langmeta.Label(lang), fmt.Sprintf(i18n.N("%d connection", "%d connections", len(conns)), len(conns)))
				for _, c := range conns {
					fmt.Fprintf(w, "  %-16s %-10s %s\n", c.ID, c.Name, progressBar(int(c.CompatibilityScore*100+0.5), 10))
					fmt.Fprintf(w, "    %s\n", c.CulturalInsight)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Your user ID (excluded from results)")
	cmd.Flags().StringVar(&interests, "interests", "", "Your interests (comma-separated)")
	cmd.Flags().StringVar(&langs, "langs", "", "Languages to search (comma-separated, default: all others)")
	return cmd
}

// ---------------------------------------------------------------------------
// starters
// ---------------------------------------------------------------------------

func newStartersCmd() *cobra.Command {
	var from, to, interests string

	cmd := &cobra.Command{
		Use:   "starters",
		Short: "Conversation starters for a language pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			source, target, err := a.pair(from, to)
			if err != nil {
				return err
			}
			starters, err := a.bridge.GenerateConversationStarters(cmd.Context(), source, target, splitList(interests))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for i, s := range starters {
				fmt.Fprintf(w, "%d. %s\n   (%s)\n", i+1, s.Text, s.CulturalContext)
			}
			return nil
		},
	}

	addPairFlags(cmd, &from, &to)
	cmd.Flags().StringVar(&interests, "interests", "", "Shared interests (comma-separated)")
	return cmd
}

// ---------------------------------------------------------------------------
// track
// ---------------------------------------------------------------------------

func newTrackCmd() *cobra.Command {
	var (
		user, connection, topics string
		in                       bridge.Interaction
	)

	cmd := &cobra.Command{
		Use:   "track",
		Short: "Score a cross-language conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			in.CulturalTopics = splitList(topics)
			insights, err := a.bridge.TrackInteraction(cmd.Context(), user, connection, in)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: %s\n", i18n.T("Quality score"), progressBar(int(insights.QualityScore*100+0.5), 20))
			fmt.Fprintln(w, insights.Insights)
			fmt.Fprintf(w, "%s:\n", i18n.T("Recommendations"))
			for _, r := range insights.Recommendations {
				fmt.Fprintf(w, "  • %s\n", r)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Your user ID")
	cmd.Flags().StringVar(&connection, "connection", "", "Connection user ID")
	cmd.Flags().IntVar(&in.MessagesSent, "sent", 0, "Messages you sent")
	cmd.Flags().IntVar(&in.MessagesReceived, "received", 0, "Messages you received")
	cmd.Flags().IntVar(&in.QuestionsAsked, "questions", 0, "Questions asked")
	cmd.Flags().StringVar(&topics, "topics", "", "Cultural topics discussed (comma-separated)")
	return cmd
}

// ---------------------------------------------------------------------------
// compose (interactive debounced preview)
// ---------------------------------------------------------------------------

func newComposeCmd() *cobra.Command {
	var (
		to, recipient string
		formal        bool
	)

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose a message with a live translation preview",
		Long: `Read draft lines from stdin and show a translation preview once typing
pauses. Each line replaces the draft. Commands:

  /send        translate and send the current draft
  /alt         replace the preview with the best alternative phrasing
  /to <lang>   change the recipient's language
  /quit        exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			source, target, err := a.pair("", to)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			uc := map[string]any{}
			if formal {
				uc["formality"] = "formal"
			}
			out := &syncWriter{w: cmd.OutOrStdout()}
			c := composer.NewComposer(a.pipeline, "me", recipient, source, target,
				composer.WithDebounce(a.cfg.Preview.Debounce),
				composer.WithLogger(a.logger.Named("composer")),
				composer.WithUserContext(uc),
				composer.OnUpdate(func(p *composer.Preview) {
					if p == nil {
						return
					}
					fmt.Fprintf(out, "  %s %s\n", i18n.T("Preview:"), p.Result.TranslatedText)
				}))
			defer c.Close()

			return runCompose(ctx, c, cmd.InOrStdin(), out)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient's language (required)")
	cmd.Flags().StringVar(&recipient, "recipient", "friend", "Recipient name")
	cmd.Flags().BoolVar(&formal, "formal", false, "Use a formal register")
	_ = cmd.RegisterFlagCompletionFunc("to", completeLanguages)
	return cmd
}

// syncWriter serializes writes from the preview callback and the input
// loop. fmt.Fprintf issues one Write per call, so lines never interleave.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// runCompose feeds input lines to c until EOF, /quit or cancellation.
func runCompose(ctx context.Context, c *composer.Composer, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit, err := composeLine(ctx, c, line, out); err != nil {
				logError("%v", err)
			} else if quit {
				return nil
			}
		}
	}
}

func composeLine(ctx context.Context, c *composer.Composer, line string, out io.Writer) (quit bool, err error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	switch cmd {
	case "/quit":
		return true, nil
	case "/send":
		msg, err := c.Send(ctx, c.Text())
		if errors.Is(err, composer.ErrEmptyMessage) {
			logWarning("%s", i18n.T("Nothing to send"))
			return false, nil
		}
		if err != nil {
			return false, err
		}
		sent := msg.Text
		if msg.Translation != nil {
			sent = msg.Translation.TranslatedText
		}
		logSuccess(i18n.T("Sent to %s: %s"), msg.Recipient, sent)
		return false, nil
	case "/alt":
		alt, err := c.RequestAlternative(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(out, "  %s %s (%s)\n", i18n.T("Preview:"), alt.Text, alt.ContextNote)
		return false, nil
	case "/to":
		lang, err := culture.ParseLanguage(arg)
		if err != nil {
			return false, err
		}
		source, _ := c.Languages()
		c.SetLanguages(source, lang)
		logInfo(i18n.T("Now writing to a %s speaker"), langmeta.Of(lang).English)
		return false, nil
	}
	c.SetText(line)
	return false, nil
}
