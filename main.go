package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sort"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/alexbotov/showcase/internal/auth"
	"github.com/alexbotov/showcase/internal/config"
	"github.com/alexbotov/showcase/internal/fakeserver"
	"github.com/alexbotov/showcase/internal/logging"
	"github.com/alexbotov/showcase/internal/store"
	"github.com/alexbotov/showcase/pkg/showcase"
	"github.com/alexbotov/showcase/pkg/yoomoney"
)

const (
	actionSubmit = "Submit"
	actionBack   = "Back"
	actionSave   = "Save and quit"
	actionQuit   = "Quit"
)

type options struct {
	configPath string
	pattern    string
	resume     string
	demo       bool
	pay        bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&opts.pattern, "pattern", "", "showcase pattern ID")
	flag.StringVar(&opts.resume, "resume", "", "resume the walk saved under this key")
	flag.BoolVar(&opts.demo, "demo", false, "serve demo showcases in-process")
	flag.BoolVar(&opts.pay, "pay", false, "request payment when the showcase completes")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintln(os.Stderr, "showcase:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	if opts.demo {
		addr, shutdown, err := startDemo(cfg, logger)
		if err != nil {
			return err
		}
		defer shutdown()
		cfg.Client.BaseURL = "http://" + addr
		if opts.pattern == "" {
			opts.pattern = "mobile"
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if opts.pattern == "" && opts.resume == "" {
		return errors.New("-pattern or -resume is required")
	}
	if opts.resume != "" && !cfg.Store.Persistent() {
		return fmt.Errorf("-resume needs a persistent store, store.driver is %q", cfg.Store.Driver)
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	client, err := yoomoney.NewClient(&yoomoney.ClientConfig{
		BaseURL:       cfg.Client.BaseURL,
		ClientID:      cfg.Client.ClientID,
		AccessToken:   cfg.Client.AccessToken,
		SigningSecret: cfg.Client.SigningSecret,
		UserAgent:     cfg.Client.UserAgent,
		Timeout:       cfg.Client.Timeout,
		MaxRedirects:  cfg.Client.MaxRedirects,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	w := &walker{
		nav:    client.Navigator(),
		client: client,
		store:  st,
		logger: logger,
		key:    opts.pattern,
		pay:    opts.pay,

		persistent: cfg.Store.Persistent(),
	}

	var wc *showcase.Context
	if opts.resume != "" {
		w.key = opts.resume
		if wc, err = st.Load(ctx, opts.resume); err != nil {
			return fmt.Errorf("resume %s: %w", opts.resume, err)
		}
	} else if wc, err = w.nav.Begin(ctx, client.Showcase(opts.pattern)); err != nil {
		return err
	}
	if opts.pattern == "" && wc.Current() != nil {
		opts.pattern = wc.Current().Params()["pattern_id"]
	}
	w.pattern = opts.pattern
	return w.walk(ctx, wc)
}

// startDemo serves the demo showcases on a loopback port
func startDemo(cfg *config.Config, logger *slog.Logger) (string, func(), error) {
	serverOpts := []fakeserver.Option{fakeserver.WithLogger(logger)}
	for _, p := range fakeserver.DemoPatterns() {
		serverOpts = append(serverOpts, fakeserver.WithPattern(p))
	}
	if cfg.Client.SigningSecret != "" {
		verifier, err := auth.NewSigner(cfg.Client.SigningSecret, cfg.Client.ClientID)
		if err != nil {
			return "", nil, err
		}
		serverOpts = append(serverOpts, fakeserver.WithVerifier(verifier))
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("demo server: %w", err)
	}
	srv := &http.Server{Handler: fakeserver.New(serverOpts...).Router()}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("demo server stopped", "error", err)
		}
	}()
	logger.Info("demo payment service started", "addr", ln.Addr().String())
	return ln.Addr().String(), func() { srv.Close() }, nil
}

type walker struct {
	nav     *showcase.Navigator
	client  *yoomoney.Client
	store   store.Store
	logger  *slog.Logger
	key     string
	pattern string
	pay     bool

	persistent bool
}

func (w *walker) walk(ctx context.Context, wc *showcase.Context) error {
	for {
		switch wc.State() {
		case showcase.StateNotModified:
			fmt.Println("Showcase unchanged since the last walk.")
			return nil

		case showcase.StateCompleted:
			return w.finish(ctx, wc)
		}

		step := wc.Current()
		if step == nil {
			return errors.New("context has no page to present")
		}
		action, err := w.present(step)
		if errors.Is(err, terminal.InterruptErr) {
			action = w.stopAction()
		} else if err != nil {
			return err
		}

		switch action {
		case actionBack:
			wc.PopHistory()
		case actionSave:
			if err := w.store.Save(ctx, w.key, wc); err != nil {
				return err
			}
			fmt.Printf("Saved. Resume with -resume %s\n", w.key)
			return nil
		case actionQuit:
			return nil
		default:
			if _, err := w.nav.Submit(ctx, wc); err != nil {
				return err
			}
			if err := w.store.Save(ctx, w.key, wc); err != nil {
				w.logger.Warn("failed to save progress", "key", w.key, "error", err)
			}
		}
	}
}

// present prompts for every editable field of step and asks what to do next
func (w *walker) present(step *showcase.Step) (string, error) {
	if step.Form.Title != "" {
		fmt.Printf("\n== %s ==\n", step.Form.Title)
	}
	for _, fe := range step.Form.Errors {
		fmt.Printf("  ! %s: %s\n", fe.Name, fe.Alert)
	}

	for _, field := range step.Form.Fields {
		if field.ReadOnly {
			continue
		}
		label := field.Label
		if label == "" {
			label = field.Name
		}
		var value string
		prompt := &survey.Input{Message: label, Default: currentValue(step, field)}
		askOpts := []survey.AskOpt{}
		if field.Required {
			askOpts = append(askOpts, survey.WithValidator(survey.Required))
		}
		if err := survey.AskOne(prompt, &value, askOpts...); err != nil {
			return "", err
		}
		step.Set(field.Name, value)
	}

	if !step.Submittable() {
		return w.stopAction(), nil
	}
	var action string
	err := survey.AskOne(&survey.Select{
		Message: "Next",
		Options: w.actions(),
		Default: actionSubmit,
	}, &action)
	return action, err
}

// actions lists the choices offered after a page is filled in. Saving is
// only offered when the store outlives the process.
func (w *walker) actions() []string {
	return []string{actionSubmit, actionBack, w.stopAction()}
}

func (w *walker) stopAction() string {
	if w.persistent {
		return actionSave
	}
	return actionQuit
}

func (w *walker) finish(ctx context.Context, wc *showcase.Context) error {
	answers := wc.Answers()
	fmt.Println("\nShowcase completed:")
	for _, k := range sortedKeys(answers) {
		fmt.Printf("  %s = %s\n", k, answers[k])
	}

	if err := w.store.Delete(ctx, w.key); err != nil {
		w.logger.Warn("failed to drop saved progress", "key", w.key, "error", err)
	}
	if !w.pay {
		return nil
	}

	result, err := w.client.RequestPayment(ctx, w.pattern, answers)
	if err != nil {
		return err
	}
	fmt.Printf("Payment requested: %s (request %s, amount %s)\n", result.Status, result.RequestID, result.ContractAmount)
	return nil
}

// currentValue is what a field shows before the user edits it
func currentValue(step *showcase.Step, field showcase.Field) string {
	if v, ok := step.Values[field.Name]; ok {
		return v
	}
	return field.Value
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
