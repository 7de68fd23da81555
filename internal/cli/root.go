// Package cli implements internctl, the terminal client of the internship backend.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/okian/internboard/internal/adapters/backend"
	"github.com/okian/internboard/internal/domain/roster"
	"github.com/okian/internboard/internal/domain/scoring"
	"github.com/okian/internboard/internal/domain/tier"
	"github.com/okian/internboard/pkg/logger"
)

// Environment variables read as flag defaults.
const (
	EnvURL      = "INTERNBOARD_BACKEND_URL"
	EnvToken    = "INTERNBOARD_BACKEND_TOKEN"
	EnvEmail    = "INTERNBOARD_BACKEND_EMAIL"
	EnvPassword = "INTERNBOARD_BACKEND_PASSWORD"
)

const (
	defaultURL     = "http://localhost:5000/api"
	defaultTimeout = 10 * time.Second
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// ErrUsage marks bad flags or arguments.
var ErrUsage = errors.New("usage")

type globals struct {
	url         string
	token       string
	email       string
	password    string
	timeout     time.Duration
	output      string
	missing     string
	zeroMissing bool
	verbose     bool
}

// LoadEnv reads .env style files into the process environment. Missing files
// are ignored and variables already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// NewRootCommand builds the internctl command tree.
func NewRootCommand() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "internctl",
		Short:         "Inspect and manage interns from the terminal",
		Long:          "internctl talks to the internship backend and shows every intern with its performance tier.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			switch g.output {
			case OutputTable, OutputJSON:
			default:
				return fmt.Errorf("%w: --output must be table or json", ErrUsage)
			}
			if _, ok := tier.ParseMissingPolicy(g.missing); !ok {
				return fmt.Errorf("%w: --missing must be unrated or lowest", ErrUsage)
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.url, "url", envOr(EnvURL, defaultURL), "Backend base URL")
	pf.StringVar(&g.token, "token", os.Getenv(EnvToken), "Bearer token for the backend")
	pf.StringVar(&g.email, "email", os.Getenv(EnvEmail), "Login email used when no token is given")
	pf.StringVar(&g.password, "password", os.Getenv(EnvPassword), "Login password used when no token is given")
	pf.DurationVar(&g.timeout, "timeout", defaultTimeout, "Per-request timeout")
	pf.StringVarP(&g.output, "output", "o", OutputTable, "Output format (table|json)")
	pf.StringVar(&g.missing, "missing", tier.MissingAsUnrated.String(), "How to render missing scores (unrated|lowest)")
	pf.BoolVar(&g.zeroMissing, "zero-missing", false, "Treat a score of exactly 0 as missing")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "Log backend calls to stderr")

	root.AddCommand(
		newClassifyCommand(g),
		newTiersCommand(g),
		newInternsCommand(g),
		newRankingsCommand(g),
		newLORCommand(g),
		newSeedCommand(g),
	)
	return root
}

// Execute runs internctl with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (g *globals) classifier() *tier.Classifier {
	policy, _ := tier.ParseMissingPolicy(g.missing)
	return tier.New(tier.WithMissingPolicy(policy), tier.WithZeroAsMissing(g.zeroMissing))
}

func (g *globals) view() *roster.View {
	return roster.NewView(g.classifier(), scoring.NewAggregator())
}

func (g *globals) client() (*backend.Client, error) {
	l := logger.Nop()
	if g.verbose {
		l = logger.New(os.Stderr, slog.LevelDebug).Named("internctl")
	}
	opts := []backend.Option{
		backend.WithTimeout(g.timeout),
		backend.WithLogger(l),
	}
	if g.token != "" {
		opts = append(opts, backend.WithToken(g.token))
	}
	if g.email != "" && g.password != "" {
		opts = append(opts, backend.WithCredentials(g.email, g.password))
	}
	return backend.New(g.url, opts...)
}

func (g *globals) json() bool { return g.output == OutputJSON }
