/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/Seednode/partydeck/games/session"
)

type Config struct {
	animationGrace time.Duration
	bind           string
	playerTimeout  time.Duration
	port           int
	prefix         string
	profile        bool
	rateBurst      int
	rateLimit      float64
	resultsDelay   time.Duration
	rounds         int
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
	voteWindow     time.Duration

	log zerolog.Logger
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}

	for name, d := range map[string]time.Duration{
		"animation-grace": c.animationGrace,
		"player-timeout":  c.playerTimeout,
		"results-delay":   c.resultsDelay,
		"session-timeout": c.sessionTimeout,
		"vote-window":     c.voteWindow,
	} {
		if d <= 0 {
			return fmt.Errorf("invalid --%s (must be positive): %s", name, d)
		}
	}

	if c.rounds < 1 {
		return fmt.Errorf("invalid --rounds (must be at least 1): %d", c.rounds)
	}
	if c.rateLimit <= 0 || c.rateBurst < 1 {
		return fmt.Errorf("invalid rate limit (need a positive rate and a burst of at least 1): %v/%d", c.rateLimit, c.rateBurst)
	}

	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func (c *Config) limiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(c.rateLimit), c.rateBurst)
}

func (c *Config) registryOptions(n session.Notifier) session.Options {
	return session.Options{
		Notifier:       n,
		Logger:         c.log.With().Str("component", "rooms").Logger(),
		IdleTimeout:    c.sessionTimeout,
		PlayerTimeout:  c.playerTimeout,
		AnimationGrace: c.animationGrace,
		VoteWindow:     c.voteWindow,
		ResultsDelay:   c.resultsDelay,
		Rounds:         c.rounds,
	}
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("PARTYDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "partydeck",
		Short:         "A shared-screen party card game, played from your phone.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.DurationVar(&cfg.animationGrace, "animation-grace", session.DefaultAnimationGrace, "extra time allowed for the display to finish an animation (env: PARTYDECK_ANIMATION_GRACE)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: PARTYDECK_BIND)")
	fs.DurationVar(&cfg.playerTimeout, "player-timeout", 10*time.Minute, "time before disconnected players are removed from a lobby (env: PARTYDECK_PLAYER_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: PARTYDECK_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: PARTYDECK_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: PARTYDECK_PROFILE)")
	fs.IntVar(&cfg.rateBurst, "rate-burst", 40, "websocket messages a client may send in a burst (env: PARTYDECK_RATE_BURST)")
	fs.Float64Var(&cfg.rateLimit, "rate-limit", 20, "sustained websocket messages per second per client (env: PARTYDECK_RATE_LIMIT)")
	fs.DurationVar(&cfg.resultsDelay, "results-delay", session.DefaultResultsDelay, "time results stay up before the next over/under round (env: PARTYDECK_RESULTS_DELAY)")
	fs.IntVar(&cfg.rounds, "rounds", 5, "rounds per over/under game (env: PARTYDECK_ROUNDS)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle rooms are closed (env: PARTYDECK_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: PARTYDECK_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: PARTYDECK_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: PARTYDECK_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: PARTYDECK_VERSION)")
	fs.DurationVar(&cfg.voteWindow, "vote-window", session.DefaultVoteWindow, "time players have to vote in an over/under round (env: PARTYDECK_VOTE_WINDOW)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("partydeck v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
