package app

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kobzarvs/qscribe/internal/config"
)

// RegisterFlags defines the flags shared by every command.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.Bool("debug", false, "Write debug messages to the log file")
	flags.Bool("no-session", false, "Do not restore or store the session")
	flags.Bool("hidden", false, "Search hidden files and directories")
	flags.Int("max-depth", 0, "Directory levels loaded below each project")
	flags.String("session-dir", "", "Directory holding untitled buffers")
	flags.String("log-file", "", "Log file path, or - for stderr")
}

// RegisterPatternFlags defines the pattern settings of search and replace.
func RegisterPatternFlags(flags *pflag.FlagSet) {
	flags.BoolP("case", "c", false, "Case sensitive matching")
	flags.BoolP("word", "w", false, "Match whole words only")
	flags.BoolP("regex", "r", false, "Treat the pattern as a regular expression")
}

// Options is the configuration a command runs with.
type Options struct {
	Config    config.Config
	Languages config.Languages
	Debug     bool
	LogFile   string
}

// LoadOptions reads config.toml and languages.toml and applies overrides.
// Priority: CLI flags > QSCRIBE_* environment variables > config file > defaults.
func LoadOptions(flags *pflag.FlagSet) (Options, error) {
	cfg, err := config.Load()
	if err != nil {
		return Options{}, err
	}
	langs, err := config.LoadLanguages()
	if err != nil {
		return Options{}, err
	}
	return applyOverrides(Options{Config: cfg, Languages: langs}, flags), nil
}

func applyOverrides(opts Options, flags *pflag.FlagSet) Options {
	v := viper.New()
	v.SetDefault("debug", false)
	v.SetDefault("no_session", !opts.Config.SessionEnabled())
	v.SetDefault("hidden", !opts.Config.IgnoreHidden())
	v.SetDefault("max_depth", opts.Config.Search.MaxDepth)
	v.SetDefault("session_dir", opts.Config.Session.Directory)
	v.SetDefault("log_file", "")

	v.SetEnvPrefix("QSCRIBE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		_ = v.BindPFlag("debug", flags.Lookup("debug"))
		_ = v.BindPFlag("no_session", flags.Lookup("no-session"))
		_ = v.BindPFlag("hidden", flags.Lookup("hidden"))
		_ = v.BindPFlag("max_depth", flags.Lookup("max-depth"))
		_ = v.BindPFlag("session_dir", flags.Lookup("session-dir"))
		_ = v.BindPFlag("log_file", flags.Lookup("log-file"))
	}

	opts.Debug = v.GetBool("debug")
	opts.LogFile = v.GetString("log_file")
	sessionEnabled := !v.GetBool("no_session")
	ignoreHidden := !v.GetBool("hidden")
	opts.Config.Session.Enabled = &sessionEnabled
	opts.Config.Search.IgnoreHidden = &ignoreHidden
	if depth := v.GetInt("max_depth"); depth > 0 {
		opts.Config.Search.MaxDepth = depth
	}
	opts.Config.Session.Directory = v.GetString("session_dir")
	return opts
}
