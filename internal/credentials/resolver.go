package credentials

import (
	"fmt"
	"os"

	"tunnelmaker/internal/logger"

	"gopkg.in/ini.v1"
)

const (
	apiKeyKey     = "apikey"
	apiBaseURLKey = "apibaseurl"
)

// EnvVars are checked in order; the first non-empty one supplies the API key.
var EnvVars = []string{"RESCALE_API_US_PROD", "RESCALE_API_KEY"}

type Resolver struct {
	Options Options
	Logger  *logger.Logger
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

func NewResolver(opts Options, log *logger.Logger) *Resolver {
	return &Resolver{
		Options:   opts,
		Logger:    log,
		LookupEnv: os.LookupEnv,
	}
}

// Resolve returns the API key from the environment if present, otherwise
// from the configured profile of the API config file.
func (r *Resolver) Resolve() (*Credentials, error) {
	creds := r.fromEnv()

	if creds == nil {
		var err error
		creds, err = r.fromConfigFile()
		if err != nil {
			return nil, err
		}
	}

	r.Logger.Info("api_base_url is %s.", creds.BaseURL)

	return creds, nil
}

func (r *Resolver) fromEnv() *Credentials {
	lookup := r.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	for _, envVar := range EnvVars {
		if value, ok := lookup(envVar); ok && value != "" {
			r.Logger.Info("Read API key from environment variable %s.", envVar)
			return &Credentials{
				APIKey:  value,
				BaseURL: r.Options.BaseURL,
				Source:  envVar,
			}
		}
	}

	return nil
}

func (r *Resolver) fromConfigFile() (*Credentials, error) {
	path := r.Options.ConfigFile
	profile := r.Options.Profile

	r.Logger.Info("Reading API configuration file %s, profile: %q", path, profile)

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys:     true,
		IgnoreInlineComment: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToReadConfigFile, err)
	}

	section, err := cfg.GetSection(profile)
	if err != nil {
		r.Logger.Error("Profile %q not found in file %s.", profile, path)
		return nil, fmt.Errorf("%w: %q in %s", ErrProfileNotFound, profile, path)
	}

	if !section.HasKey(apiKeyKey) || !section.HasKey(apiBaseURLKey) {
		r.Logger.Error("Keys '%s' and '%s' must be defined for profile %q in file %s.", apiKeyKey, apiBaseURLKey, profile, path)
		return nil, fmt.Errorf("%w: profile %q in %s", ErrMissingProfileKeys, profile, path)
	}

	return &Credentials{
		APIKey:  section.Key(apiKeyKey).String(),
		BaseURL: section.Key(apiBaseURLKey).String(),
		Source:  fmt.Sprintf("%s[%s]", path, profile),
	}, nil
}
