package credentials

// Credentials holds what is needed to talk to the Rescale API.
type Credentials struct {
	APIKey  string
	BaseURL string
	// Source describes where APIKey was found, for logging only.
	Source string
}

// Options selects where credentials are looked up.
type Options struct {
	ConfigFile string
	Profile    string
	BaseURL    string
}
