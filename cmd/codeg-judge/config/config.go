package config

import (
	"os"
	"strings"
	"time"

	"github.com/codeg/judge/envexec"
	"github.com/joho/godotenv"
	"github.com/koding/multiconfig"
)

// Config defines judge server configuration
type Config struct {
	// workspace
	Dir         string `flagUsage:"specifies the ephemeral workspace directory (default <tmp>/codeg-judge)"`
	Marker      string `flagUsage:"specifies the path segment identifying workspace paths in diagnostics (default base name of dir)"`
	Placeholder string `flagUsage:"specifies the text replacing workspace paths in diagnostics" default:"your_code"`

	// uploaded sources
	UploadDir     string        `flagUsage:"specifies directory to store uploaded sources (in memory by default)"`
	UploadTimeout time.Duration `flagUsage:"specifies timeout for uploaded sources" default:"10m"`

	// limits
	RunTimeLimit       time.Duration `flagUsage:"specifies time limit for custom input and sample runs" default:"1s"`
	RunMemoryLimit     *envexec.Size `flagUsage:"specifies memory limit for custom input and sample runs" default:"128m"`
	DefaultTimeLimit   time.Duration `flagUsage:"specifies submission time limit when not given" default:"3s"`
	DefaultMemoryLimit *envexec.Size `flagUsage:"specifies submission memory limit when not given" default:"128m"`
	CompileTimeLimit   time.Duration `flagUsage:"specifies compile time limit" default:"10s"`
	OutputLimit        *envexec.Size `flagUsage:"specifies captured stdout / stderr limit for each run" default:"64m"`

	// languages
	CFlags       string `flagUsage:"overrides C compiler flags"`
	CppFlags     string `flagUsage:"overrides C++ compiler flags"`
	LanguageConf string `flagUsage:"specifies language configuration file" default:"languages.yaml"`
	SeccompConf  string `flagUsage:"specifies seccomp filter" default:"seccomp.yaml"`
	Comparator   string `flagUsage:"output comparator (text / structural)" default:"text"`

	// problem catalog
	BackendURL      string        `flagUsage:"specifies the problem catalog base url"`
	BackendTimeout  time.Duration `flagUsage:"specifies the problem catalog request timeout" default:"5s"`
	RedisAddr       string        `flagUsage:"specifies redis address to cache problems (disabled if empty)"`
	RedisPassword   string        `flagUsage:"specifies redis password"`
	ProblemCacheTTL time.Duration `flagUsage:"specifies problem cache ttl" default:"5m"`

	// callback
	CallbackTimeout    time.Duration `flagUsage:"specifies callback request timeout" default:"10s"`
	CallbackRetries    int           `flagUsage:"specifies callback retries" default:"3"`
	CallbackSigningKey string        `flagUsage:"sign callback bodies with HS256 token when set"`

	// hint generator
	GeminiAPIKey string `flagUsage:"specifies the gemini api key (hint endpoints disabled if empty)"`
	GeminiModel  string `flagUsage:"specifies the gemini model" default:"gemini-2.5-pro"`

	// server config
	HTTPAddr      string `flagUsage:"specifies the http binding address" default:":5000"`
	MonitorAddr   string `flagUsage:"specifies the metrics binding address" default:":5052"`
	AuthToken     string `flagUsage:"bearer token auth for REST"`
	CORSOrigins   string `flagUsage:"comma separated allowed origins for browsers"`
	EnableDebug   bool   `flagUsage:"enable debug endpoint"`
	EnableMetrics bool   `flagUsage:"enable promethus metrics endpoint"`

	// logger config
	Release bool `flagUsage:"release level of logs"`
	Silent  bool `flagUsage:"do not print logs"`

	// show version and exit
	Version bool `flagUsage:"show version and exit"`
}

// Load loads config from .env, flag & environment variables
func (c *Config) Load() error {
	// .env is optional, existing environment variables take precedence
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return err
	}
	cl := multiconfig.MultiLoader(
		&multiconfig.TagLoader{},
		&multiconfig.EnvironmentLoader{
			Prefix:    "CJ",
			CamelCase: true,
		},
		&multiconfig.FlagLoader{
			CamelCase: true,
			EnvPrefix: "CJ",
		},
	)
	if os.Getpid() == 1 {
		c.Release = true
	}
	return cl.Load(c)
}

// Origins returns the allowed CORS origins
func (c *Config) Origins() []string {
	var rt []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			rt = append(rt, o)
		}
	}
	return rt
}
