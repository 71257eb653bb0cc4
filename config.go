package snakeshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

const (
	LockLocal  = "local"
	LockFile   = "file"
	LockSQLite = "sqlite"
)

type Config struct {
	Concurrency int    `hcl:"concurrency,optional"`
	OutputPath  string `hcl:"output_path,optional"`
	ReportFile  string `hcl:"report_file,optional"`
	Quality     int    `hcl:"quality,optional"`
	StrictSized *bool  `hcl:"strict_sized,optional"`
	Listen      string `hcl:"listen,optional"`

	API      *APIConfigBlock      `hcl:"api,block"`
	Schedule *ScheduleConfigBlock `hcl:"schedule,block"`
	Lock     *LockConfigBlock     `hcl:"lock,block"`
	Colors   *ColorsConfigBlock   `hcl:"colors,block"`
	Sizes    []*SizeConfigBlock   `hcl:"size,block"`
}

type APIConfigBlock struct {
	Address         string `hcl:"address,optional"`
	ClientName      string `hcl:"client_name,optional"`
	Timeout         int    `hcl:"timeout,optional"`
	MaxMapDimension int    `hcl:"max_map_dimension,optional"`
}

type ScheduleConfigBlock struct {
	CaptureInterval int `hcl:"capture_interval,optional"`
	EvictInterval   int `hcl:"evict_interval,optional"`
}

type LockConfigBlock struct {
	Kind string `hcl:"kind,optional"`
	Path string `hcl:"path,optional"`
	TTL  int    `hcl:"ttl,optional"`
}

type ColorsConfigBlock struct {
	Background string `hcl:"background,optional"`
	Border     string `hcl:"border,optional"`
	Grid       string `hcl:"grid,optional"`
}

type SizeConfigBlock struct {
	Slug   string `hcl:"slug,label"`
	Length int    `hcl:"length"`
}

// envFunc exposes environment variables to config files:
//
//	address = env("SNAKE_API_ADDRESS", "http://localhost:8080/api")
var envFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
	},
	VarParam: &function.Parameter{Name: "default", Type: cty.String},
	Type:     function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		if v, ok := os.LookupEnv(args[0].AsString()); ok {
			return cty.StringVal(v), nil
		}
		if len(args) > 1 {
			return args[1], nil
		}
		return cty.StringVal(""), nil
	},
})

func newHCLEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{},
		Functions: map[string]function.Function{
			"env": envFunc,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	var cfg Config
	evalCtx := newHCLEvalContext()
	err := hclsimple.DecodeFile(path, evalCtx, &cfg)
	if err != nil {
		return nil, err
	}
	return cfg.finish()
}

// ParseConfig decodes config source. The filename selects the syntax
// (.hcl or .json) and is used in diagnostics.
func ParseConfig(filename string, src []byte) (*Config, error) {
	var cfg Config
	evalCtx := newHCLEvalContext()
	err := hclsimple.Decode(filename, src, evalCtx, &cfg)
	if err != nil {
		return nil, err
	}
	return cfg.finish()
}

// DefaultConfig is the configuration used when every attribute is omitted.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.defaults()
	return cfg
}

func (c *Config) finish() (*Config, error) {
	c.defaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) defaults() {
	if c.OutputPath == "" {
		c.OutputPath = filepath.Join("output", "screenshots")
	}
	if c.ReportFile == "" {
		c.ReportFile = "report.json"
	}
	if c.Quality == 0 {
		c.Quality = DefaultQuality
	}
	if c.StrictSized == nil {
		strict := true
		c.StrictSized = &strict
	}
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8081"
	}

	if c.API == nil {
		c.API = &APIConfigBlock{}
	}
	if c.API.Address == "" {
		c.API.Address = "http://localhost:8080/api"
	}
	if c.API.ClientName == "" {
		c.API.ClientName = "SnakeCLIClient"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 10
	}
	if c.API.MaxMapDimension == 0 {
		c.API.MaxMapDimension = 1024
	}

	if c.Schedule == nil {
		c.Schedule = &ScheduleConfigBlock{}
	}
	if c.Schedule.CaptureInterval == 0 {
		c.Schedule.CaptureInterval = 60
	}
	if c.Schedule.EvictInterval == 0 {
		c.Schedule.EvictInterval = 3600
	}

	if c.Lock == nil {
		c.Lock = &LockConfigBlock{}
	}
	if c.Lock.Kind == "" {
		c.Lock.Kind = LockLocal
	}
	if c.Lock.Path == "" {
		switch c.Lock.Kind {
		case LockFile:
			c.Lock.Path = filepath.Join(c.OutputPath, ".report.lock")
		case LockSQLite:
			c.Lock.Path = filepath.Join(c.OutputPath, ".lock.db")
		}
	}
	if c.Lock.TTL == 0 {
		c.Lock.TTL = 30
	}

	if c.Colors == nil {
		c.Colors = &ColorsConfigBlock{}
	}
}

func (c *Config) Validate() error {
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be within [1, 100], got %d", c.Quality)
	}
	if c.Schedule.CaptureInterval < 0 || c.Schedule.EvictInterval < 0 {
		return fmt.Errorf("schedule intervals must not be negative")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api timeout must not be negative")
	}
	if c.API.MaxMapDimension < 0 {
		return fmt.Errorf("api max_map_dimension must not be negative")
	}
	if c.Lock.TTL < 0 {
		return fmt.Errorf("lock ttl must not be negative")
	}

	switch c.Lock.Kind {
	case LockLocal, LockFile, LockSQLite:
	default:
		return fmt.Errorf("unsupported lock kind '%s'", c.Lock.Kind)
	}

	slugs := map[string]struct{}{}
	for _, size := range c.Sizes {
		if size.Length <= 0 {
			return fmt.Errorf("size '%s' must have a positive length, got %d", size.Slug, size.Length)
		}
		if _, ok := slugs[size.Slug]; ok {
			return fmt.Errorf("size '%s' is declared more than once", size.Slug)
		}
		slugs[size.Slug] = struct{}{}
	}

	if _, err := c.Palette(); err != nil {
		return err
	}

	return nil
}

// OutputSizes returns the declared sizes in declaration order, or the
// defaults when none are declared.
func (c *Config) OutputSizes() []OutputSize {
	if len(c.Sizes) == 0 {
		return DefaultOutputSizes
	}
	sizes := make([]OutputSize, 0, len(c.Sizes))
	for _, size := range c.Sizes {
		sizes = append(sizes, OutputSize{Slug: size.Slug, Length: size.Length})
	}
	return sizes
}

func (c *Config) Palette() (Palette, error) {
	if c.Colors == nil {
		return DefaultPalette, nil
	}
	return NewPalette(c.Colors.Background, c.Colors.Border, c.Colors.Grid)
}

func (c *Config) CaptureOpts() CaptureOpts {
	return CaptureOpts{
		Sizes:       c.OutputSizes(),
		Quality:     c.Quality,
		StrictSized: *c.StrictSized,
	}
}

func (c *Config) ReportPath() string {
	return filepath.Join(c.OutputPath, c.ReportFile)
}

func (c *Config) CaptureInterval() time.Duration {
	return time.Duration(c.Schedule.CaptureInterval) * time.Second
}

func (c *Config) EvictInterval() time.Duration {
	return time.Duration(c.Schedule.EvictInterval) * time.Second
}

func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.Timeout) * time.Second
}

func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.Lock.TTL) * time.Second
}
