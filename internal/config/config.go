// Package config loads dynamo.properties once and hands every component
// its own typed slice of it. No component re-reads the file: it is parsed
// exactly once, by the launcher, and threaded through construction (see
// SPEC_FULL.md §9, Design Note b).
package config

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/integralist/go-findroot/find"
	"github.com/pingcap/errors"

	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
)

// FileName is the properties file the launcher looks for, first in the
// working directory and then by walking up to the module root.
const FileName = "dynamo.properties"

// Config is an immutable flat key/value map, parsed once from
// dynamo.properties.
type Config struct {
	values map[string]string
}

// Load reads dynamo.properties from the working directory, falling back to
// the repository root located by go-findroot when it isn't present in cwd.
func Load() (*Config, error) {
	path := FileName
	if _, err := os.Stat(path); err != nil {
		if root, rootErr := find.Repo(); rootErr == nil {
			candidate := filepath.Join(root.Path, FileName)
			if _, statErr := os.Stat(candidate); statErr == nil {
				path = candidate
			}
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, dynerr.New(dynerr.KindConfig, errors.Annotatef(err, "opening %s", FileName))
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads flat key=value lines from r. Lines beginning with '#' or ';'
// and blank lines are ignored. This is the original's ".properties" grammar;
// no library in the example pack parses that grammar (BurntSushi/toml
// parses TOML, a different syntax entirely), so this is hand-rolled against
// bufio.Scanner.
func Parse(r io.Reader) (*Config, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			return nil, dynerr.Newf(dynerr.KindConfig, "malformed line (no '='): %q", line)
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		values[key] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, dynerr.New(dynerr.KindConfig, errors.Trace(err))
	}
	return &Config{values: values}, nil
}

// Slice returns a Config restricted to keys under prefix (prefix stripped
// from the returned keys), used to hand each component only its own
// configuration.
func (c *Config) Slice(prefix string) *Config {
	out := make(map[string]string)
	full := prefix
	if !strings.HasSuffix(full, ".") {
		full += "."
	}
	for k, v := range c.values {
		if strings.HasPrefix(k, full) {
			out[strings.TrimPrefix(k, full)] = v
		}
	}
	return &Config{values: out}
}

// String returns the raw string value for key, or def if absent.
func (c *Config) String(key, def string) string {
	if v, ok := c.values[key]; ok {
		return v
	}
	return def
}

// Require returns the raw string value for key, or a KindConfig error if
// it is missing.
func (c *Config) Require(key string) (string, error) {
	v, ok := c.values[key]
	if !ok {
		return "", dynerr.Newf(dynerr.KindConfig, "missing required configuration key %q", key)
	}
	return v, nil
}

// Int returns the integer value for key, or def if absent or unparsable.
func (c *Config) Int(key string, def int) int {
	v, ok := c.values[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Duration combines a base sleep value and a time-unit suffix (ms, s, m, h)
// into a time.Duration, matching the `sleep` / `sleepUnit` key pair from
// spec.md §4.4.
func (c *Config) Duration(valueKey, unitKey string, def time.Duration) time.Duration {
	n := c.Int(valueKey, -1)
	if n < 0 {
		return def
	}
	unit := strings.ToLower(c.String(unitKey, "ms"))
	var mul time.Duration
	switch unit {
	case "ns":
		mul = time.Nanosecond
	case "ms":
		mul = time.Millisecond
	case "s", "sec", "second", "seconds":
		mul = time.Second
	case "m", "min", "minute", "minutes":
		mul = time.Minute
	case "h", "hour", "hours":
		mul = time.Hour
	default:
		mul = time.Millisecond
	}
	return time.Duration(n) * mul
}

// Bool returns the boolean value for key, or def if absent or unparsable.
func (c *Config) Bool(key string, def bool) bool {
	v, ok := c.values[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Has reports whether key is present.
func (c *Config) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}
