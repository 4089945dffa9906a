package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every variable Load reads so the host environment does not
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DB_DRIVER", "DB_PATH", "DATABASE_URL", "FEED_MODE",
		"REDIS_ADDR", "REDIS_CHANNEL", "INSTANCE_ID", "LOG_MODE",
		"SUBMIT_TIMEOUT", "SHUTDOWN_TIMEOUT", "FONT_PATH", "FONT_BOLD_PATH",
		"TRACING_STDOUT", "OTLP_ENDPOINT", "OTLP_INSECURE",
	} {
		for _, name := range []string{k, "PLEDGE_" + k} {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pledge-wall.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.DBDriver != DriverSQLite || cfg.FeedMode != FeedLocal {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.SubmitTimeout != 10*time.Second {
		t.Errorf("SubmitTimeout = %v", cfg.SubmitTimeout)
	}
	if cfg.InstanceID == "" {
		t.Error("InstanceID not generated")
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
}

func TestLoadLayers(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, `
port: "9000"
dbDriver: postgres
databaseUrl: "postgres://localhost/pledges"
submitTimeout: 3s
logMode: prod
`)
	t.Setenv("PORT", "9100")
	t.Setenv("PLEDGE_LOG_MODE", "dev")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("unprefixed env should override file: Port = %q", cfg.Port)
	}
	if cfg.LogMode != "dev" {
		t.Errorf("prefixed env should override file: LogMode = %q", cfg.LogMode)
	}
	if cfg.SubmitTimeout != 3*time.Second {
		t.Errorf("SubmitTimeout = %v", cfg.SubmitTimeout)
	}
	if cfg.FeedMode != FeedPostgres {
		t.Errorf("postgres driver should default to LISTEN feed, got %q", cfg.FeedMode)
	}
}

func TestPrefixedBeatsUnprefixed(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "1111")
	t.Setenv("PLEDGE_PORT", "2222")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "2222" {
		t.Errorf("Port = %q", cfg.Port)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, "unknown DB_DRIVER"},
		{"postgres without url", func(c *Config) { c.DBDriver = DriverPostgres }, "DATABASE_URL"},
		{"listen on sqlite", func(c *Config) { c.FeedMode = FeedPostgres }, "requires DB_DRIVER=postgres"},
		{"redis without addr", func(c *Config) { c.FeedMode = FeedRedis }, "REDIS_ADDR"},
		{"unknown feed", func(c *Config) { c.FeedMode = "kafka" }, "unknown FEED_MODE"},
		{"zero timeout", func(c *Config) { c.SubmitTimeout = 0 }, "SUBMIT_TIMEOUT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			c.FeedMode = FeedLocal
			tc.mutate(c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tc.want)
			}
		})
	}
}

func TestLoadBadYAML(t *testing.T) {
	clearEnv(t)
	if _, err := Load(writeYAML(t, "port: [unterminated")); err == nil {
		t.Fatal("expected parse error")
	}
}
