package config

import (
	"strings"
	"testing"
	"time"
)

// mapLookup serves configuration from a fixed map.
func mapLookup(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Upload: UploadConfig{
			MaxFileSize:       1,
			MaxMemory:         1,
			AllowedExtensions: []string{".csv"},
			Encoding:          "utf-8",
			FallbackEncoding:  "windows-1251",
		},
		Suggest:  SuggestConfig{WindowDays: 30, CoverageDays: 14, MinQuantity: 5, MaxFastMovers: 20, MaxIssues: 50},
		Locale:   LocaleConfig{Collation: "bg"},
		Rate:     RateLimitConfig{Enabled: true, RequestsPerMinute: 100, UploadLimit: 10},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Security: SecurityConfig{},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(mapLookup(nil))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Upload.MaxFileSize != 52428800 {
		t.Errorf("Upload.MaxFileSize = %d, want %d", cfg.Upload.MaxFileSize, 52428800)
	}
	if got := strings.Join(cfg.Upload.AllowedExtensions, ","); got != ".csv,.tsv,.txt,.xlsx" {
		t.Errorf("Upload.AllowedExtensions = %q, want %q", got, ".csv,.tsv,.txt,.xlsx")
	}
	if cfg.Upload.Encoding != "utf-8" || cfg.Upload.FallbackEncoding != "windows-1251" {
		t.Errorf("Upload encodings = %q/%q, want utf-8/windows-1251", cfg.Upload.Encoding, cfg.Upload.FallbackEncoding)
	}
	if cfg.Suggest.WindowDays != 30 {
		t.Errorf("Suggest.WindowDays = %d, want %d", cfg.Suggest.WindowDays, 30)
	}
	if cfg.Suggest.CoverageDays != 14 {
		t.Errorf("Suggest.CoverageDays = %d, want %d", cfg.Suggest.CoverageDays, 14)
	}
	if cfg.Suggest.MinQuantity != 5 {
		t.Errorf("Suggest.MinQuantity = %d, want %d", cfg.Suggest.MinQuantity, 5)
	}
	if cfg.Suggest.MaxFastMovers != 20 {
		t.Errorf("Suggest.MaxFastMovers = %d, want %d", cfg.Suggest.MaxFastMovers, 20)
	}
	if cfg.Suggest.MaxIssues != 50 {
		t.Errorf("Suggest.MaxIssues = %d, want %d", cfg.Suggest.MaxIssues, 50)
	}
	if cfg.Locale.Collation != "bg" {
		t.Errorf("Locale.Collation = %q, want %q", cfg.Locale.Collation, "bg")
	}
	if cfg.Locale.SynonymsFile != "" {
		t.Errorf("Locale.SynonymsFile = %q, want empty", cfg.Locale.SynonymsFile)
	}
	if cfg.Rate.RequestsPerMinute != 100 {
		t.Errorf("Rate.RequestsPerMinute = %d, want %d", cfg.Rate.RequestsPerMinute, 100)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	cfg, err := LoadFrom(mapLookup(map[string]string{
		"SERVER_PORT":          "9090",
		"SUGGEST_WINDOW_DAYS":  "7",
		"SUGGEST_MIN_QUANTITY": "10",
		"LOG_LEVEL":            "debug",
		"UPLOAD_ENCODING":      "windows-1252",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Suggest.WindowDays != 7 {
		t.Errorf("Suggest.WindowDays = %d, want %d", cfg.Suggest.WindowDays, 7)
	}
	if cfg.Suggest.MinQuantity != 10 {
		t.Errorf("Suggest.MinQuantity = %d, want %d", cfg.Suggest.MinQuantity, 10)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Upload.Encoding != "windows-1252" {
		t.Errorf("Upload.Encoding = %q, want %q", cfg.Upload.Encoding, "windows-1252")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	cfg, err := LoadFrom(mapLookup(map[string]string{"PORT": "3000"}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 3000)
	}

	cfg, err = LoadFrom(mapLookup(map[string]string{"PORT": "3000", "SERVER_PORT": "4000"}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("primary env var should win: Server.Port = %d, want %d", cfg.Server.Port, 4000)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SUGGEST_MAX_ISSUES", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Suggest.MaxIssues != 5 {
		t.Errorf("Suggest.MaxIssues = %d, want %d", cfg.Suggest.MaxIssues, 5)
	}
}

func TestLoad_Duration(t *testing.T) {
	cfg, err := LoadFrom(mapLookup(map[string]string{
		"SERVER_READ_TIMEOUT":    "45s",
		"SERVER_REQUEST_TIMEOUT": "1m30s",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Server.RequestTimeout != 90*time.Second {
		t.Errorf("Server.RequestTimeout = %v, want %v", cfg.Server.RequestTimeout, 90*time.Second)
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad integer", "SERVER_PORT", "eighty"},
		{"bad duration", "SERVER_READ_TIMEOUT", "soon"},
		{"bad boolean", "RATE_LIMIT_ENABLED", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(mapLookup(map[string]string{tt.key: tt.val}))
			if err == nil {
				t.Fatalf("LoadFrom() expected error for %s=%q", tt.key, tt.val)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error should mention %s: %v", tt.key, err)
			}
		})
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	cfg, err := LoadFrom(mapLookup(map[string]string{
		"TRUSTED_PROXIES": "10.0.0.0/8, 172.16.0.0/12 , 192.168.0.0/16",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if len(cfg.Security.TrustedProxies) != len(expected) {
		t.Fatalf("TrustedProxies length = %d, want %d", len(cfg.Security.TrustedProxies), len(expected))
	}
	for i, v := range expected {
		if cfg.Security.TrustedProxies[i] != v {
			t.Errorf("TrustedProxies[%d] = %q, want %q", i, cfg.Security.TrustedProxies[i], v)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantKey string
	}{
		{"invalid port", func(c *Config) { c.Server.Port = 99999 }, "SERVER_PORT"},
		{"no extensions", func(c *Config) { c.Upload.AllowedExtensions = nil }, "UPLOAD_ALLOWED_EXTENSIONS"},
		{"extension without dot", func(c *Config) { c.Upload.AllowedExtensions = []string{"csv"} }, "UPLOAD_ALLOWED_EXTENSIONS"},
		{"unknown encoding", func(c *Config) { c.Upload.Encoding = "klingon" }, "UPLOAD_ENCODING"},
		{"unknown fallback", func(c *Config) { c.Upload.FallbackEncoding = "klingon" }, "UPLOAD_FALLBACK_ENCODING"},
		{"zero window", func(c *Config) { c.Suggest.WindowDays = 0 }, "SUGGEST_WINDOW_DAYS"},
		{"negative min quantity", func(c *Config) { c.Suggest.MinQuantity = -1 }, "SUGGEST_MIN_QUANTITY"},
		{"bad collation", func(c *Config) { c.Locale.Collation = "not a tag!" }, "LOCALE_COLLATION"},
		{"bad proxy", func(c *Config) { c.Security.TrustedProxies = []string{"proxy.local"} }, "TRUSTED_PROXIES"},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Validate() expected error mentioning %s", tt.wantKey)
			}
			if !strings.Contains(err.Error(), tt.wantKey) {
				t.Errorf("error should mention %s: %v", tt.wantKey, err)
			}
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Suggest.MaxIssues = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, key := range []string{"SERVER_PORT", "SUGGEST_MAX_ISSUES"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error should mention %s: %v", key, err)
		}
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
		{"localhost", 443, "localhost:443"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		got := cfg.Addr()
		if got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigString(t *testing.T) {
	str := validConfig().String()
	for _, want := range []string{"Collation", "windows-1251", "Window: 30"} {
		if !strings.Contains(str, want) {
			t.Errorf("String() = %q, missing %q", str, want)
		}
	}
}
