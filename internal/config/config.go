// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
)

type Config struct {
	Server struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	} `json:"server"`

	Repository struct {
		Path string `json:"path"`
	} `json:"repository"`

	Wiki struct {
		Index         string `json:"index"`           // page a directory request redirects to
		MaxUploadSize int64  `json:"max_upload_size"` // bytes, limit on edit bodies
		TemplatesDir  string `json:"templates_dir"`
	} `json:"wiki"`

	LogLevel string `json:"log_level"` // debug, info, warn, error
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	config.applyDefaults()

	return &config, nil
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	var config Config
	config.applyDefaults()
	return &config
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Repository.Path == "" {
		c.Repository.Path = "repo"
	}
	if c.Wiki.Index == "" {
		c.Wiki.Index = "index.md"
	}
	if c.Wiki.MaxUploadSize == 0 {
		c.Wiki.MaxUploadSize = 10 << 20 // 10MB
	}
	if c.Wiki.TemplatesDir == "" {
		c.Wiki.TemplatesDir = "templates"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Addr returns the host:port the server binds to.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, fmt.Sprint(c.Server.Port))
}
