package bot

import (
	"fmt"
	"io/ioutil"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Prefix         string                      `yaml:"prefix"`
	LogLevel       string                      `yaml:"log_level"`
	QueryTimeout   int                         `yaml:"query_timeout"`
	QueryRateHz    float64                     `yaml:"query_rate_hz"`
	QueryBurst     int                         `yaml:"query_burst"`
	StatusCacheTTL int                         `yaml:"status_cache_ttl"`
	RedisAddr      string                      `yaml:"redis_addr,omitempty"`
	HistoryDSN     string                      `yaml:"history_dsn,omitempty"`
	Channels       map[string]*ChannelSettings `yaml:"channels"`
}

// ChannelSettings is what a chat channel has configured with mcs and mct.
type ChannelSettings struct {
	Host           string `yaml:"host,omitempty"`
	Port           int    `yaml:"port,omitempty"`
	UpdateInterval int    `yaml:"update_interval,omitempty"` // minutes, 0 = off
}

func (s *ChannelSettings) Configured() bool {
	return s != nil && s.Host != ""
}

func (s *ChannelSettings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

func DefaultConfig() *Config {
	c := &Config{StatusCacheTTL: 10}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	if c.Prefix == "" {
		c.Prefix = "!"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = 5
	}
	if c.QueryRateHz <= 0 {
		c.QueryRateHz = 2
		c.QueryBurst = 5
	}
	if c.QueryBurst <= 0 {
		c.QueryBurst = 1
	}
	if c.StatusCacheTTL < 0 {
		c.StatusCacheTTL = 0
	}
	if c.Channels == nil {
		c.Channels = make(map[string]*ChannelSettings)
	}
}

func LoadConfig(filename string) (config *Config, err error) {
	var data []byte
	data, err = ioutil.ReadFile(filename)
	if err != nil {
		return
	}
	config = DefaultConfig()
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	for id, settings := range config.Channels {
		if settings == nil {
			delete(config.Channels, id)
		}
	}
	config.setDefaults()
	return
}

// SaveConfig writes config through a temporary file so a crash never
// leaves a truncated file behind.
func SaveConfig(filename string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	tmp, err := ioutil.TempFile(filepath.Dir(filename), filepath.Base(filename)+".*")
	if err != nil {
		return err
	}
	if _, err = tmp.Write(data); err == nil {
		err = tmp.Close()
	} else {
		tmp.Close()
	}
	if err == nil {
		err = os.Rename(tmp.Name(), filename)
	}
	if err != nil {
		os.Remove(tmp.Name())
	}
	return err
}
