package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	HTTP HTTPConfig
}

type HTTPConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

func (c HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
