package config

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

type DB struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
}

type MQ struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string
	UseTLS   bool
}

type HTTP struct {
	Port int
}

type App struct {
	Database DB
	Rabbit   MQ
	HTTP     HTTP
}

// Load reads the flat two-level YAML config. The format is deliberately
// simple enough that no YAML package is needed: top-level sections
// `database:`, `rabbitmq:` and `http:` followed by `key: value` pairs.
func Load(path string) (App, error) {
	f, err := os.Open(path)
	if err != nil {
		return App{}, err
	}
	defer f.Close()

	var (
		cfg     App
		section string
	)
	cfg.Database.Port = 5432
	cfg.Database.SSLMode = "disable"
	cfg.Database.MaxConns = 10
	cfg.Rabbit.Port = 5672
	cfg.Rabbit.VHost = "/"
	cfg.HTTP.Port = 3000

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		raw := sc.Text()
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Only an unindented `name:` line opens a section; an indented
		// value-less key stays inside the current one.
		indented := strings.HasPrefix(raw, " ") || strings.HasPrefix(raw, "\t")
		if !indented && strings.HasSuffix(line, ":") && !strings.Contains(line, " ") {
			section = strings.TrimSuffix(line, ":")
			continue
		}
		kv := strings.SplitN(line, ":", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		val := strings.Trim(strings.TrimSpace(kv[1]), `"'`)

		switch section {
		case "database":
			switch key {
			case "host":
				cfg.Database.Host = val
			case "port":
				cfg.Database.Port = atoi(val, 5432)
			case "user":
				cfg.Database.User = val
			case "password":
				cfg.Database.Password = val
			case "database":
				cfg.Database.Database = val
			case "sslmode":
				if val != "" {
					cfg.Database.SSLMode = val
				}
			case "max_conns":
				cfg.Database.MaxConns = atoi(val, 10)
			}
		case "rabbitmq":
			switch key {
			case "host":
				cfg.Rabbit.Host = val
			case "port":
				cfg.Rabbit.Port = atoi(val, 5672)
			case "user":
				cfg.Rabbit.User = val
			case "password":
				cfg.Rabbit.Password = val
			case "vhost":
				if val != "" {
					cfg.Rabbit.VHost = val
				}
			case "tls":
				cfg.Rabbit.UseTLS = val == "true"
			}
		case "http":
			if key == "port" {
				cfg.HTTP.Port = atoi(val, 3000)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return App{}, err
	}

	if cfg.Database.Host == "" || cfg.Database.User == "" || cfg.Database.Database == "" {
		return App{}, fmt.Errorf("database config incomplete")
	}
	if cfg.Rabbit.Host == "" || cfg.Rabbit.User == "" {
		return App{}, fmt.Errorf("rabbitmq config incomplete")
	}
	return cfg, nil
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// FindConfig probes the usual config locations.
func FindConfig() (string, error) {
	candidates := []string{"config.yaml", "deploy/config.example.yaml"}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fs.ErrNotExist
}
