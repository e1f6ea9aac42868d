package delivery

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed methods.yaml
var defaultConfig []byte

// MethodConfig то, что меняется от инсталляции к инсталляции.
type MethodConfig struct {
	Label        string `yaml:"label"`
	Info         string `yaml:"info"`
	FixedAddress string `yaml:"fixed_address"`
}

// Config ключ - Method.String().
type Config struct {
	Methods map[string]MethodConfig `yaml:"methods"`
}

// LoadConfig читает YAML. Пустой path - встроенный конфиг.
func LoadConfig(path string) (Config, error) {
	data := defaultConfig
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read delivery config: %w", err)
		}
		data = b
	}
	return ParseConfig(data)
}

// ParseConfig разбирает YAML без обращения к файловой системе.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse delivery config: %w", err)
	}
	return cfg, nil
}
