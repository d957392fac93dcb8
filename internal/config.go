package internal

import (
	"fmt"

	"github.com/spf13/viper"
)

type MahfileConfig struct {
	Storage struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"storage"`
	Log struct {
		Debug bool `mapstructure:"debug"`
	} `mapstructure:"log"`
}

func LoadConfig(path string) (*MahfileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg MahfileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
