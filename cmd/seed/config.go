package main

import "github.com/kelseyhightower/envconfig"

type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" required:"true"`
	// SEED_BLACKLIST is added to the blacklist table read by the dev backend
	Blacklist []string `envconfig:"SEED_BLACKLIST" default:"scam,fake ticket"`
	// SEED_COLOURS enables colorized output
	Colours bool `envconfig:"SEED_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
