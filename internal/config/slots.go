package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"vetadmin/internal/slots"
)

const DefaultSlotsPath = "configs/slots.yaml"

// SlotsConfig is the root of slots.yaml: the overlap policy and the bookable time grid.
type SlotsConfig struct {
	Policy string `yaml:"policy"`
	Grid   struct {
		Start       string   `yaml:"start"`        // "09:00"
		End         string   `yaml:"end"`          // "21:00"
		StepMinutes int      `yaml:"step_minutes"` // 60
		Times       []string `yaml:"times,omitempty"`
	} `yaml:"grid"`
}

// LoadSlotsConfig loads slots.yaml. A missing file yields the defaults.
func LoadSlotsConfig(path string) (*SlotsConfig, error) {
	if path == "" {
		path = DefaultSlotsPath
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &SlotsConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read slots config: %w", err)
	}

	var cfg SlotsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse slots config: %w", err)
	}
	if _, _, err := cfg.Build(); err != nil {
		return nil, fmt.Errorf("validate slots config: %w", err)
	}
	return &cfg, nil
}

// Build turns the config into a policy and a grid. Explicit times win over start/end.
func (c *SlotsConfig) Build() (slots.Policy, slots.Grid, error) {
	policy, err := slots.ParsePolicy(c.Policy)
	if err != nil {
		return "", slots.Grid{}, err
	}

	switch {
	case len(c.Grid.Times) > 0:
		grid, err := slots.GridFromTimes(c.Grid.Times)
		return policy, grid, err
	case c.Grid.Start != "" || c.Grid.End != "":
		if c.Grid.Start == "" || c.Grid.End == "" {
			return "", slots.Grid{}, fmt.Errorf("grid needs both start and end")
		}
		grid, err := slots.GenerateGrid(c.Grid.Start, c.Grid.End, c.Grid.StepMinutes)
		return policy, grid, err
	default:
		return policy, slots.DefaultGrid(), nil
	}
}

// WatchSlots reloads slots.yaml on change and calls onUpdate with the latest config.
// It performs an initial load before entering the watch loop.
func WatchSlots(ctx context.Context, path string, interval time.Duration, onUpdate func(*SlotsConfig)) error {
	if path == "" {
		path = DefaultSlotsPath
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	cfg, err := LoadSlotsConfig(path)
	if err != nil {
		return err
	}
	if onUpdate != nil {
		onUpdate(cfg)
	}

	var lastMod time.Time
	if info, err := os.Stat(path); err == nil {
		lastMod = info.ModTime()
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil {
					continue
				}
				if !info.ModTime().After(lastMod) {
					continue
				}
				cfg, err := LoadSlotsConfig(path)
				if err != nil {
					continue
				}
				lastMod = info.ModTime()
				if onUpdate != nil {
					onUpdate(cfg)
				}
			}
		}
	}()

	return nil
}
