package config

import (
	"fmt"
	"os"
	"strings"

	"modernc.org/libqbe"
)

type Feature int

const (
	FeatPromoteMixed Feature = iota
	FeatStrictTypes
	FeatSynthMain
	FeatCount
)

type Warning int

const (
	WarnUnsupportedConversion Warning = iota
	WarnUnreachableCode
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features       map[Feature]Info
	Warnings       map[Warning]Info
	FeatureMap     map[string]Feature
	WarningMap     map[string]Warning
	TargetArch     string
	QbeTarget      string
	WordSize       int
	WordType       string
	StackAlignment int
}

func NewConfig() *Config {
	cfg := &Config{
		Features:   make(map[Feature]Info),
		Warnings:   make(map[Warning]Info),
		FeatureMap: make(map[string]Feature),
		WarningMap: make(map[string]Warning),
	}

	features := map[Feature]Info{
		FeatPromoteMixed: {"promote-mixed", true, "Accept mixed int/float operands and widen to float."},
		FeatStrictTypes:  {"strict-types", false, "Stop before code generation when type errors were recorded."},
		FeatSynthMain:    {"synth-main", true, "Wrap top-level statements in a synthesized 'main' when none is defined."},
	}

	warnings := map[Warning]Info{
		WarnUnsupportedConversion: {"unsupported-conversion", true, "Warn when a conversion has no implementation and the value passes through."},
		WarnUnreachableCode:       {"unreachable-code", true, "Warn about statements that can never execute."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

// SetTarget configures the compiler for a specific architecture and QBE target.
func (c *Config) SetTarget(goos, goarch, qbeTarget string) {
	if qbeTarget == "" {
		c.QbeTarget = libqbe.DefaultTarget(goos, goarch)
	} else {
		c.QbeTarget = qbeTarget
	}

	c.TargetArch = goarch

	switch c.QbeTarget {
	case "amd64_sysv", "amd64_apple", "arm64", "arm64_apple", "rv64":
		c.WordSize, c.WordType, c.StackAlignment = 8, "l", 16
	case "arm", "rv32":
		c.WordSize, c.WordType, c.StackAlignment = 4, "w", 8
	default:
		fmt.Fprintf(os.Stderr, "cforge: warning: unrecognized QBE target '%s', assuming 64-bit properties\n", c.QbeTarget)
		c.WordSize, c.WordType, c.StackAlignment = 8, "l", 16
	}
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// ApplyFlag interprets a -W... or -F... toggle, e.g. "-Wno-unreachable-code"
// or "-Fstrict-types". "-Wall" flips every warning at once.
func (c *Config) ApplyFlag(flag string) {
	trimmed := strings.TrimPrefix(flag, "-")
	isNo := strings.HasPrefix(trimmed, "Wno-") || strings.HasPrefix(trimmed, "Fno-")
	enable := !isNo

	var name string
	var isWarning bool

	switch {
	case strings.HasPrefix(trimmed, "W"):
		name = strings.TrimPrefix(trimmed, "W")
		if isNo {
			name = strings.TrimPrefix(name, "no-")
		}
		isWarning = true
	case strings.HasPrefix(trimmed, "F"):
		name = strings.TrimPrefix(trimmed, "F")
		if isNo {
			name = strings.TrimPrefix(name, "no-")
		}
	default:
		name = trimmed
		isWarning = true
	}

	if name == "all" && isWarning {
		for i := Warning(0); i < WarnCount; i++ {
			c.SetWarning(i, enable)
		}
		return
	}

	if isWarning {
		if w, ok := c.WarningMap[name]; ok {
			c.SetWarning(w, enable)
		}
	} else {
		if f, ok := c.FeatureMap[name]; ok {
			c.SetFeature(f, enable)
		}
	}
}
