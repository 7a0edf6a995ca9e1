package ai

import (
	"fmt"
	"strings"
)

// Mode selects the live provider or the canned demo responses.
type Mode string

const (
	ModeLive Mode = "live"
	ModeDemo Mode = "demo"
	// ModeAuto is a configuration value only: resolve to live or demo by probing.
	ModeAuto Mode = "auto"
)

// ParseMode accepts live, demo or auto in any case. Empty means auto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeLive, ModeDemo, ModeAuto:
		return m, nil
	}
	return "", fmt.Errorf("unknown ai mode %q (allowed: live, demo, auto)", s)
}

// Concrete reports whether m can be used on a request.
func (m Mode) Concrete() bool { return m == ModeLive || m == ModeDemo }
