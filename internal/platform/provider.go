// Package platform resolves the desktop/mobile differences once at startup.
package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/basel-ax/neonqr/internal/config"
)

// Kind identifies the running platform family
type Kind string

const (
	Desktop Kind = "desktop"
	Mobile  Kind = "mobile"
)

// maxRandomAttempts bounds desktop name retries before falling back to a UUID.
const maxRandomAttempts = 32

// Namer opens a new, not yet existing destination file in dir
type Namer func(dir string) (*os.File, error)

// Provider carries the capabilities of the running platform
type Provider struct {
	Kind          Kind
	SaveDir       string
	ScanSupported bool
	namer         Namer
}

// Detect builds the provider from configuration. Mobile is chosen explicitly
// with NEONQR_PLATFORM=mobile or implied by an Android environment.
func Detect(cfg *config.Config) *Provider {
	kind := Desktop
	switch {
	case cfg.Platform == string(Mobile):
		kind = Mobile
	case cfg.Platform == "" && os.Getenv("ANDROID_ROOT") != "":
		kind = Mobile
	}

	if kind == Mobile {
		root := cfg.ExternalStorage
		if root == "" {
			root = "/sdcard"
		}
		return &Provider{
			Kind:          Mobile,
			SaveDir:       filepath.Join(root, "DCIM", cfg.AppName),
			ScanSupported: cfg.Scan.Enabled,
			namer:         CountingNamer("QR_"),
		}
	}
	return &Provider{
		Kind:          Desktop,
		SaveDir:       cfg.DesktopSaveDir,
		ScanSupported: cfg.Scan.Enabled,
		namer:         RandomNamer("Saved_QR_", rand.Intn),
	}
}

// New builds a provider with an explicit namer
func New(kind Kind, saveDir string, scanSupported bool, namer Namer) *Provider {
	return &Provider{Kind: kind, SaveDir: saveDir, ScanSupported: scanSupported, namer: namer}
}

// Create opens a fresh destination file in the save directory
func (p *Provider) Create() (*os.File, error) {
	return p.namer(p.SaveDir)
}

// CountingNamer names files prefix<n>.png where n is one more than the
// number of entries in dir, bumped until the name is free.
func CountingNamer(prefix string) Namer {
	return func(dir string) (*os.File, error) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("list save dir: %w", err)
		}
		for n := len(entries) + 1; ; n++ {
			f, err := createExclusive(filepath.Join(dir, prefix+strconv.Itoa(n)+".png"))
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			return f, err
		}
	}
}

// RandomNamer names files prefix<n>.png with n drawn from [100, 999].
// intn is injectable for tests.
func RandomNamer(prefix string, intn func(int) int) Namer {
	return func(dir string) (*os.File, error) {
		for i := 0; i < maxRandomAttempts; i++ {
			n := 100 + intn(900)
			f, err := createExclusive(filepath.Join(dir, prefix+strconv.Itoa(n)+".png"))
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			return f, err
		}
		return createExclusive(filepath.Join(dir, prefix+uuid.NewString()+".png"))
	}
}

func createExclusive(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
}
