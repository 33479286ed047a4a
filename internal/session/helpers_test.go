package session

import (
	"path/filepath"

	"github.com/basel-ax/neonqr/internal/config"
	"github.com/basel-ax/neonqr/internal/platform"
)

func testConfig(dir string) *config.Config {
	return &config.Config{
		AppName:         "NeonQR",
		TempPath:        filepath.Join(dir, "temp_qr.png"),
		LogoPath:        filepath.Join(dir, "icon.png"),
		CaptionFontSize: 24,
		QR:              config.QRConfig{BoxSize: 10, Border: 4, RecoveryLevel: "M", LogoRatio: 0.22},
	}
}

func platformFor(dir string) *platform.Provider {
	return platform.New(platform.Mobile, dir, false, platform.CountingNamer("QR_"))
}
