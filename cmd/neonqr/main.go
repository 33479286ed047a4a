package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mdp/qrterminal/v3"
	"github.com/sirupsen/logrus"

	"github.com/basel-ax/neonqr/internal/config"
	"github.com/basel-ax/neonqr/internal/domain"
	"github.com/basel-ax/neonqr/internal/infrastructure/frames"
	"github.com/basel-ax/neonqr/internal/infrastructure/zxing"
	"github.com/basel-ax/neonqr/internal/platform"
	"github.com/basel-ax/neonqr/internal/repository"
	"github.com/basel-ax/neonqr/internal/service"
	"github.com/basel-ax/neonqr/internal/session"
)

func main() {
	// Parse command line flags
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	text := flag.String("text", "", "Text or URL to encode")
	caption := flag.String("caption", "", "Caption drawn under the code")
	logoPath := flag.String("logo", "", "Logo image overriding LOGO_PATH")
	save := flag.Bool("save", false, "Save the generated code to the platform save directory")
	preview := flag.Bool("preview", false, "Print the generated code to the terminal")
	scan := flag.Bool("scan", false, "Scan frames from SCAN_FRAMES_DIR until a code is found")
	scanTimeout := flag.Duration("scan-timeout", 30*time.Second, "Give up scanning after this long")
	scanFile := flag.String("scan-file", "", "Decode a single image file")
	themeCycles := flag.Int("theme", 0, "Cycle the theme this many times and print it")
	runCron := flag.Bool("cron", false, "Run the saved-copy retention sweeper on SWEEP_SCHEDULE")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
		logger.Debug("Verbose logging enabled")
	}

	if *text == "" && !*scan && *scanFile == "" && *themeCycles == 0 && !*runCron {
		logger.Fatal("Please specify at least one action: -text, -scan, -scan-file, -theme, or -cron")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if *logoPath != "" {
		cfg.LogoPath = *logoPath
	}
	logger.Debug("Configuration loaded successfully")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Infof("Received signal: %v, initiating shutdown...", sig)
		cancel()
	}()

	provider := platform.Detect(cfg)
	logger.WithFields(logrus.Fields{
		"platform": provider.Kind,
		"save_dir": provider.SaveDir,
	}).Debug("Platform detected")

	var repo repository.SavedCopyRepository
	if cfg.CatalogEnabled() {
		sqlRepo, db, err := repository.Open(ctx, cfg.DB.Driver, cfg.GetDSN())
		if err != nil {
			logger.Fatalf("Failed to open saved-copy catalog: %v", err)
		}
		defer db.Close()
		if cfg.DB.Driver == "postgres" {
			db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
			db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
			db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
		}
		repo = sqlRepo
		logger.WithField("driver", cfg.DB.Driver).Debug("Saved-copy catalog ready")
	}

	generator, err := service.NewArtifactGenerationService(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize artifact generator: %v", err)
	}
	saver := service.NewSaveService(provider, repo, logger)

	var decoder domain.Decoder = zxing.Unavailable{}
	if provider.ScanSupported {
		decoder = zxing.NewDecoder()
	}
	var scanner session.Scanner
	if *scan {
		if cfg.Scan.FramesDir == "" {
			logger.Fatal("SCAN_FRAMES_DIR is required for -scan")
		}
		source := frames.NewDirectorySource(cfg.Scan.FramesDir)
		scanner = service.NewScanPoller(source, decoder, cfg.Scan.Interval, cfg.Scan.StopOnSuccess, logger)
	}

	sess := session.New(generator, saver, scanner, logger)

	for i := 0; i < *themeCycles; i++ {
		sess.CycleTheme()
	}
	if *themeCycles > 0 {
		theme := sess.Theme()
		fmt.Printf("theme: %s accent=#%02x%02x%02x\n", theme.Name, theme.Accent.R, theme.Accent.G, theme.Accent.B)
	}

	exitCode := 0
	if *text != "" {
		if !generate(ctx, sess, *text, *caption, *preview, *save) {
			exitCode = 1
		}
	}

	if *scanFile != "" {
		if !decodeFile(*scanFile, decoder, logger) {
			exitCode = 1
		}
	}

	if *scan {
		if !scanFrames(ctx, sess, *scanTimeout, logger) {
			exitCode = 1
		}
	}

	if *runCron {
		if repo == nil {
			logger.Fatal("-cron requires DB_DRIVER to be set")
		}
		sweeper := service.NewRetentionSweeper(repo, cfg.SaveRetention, logger)
		if err := sweeper.Schedule(ctx, cfg.SweepSchedule); err != nil {
			logger.Fatalf("Failed to start retention sweeper: %v", err)
		}
		logger.Info("Shutting down gracefully...")
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func generate(ctx context.Context, sess *session.Session, text, caption string, preview, save bool) bool {
	artifact, err := sess.Generate(ctx, text, caption)
	fmt.Printf("generate: %s\n", sess.GenerateStatus())
	if err != nil {
		return false
	}
	fmt.Printf("artifact: %s (%dx%d)\n", artifact.Path, artifact.Width, artifact.Height)

	if preview {
		qrterminal.GenerateHalfBlock(artifact.Payload, qrterminal.M, os.Stdout)
	}

	if save {
		saved, err := sess.Save(ctx)
		fmt.Printf("save: %s\n", sess.SaveStatus())
		if err != nil {
			return false
		}
		fmt.Printf("saved: %s\n", saved.Path)
	}
	return true
}

func decodeFile(path string, decoder domain.Decoder, logger *logrus.Logger) bool {
	if !decoder.Available() {
		fmt.Println("scan: " + session.StatusUnsupported)
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		logger.WithError(err).Error("Failed to open image")
		return false
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		logger.WithError(err).Error("Failed to decode image")
		return false
	}

	text, err := decoder.Decode(img)
	if err != nil {
		if errors.Is(err, domain.ErrNoCode) {
			fmt.Println("scan: no code found")
		} else {
			logger.WithError(err).Error("Failed to decode QR code")
		}
		return false
	}
	fmt.Printf("scan: %s\n", text)
	return true
}

func scanFrames(ctx context.Context, sess *session.Session, timeout time.Duration, logger *logrus.Logger) bool {
	if err := sess.StartScan(ctx); err != nil {
		fmt.Printf("scan: %s\n", sess.ScanText())
		return false
	}
	defer sess.StopScan()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.WithField("timeout", timeout).Warn("Scan ended without a result")
			fmt.Println("scan: no code found")
			return false
		case <-ticker.C:
			if text := sess.ScanText(); text != "" && text != session.StatusSearching {
				fmt.Printf("scan: %s\n", text)
				return true
			}
		}
	}
}
