package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/basel-ax/neonqr/internal/domain"
)

// DefaultScanInterval samples the camera 30 times per second
const DefaultScanInterval = time.Second / 30

// ScanPoller samples a frame source at a fixed rate and decodes QR codes
type ScanPoller struct {
	source        domain.FrameSource
	decoder       domain.Decoder
	interval      time.Duration
	stopOnSuccess bool
	logger        *logrus.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	status   domain.ScanStatus
	last     domain.ScanResult
	onResult func(domain.ScanResult)
	onStatus func(domain.ScanStatus)
}

// NewScanPoller creates an idle poller. A nil decoder means scanning is
// unsupported on this platform.
func NewScanPoller(source domain.FrameSource, decoder domain.Decoder, interval time.Duration, stopOnSuccess bool, logger *logrus.Logger) *ScanPoller {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	return &ScanPoller{
		source:        source,
		decoder:       decoder,
		interval:      interval,
		stopOnSuccess: stopOnSuccess,
		logger:        logger,
		status:        domain.ScanIdle,
	}
}

// OnResult registers a callback for every successful decode. Callbacks run
// on the poller goroutine and must not call Stop.
func (p *ScanPoller) OnResult(fn func(domain.ScanResult)) {
	p.mu.Lock()
	p.onResult = fn
	p.mu.Unlock()
}

// OnStatus registers a callback for status changes
func (p *ScanPoller) OnStatus(fn func(domain.ScanStatus)) {
	p.mu.Lock()
	p.onStatus = fn
	p.mu.Unlock()
}

// Start begins polling. It is a no-op when already running and returns
// domain.ErrScanUnsupported without touching the frame source when the
// decoder is unavailable.
func (p *ScanPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.decoder == nil || !p.decoder.Available() || p.source == nil {
		notify := p.setStatusLocked(domain.ScanUnsupported)
		p.mu.Unlock()
		notify()
		return domain.ErrScanUnsupported
	}
	if p.runningLocked() {
		p.mu.Unlock()
		return nil
	}
	if p.cancel != nil {
		// previous loop ended on its own after a decode
		p.cancel()
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel, p.done = cancel, done
	notify := p.setStatusLocked(domain.ScanSearching)
	p.mu.Unlock()
	notify()

	go p.loop(loopCtx, done)
	p.logger.WithField("interval", p.interval).Debug("Scan poller started")
	return nil
}

// Stop halts polling and waits for the loop to exit, so no callback fires
// after it returns. Stopping an idle poller is a no-op.
func (p *ScanPoller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	p.mu.Lock()
	notify := p.setStatusLocked(domain.ScanIdle)
	p.mu.Unlock()
	notify()
	p.logger.Debug("Scan poller stopped")
}

// Running reports whether the poll loop is active
func (p *ScanPoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runningLocked()
}

// Status returns the current scan status
func (p *ScanPoller) Status() domain.ScanStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Last returns the most recent successful decode
func (p *ScanPoller) Last() domain.ScanResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *ScanPoller) runningLocked() bool {
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// setStatusLocked records status and returns the notification to run once
// the lock is released.
func (p *ScanPoller) setStatusLocked(status domain.ScanStatus) func() {
	if p.status == status || p.onStatus == nil {
		p.status = status
		return func() {}
	}
	p.status = status
	fn := p.onStatus
	return func() { fn(status) }
}

func (p *ScanPoller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.tick(ctx) && p.stopOnSuccess {
				return
			}
		}
	}
}

// tick samples one frame. It reports whether a code was decoded.
func (p *ScanPoller) tick(ctx context.Context) bool {
	frame, err := p.source.Frame(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNoFrame) && ctx.Err() == nil {
			p.logger.WithError(err).Debug("Failed to read camera frame")
		}
		return false
	}

	img, err := frame.Image()
	if err != nil {
		p.logger.WithError(err).Debug("Failed to convert camera frame")
		return false
	}

	text, err := p.decoder.Decode(img)
	if err != nil || text == "" {
		return false
	}

	p.mu.Lock()
	// Stop may have raced with this decode; drop the result then.
	if ctx.Err() != nil {
		p.mu.Unlock()
		return false
	}
	result := domain.ScanResult{Text: text, Found: true, At: time.Now()}
	p.last = result
	notify := p.setStatusLocked(domain.ScanFound)
	onResult := p.onResult
	p.mu.Unlock()

	notify()
	if onResult != nil {
		onResult(result)
	}
	return true
}
