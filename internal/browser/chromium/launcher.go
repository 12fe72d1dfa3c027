// Package chromium drives disposable Chrome sessions over CDP. Every Launch
// starts a dedicated browser process with a throwaway profile, applies the
// session identity before the first document loads, and tears the whole
// process down when the session closes.
package chromium

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/decoy-cli/internal/browser"
	"github.com/xkilldash9x/decoy-cli/internal/fingerprint"
)

const defaultTeardownTimeout = 10 * time.Second

// Options configure the Chrome processes the launcher starts.
type Options struct {
	// Headless runs Chrome without a visible window.
	Headless bool

	// ExecPath overrides the Chrome binary. Empty uses chromedp's lookup.
	ExecPath string

	// ExtraArgs are appended to the launch flags, either "--key" or
	// "--key=value" (the leading dashes are optional).
	ExtraArgs []string

	// TeardownTimeout bounds how long Close waits for the browser process
	// to exit before giving up. Zero means 10s.
	TeardownTimeout time.Duration
}

// Launcher starts one Chrome process per session.
type Launcher struct {
	opts   Options
	logger *zap.Logger
}

// NewLauncher creates a launcher. A nil logger disables logging.
func NewLauncher(opts Options, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TeardownTimeout <= 0 {
		opts.TeardownTimeout = defaultTeardownTimeout
	}
	return &Launcher{opts: opts, logger: logger.Named("chromium")}
}

// Launch starts a fresh browser process, wires the network watcher, and
// applies the identity to the tab. The caller's context bounds startup only;
// the session runs on its own lifetime afterwards.
func (l *Launcher) Launch(ctx context.Context, identity fingerprint.SessionIdentity) (browser.Session, error) {
	profileDir, err := os.MkdirTemp("", "decoy-profile-*")
	if err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), execOptions(l.opts, profileDir)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &session{
		id:          identity.ID,
		logger:      l.logger.With(zap.String("session_id", identity.ID)),
		ctx:         tabCtx,
		cancelTab:   tabCancel,
		cancelAlloc: allocCancel,
		profileDir:  profileDir,
		teardown:    l.opts.TeardownTimeout,
		inflight:    make(map[string]struct{}),
	}
	s.watchNetwork()

	tasks, err := identityTasks(identity)
	if err != nil {
		s.Close(context.Background())
		return nil, err
	}

	// The first Run starts the browser process. Combine the tab context with
	// the caller's so a launch deadline can abort a hung startup.
	startCtx, release := browser.CombineContext(tabCtx, ctx)
	defer release()
	if err := chromedp.Run(startCtx, tasks); err != nil {
		s.Close(context.Background())
		if ctx.Err() != nil {
			return nil, fmt.Errorf("launch browser: %w", ctx.Err())
		}
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	l.logger.Info("Browser session started.",
		zap.String("session_id", identity.ID),
		zap.String("user_agent", identity.Archetype.UserAgent),
		zap.Bool("headless", l.opts.Headless))
	return s, nil
}

// baseFlags is the launch flag set every session gets. The automation and
// background-service switches keep Chrome from betraying itself or phoning
// home mid-session; images stay off because the interaction flow never needs
// them and pages settle faster without.
func baseFlags() []chromedp.ExecAllocatorOption {
	return []chromedp.ExecAllocatorOption{
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-plugins", true),
		chromedp.Flag("disable-images", true),
		chromedp.Flag("disable-javascript-harmony-shipping", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-ipc-flooding-protection", true),
		chromedp.NoFirstRun,
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("no-pings", true),
		chromedp.Flag("password-store", "basic"),
		chromedp.Flag("use-mock-keychain", true),
		chromedp.Flag("disable-component-extensions-with-background-pages", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-zygote", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-web-security", true),
		chromedp.Flag("disable-features", "TranslateUI,BlinkGenPropertyTrees"),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.DisableGPU,
	}
}

// execOptions translates launcher options into chromedp allocator options.
func execOptions(opts Options, profileDir string) []chromedp.ExecAllocatorOption {
	execOpts := append(baseFlags(), chromedp.UserDataDir(profileDir))

	if opts.Headless {
		execOpts = append(execOpts, chromedp.Headless)
	}
	if opts.ExecPath != "" {
		execOpts = append(execOpts, chromedp.ExecPath(opts.ExecPath))
	}

	for _, arg := range opts.ExtraArgs {
		if !strings.Contains(arg, "=") {
			execOpts = append(execOpts, chromedp.Flag(strings.TrimPrefix(arg, "--"), true))
			continue
		}
		parts := strings.SplitN(arg, "=", 2)
		execOpts = append(execOpts, chromedp.Flag(strings.TrimPrefix(parts[0], "--"), parts[1]))
	}
	return execOpts
}
