package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/decoy-cli/internal/browser/static"
	"github.com/xkilldash9x/decoy-cli/internal/config"
	"github.com/xkilldash9x/decoy-cli/internal/fingerprint"
	"github.com/xkilldash9x/decoy-cli/internal/interact"
	"github.com/xkilldash9x/decoy-cli/internal/journey"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func defaultTestConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.NewConfigFromViper(v)
	require.NoError(t, err)
	return cfg
}

func TestLoadURLList(t *testing.T) {
	t.Run("CollectsTrimmedLines", func(t *testing.T) {
		path := writeTempFile(t, "urls.txt", "https://a.example/\n   https://b.example/landing  \n")
		urls, err := loadURLList(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://a.example/", "https://b.example/landing"}, urls)
	})

	t.Run("SkipsBlanksAndComments", func(t *testing.T) {
		path := writeTempFile(t, "urls.txt", "# campaign targets\n\nhttps://a.example/\n   \n# retired\n")
		urls, err := loadURLList(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://a.example/"}, urls)
	})

	t.Run("NoPathConfigured", func(t *testing.T) {
		_, err := loadURLList("")
		assert.ErrorIs(t, err, journey.ErrInputError)
		assert.ErrorContains(t, err, "no URL list configured")
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := loadURLList(filepath.Join(t.TempDir(), "absent.txt"))
		assert.ErrorIs(t, err, journey.ErrInputError)
	})

	t.Run("OnlyCommentsMeansNothingToDo", func(t *testing.T) {
		path := writeTempFile(t, "urls.txt", "# one\n# two\n\n")
		_, err := loadURLList(path)
		assert.ErrorIs(t, err, journey.ErrInputError)
		assert.ErrorContains(t, err, "holds no URLs")
	})
}

func TestLoadCatalog(t *testing.T) {
	t.Run("EmptyPathMeansBuiltIn", func(t *testing.T) {
		catalog, err := loadCatalog("")
		require.NoError(t, err)
		assert.Nil(t, catalog)
	})

	t.Run("ReadsACatalogFile", func(t *testing.T) {
		path := writeTempFile(t, "catalog.json", `{
			"desktop": [{
				"user_agent": "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"viewport": {"width": 1920, "height": 1080},
				"device_scale_factor": 1,
				"platform": "Linux x86_64",
				"device_memory_gb": 8,
				"hardware_concurrency": 8
			}]
		}`)
		catalog, err := loadCatalog(path)
		require.NoError(t, err)
		require.NotNil(t, catalog)
		assert.Len(t, catalog.Desktop, 1)
	})

	t.Run("BadFileIsAnInputError", func(t *testing.T) {
		_, err := loadCatalog(filepath.Join(t.TempDir(), "absent.json"))
		assert.ErrorIs(t, err, journey.ErrInputError)
	})
}

func TestPromptWorkers(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		def     int
		want    int
		wantOut string
	}{
		{name: "AcceptsACount", input: "7\n", def: 1, want: 7},
		{name: "TrimsWhitespace", input: "  12  \n", def: 1, want: 12},
		{name: "BlankLineKeepsDefault", input: "\n", def: 3, want: 3},
		{name: "EOFKeepsDefault", input: "", def: 2, want: 2},
		{name: "RejectsZero", input: "0\n", def: 2, want: 2, wantOut: "Invalid count"},
		{name: "RejectsAboveCeiling", input: "9999\n", def: 1, want: 1, wantOut: "Invalid count"},
		{name: "RejectsGarbage", input: "many\n", def: 1, want: 1, wantOut: `Invalid count "many"`},
		{name: "ClampsAnUnusableDefault", input: "\n", def: 0, want: 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			got := promptWorkers(strings.NewReader(tc.input), &out, tc.def)
			assert.Equal(t, tc.want, got)
			assert.Contains(t, out.String(), fmt.Sprintf("How many instances? [1-%d", config.MaxWorkers))
			if tc.wantOut != "" {
				assert.Contains(t, out.String(), tc.wantOut)
			}
		})
	}
}

func TestResolveWorkers(t *testing.T) {
	t.Run("ValidFlagSkipsThePrompt", func(t *testing.T) {
		cmd := newRunCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		require.NoError(t, cmd.Flags().Set("workers", "5"))

		assert.Equal(t, 5, resolveWorkers(cmd, 1))
		assert.Empty(t, out.String())
	})

	t.Run("OutOfRangeFlagFallsBackToThePrompt", func(t *testing.T) {
		cmd := newRunCmd()
		var out, errOut bytes.Buffer
		cmd.SetIn(strings.NewReader("\n"))
		cmd.SetOut(&out)
		cmd.SetErr(&errOut)
		require.NoError(t, cmd.Flags().Set("workers", "0"))

		assert.Equal(t, 2, resolveWorkers(cmd, 2))
		assert.Contains(t, errOut.String(), "Ignoring --workers=0")
		assert.Contains(t, out.String(), "How many instances")
	})

	t.Run("NoFlagPrompts", func(t *testing.T) {
		cmd := newRunCmd()
		var out bytes.Buffer
		cmd.SetIn(strings.NewReader("4\n"))
		cmd.SetOut(&out)

		assert.Equal(t, 4, resolveWorkers(cmd, 1))
	})
}

func TestApplyRunFlags(t *testing.T) {
	t.Run("LeavesConfigAloneByDefault", func(t *testing.T) {
		cmd := newRunCmd()
		cfg := defaultTestConfig(t)
		before := *cfg

		applyRunFlags(cmd, cfg)

		assert.Equal(t, before.Run.URLFile, cfg.Run.URLFile)
		assert.Equal(t, before.Run.SnapshotFormat, cfg.Run.SnapshotFormat)
		assert.True(t, cfg.Browser.Headless)
	})

	t.Run("SetFlagsOverrideTheConfig", func(t *testing.T) {
		cmd := newRunCmd()
		cfg := defaultTestConfig(t)
		require.NoError(t, cmd.Flags().Set("urls", "campaign.txt"))
		require.NoError(t, cmd.Flags().Set("headless", "false"))
		require.NoError(t, cmd.Flags().Set("catalog", "devices.json"))
		require.NoError(t, cmd.Flags().Set("json", "true"))

		applyRunFlags(cmd, cfg)

		assert.Equal(t, "campaign.txt", cfg.Run.URLFile)
		assert.False(t, cfg.Browser.Headless)
		assert.Equal(t, "devices.json", cfg.Run.CatalogFile)
		assert.Equal(t, "json", cfg.Run.SnapshotFormat)
	})
}

// fixturePage satisfies every selector of the click script: a start control,
// sequenced buttons and links in first and second child position, and the
// payout link. Anchors point at "#" so a click never leaves the page.
const fixturePage = `<!DOCTYPE html>
<html>
<head><title>landing</title></head>
<body>
  <div class="start_btn">Start</div>
  <section>
    <div class="btn">One</div>
    <div class="btn">Two</div>
  </section>
  <nav>
    <a class="btn" href="#">First</a>
    <a class="btn" href="#">Second</a>
  </nav>
  <a class="get-link" href="#">Collect</a>
</body>
</html>`

// staticFixtureRunner builds a runner over the plain-HTTP backend with the
// waits shrunk so a full script walk stays under a couple of seconds.
func staticFixtureRunner(t *testing.T) *journey.Runner {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return journey.NewRunner(static.NewLauncher(logger), journey.Options{
		Identities: fingerprint.NewSeededSynthesizer(nil, 3),
		Tunables: interact.Tunables{
			PollInterval:   5 * time.Millisecond,
			StepBudget:     500 * time.Millisecond,
			DOMBudget:      50 * time.Millisecond,
			IdleBudget:     20 * time.Millisecond,
			MarkerGrace:    10 * time.Millisecond,
			MarkerPatience: 20 * time.Millisecond,
			PostActivate:   time.Millisecond,
			OverlayPasses:  1,
		},
		NavigationTimeout: 2 * time.Second,
		TeardownTimeout:   time.Second,
		FinalDwell:        time.Millisecond,
		FinalPause:        time.Millisecond,
		Logger:            logger,
	})
}

func TestDryRunScript(t *testing.T) {
	t.Run("WalksEveryStep", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, fixturePage)
		}))
		defer srv.Close()

		var out bytes.Buffer
		err := dryRunScript(context.Background(), &out, []string{srv.URL}, staticFixtureRunner(t))
		require.NoError(t, err)

		got := out.String()
		assert.Contains(t, got, "Open URL")
		assert.Contains(t, got, "step 1")
		assert.Contains(t, got, "step 10")
		assert.Contains(t, got, "Done")
		assert.Contains(t, got, "dry run: all 1 URLs passed")
		assert.NotContains(t, got, "FAIL")
	})

	t.Run("ReportsAFailingURL", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><body><p>nothing to click</p></body></html>`)
		}))
		defer srv.Close()

		var out bytes.Buffer
		err := dryRunScript(context.Background(), &out, []string{srv.URL}, staticFixtureRunner(t))
		assert.ErrorContains(t, err, "dry run: 1 of 1 URLs failed")

		got := out.String()
		assert.Contains(t, got, "FAIL")
		assert.Contains(t, got, "error: step 1")
	})

	t.Run("StopsWhenCancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var out bytes.Buffer
		err := dryRunScript(ctx, &out, []string{"http://unused.example/"}, staticFixtureRunner(t))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, out.Len())
	})
}
