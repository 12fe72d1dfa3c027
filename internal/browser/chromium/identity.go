package chromium

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/decoy-cli/internal/fingerprint"
)

// identityTasks builds the CDP sequence that makes a fresh tab present the
// identity: emulation overrides, header overrides, and the two scripts every
// new document runs before page code gets a chance to look around.
func identityTasks(id fingerprint.SessionIdentity) (chromedp.Tasks, error) {
	bootstrap, err := fingerprint.BootstrapScript(id)
	if err != nil {
		return nil, err
	}
	behavior, err := fingerprint.BehaviorScript(id)
	if err != nil {
		return nil, err
	}

	headers := make(network.Headers, len(id.Headers))
	for k, v := range id.Headers {
		headers[k] = v
	}
	acceptLanguage := id.Headers["Accept-Language"]
	if acceptLanguage == "" {
		acceptLanguage = id.Locale
	}

	arch := id.Archetype
	touch := emulation.SetTouchEmulationEnabled(arch.Touch)
	if arch.Touch && arch.MaxTouchPoints > 0 {
		touch = touch.WithMaxTouchPoints(int64(arch.MaxTouchPoints))
	}

	return chromedp.Tasks{
		network.Enable(),
		emulation.SetUserAgentOverride(arch.UserAgent).
			WithAcceptLanguage(acceptLanguage).
			WithPlatform(arch.Platform),
		emulation.SetDeviceMetricsOverride(
			int64(arch.Viewport.Width), int64(arch.Viewport.Height),
			arch.DeviceScaleFactor, arch.Mobile),
		touch,
		emulation.SetTimezoneOverride(id.Timezone),
		emulation.SetLocaleOverride().WithLocale(id.Locale),
		emulation.SetGeolocationOverride().
			WithLatitude(id.Geolocation.Latitude).
			WithLongitude(id.Geolocation.Longitude).
			WithAccuracy(100),
		emulation.SetEmulatedMedia().WithFeatures([]*emulation.MediaFeature{
			{Name: "prefers-color-scheme", Value: id.ColorScheme},
			{Name: "prefers-reduced-motion", Value: id.ReducedMotion},
		}),
		network.SetExtraHTTPHeaders(headers),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if _, err := page.AddScriptToEvaluateOnNewDocument(bootstrap).Do(ctx); err != nil {
				return fmt.Errorf("install bootstrap script: %w", err)
			}
			if _, err := page.AddScriptToEvaluateOnNewDocument(behavior).Do(ctx); err != nil {
				return fmt.Errorf("install behavior script: %w", err)
			}
			return nil
		}),
	}, nil
}
