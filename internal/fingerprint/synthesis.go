package fingerprint

import (
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// WebGLProfile is the GPU story a session tells through the WebGL API.
type WebGLProfile struct {
	Vendor                 string
	Renderer               string
	Version                string
	ShadingLanguageVersion string
}

// TransportProfile describes the TLS shape matching the identity's browser
// family, for operators that front sessions with a fingerprint-aware proxy.
type TransportProfile struct {
	Version             string
	CipherSuites        []string
	Extensions          []string
	Curves              []string
	SignatureAlgorithms []string
	ALPN                []string
}

// BehaviorProfile carries per-identity interaction timings. Values are drawn
// once per identity so a session keeps the same rhythm for its whole life.
type BehaviorProfile struct {
	ClickHold        time.Duration
	DoubleClickGap   time.Duration
	TypingWPM        int
	KeyHoldShort     time.Duration
	KeyHoldMedium    time.Duration
	KeyHoldLong      time.Duration
	InterKeyFast     time.Duration
	InterKeyNormal   time.Duration
	InterKeySlow     time.Duration
	ScrollSpeed      float64
	MomentumDecay    float64
	PageLoadDelay    time.Duration
	InteractionDelay time.Duration

	// Seeds for the in-page behavior script.
	MouseStartX      int
	MouseStartY      int
	MouseJitterEvery time.Duration
	ScrollSweepEvery time.Duration
}

// Geolocation is the coordinate pair reported to the page.
type Geolocation struct {
	Latitude  float64
	Longitude float64
}

// SessionIdentity is one fully synthesized browser identity. Archetype-derived
// fields (WebGL, Fonts, seeds) are deterministic per archetype; the rest is
// drawn fresh for each session.
type SessionIdentity struct {
	ID            string
	Archetype     DeviceArchetype
	Locale        string
	Timezone      string
	ColorScheme   string
	ReducedMotion string
	Headers       map[string]string
	WebGL         WebGLProfile
	CanvasSeed    string
	AudioSeed     string
	Fonts         []string
	Transport     TransportProfile
	Behavior      BehaviorProfile
	Geolocation   Geolocation
}

// Language returns the bare language subtag of the identity's locale.
func (id *SessionIdentity) Language() string {
	lang, _, _ := strings.Cut(id.Locale, "-")
	return lang
}

// Synthesizer draws coherent session identities from an archetype catalog.
// Safe for concurrent use.
type Synthesizer struct {
	catalog *Catalog

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSynthesizer builds a synthesizer seeded from the clock. A nil catalog
// falls back to the built-in pool.
func NewSynthesizer(catalog *Catalog) *Synthesizer {
	return NewSeededSynthesizer(catalog, time.Now().UnixNano())
}

// NewSeededSynthesizer is NewSynthesizer with a caller-controlled seed, for
// reproducible draws in tests.
func NewSeededSynthesizer(catalog *Catalog, seed int64) *Synthesizer {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Synthesizer{
		catalog: catalog,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Synthesize draws one complete identity.
func (s *Synthesizer) Synthesize() SessionIdentity {
	s.mu.Lock()
	defer s.mu.Unlock()

	arch := s.catalog.Pick(s.rng)
	pair := localeTimezones[s.rng.Intn(len(localeTimezones))]
	colorSchemes := []string{"light", "dark", "no-preference"}
	reducedMotions := []string{"no-preference", "reduce"}

	return SessionIdentity{
		ID:            uuid.NewString(),
		Archetype:     arch,
		Locale:        pair.Locale,
		Timezone:      pair.Timezone,
		ColorScheme:   colorSchemes[s.rng.Intn(len(colorSchemes))],
		ReducedMotion: reducedMotions[s.rng.Intn(len(reducedMotions))],
		Headers:       headersFor(pair.Locale, arch.UserAgent),
		WebGL:         webglFor(arch),
		CanvasSeed:    canvasSeed(arch),
		AudioSeed:     audioSeed(arch),
		Fonts:         fontsFor(arch.Platform),
		Transport:     transportFor(arch.Platform, arch.UserAgent),
		Behavior:      behaviorFrom(s.rng),
		Geolocation: Geolocation{
			Latitude:  randFloat(s.rng, 25.0, 49.0),
			Longitude: randFloat(s.rng, -125.0, -66.0),
		},
	}
}

// archetypeDigest hashes the given parts into a stable 32-char hex string.
// Downstream derivations read hex slices out of it, so width and stability
// matter here, not collision resistance.
func archetypeDigest(parts ...string) string {
	h := fnv.New128a()
	io.WriteString(h, strings.Join(parts, "_"))
	return hex.EncodeToString(h.Sum(nil))
}

func canvasSeed(a DeviceArchetype) string {
	return archetypeDigest(a.Platform, strconv.Itoa(a.DeviceMemoryGB), strconv.Itoa(a.HardwareConcurrency))
}

func audioSeed(a DeviceArchetype) string {
	return archetypeDigest(a.Platform, "audio")
}

func webglFor(a DeviceArchetype) WebGLProfile {
	const (
		glVersion = "WebGL 1.0"
		glShading = "WebGL GLSL ES 1.0"
	)
	if a.Mobile {
		if strings.Contains(a.Platform, "iPhone") {
			return WebGLProfile{"Apple Inc.", "Apple GPU", glVersion, glShading}
		}
		return WebGLProfile{"Qualcomm", "Adreno (TM) 640", glVersion, glShading}
	}
	switch {
	case strings.Contains(a.Platform, "Mac"):
		return WebGLProfile{"Intel Inc.", "Intel(R) Iris(TM) Plus Graphics", glVersion, glShading}
	case strings.Contains(a.Platform, "Linux"):
		return WebGLProfile{"Mesa", "Mesa DRI Intel(R) UHD Graphics", glVersion, glShading}
	}
	gpus := []WebGLProfile{
		{"NVIDIA Corporation", "NVIDIA GeForce RTX 3060", glVersion, glShading},
		{"Intel", "Intel(R) UHD Graphics 630", glVersion, glShading},
		{"AMD", "AMD Radeon RX 580", glVersion, glShading},
	}
	idx := a.DeviceMemoryGB % len(gpus)
	if idx < 0 {
		idx += len(gpus)
	}
	return gpus[idx]
}

var baseFonts = []string{
	"Arial", "Helvetica", "Times", "Times New Roman", "Courier", "Courier New",
	"Verdana", "Georgia", "Palatino", "Garamond", "Bookman", "Comic Sans MS",
	"Trebuchet MS", "Arial Black", "Impact",
}

var platformFonts = map[string][]string{
	"windows": {
		"Calibri", "Cambria", "Consolas", "Constantia", "Corbel", "Candara",
		"Segoe UI", "Tahoma", "MS Sans Serif", "MS Serif",
	},
	"mac": {
		"Monaco", "Menlo", "SF Pro Display", "SF Pro Text", "Helvetica Neue",
		"Lucida Grande", "Apple Symbols", "Marker Felt",
	},
	"linux": {
		"Ubuntu", "DejaVu Sans", "Liberation Sans", "Droid Sans", "Noto Sans",
		"FreeSans", "FreeMono",
	},
}

// fontsFor augments the cross-platform base list with the platform's own
// faces. Platforms outside the three families (iPhone, Android) report the
// Linux set.
func fontsFor(platform string) []string {
	key := "linux"
	switch {
	case strings.Contains(platform, "Win32"):
		key = "windows"
	case strings.Contains(platform, "Mac"):
		key = "mac"
	}
	out := make([]string, 0, len(baseFonts)+len(platformFonts[key]))
	out = append(out, baseFonts...)
	out = append(out, platformFonts[key]...)
	return out
}

func headersFor(locale, userAgent string) map[string]string {
	lang, _, _ := strings.Cut(locale, "-")
	h := map[string]string{
		"User-Agent":                userAgent,
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
		"Accept-Language":           fmt.Sprintf("%s,%s;q=0.9,en;q=0.8", locale, lang),
		"Accept-Encoding":           "gzip, deflate, br",
		"Cache-Control":             "max-age=0",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Sec-Fetch-User":            "?1",
	}

	// Client hint headers belong to Chromium proper; Edge ships its own set.
	if strings.Contains(userAgent, "Chrome") && !strings.Contains(userAgent, "Edg") {
		h["sec-ch-ua"] = `"Chromium";v="127", "Not)A;Brand";v="99"`
		if strings.Contains(userAgent, "Mobile") {
			h["sec-ch-ua-mobile"] = "?1"
		} else {
			h["sec-ch-ua-mobile"] = "?0"
		}
		switch {
		case strings.Contains(userAgent, "Windows"):
			h["sec-ch-ua-platform"] = `"Windows"`
		case strings.Contains(userAgent, "Mac"):
			h["sec-ch-ua-platform"] = `"macOS"`
		default:
			h["sec-ch-ua-platform"] = `"Linux"`
		}
	}
	return h
}

func transportFor(platform, userAgent string) TransportProfile {
	p := TransportProfile{
		Version: "TLSv1.3",
		Curves:  []string{"X25519", "secp256r1", "secp384r1"},
		SignatureAlgorithms: []string{
			"ecdsa_secp256r1_sha256", "rsa_pss_rsae_sha256", "rsa_pkcs1_sha256",
			"ecdsa_secp384r1_sha384", "rsa_pss_rsae_sha384", "rsa_pkcs1_sha384",
		},
		ALPN: []string{"h2", "http/1.1"},
	}

	switch {
	case strings.Contains(userAgent, "Chrome"):
		switch {
		case strings.Contains(platform, "Win32"):
			p.CipherSuites = []string{
				"TLS_AES_128_GCM_SHA256",
				"TLS_AES_256_GCM_SHA384",
				"TLS_CHACHA20_POLY1305_SHA256",
				"TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256",
				"TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256",
			}
			p.Extensions = []string{
				"server_name", "extended_master_secret", "renegotiation_info",
				"supported_groups", "ec_point_formats", "session_ticket",
				"application_layer_protocol_negotiation", "status_request",
				"signature_algorithms", "signed_certificate_timestamp",
				"key_share", "psk_key_exchange_modes", "supported_versions",
				"compress_certificate", "application_settings",
			}
		case strings.Contains(platform, "Mac"):
			p.CipherSuites = []string{
				"TLS_AES_128_GCM_SHA256",
				"TLS_AES_256_GCM_SHA384",
				"TLS_CHACHA20_POLY1305_SHA256",
				"TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384",
				"TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384",
			}
			p.Extensions = []string{
				"server_name", "extended_master_secret", "renegotiation_info",
				"supported_groups", "ec_point_formats", "session_ticket",
				"application_layer_protocol_negotiation", "status_request",
				"signature_algorithms", "signed_certificate_timestamp",
				"key_share", "psk_key_exchange_modes", "supported_versions",
			}
		default:
			p.CipherSuites = []string{
				"TLS_AES_128_GCM_SHA256",
				"TLS_AES_256_GCM_SHA384",
				"TLS_CHACHA20_POLY1305_SHA256",
				"TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256",
				"TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256",
			}
			p.Extensions = []string{
				"server_name", "extended_master_secret", "renegotiation_info",
				"supported_groups", "ec_point_formats", "session_ticket",
				"application_layer_protocol_negotiation", "status_request",
				"signature_algorithms", "key_share", "psk_key_exchange_modes",
				"supported_versions",
			}
		}
	case strings.Contains(userAgent, "Safari"):
		p.CipherSuites = []string{
			"TLS_AES_128_GCM_SHA256",
			"TLS_AES_256_GCM_SHA384",
			"TLS_CHACHA20_POLY1305_SHA256",
			"TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384",
			"TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256",
		}
		p.Extensions = []string{
			"server_name", "extended_master_secret", "renegotiation_info",
			"supported_groups", "ec_point_formats", "session_ticket",
			"application_layer_protocol_negotiation", "signature_algorithms",
			"key_share", "psk_key_exchange_modes", "supported_versions",
		}
	default: // Firefox
		p.CipherSuites = []string{
			"TLS_AES_128_GCM_SHA256",
			"TLS_CHACHA20_POLY1305_SHA256",
			"TLS_AES_256_GCM_SHA384",
			"TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256",
			"TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256",
		}
		p.Extensions = []string{
			"server_name", "extended_master_secret", "renegotiation_info",
			"supported_groups", "ec_point_formats", "session_ticket",
			"application_layer_protocol_negotiation", "signature_algorithms",
			"key_share", "psk_key_exchange_modes", "supported_versions",
		}
	}
	return p
}

func behaviorFrom(rng *rand.Rand) BehaviorProfile {
	return BehaviorProfile{
		ClickHold:        randDuration(rng, 80, 150),
		DoubleClickGap:   randDuration(rng, 100, 300),
		TypingWPM:        45 + rng.Intn(41),
		KeyHoldShort:     randDuration(rng, 60, 120),
		KeyHoldMedium:    randDuration(rng, 120, 200),
		KeyHoldLong:      randDuration(rng, 200, 400),
		InterKeyFast:     randDuration(rng, 80, 150),
		InterKeyNormal:   randDuration(rng, 150, 250),
		InterKeySlow:     randDuration(rng, 250, 500),
		ScrollSpeed:      randFloat(rng, 0.5, 2.5),
		MomentumDecay:    randFloat(rng, 0.85, 0.95),
		PageLoadDelay:    randDuration(rng, 500, 2000),
		InteractionDelay: randDuration(rng, 100, 800),
		MouseStartX:      100 + rng.Intn(701),
		MouseStartY:      100 + rng.Intn(501),
		MouseJitterEvery: randDuration(rng, 1000, 3000),
		ScrollSweepEvery: randDuration(rng, 2000, 5000),
	}
}

// randDuration draws from [lo, hi] milliseconds inclusive.
func randDuration(rng *rand.Rand, lo, hi int) time.Duration {
	return time.Duration(lo+rng.Intn(hi-lo+1)) * time.Millisecond
}

func randFloat(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
