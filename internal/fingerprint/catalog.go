package fingerprint

// Built-in archetype pool. Entries mirror hardware that actually shipped;
// memory and core counts matter because the WebGL and canvas derivations
// hash them into the session's hardware story.

var desktopArchetypes = []DeviceArchetype{
	// Windows 10, Chrome.
	{
		UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
		Viewport:            Viewport{Width: 1920, Height: 1080},
		DeviceScaleFactor:   1.0,
		Platform:            "Win32",
		DeviceMemoryGB:      8,
		HardwareConcurrency: 8,
	},
	{
		UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		Viewport:            Viewport{Width: 1366, Height: 768},
		DeviceScaleFactor:   1.0,
		Platform:            "Win32",
		DeviceMemoryGB:      4,
		HardwareConcurrency: 4,
	},
	{
		UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
		Viewport:            Viewport{Width: 1440, Height: 900},
		DeviceScaleFactor:   1.0,
		Platform:            "Win32",
		DeviceMemoryGB:      8,
		HardwareConcurrency: 6,
	},
	{
		UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		Viewport:            Viewport{Width: 1536, Height: 864},
		DeviceScaleFactor:   1.25,
		Platform:            "Win32",
		DeviceMemoryGB:      16,
		HardwareConcurrency: 8,
	},
	{
		UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		Viewport:            Viewport{Width: 1600, Height: 900},
		DeviceScaleFactor:   1.0,
		Platform:            "Win32",
		DeviceMemoryGB:      8,
		HardwareConcurrency: 4,
	},
	{
		UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		Viewport:            Viewport{Width: 1280, Height: 720},
		DeviceScaleFactor:   1.0,
		Platform:            "Win32",
		DeviceMemoryGB:      4,
		HardwareConcurrency: 2,
	},
	// Windows 11, Chrome.
	{
		UserAgent:           "Mozilla/5.0 (Windows NT 11.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
		Viewport:            Viewport{Width: 2560, Height: 1440},
		DeviceScaleFactor:   1.25,
		Platform:            "Win32",
		DeviceMemoryGB:      16,
		HardwareConcurrency: 12,
	},
	{
		UserAgent:           "Mozilla/5.0 (Windows NT 11.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		Viewport:            Viewport{Width: 1920, Height: 1080},
		DeviceScaleFactor:   1.0,
		Platform:            "Win32",
		DeviceMemoryGB:      32,
		HardwareConcurrency: 16,
	},
	{
		UserAgent:           "Mozilla/5.0 (Windows NT 11.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
		Viewport:            Viewport{Width: 3440, Height: 1440},
		DeviceScaleFactor:   1.0,
		Platform:            "Win32",
		DeviceMemoryGB:      64,
		HardwareConcurrency: 24,
	},
	// Windows, Edge.
	{
		UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36 Edg/127.0.0.0",
		Viewport:            Viewport{Width: 1920, Height: 1080},
		DeviceScaleFactor:   1.0,
		Platform:            "Win32",
		DeviceMemoryGB:      8,
		HardwareConcurrency: 8,
	},
	{
		UserAgent:           "Mozilla/5.0 (Windows NT 11.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 Edg/126.0.0.0",
		Viewport:            Viewport{Width: 1728, Height: 1117},
		DeviceScaleFactor:   1.5,
		Platform:            "Win32",
		DeviceMemoryGB:      16,
		HardwareConcurrency: 10,
	},
	// Windows, Firefox.
	{
		UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
		Viewport:            Viewport{Width: 1920, Height: 1080},
		DeviceScaleFactor:   1.0,
		Platform:            "Win32",
		DeviceMemoryGB:      8,
		HardwareConcurrency: 8,
	},
	// macOS, Chrome.
	{
		UserAgent:           "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
		Viewport:            Viewport{Width: 1728, Height: 1117},
		DeviceScaleFactor:   2.0,
		Platform:            "MacIntel",
		DeviceMemoryGB:      8,
		HardwareConcurrency: 8,
	},
	{
		UserAgent:           "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
		Viewport:            Viewport{Width: 1440, Height: 900},
		DeviceScaleFactor:   2.0,
		Platform:            "MacIntel",
		DeviceMemoryGB:      32,
		HardwareConcurrency: 16,
	},
	// macOS, Safari.
	{
		UserAgent:           "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Safari/605.1.15",
		Viewport:            Viewport{Width: 1512, Height: 982},
		DeviceScaleFactor:   2.0,
		Platform:            "MacIntel",
		DeviceMemoryGB:      16,
		HardwareConcurrency: 10,
	},
	// Linux, Chrome.
	{
		UserAgent:           "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
		Viewport:            Viewport{Width: 1920, Height: 1080},
		DeviceScaleFactor:   1.0,
		Platform:            "Linux x86_64",
		DeviceMemoryGB:      8,
		HardwareConcurrency: 8,
	},
	{
		UserAgent:           "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		Viewport:            Viewport{Width: 2560, Height: 1440},
		DeviceScaleFactor:   1.0,
		Platform:            "Linux x86_64",
		DeviceMemoryGB:      16,
		HardwareConcurrency: 12,
	},
	// Linux, Firefox.
	{
		UserAgent:           "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
		Viewport:            Viewport{Width: 1366, Height: 768},
		DeviceScaleFactor:   1.0,
		Platform:            "Linux x86_64",
		DeviceMemoryGB:      4,
		HardwareConcurrency: 4,
	},
}

var mobileArchetypes = []DeviceArchetype{
	// iPhone, Safari.
	{
		UserAgent:           "Mozilla/5.0 (iPhone; CPU iPhone OS 17_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Mobile/15E148 Safari/604.1",
		Viewport:            Viewport{Width: 390, Height: 844},
		DeviceScaleFactor:   3.0,
		Mobile:              true,
		Touch:               true,
		Platform:            "iPhone",
		DeviceMemoryGB:      6,
		HardwareConcurrency: 6,
		MaxTouchPoints:      5,
	},
	{
		UserAgent:           "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
		Viewport:            Viewport{Width: 428, Height: 926},
		DeviceScaleFactor:   3.0,
		Mobile:              true,
		Touch:               true,
		Platform:            "iPhone",
		DeviceMemoryGB:      8,
		HardwareConcurrency: 6,
		MaxTouchPoints:      5,
	},
	{
		UserAgent:           "Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Mobile/15E148 Safari/604.1",
		Viewport:            Viewport{Width: 393, Height: 852},
		DeviceScaleFactor:   3.0,
		Mobile:              true,
		Touch:               true,
		Platform:            "iPhone",
		DeviceMemoryGB:      8,
		HardwareConcurrency: 6,
		MaxTouchPoints:      5,
	},
	{
		UserAgent:           "Mozilla/5.0 (iPhone; CPU iPhone OS 16_7 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1",
		Viewport:            Viewport{Width: 375, Height: 667},
		DeviceScaleFactor:   2.0,
		Mobile:              true,
		Touch:               true,
		Platform:            "iPhone",
		DeviceMemoryGB:      6,
		HardwareConcurrency: 6,
		MaxTouchPoints:      5,
	},
	// Samsung Galaxy, Chrome.
	{
		UserAgent:           "Mozilla/5.0 (Linux; Android 14; SM-S918B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Mobile Safari/537.36",
		Viewport:            Viewport{Width: 412, Height: 915},
		DeviceScaleFactor:   2.625,
		Mobile:              true,
		Touch:               true,
		Platform:            "Linux armv8l",
		DeviceMemoryGB:      8,
		HardwareConcurrency: 8,
		MaxTouchPoints:      10,
	},
	{
		UserAgent:           "Mozilla/5.0 (Linux; Android 13; SM-S911B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Mobile Safari/537.36",
		Viewport:            Viewport{Width: 360, Height: 780},
		DeviceScaleFactor:   3.0,
		Mobile:              true,
		Touch:               true,
		Platform:            "Linux armv8l",
		DeviceMemoryGB:      8,
		HardwareConcurrency: 8,
		MaxTouchPoints:      10,
	},
	// Google Pixel, Chrome.
	{
		UserAgent:           "Mozilla/5.0 (Linux; Android 14; Pixel 8 Pro) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Mobile Safari/537.36",
		Viewport:            Viewport{Width: 412, Height: 892},
		DeviceScaleFactor:   2.625,
		Mobile:              true,
		Touch:               true,
		Platform:            "Linux armv8l",
		DeviceMemoryGB:      12,
		HardwareConcurrency: 8,
		MaxTouchPoints:      10,
	},
	{
		UserAgent:           "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Mobile Safari/537.36",
		Viewport:            Viewport{Width: 412, Height: 915},
		DeviceScaleFactor:   2.625,
		Mobile:              true,
		Touch:               true,
		Platform:            "Linux armv8l",
		DeviceMemoryGB:      8,
		HardwareConcurrency: 8,
		MaxTouchPoints:      10,
	},
	// OnePlus, Chrome.
	{
		UserAgent:           "Mozilla/5.0 (Linux; Android 14; CPH2573) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Mobile Safari/537.36",
		Viewport:            Viewport{Width: 450, Height: 1000},
		DeviceScaleFactor:   2.625,
		Mobile:              true,
		Touch:               true,
		Platform:            "Linux armv8l",
		DeviceMemoryGB:      16,
		HardwareConcurrency: 12,
		MaxTouchPoints:      10,
	},
	// Xiaomi, Chrome.
	{
		UserAgent:           "Mozilla/5.0 (Linux; Android 14; 24031PN0DC) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Mobile Safari/537.36",
		Viewport:            Viewport{Width: 412, Height: 915},
		DeviceScaleFactor:   2.625,
		Mobile:              true,
		Touch:               true,
		Platform:            "Linux armv8l",
		DeviceMemoryGB:      12,
		HardwareConcurrency: 8,
		MaxTouchPoints:      10,
	},
}

var tabletArchetypes = []DeviceArchetype{
	// iPad, Safari.
	{
		UserAgent:           "Mozilla/5.0 (iPad; CPU OS 17_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Mobile/15E148 Safari/604.1",
		Viewport:            Viewport{Width: 1024, Height: 1366},
		DeviceScaleFactor:   2.0,
		Mobile:              true,
		Touch:               true,
		Platform:            "MacIntel",
		DeviceMemoryGB:      16,
		HardwareConcurrency: 8,
		MaxTouchPoints:      5,
	},
	{
		UserAgent:           "Mozilla/5.0 (iPad; CPU OS 17_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Mobile/15E148 Safari/604.1",
		Viewport:            Viewport{Width: 834, Height: 1194},
		DeviceScaleFactor:   2.0,
		Mobile:              true,
		Touch:               true,
		Platform:            "MacIntel",
		DeviceMemoryGB:      8,
		HardwareConcurrency: 8,
		MaxTouchPoints:      5,
	},
	{
		UserAgent:           "Mozilla/5.0 (iPad; CPU OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
		Viewport:            Viewport{Width: 820, Height: 1180},
		DeviceScaleFactor:   2.0,
		Mobile:              true,
		Touch:               true,
		Platform:            "MacIntel",
		DeviceMemoryGB:      10,
		HardwareConcurrency: 8,
		MaxTouchPoints:      5,
	},
	{
		UserAgent:           "Mozilla/5.0 (iPad; CPU OS 17_3 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Mobile/15E148 Safari/604.1",
		Viewport:            Viewport{Width: 744, Height: 1133},
		DeviceScaleFactor:   2.0,
		Mobile:              true,
		Touch:               true,
		Platform:            "MacIntel",
		DeviceMemoryGB:      6,
		HardwareConcurrency: 4,
		MaxTouchPoints:      5,
	},
	// Samsung Galaxy Tab, Chrome.
	{
		UserAgent:           "Mozilla/5.0 (Linux; Android 13; SM-X916C) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
		Viewport:            Viewport{Width: 800, Height: 1280},
		DeviceScaleFactor:   2.0,
		Mobile:              true,
		Touch:               true,
		Platform:            "Linux armv8l",
		DeviceMemoryGB:      12,
		HardwareConcurrency: 8,
		MaxTouchPoints:      10,
	},
	{
		UserAgent:           "Mozilla/5.0 (Linux; Android 13; SM-X906C) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
		Viewport:            Viewport{Width: 800, Height: 1232},
		DeviceScaleFactor:   2.0,
		Mobile:              true,
		Touch:               true,
		Platform:            "Linux armv8l",
		DeviceMemoryGB:      8,
		HardwareConcurrency: 8,
		MaxTouchPoints:      10,
	},
}
