package shared

import (
	"fmt"
	"net/url"

	"github.com/pkg/browser"
)

var openURL = browser.OpenURL

// OpenBrowser opens the default system browser to the specified URL.
//
// Only http and https URLs are accepted, since the targets come from remote data (preview streams, album art).
func OpenBrowser(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: not a web URL: %q", ErrInvalidArgument, rawURL)
	}

	if err := openURL(u.String()); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
