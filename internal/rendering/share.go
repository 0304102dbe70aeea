package rendering

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/jonathan/profile-compare/internal/types"
)

const (
	// TweetIntentURL is the X/Twitter compose endpoint used by the share button.
	TweetIntentURL = "https://twitter.com/intent/tweet"
	// ProfileURLPrefix links a handle to its public Ethos profile.
	ProfileURLPrefix = "https://app.ethos.network/profile/x/"
)

var fileNameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9]`)

// ComparisonURL returns the link that reopens a comparison of left and right.
// baseURL is the page origin and path; it must not carry a query string.
func ComparisonURL(baseURL, left, right string) string {
	q := url.Values{}
	q.Set("user1", left)
	q.Set("user2", right)
	return strings.TrimRight(baseURL, "?") + "?" + q.Encode()
}

// ShareText returns the post body announcing a comparison.
func ShareText(c *types.Comparison, comparisonURL string) (string, error) {
	if c == nil || !c.Left.Ready() || !c.Right.Ready() {
		return "", &RenderError{Message: "both profiles must be loaded to share a comparison"}
	}
	return fmt.Sprintf("Check out this comparison between %s (@%s) and %s (@%s) on Ethos! 🏆\n\nCompare profiles: %s",
		displayName(c.Left.Profile), c.Left.Profile.Handle,
		displayName(c.Right.Profile), c.Right.Profile.Handle,
		comparisonURL), nil
}

// ShareURL returns the tweet intent URL pre-filled with text. Spaces are
// encoded as %20.
func ShareURL(text string) string {
	return TweetIntentURL + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// ImageFileName returns the download name for a rendered comparison image.
func ImageFileName(left, right string) string {
	return fmt.Sprintf("ethos-comparison-%s-vs-%s.png",
		fileNameUnsafe.ReplaceAllString(left, ""),
		fileNameUnsafe.ReplaceAllString(right, ""))
}

func displayName(p *types.UserProfile) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Handle
}
