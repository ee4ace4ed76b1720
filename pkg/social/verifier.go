package social

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	twitterscraper "github.com/imperatrona/twitter-scraper"
	"github.com/rs/zerolog/log"

	"github.com/tokenscout/pkg/filter"
)

var (
	profileURLRe = regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.)?(?:twitter\.com|x\.com)/@?([^/?#]+)`)

	// Common path words that match the profile pattern but are not handles.
	reservedPaths = map[string]bool{
		"home": true, "explore": true, "search": true, "notifications": true,
		"messages": true, "settings": true, "i": true, "status": true,
		"communities": true, "intent": true, "hashtag": true,
	}
)

// ExtractHandle pulls a Twitter handle out of a profile URL or an @name.
// Search and status-permalink URLs are rejected before any network work.
func ExtractHandle(rawURL string) (string, error) {
	url := strings.TrimSpace(rawURL)
	if url == "" {
		return "", fmt.Errorf("empty twitter URL")
	}
	if strings.HasPrefix(url, "@") {
		return url[1:], nil
	}
	if strings.Contains(url, "/search") || strings.Contains(url, "/status/") {
		return "", fmt.Errorf("Invalid Twitter URL type (search/status): %s", url)
	}

	m := profileURLRe.FindStringSubmatch(url)
	if m == nil {
		return "", fmt.Errorf("Invalid Twitter URL/Handle: %s", url)
	}
	handle := strings.SplitN(m[1], "?", 2)[0]
	if reservedPaths[strings.ToLower(handle)] {
		return "", fmt.Errorf("Invalid Twitter URL/Handle: %s", url)
	}
	return handle, nil
}

// Verifier checks a token's Twitter presence via the scraper client.
// Implements filter.SocialVerifier.
type Verifier struct {
	scraper   *twitterscraper.Scraper
	maxTweets int
}

func NewVerifier(authToken, csrfToken string) *Verifier {
	s := twitterscraper.New()
	if authToken != "" {
		s.SetAuthToken(twitterscraper.AuthToken{Token: authToken, CSRFToken: csrfToken})
	}
	return &Verifier{scraper: s, maxTweets: 20}
}

// Verify fetches the profile behind a link and checks whether the account has
// announced the mint. Transport problems land in Err; a missing account is a
// clean exists=false.
func (v *Verifier) Verify(ctx context.Context, profileURL, mint string) filter.SocialResult {
	handle, err := ExtractHandle(profileURL)
	if err != nil {
		return filter.SocialResult{Err: err.Error()}
	}

	profile, err := v.scraper.GetProfile(handle)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return filter.SocialResult{Handle: handle, Exists: false}
		}
		return filter.SocialResult{Handle: handle, Err: fmt.Sprintf("profile fetch: %v", err)}
	}

	res := filter.SocialResult{
		Handle:       handle,
		Exists:       true,
		Followers:    profile.FollowersCount,
		BlueVerified: profile.IsBlueVerified,
	}
	if profile.Joined != nil {
		res.AccountAgeDays = int(time.Since(*profile.Joined).Hours() / 24)
	}
	if mint != "" {
		res.MintAnnounced = v.mintAnnounced(ctx, profile, handle, mint)
	}
	return res
}

// mintAnnounced looks for the mint address in the profile bio, website and
// recent tweets. Best effort: scrape errors just mean "not announced".
func (v *Verifier) mintAnnounced(ctx context.Context, profile twitterscraper.Profile, handle, mint string) bool {
	if strings.Contains(profile.Biography, mint) || strings.Contains(profile.Website, mint) {
		return true
	}

	for result := range v.scraper.GetTweets(ctx, handle, v.maxTweets) {
		if ctx.Err() != nil {
			return false
		}
		if result.Error != nil {
			log.Debug().Str("handle", handle).Err(result.Error).Msg("tweet scan stopped")
			return false
		}
		if strings.Contains(result.Text, mint) {
			return true
		}
	}
	return false
}
