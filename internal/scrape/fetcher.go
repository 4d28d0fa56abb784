// Package scrape fetches job-posting pages and converts them to plaintext
// for the analysis prompt. Bot-walled or JS-only pages are reported as
// typed errors so callers can ask the user to paste the posting instead.
package scrape

import (
	"context"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Posting is the plaintext form of a fetched job posting.
type Posting struct {
	URL   string
	Title string
	Text  string
}

// ErrBlocked wraps block detection so callers can branch on it.
var ErrBlocked = eris.New("scrape: page blocked by anti-bot protection")

// Fetcher retrieves job-posting pages over plain HTTP.
type Fetcher struct {
	client   *http.Client
	maxBytes int
	retries  int
}

// NewFetcher creates a Fetcher. timeout bounds the whole request, maxBytes
// caps how much of the body is read.
func NewFetcher(timeout time.Duration, maxBytes, retries int) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = 512 * 1024
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		maxBytes: maxBytes,
		retries:  retries,
	}
}

// Fetch retrieves a posting URL, detects blocks, and strips the HTML to
// plaintext. Transient network and 5xx failures are retried.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Posting, error) {
	var posting *Posting

	err := retry.Do(
		func() error {
			p, err := f.fetchOnce(ctx, targetURL)
			if err != nil {
				return err
			}
			posting = p
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(f.retries)+1),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(func(err error) bool {
			// Blocks won't clear on retry.
			return !eris.Is(err, ErrBlocked)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("scrape: fetched posting",
		zap.String("url", targetURL),
		zap.String("title", posting.Title),
		zap.Int("chars", len(posting.Text)),
	)
	return posting, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, targetURL string) (*Posting, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; RuviaBot/1.0)")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(f.maxBytes)))
	if err != nil {
		return nil, eris.Wrap(err, "scrape: read body")
	}

	if blocked, blockType := DetectBlock(resp, body); blocked {
		return nil, eris.Wrapf(ErrBlocked, "scrape: %s", blockType)
	}

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("scrape: status %d", resp.StatusCode)
	}

	text := stripHTML(string(body))
	if len(text) < 50 {
		return nil, eris.New("scrape: page has no usable text")
	}

	return &Posting{
		URL:   targetURL,
		Title: extractTitle(body),
		Text:  text,
	}, nil
}

var titleRe = regexp.MustCompile(`(?i)<title[^>]*>(.*?)</title>`)

// extractTitle pulls the <title> from HTML.
func extractTitle(body []byte) string {
	m := titleRe.FindSubmatch(body)
	if len(m) > 1 {
		return strings.TrimSpace(string(m[1]))
	}
	return ""
}

// stripHTML removes scripts/styles/nav/footer, strips tags, decodes
// entities, and collapses whitespace. The result is plaintext suitable for
// the analysis prompt.
func stripHTML(html string) string {
	for _, tag := range []string{"script", "style", "nav", "footer"} {
		re := regexp.MustCompile(`(?is)<` + tag + `[^>]*>.*?</` + tag + `>`)
		html = re.ReplaceAllString(html, "")
	}

	tagRe := regexp.MustCompile(`<[^>]+>`)
	html = tagRe.ReplaceAllString(html, " ")

	r := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	html = r.Replace(html)

	spaceRe := regexp.MustCompile(`[ \t]+`)
	html = spaceRe.ReplaceAllString(html, " ")

	nlRe := regexp.MustCompile(`\n{3,}`)
	html = nlRe.ReplaceAllString(html, "\n\n")

	return strings.TrimSpace(html)
}
