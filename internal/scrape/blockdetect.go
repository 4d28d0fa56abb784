package scrape

import (
	"net/http"
	"strings"
)

// BlockType names the wall standing between the fetcher and a posting.
type BlockType string

const (
	BlockNone         BlockType = ""
	BlockCloudflare   BlockType = "cloudflare"
	BlockAuthwall     BlockType = "authwall"
	BlockInterstitial BlockType = "interstitial"
	BlockCaptcha      BlockType = "captcha"
	BlockJSShell      BlockType = "js_shell"
)

// shellThreshold separates real posting pages from challenge shells and
// redirect stubs, which rarely exceed a couple of kilobytes.
const shellThreshold = 2000

// wallSignature ties a lowercase body marker to the wall it indicates.
// smallBodyOnly restricts ambiguous markers to near-empty pages so a
// posting that merely mentions the word is not misread as a wall.
type wallSignature struct {
	marker        string
	wall          BlockType
	smallBodyOnly bool
}

// Ordered most-specific first: the big job boards each have their own
// wall, and naming it beats the generic captcha bucket.
var wallSignatures = []wallSignature{
	// Cloudflare challenge pages.
	{marker: "checking your browser", wall: BlockCloudflare},
	{marker: "cf-browser-verification", wall: BlockCloudflare},
	{marker: "just a moment", wall: BlockCloudflare, smallBodyOnly: true},

	// LinkedIn sends logged-out visitors to its authwall.
	{marker: "authwall", wall: BlockAuthwall},
	{marker: "join linkedin to view", wall: BlockAuthwall},
	{marker: "sign in to view this job", wall: BlockAuthwall},

	// Indeed and Glassdoor verification interstitials.
	{marker: "verifying you are human", wall: BlockInterstitial},
	{marker: "verify you are a human", wall: BlockInterstitial},
	{marker: "help us protect glassdoor", wall: BlockInterstitial},
	{marker: "additional verification required", wall: BlockInterstitial},

	// Captcha vendors.
	{marker: "recaptcha", wall: BlockCaptcha},
	{marker: "hcaptcha", wall: BlockCaptcha},
	{marker: "captcha", wall: BlockCaptcha},
}

// DetectBlock checks an HTTP response for the anti-bot walls job boards
// front their postings with. It reports whether the page is a wall rather
// than a posting, and which kind.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	if cloudflareEdge(resp) {
		return true, BlockCloudflare
	}

	// LinkedIn's wall is visible in the final URL after redirects, before
	// the body says anything.
	if req := resp.Request; req != nil && req.URL != nil &&
		strings.Contains(req.URL.Path, "/authwall") {
		return true, BlockAuthwall
	}

	lower := strings.ToLower(string(body))
	small := len(body) < shellThreshold

	for _, sig := range wallSignatures {
		if sig.smallBodyOnly && !small {
			continue
		}
		if strings.Contains(lower, sig.marker) {
			return true, sig.wall
		}
	}

	// A near-empty page that insists on JavaScript will never yield a
	// posting over plain HTTP.
	if small {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return true, BlockJSShell
		}
		if strings.Contains(lower, `http-equiv="refresh"`) {
			return true, BlockJSShell
		}
	}

	return false, BlockNone
}

// cloudflareEdge reports whether the response came from a Cloudflare edge
// refusing the request outright.
func cloudflareEdge(resp *http.Response) bool {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusServiceUnavailable {
		return false
	}
	h := resp.Header
	return h.Get("cf-ray") != "" ||
		h.Get("cf-cache-status") != "" ||
		strings.EqualFold(h.Get("server"), "cloudflare")
}
