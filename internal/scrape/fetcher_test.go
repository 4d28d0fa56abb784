package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postingHTML = `<!DOCTYPE html>
<html>
<head>
<title>Senior Go Engineer - Acme Corp</title>
<style>body { color: red; }</style>
<script>trackVisit();</script>
</head>
<body>
<nav><a href="/">Home</a><a href="/jobs">Jobs</a></nav>
<h1>Senior Go Engineer</h1>
<p>Acme Corp is hiring a senior engineer to build &amp; maintain our
data pipeline. Salary range $150k&ndash;$180k. Remote friendly.</p>
<footer>Copyright Acme Corp</footer>
</body>
</html>`

func TestFetchStripsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "RuviaBot")
		_, _ = w.Write([]byte(postingHTML))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, 0, 0)
	p, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Senior Go Engineer - Acme Corp", p.Title)
	assert.Contains(t, p.Text, "Senior Go Engineer")
	assert.Contains(t, p.Text, "build & maintain")
	assert.NotContains(t, p.Text, "trackVisit")
	assert.NotContains(t, p.Text, "color: red")
	assert.NotContains(t, p.Text, "Copyright Acme Corp")
	assert.NotContains(t, p.Text, "<p>")
}

func TestFetchCloudflareBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("cf-ray", "8a1b2c3d4e5f-IAD")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("<html>Checking your browser before accessing</html>"))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, 0, 2)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrBlocked))
}

func TestFetchRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(postingHTML))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, 0, 2)
	p, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Contains(t, p.Text, "Senior Go Engineer")
}

func TestFetchBlockNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("<html><body>Please solve this CAPTCHA to continue and prove you are a human visitor</body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, 0, 3)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrBlocked))
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchCapsBodySize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>" + strings.Repeat("job posting text ", 10000) + "</p></body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, 4096, 0)
	p, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(p.Text), 4096)
}

func TestFetchJSShellBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>Lots of content here on this page for everyone, really quite a bit of it. <noscript>This page requires JavaScript to render.</noscript></body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, 0, 0)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrBlocked))
}

func TestDetectBlock(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		headers   map[string]string
		body      string
		blocked   bool
		blockType BlockType
	}{
		{
			name:      "clean page",
			status:    200,
			body:      "<html><body>A perfectly normal job posting page with content</body></html>",
			blocked:   false,
			blockType: BlockNone,
		},
		{
			name:      "cloudflare 403 with cf-ray",
			status:    403,
			headers:   map[string]string{"cf-ray": "abc123"},
			body:      "forbidden",
			blocked:   true,
			blockType: BlockCloudflare,
		},
		{
			name:      "cloudflare challenge body",
			status:    200,
			body:      "<html>Checking your browser before accessing example.com</html>",
			blocked:   true,
			blockType: BlockCloudflare,
		},
		{
			name:      "recaptcha",
			status:    200,
			body:      `<html><div class="g-recaptcha"></div></html>`,
			blocked:   true,
			blockType: BlockCaptcha,
		},
		{
			name:      "linkedin authwall",
			status:    200,
			body:      `<html><body class="authwall">Join LinkedIn to view this job posting.</body></html>`,
			blocked:   true,
			blockType: BlockAuthwall,
		},
		{
			name:      "linkedin sign-in prompt",
			status:    200,
			body:      `<html><body>Sign in to view this job and thousands more.</body></html>`,
			blocked:   true,
			blockType: BlockAuthwall,
		},
		{
			name:      "indeed human check",
			status:    403,
			body:      `<html><body><h1>Verifying you are human.</h1><p>This may take a few seconds.</p></body></html>`,
			blocked:   true,
			blockType: BlockInterstitial,
		},
		{
			name:      "glassdoor verification",
			status:    200,
			body:      `<html><body>Help us protect Glassdoor by verifying that you're a real person.</body></html>`,
			blocked:   true,
			blockType: BlockInterstitial,
		},
		{
			name:      "glassdoor wall beats its captcha widget",
			status:    200,
			body:      `<html><body>Help us protect Glassdoor.<div class="g-recaptcha"></div></body></html>`,
			blocked:   true,
			blockType: BlockInterstitial,
		},
		{
			name:      "js shell",
			status:    200,
			body:      `<html><noscript>Enable JavaScript to view this page</noscript></html>`,
			blocked:   true,
			blockType: BlockJSShell,
		},
		{
			name:      "large page with noscript is fine",
			status:    200,
			body:      "<html><noscript>enable javascript</noscript>" + strings.Repeat("real content ", 500) + "</html>",
			blocked:   false,
			blockType: BlockNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{
				StatusCode: tt.status,
				Header:     http.Header{},
			}
			for k, v := range tt.headers {
				resp.Header.Set(k, v)
			}

			blocked, blockType := DetectBlock(resp, []byte(tt.body))
			assert.Equal(t, tt.blocked, blocked)
			assert.Equal(t, tt.blockType, blockType)
		})
	}
}

func TestDetectBlockAuthwallRedirect(t *testing.T) {
	// The wall shows up in the post-redirect URL even when the body is
	// unremarkable.
	req := httptest.NewRequest(http.MethodGet, "https://www.linkedin.com/authwall?sessionRedirect=abc", nil)
	resp := &http.Response{StatusCode: 200, Header: http.Header{}, Request: req}

	blocked, blockType := DetectBlock(resp, []byte("<html><body>Welcome</body></html>"))
	assert.True(t, blocked)
	assert.Equal(t, BlockAuthwall, blockType)
}

func TestFetchAuthwallNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("<html><body>Join LinkedIn to view this job posting and connect with the hiring team.</body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, 0, 3)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrBlocked))
	assert.Equal(t, int32(1), calls.Load())
}

func TestStripHTMLEntities(t *testing.T) {
	out := stripHTML(`<p>Pay: &quot;competitive&quot; &amp; fair &#39;really&#39;&nbsp;&lt;wow&gt;</p>`)
	assert.Equal(t, `Pay: "competitive" & fair 'really' <wow>`, out)
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "My Job", extractTitle([]byte(`<html><title> My Job </title></html>`)))
	assert.Equal(t, "", extractTitle([]byte(`<html><body>no title</body></html>`)))
}
