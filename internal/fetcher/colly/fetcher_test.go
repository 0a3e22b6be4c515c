package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/domain-categorizer/internal/categorizer"
)

func hostOf(t *testing.T, srv *httptest.Server) categorizer.Domain {
	t.Helper()
	return categorizer.Domain(strings.TrimPrefix(srv.URL, "http://"))
}

func TestFetchReturnsHomepage(t *testing.T) {
	t.Parallel()

	var gotUA, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><head><title>Example Domain</title></head></html>"))
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "test-agent/1.0", Timeout: time.Second}, zap.NewNop())
	domain := hostOf(t, srv)
	page, err := f.Fetch(context.Background(), domain)
	require.NoError(t, err)
	require.Equal(t, "test-agent/1.0", gotUA)
	require.Equal(t, "/", gotPath)
	require.Equal(t, domain, page.Domain)
	require.Equal(t, http.StatusOK, page.StatusCode)
	require.Contains(t, string(page.Body), "Example Domain")
}

func TestFetchSameDomainTwice(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<p>again</p>"))
	}))
	defer srv.Close()

	f := New(Config{Timeout: time.Second}, nil)
	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), hostOf(t, srv))
		require.NoError(t, err)
	}
}

func TestFetchStatusClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status  int
		wantErr bool
	}{
		{status: http.StatusOK},
		{status: http.StatusCreated},
		{status: http.StatusAccepted},
		{status: http.StatusNonAuthoritativeInfo},
		{status: http.StatusPartialContent},
		{status: http.StatusNotFound, wantErr: true},
		{status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("<title>Hello World Page</title>"))
			}))
			defer srv.Close()

			f := New(Config{Timeout: time.Second}, zap.NewNop())
			page, err := f.Fetch(context.Background(), hostOf(t, srv))
			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, categorizer.ErrFetch)
				require.Contains(t, err.Error(), strconv.Itoa(tt.status))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.status, page.StatusCode)
			require.Contains(t, string(page.Body), "Hello World Page")
		})
	}
}

func TestFetchTimeoutIsFetchError(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		_, _ = w.Write([]byte("late"))
	}))
	defer srv.Close()
	defer close(release)

	f := New(Config{Timeout: 100 * time.Millisecond}, zap.NewNop())
	_, err := f.Fetch(context.Background(), hostOf(t, srv))
	require.ErrorIs(t, err, categorizer.ErrFetch)
}

func TestFetchUnreachableHost(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	domain := hostOf(t, srv)
	srv.Close()

	f := New(Config{Timeout: time.Second}, zap.NewNop())
	_, err := f.Fetch(context.Background(), domain)
	require.ErrorIs(t, err, categorizer.ErrFetch)
}

func TestFetchHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := New(Config{Timeout: 5 * time.Second}, zap.NewNop())
	_, err := f.Fetch(ctx, hostOf(t, srv))
	require.ErrorIs(t, err, categorizer.ErrFetch)
	require.ErrorIs(t, err, context.Canceled)
}

func TestHomepageURL(t *testing.T) {
	t.Parallel()

	f := New(Config{}, nil)
	require.Equal(t, "http://example.com/", f.HomepageURL("example.com"))
	require.Equal(t, "https://example.com/", New(Config{Scheme: "https"}, nil).HomepageURL("example.com"))
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{}, nil)
	var result categorizer.Page
	var fetchErr error

	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, "example.com", time.Unix(0, 0), &result, &fetchErr)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusOK,
		Body:       []byte("body"),
		Request: &colly.Request{
			URL: mustParseURL(t, "http://example.com/"),
		},
	})
	require.Equal(t, categorizer.Domain("example.com"), result.Domain)
	require.Equal(t, "http://example.com/", result.URL)
	require.Equal(t, "body", string(result.Body))

	hooks.onError(&colly.Response{StatusCode: http.StatusServiceUnavailable}, errors.New("boom"))
	require.EqualError(t, fetchErr, "status 503: boom")

	hooks.onError(nil, nil)
	require.EqualError(t, fetchErr, "unknown colly error")
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse url %q: %v", raw, err)
	}
	return u
}

type stubHooks struct {
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
