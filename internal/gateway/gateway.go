// Package gateway is the offline layer in front of the assistant origin:
// versioned cache buckets, three fetch strategies routed by request type,
// a queued note-sync drain and push-notification delivery. Every request terminates
// in a response — strategy failures degrade through the cache hierarchy and
// end, at worst, in a synthesized offline envelope.
package gateway

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// offlineMessage is the synthesized body for API requests with no cached
// fallback.
const offlineMessage = "Brak połączenia z internetem. Funkcja wymaga dostępu online."

// offlinePagePath is the pre-cached navigation fallback.
const offlinePagePath = "/offline.html"

// StaticAssets are pre-cached on install so the shell works offline.
var StaticAssets = []string{
	"/",
	"/index.html",
	"/manifest.json",
	"/stefan-icon.svg",
	offlinePagePath,
}

// assetExtensions marks style/script/image/font requests for the
// cache-first strategy.
var assetExtensions = map[string]bool{
	".css": true, ".js": true, ".mjs": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".ico": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true,
}

// assetDestinations are the fetch-metadata destinations routed cache-first.
var assetDestinations = map[string]bool{
	"style": true, "script": true, "image": true, "font": true,
}

type Gateway struct {
	upstream *url.URL
	cache    *Cache
	version  string
	host     string
	client   *http.Client
	logger   *slog.Logger
	group    singleflight.Group
}

func New(upstream *url.URL, cache *Cache, version, host string, logger *slog.Logger) *Gateway {
	return &Gateway{
		upstream: upstream,
		cache:    cache,
		version:  version,
		host:     host,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

func (g *Gateway) staticBucket() string  { return g.version + "-static" }
func (g *Gateway) dynamicBucket() string { return g.version + "-dynamic" }
func (g *Gateway) apiBucket() string     { return g.version + "-api" }

// Install pre-populates the static bucket with the app shell, bypassing any
// intermediate HTTP caches. Individual fetch failures are logged and
// skipped; install proceeds with whatever it could cache.
func (g *Gateway) Install(ctx context.Context) {
	g.logger.Info("installing gateway cache", "version", g.version)
	for _, asset := range StaticAssets {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.upstream.String()+asset, nil)
		if err != nil {
			g.logger.Warn("failed to build install request", "asset", asset, "error", err)
			continue
		}
		req.Header.Set("Cache-Control", "no-cache")

		resp, err := g.fetch(req)
		if err != nil {
			g.logger.Warn("failed to pre-cache asset", "asset", asset, "error", err)
			continue
		}
		if resp.Status != http.StatusOK {
			g.logger.Warn("asset returned non-200 on install", "asset", asset, "status", resp.Status)
			continue
		}
		if err := g.cache.Put(g.staticBucket(), cacheKey(http.MethodGet, asset), *resp); err != nil {
			g.logger.Warn("failed to store pre-cached asset", "asset", asset, "error", err)
		}
	}
}

// Activate sweeps every bucket left by previous versions. Buckets carrying
// the current version tag are kept.
func (g *Gateway) Activate(ctx context.Context) error {
	buckets, err := g.cache.Buckets()
	if err != nil {
		return err
	}
	prefix := g.version + "-"
	for _, bucket := range buckets {
		if strings.HasPrefix(bucket, prefix) {
			continue
		}
		g.logger.Info("deleting stale cache bucket", "bucket", bucket)
		if err := g.cache.DeleteBucket(bucket); err != nil {
			return err
		}
	}
	return nil
}

// ServeHTTP routes each request to its strategy. Order matters: cross-origin
// passthrough, then API network-first, then asset cache-first, then
// stale-while-revalidate for everything else.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if g.host != "" && r.Host != "" && !sameHost(r.Host, g.host) {
		g.passthrough(w, r)
		return
	}

	switch {
	case strings.HasPrefix(r.URL.Path, "/api/"):
		g.networkFirst(w, r)
	case isAsset(r):
		g.cacheFirst(w, r)
	default:
		g.staleWhileRevalidate(w, r)
	}
}

// networkFirst tries the live upstream, caching 200s; on failure it serves
// the cached copy, then the offline page for navigations, then the offline
// JSON envelope.
func (g *Gateway) networkFirst(w http.ResponseWriter, r *http.Request) {
	key := requestKey(r)
	resp, err := g.forward(r)
	if err == nil {
		if resp.Status == http.StatusOK {
			if err := g.cache.Put(g.apiBucket(), key, *resp); err != nil {
				g.logger.Warn("failed to cache api response", "key", key, "error", err)
			}
		}
		writeCached(w, *resp)
		return
	}

	g.logger.Info("network failed, trying cache", "path", r.URL.Path, "error", err)
	if cached, cacheErr := g.cache.Get(g.apiBucket(), key); cacheErr == nil {
		writeCached(w, cached)
		return
	}
	if isNavigation(r) {
		g.serveOfflinePage(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	fmt.Fprintf(w, `{"success":false,"message":%q}`, offlineMessage)
}

// cacheFirst serves assets from cache, fetching and caching on a miss.
func (g *Gateway) cacheFirst(w http.ResponseWriter, r *http.Request) {
	key := requestKey(r)
	if cached, err := g.cache.Get(g.staticBucket(), key); err == nil {
		writeCached(w, cached)
		return
	}

	resp, err := g.forward(r)
	if err != nil {
		g.logger.Warn("asset fetch failed", "path", r.URL.Path, "error", err)
		http.Error(w, "Offline - resource not available", http.StatusServiceUnavailable)
		return
	}
	if resp.Status == http.StatusOK {
		if err := g.cache.Put(g.staticBucket(), key, *resp); err != nil {
			g.logger.Warn("failed to cache asset", "key", key, "error", err)
		}
	}
	writeCached(w, *resp)
}

// staleWhileRevalidate serves the cached page immediately and refreshes the
// cache in the background; with no cached copy it waits on the network and
// falls back to the offline page.
func (g *Gateway) staleWhileRevalidate(w http.ResponseWriter, r *http.Request) {
	key := requestKey(r)
	cached, cacheErr := g.cache.Get(g.dynamicBucket(), key)
	if cacheErr == nil {
		g.revalidate(r, key)
		writeCached(w, cached)
		return
	}

	resp, err := g.forward(r)
	if err != nil {
		g.serveOfflinePage(w)
		return
	}
	if resp.Status == http.StatusOK {
		if err := g.cache.Put(g.dynamicBucket(), key, *resp); err != nil {
			g.logger.Warn("failed to cache page", "key", key, "error", err)
		}
	}
	writeCached(w, *resp)
}

// revalidate refreshes a dynamic cache entry in the background. Concurrent
// requests for the same key share one refresh.
func (g *Gateway) revalidate(r *http.Request, key string) {
	req := r.Clone(context.Background())
	req.Body = nil
	go g.group.Do(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		resp, err := g.forward(req.WithContext(ctx))
		if err != nil {
			g.logger.Debug("background revalidation failed", "key", key, "error", err)
			return nil, err
		}
		if resp.Status == http.StatusOK {
			if err := g.cache.Put(g.dynamicBucket(), key, *resp); err != nil {
				g.logger.Warn("failed to refresh cached page", "key", key, "error", err)
			}
		}
		return nil, nil
	})
}

// passthrough proxies a request without touching any cache bucket.
func (g *Gateway) passthrough(w http.ResponseWriter, r *http.Request) {
	resp, err := g.forward(r)
	if err != nil {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	writeCached(w, *resp)
}

// forward replays the request against the upstream origin.
func (g *Gateway) forward(r *http.Request) (*CachedResponse, error) {
	target := *g.upstream
	target.Path = r.URL.Path
	target.RawQuery = r.URL.RawQuery

	var body io.Reader
	if r.Body != nil {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	for name, values := range r.Header {
		req.Header[name] = values
	}
	return g.fetch(req)
}

func (g *Gateway) fetch(req *http.Request) (*CachedResponse, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream fetch: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}
	return &CachedResponse{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   data,
	}, nil
}

func (g *Gateway) serveOfflinePage(w http.ResponseWriter) {
	if cached, err := g.cache.Get(g.staticBucket(), cacheKey(http.MethodGet, offlinePagePath)); err == nil {
		writeCached(w, cached)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	io.WriteString(w, "<html><body><h1>Brak połączenia</h1><p>Stefan działa w trybie offline.</p></body></html>")
}

func writeCached(w http.ResponseWriter, resp CachedResponse) {
	for name, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(resp.Status)
	w.Write(resp.Body)
}

// requestKey identifies a request for caching. Two requests share a key only
// when method, path, query and body all match, so a cached POST reply is
// never replayed for a different payload. Reading the body here restores it
// for the upstream forward.
func requestKey(r *http.Request) string {
	key := r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	if r.Body != nil && r.Body != http.NoBody {
		data, err := io.ReadAll(r.Body)
		if err == nil {
			r.Body = io.NopCloser(bytes.NewReader(data))
			if len(data) > 0 {
				key += " " + fmt.Sprintf("%x", sha256.Sum256(data))
			}
		}
	}
	return cacheKey(r.Method, key)
}

func cacheKey(method, pathAndQuery string) string {
	return method + " " + pathAndQuery
}

func isAsset(r *http.Request) bool {
	if assetDestinations[r.Header.Get("Sec-Fetch-Dest")] {
		return true
	}
	return assetExtensions[strings.ToLower(path.Ext(r.URL.Path))]
}

func isNavigation(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func sameHost(a, b string) bool {
	trim := func(h string) string {
		if i := strings.LastIndex(h, ":"); i != -1 {
			return h[:i]
		}
		return h
	}
	return strings.EqualFold(trim(a), trim(b))
}
