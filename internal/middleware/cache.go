package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/julhaas91/boilerplate-cloud-run/internal/config"
)

const (
	HeaderXCache = "X-Cache"
	cacheHit     = "HIT"
	cacheMiss    = "MISS"
)

// Response headers that describe a single exchange and are never replayed.
var perRequestHeaders = map[string]bool{
	echo.HeaderContentLength: true,
	echo.HeaderXRequestID:    true,
	HeaderXCache:             true,
}

// captureWriter records status and body while forwarding to the client.
// Once more than limit bytes have been written it stops buffering and marks
// the response as too large to cache.
type captureWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int64
	overflow bool
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.overflow {
		if cw.limit > 0 && int64(cw.buf.Len()+len(b)) > cw.limit {
			cw.overflow = true
			cw.buf.Reset()
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

// cacheKeyFrom builds a stable key honouring prefix and strategy. The body
// strategy reads the request body and puts it back for the handler.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) (string, error) {
	r := c.Request()
	parts := []string{}
	switch cfg.KeyStrategy {
	case config.KeyRoute:
		parts = append(parts, "route", c.Path())
	case config.KeyMethodRoute:
		parts = append(parts, "method", r.Method, "route", c.Path())
	case config.KeyMethodRouteQuery:
		parts = append(parts, "method", r.Method, "route", c.Path(), "q", r.URL.RawQuery)
	case config.KeyMethodRouteBody:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return "", err
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		parts = append(parts, "method", r.Method, "route", c.Path(), "body", string(body))
	default: // route_query
		parts = append(parts, "route", c.Path(), "q", r.URL.RawQuery)
	}

	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:]), nil
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}

// NewRedisCache replays cached responses for the configured methods. Only
// 200 responses are stored, together with their headers, so a hit is byte
// for byte identical to the original reply. Redis failures are logged and
// the request is served uncached.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, logger *slog.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	maxBody := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}

			key, err := cacheKeyFrom(cfg, c)
			if err != nil {
				return err
			}
			ctx := c.Request().Context()
			log := logger.With(slog.String("cache_key", key))

			bs, err := rdb.Get(ctx, key).Bytes()
			switch {
			case err == nil:
				if status, hdr, body, ok := decodePayload(bs); ok {
					return replay(c, status, hdr, body)
				}
				log.Warn("cache: undecodable entry, ignoring")
			case !errors.Is(err, redis.Nil):
				log.Warn("cache: lookup failed", slog.Any("error", err))
			}

			res := c.Response()
			cw := &captureWriter{ResponseWriter: res.Writer, status: http.StatusOK, limit: maxBody}
			res.Writer = cw
			defer func() { res.Writer = cw.ResponseWriter }()
			// Only replies that can be stored are marked as a miss.
			res.Before(func() {
				if res.Status == http.StatusOK {
					res.Header().Set(HeaderXCache, cacheMiss)
				}
			})

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.overflow {
				return nil
			}

			hdr := make(http.Header, len(res.Header()))
			for k, vals := range res.Header() {
				if perRequestHeaders[http.CanonicalHeaderKey(k)] {
					continue
				}
				hdr[k] = append([]string(nil), vals...)
			}
			payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
			if err != nil {
				log.Warn("cache: encode failed", slog.Any("error", err))
				return nil
			}
			// The client may already be gone; the entry is still worth keeping.
			if err := rdb.SetEx(context.WithoutCancel(ctx), key, payload, ttl).Err(); err != nil {
				log.Warn("cache: store failed", slog.Any("error", err))
			}
			return nil
		}
	}
}

func replay(c echo.Context, status int, hdr http.Header, body []byte) error {
	res := c.Response()
	for k, vals := range hdr {
		if perRequestHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		for _, v := range vals {
			res.Header().Add(k, v)
		}
	}
	res.Header().Set(HeaderXCache, cacheHit)
	res.WriteHeader(status)
	if len(body) > 0 {
		_, err := res.Write(body)
		return err
	}
	return nil
}
