package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/stasyao/mymdb/internal/config"
)

// captureWriter tees the response into a buffer while forwarding it to
// the client, so a successful render can be stored afterwards.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if remain := cw.limit - cw.size; cw.limit <= 0 {
		cw.buf.Write(b)
	} else if remain > 0 {
		if int64(len(b)) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// cacheKey builds a stable key from the concrete request path, so
// /person/1/ and /person/2/ never share an entry even though they
// resolve to the same route.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var tail string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		tail = "route:" + r.URL.Path
	case "method_route":
		tail = "method:" + r.Method + ":route:" + r.URL.Path
	case "method_route_query":
		tail = "method:" + r.Method + ":route:" + r.URL.Path + ":q:" + r.URL.RawQuery
	default: // "route_query"
		tail = "route:" + r.URL.Path + ":q:" + r.URL.RawQuery
	}
	sum := sha1.Sum([]byte(tail))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// packResponse lays out [status u32][headerLen u32][headerJSON][body]
// so the replay preserves exact headers and body bytes.
func packResponse(status int, header http.Header, body []byte) ([]byte, error) {
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

func unpackResponse(bs []byte) (status int, header http.Header, body []byte, ok bool) {
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

// NewRedisCache caches whole 200 responses on the configured methods.
// Requests carrying an Authorization header always go to the handler:
// pages rendered for a signed-in caller must never be served to, or
// overwritten by, anyone else. With caching disabled or no Redis the
// middleware is a pass-through.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	maxBody := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			if c.Request().Header.Get("Authorization") != "" {
				return next(c)
			}

			ctx := c.Request().Context()
			key := cacheKey(cfg, c)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := unpackResponse(bs); ok {
					for k, vals := range hdr {
						if strings.EqualFold(k, "Content-Length") {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					if len(body) > 0 {
						_, _ = c.Response().Write(body)
					}
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			// Only complete 200 renders are worth replaying; a body cut
			// off by the size limit is skipped too.
			if cw.status == http.StatusOK && (maxBody <= 0 || cw.size <= maxBody) {
				hdr := make(http.Header, len(c.Response().Header()))
				for k, vals := range c.Response().Header() {
					hdr[k] = append([]string(nil), vals...)
				}
				if payload, err := packResponse(cw.status, hdr, cw.buf.Bytes()); err == nil {
					_ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
				}
			}
			return nil
		}
	}
}
