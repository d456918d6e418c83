package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/game-table-reservation/internal/config"
)

// captureWriter tees the response body while forwarding it to the client.
// Once more than limit bytes are written the capture is abandoned.
type captureWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.overflow {
		if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
			cw.overflow = true
			cw.buf.Reset()
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

// encodePayload packs [status u32][header length u32][header JSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdr, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdr)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdr)))
	copy(out[8:], hdr)
	copy(out[8+len(hdr):], body)
	return out, nil
}

func decodePayload(bs []byte) (int, http.Header, []byte, bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status := int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	hdr := http.Header{}
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, hdr, bs[8+hlen:], true
}

// perResponse headers describe one exchange and are never stored or
// replayed.
var perResponse = []string{echo.HeaderContentLength, echo.HeaderXRequestID, "X-Cache"}

// storableHeader returns a copy of h without per-response headers.
func storableHeader(h http.Header) http.Header {
	out := h.Clone()
	for _, k := range perResponse {
		out.Del(k)
	}
	return out
}

// replayHeader adds the cached headers to dst.  The current request keeps
// its own per-response headers even if an older entry carried them.
func replayHeader(dst, cached http.Header) {
	for k, vals := range storableHeader(cached) {
		for _, v := range vals {
			dst.Add(k, v)
		}
	}
}

// ResponseCache stores successful responses of cacheable routes in Redis.
// Catalogue writes call Purge so readers never see stale master data for
// longer than the write itself.
type ResponseCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
	log *slog.Logger
}

// NewResponseCache returns a cache; a nil client disables it.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client, log *slog.Logger) *ResponseCache {
	return &ResponseCache{cfg: cfg, rdb: rdb, log: log}
}

func (rc *ResponseCache) enabled() bool { return rc != nil && rc.cfg.Enabled && rc.rdb != nil }

func (rc *ResponseCache) key(c echo.Context) string {
	sum := sha1.Sum([]byte(c.Path() + "?" + c.Request().URL.RawQuery))
	return fmt.Sprintf("%s:%x", rc.cfg.Prefix, sum[:])
}

// Middleware serves hits from Redis and records 200 responses on a miss.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
	if !rc.enabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rc.cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := rc.key(c)

			if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					replayHeader(c.Response().Header(), hdr)
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(status, hdr.Get(echo.HeaderContentType), body)
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: rc.cfg.MaxBodyBytes}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.overflow {
				return nil
			}
			payload, err := encodePayload(cw.status, storableHeader(c.Response().Header()), cw.buf.Bytes())
			if err != nil {
				return nil
			}
			if err := rc.rdb.Set(context.WithoutCancel(ctx), key, payload, rc.cfg.TTL).Err(); err != nil {
				rc.log.Warn("cache: store failed", "key", key, "err", err)
			}
			return nil
		}
	}
}

// Purge removes every cached response under the configured prefix.
func (rc *ResponseCache) Purge(ctx context.Context) error {
	if !rc.enabled() {
		return nil
	}
	var cursor uint64
	for {
		keys, next, err := rc.rdb.Scan(ctx, cursor, rc.cfg.Prefix+":*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := rc.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
