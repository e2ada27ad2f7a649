package loggingmw

import (
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/graphkart/storefront/internal/logging"
	authmw "github.com/graphkart/storefront/internal/middleware/auth"
)

type Config struct {
	Logger *slog.Logger

	// SlowThreshold marks completed requests slower than this with slow=true.
	// Zero disables the flag.
	SlowThreshold time.Duration

	// QuietPrefixes are logged at debug level when they succeed, so health
	// probes do not flood the log.
	QuietPrefixes []string
}

// RequestLogger logs with a one second slow threshold and quiet health probes.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return RequestLoggerWithConfig(Config{
		Logger:        base,
		SlowThreshold: time.Second,
		QuietPrefixes: []string{"/health/"},
	})
}

// RequestLoggerWithConfig puts a request-scoped logger into the request
// context and writes one line per completed request, tagged with the shopper
// when the auth middleware identified one.
func RequestLoggerWithConfig(cfg Config) echo.MiddlewareFunc {
	base := cfg.Logger
	if base == nil {
		base = slog.Default()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			l := base.With("method", req.Method, "route", c.Path(), "url", req.URL.Path, "remote_ip", c.RealIP())
			if rid := requestID(c); rid != "" {
				l = l.With("request_id", rid)
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)
			status := c.Response().Status

			attrs := []any{"status", status, "duration_ms", elapsed.Milliseconds()}
			if user := authmw.Username(c); user != "" {
				attrs = append(attrs, "username", user)
			}
			if cfg.SlowThreshold > 0 && elapsed > cfg.SlowThreshold {
				attrs = append(attrs, "slow", true)
			}

			switch {
			case status >= 500:
				l.Error("request completed", append(attrs, "error", errText(err))...)
			case status >= 400:
				l.Warn("request completed", attrs...)
			case quiet(req.URL.Path, cfg.QuietPrefixes):
				l.Debug("request completed", attrs...)
			default:
				l.Info("request completed", append(attrs, "bytes", c.Response().Size)...)
			}
			return nil
		}
	}
}

func requestID(c echo.Context) string {
	if rid := c.Request().Header.Get(echo.HeaderXRequestID); rid != "" {
		return rid
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

func quiet(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
