package logger

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"

	pkgerrors "github.com/railroadmedia/customer-io/pkg/errors"
)

// NewEchoRequestLogger logs one line per request through zap. 4xx responses
// are logged at warn, 5xx and handler errors at error.
func NewEchoRequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		HandleError:      true,
		LogLatency:       true,
		LogRemoteIP:      true,
		LogMethod:        true,
		LogURIPath:       true,
		LogRoutePath:     true,
		LogRequestID:     true,
		LogReferer:       true,
		LogUserAgent:     true,
		LogStatus:        true,
		LogError:         true,
		LogContentLength: true,
		LogResponseSize:  true,
		LogHeaders:       []string{"Content-Type", "Accept"},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request.remote_ip", v.RemoteIP),
				zap.String("request.method", v.Method),
				zap.String("request.path", v.URIPath),
				zap.String("request.route", v.RoutePath),
				zap.String("request.request_id", v.RequestID),
				zap.String("request.referer", v.Referer),
				zap.String("request.user_agent", v.UserAgent),
				zap.String("request.content_length", v.ContentLength),
				zap.Int("response.status", v.Status),
				zap.Duration("response.latency", v.Latency),
				zap.Int64("response.size", v.ResponseSize),
			}
			if len(v.Headers) > 0 {
				fields = append(fields, zap.Any("request.headers", v.Headers))
			}

			switch {
			case v.Error != nil:
				logger.Error("Request failed", append(fields, zap.Error(v.Error))...)
			case v.Status >= 500:
				logger.Error("Server error", fields...)
			case v.Status >= 400:
				logger.Warn("Client error", fields...)
			default:
				logger.Info("Request completed", fields...)
			}
			return nil
		},
	})
}

// WithEchoLogger routes echo's internal logger and error handler through zap.
// Coded errors returned by handlers get the status of their code.
func WithEchoLogger(e *echo.Echo, logger *zap.Logger) {
	e.Logger = NewEchoZapLogger(logger)

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		he := pkgerrors.ToHTTPError(err)
		code := he.Code
		message, ok := he.Message.(string)
		if !ok {
			message = http.StatusText(code)
		}

		pkgerrors.LogError(logger, err, "HTTP error",
			zap.Int("status", code),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
		)

		if c.Response().Committed {
			return
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, echo.Map{"error": message})
		}
		if err != nil {
			logger.Error("Failed to send error response", zap.Error(err))
		}
	}
}

// EchoZapLogger satisfies echo.Logger on top of a zap logger. Level, prefix
// and output settings are owned by zap and ignored here.
type EchoZapLogger struct {
	Logger *zap.Logger
}

func NewEchoZapLogger(logger *zap.Logger) *EchoZapLogger {
	return &EchoZapLogger{Logger: logger}
}

func (l *EchoZapLogger) sugar() *zap.SugaredLogger { return l.Logger.Sugar() }

func (l *EchoZapLogger) Output() io.Writer      { return &zapWriter{logger: l.Logger} }
func (l *EchoZapLogger) SetOutput(io.Writer)    {}
func (l *EchoZapLogger) Level() log.Lvl         { return log.INFO }
func (l *EchoZapLogger) SetLevel(log.Lvl)       {}
func (l *EchoZapLogger) SetHeader(string)       {}
func (l *EchoZapLogger) Prefix() string         { return "" }
func (l *EchoZapLogger) SetPrefix(string)       {}
func (l *EchoZapLogger) Print(i ...interface{}) { l.sugar().Info(i...) }
func (l *EchoZapLogger) Printf(format string, args ...interface{}) {
	l.sugar().Infof(format, args...)
}
func (l *EchoZapLogger) Printj(j log.JSON)      { l.Logger.Info("echo", zap.Any("json", j)) }
func (l *EchoZapLogger) Debug(i ...interface{}) { l.sugar().Debug(i...) }
func (l *EchoZapLogger) Debugf(format string, args ...interface{}) {
	l.sugar().Debugf(format, args...)
}
func (l *EchoZapLogger) Debugj(j log.JSON)     { l.Logger.Debug("echo", zap.Any("json", j)) }
func (l *EchoZapLogger) Info(i ...interface{}) { l.sugar().Info(i...) }
func (l *EchoZapLogger) Infof(format string, args ...interface{}) {
	l.sugar().Infof(format, args...)
}
func (l *EchoZapLogger) Infoj(j log.JSON)      { l.Logger.Info("echo", zap.Any("json", j)) }
func (l *EchoZapLogger) Warn(i ...interface{}) { l.sugar().Warn(i...) }
func (l *EchoZapLogger) Warnf(format string, args ...interface{}) {
	l.sugar().Warnf(format, args...)
}
func (l *EchoZapLogger) Warnj(j log.JSON)       { l.Logger.Warn("echo", zap.Any("json", j)) }
func (l *EchoZapLogger) Error(i ...interface{}) { l.sugar().Error(i...) }
func (l *EchoZapLogger) Errorf(format string, args ...interface{}) {
	l.sugar().Errorf(format, args...)
}
func (l *EchoZapLogger) Errorj(j log.JSON)      { l.Logger.Error("echo", zap.Any("json", j)) }
func (l *EchoZapLogger) Fatal(i ...interface{}) { l.sugar().Fatal(i...) }
func (l *EchoZapLogger) Fatalf(format string, args ...interface{}) {
	l.sugar().Fatalf(format, args...)
}
func (l *EchoZapLogger) Fatalj(j log.JSON)      { l.Logger.Fatal("echo", zap.Any("json", j)) }
func (l *EchoZapLogger) Panic(i ...interface{}) { l.sugar().Panic(i...) }
func (l *EchoZapLogger) Panicf(format string, args ...interface{}) {
	l.sugar().Panicf(format, args...)
}
func (l *EchoZapLogger) Panicj(j log.JSON) { l.Logger.Panic("echo", zap.Any("json", j)) }

type zapWriter struct {
	logger *zap.Logger
}

func (w *zapWriter) Write(p []byte) (int, error) {
	w.logger.Info(string(p))
	return len(p), nil
}
