package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/bassista/go_wind/internal/logger"
	"github.com/gin-gonic/gin"
	honeybadger "github.com/honeybadger-io/honeybadger-go"
)

// notifier is the part of *honeybadger.Client the middleware uses.
type notifier interface {
	Notify(err interface{}, extra ...interface{}) (string, error)
}

// HoneybadgerMiddleware reports panics and error responses to Honeybadger.
// An empty apiKey disables reporting. Panics are re-raised so gin.Recovery
// still writes the response.
func HoneybadgerMiddleware(apiKey, env string) gin.HandlerFunc {
	log := logger.WithComponent("honeybadger")
	if apiKey == "" {
		log.Info("Honeybadger is not active. Set GO_WIND_MISC_HONEYBADGER_API_KEY to enable error reporting.")
		return func(c *gin.Context) { c.Next() }
	}

	client := honeybadger.New(honeybadger.Configuration{APIKey: apiKey, Env: env})
	log.Info("Honeybadger error reporting is enabled.")
	return reportErrors(client)
}

func reportErrors(n notifier) gin.HandlerFunc {
	log := logger.WithComponent("honeybadger")
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				if _, err := n.Notify(fmt.Sprintf("Panic: %s %s: %v", c.Request.Method, c.Request.URL.Path, rec),
					c.Request, honeybadger.Context{"stack": string(debug.Stack())}, honeybadger.Tags{"panic", "http"}); err != nil {
					log.Warnf("notify failed: %v", err)
				}
				log.Errorf("recovered from panic, notified Honeybadger: %v", rec)
				panic(rec)
			}
		}()

		c.Next()

		status := c.Writer.Status()
		if status < http.StatusBadRequest || status == http.StatusNotFound {
			return
		}
		tags := honeybadger.Tags{"4XX", "http"}
		kind := "Warning"
		if status >= http.StatusInternalServerError {
			tags = honeybadger.Tags{"5XX", "http"}
			kind = "Error"
		}
		if _, err := n.Notify(fmt.Sprintf("%s: HTTP %d: %s %s", kind, status, c.Request.Method, c.Request.URL.Path), c.Request, tags); err != nil {
			log.Warnf("notify failed: %v", err)
		}
		log.Debugf("reported HTTP %d for %s %s", status, c.Request.Method, c.Request.URL.Path)
	}
}
