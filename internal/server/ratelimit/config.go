package ratelimit

import (
	"net/http"
	"strings"
)

// Tier is a named limiter.
type Tier struct {
	Name    string
	Limiter *Limiter
}

// Config routes requests to a read or a write tier. A nil tier does not
// limit.
type Config struct {
	Read  *Tier
	Write *Tier
}

// NewConfig returns limits of readPerMinute and writePerMinute requests per
// client. A value of 0 or less disables that tier.
func NewConfig(readPerMinute, writePerMinute int) *Config {
	c := &Config{}
	if readPerMinute > 0 {
		c.Read = &Tier{Name: "read", Limiter: NewLimiter(readPerMinute, readPerMinute/6)}
	}
	if writePerMinute > 0 {
		c.Write = &Tier{Name: "write", Limiter: NewLimiter(writePerMinute, writePerMinute/6)}
	}
	return c
}

// Match returns the tier for a request, nil when it is not limited.
func (c *Config) Match(method, path string) *Tier {
	if path == "/api/health" {
		return nil
	}
	switch method {
	case http.MethodGet, http.MethodHead:
		return c.Read
	case http.MethodPost:
		// Queries carry their conditions in the body.
		if strings.HasSuffix(path, "/records/query") || strings.HasSuffix(path, "/records/pick") {
			return c.Read
		}
		return c.Write
	case http.MethodPut, http.MethodPatch, http.MethodDelete:
		return c.Write
	}
	return nil
}

// Close stops every limiter.
func (c *Config) Close() {
	for _, t := range []*Tier{c.Read, c.Write} {
		if t != nil {
			t.Limiter.Close()
		}
	}
}
