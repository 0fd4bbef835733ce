package http

import (
	"time"

	xutil "ShopScore/pkg/util"
)

// ParseTimeDefault parses a query time or returns def when empty or invalid.
func ParseTimeDefault(s string, def time.Time) time.Time { return xutil.ParseTimeDefault(s, def) }
