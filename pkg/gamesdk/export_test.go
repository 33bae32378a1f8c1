package gamesdk

import (
	"time"

	"github.com/aussiebroadwan/arcade/pkg/retry"
)

// SetClock replaces the clock used for refresh decisions.
func SetClock(c *Client, now func() time.Time) { c.now = now }

// SetSleep replaces the wait between retries.
func SetSleep(c *Client, sleep retry.SleepFunc) { c.sleep = sleep }
