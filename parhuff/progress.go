// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package parhuff

import (
	"fmt"
	"time"

	"github.com/op/go-logging"
)

// progress stamps messages with the seconds elapsed since the operation began.  In quiet mode only the stamp
// is logged.
type progress struct {
	log   *logging.Logger
	quiet bool
	start time.Time
	now   func() time.Time
}

func newProgress(log *logging.Logger, quiet bool) *progress {
	return &progress{
		log:   log,
		quiet: quiet,
		start: time.Now(),
		now:   time.Now,
	}
}

func (p *progress) line(msg string) string {
	stamp := fmt.Sprintf("%7.3f", p.now().Sub(p.start).Seconds())
	if p.quiet {
		return stamp
	}
	return stamp + " - " + msg
}

func (p *progress) logf(format string, args ...interface{}) {
	p.log.Info(p.line(fmt.Sprintf(format, args...)))
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
