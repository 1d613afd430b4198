// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aibor/vmimon/internal/intercept"
	"github.com/aibor/vmimon/internal/vmi"
)

// DefaultPollTimeout is used if [Config.PollTimeout] is zero.
const DefaultPollTimeout = time.Second

// Config is the session configuration.
type Config struct {
	// Registers to intercept writes to.
	Registers []vmi.CrType

	// PollTimeout bounds a single poll and with that the latency of
	// cancellation.
	PollTimeout time.Duration
}

// Session is a single monitoring session on a single VM.
type Session struct {
	driver  vmi.Driver
	config  Config
	printer *Printer
}

// NewSession creates a new [Session].
//
// The session owns the driver until [Session.Run] returns. It does not close
// it.
func NewSession(driver vmi.Driver, config Config, printer *Printer) (*Session, error) {
	if config.PollTimeout < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPollTimeout, config.PollTimeout)
	}

	if config.PollTimeout == 0 {
		config.PollTimeout = DefaultPollTimeout
	}

	return &Session{
		driver:  driver,
		config:  config,
		printer: printer,
	}, nil
}

// Run enables the intercepts, handles events until ctx is done or a fatal
// error occurs, and disables the intercepts again.
//
// The disable bracket runs exactly once for every session that touched an
// intercept, regardless of how listening ended. It does not depend on ctx.
// The report is written after the intercepts are disabled. A cancelled ctx
// is a clean exit and not returned as error.
func (s *Session) Run(ctx context.Context) (Report, error) {
	ctrl, err := intercept.NewController(
		s.driver,
		s.config.Registers,
		s.printer.Status(),
	)
	if err != nil {
		return Report{}, err
	}

	err = ctrl.Enable()
	if err != nil {
		if intercept.IsPauseError(err) {
			return Report{}, err
		}

		slog.Warn("Enabling intercepts failed, disabling again",
			slog.Any("error", err))

		return Report{}, errors.Join(err, ctrl.Disable())
	}

	stats := newStats(time.Now())
	loopErr := s.listen(ctx, stats)
	report := stats.report(time.Now())

	disableErr := ctrl.Disable()

	s.printer.Report(report)

	return report, errors.Join(loopErr, disableErr)
}
