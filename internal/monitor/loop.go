// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aibor/vmimon/internal/vmi"
)

// listen polls and handles events until ctx is done or a fatal error occurs.
func (s *Session) listen(ctx context.Context, stats *stats) error {
	for ctx.Err() == nil {
		event, err := s.driver.PollEvent(ctx, s.config.PollTimeout)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				break
			}

			return &LoopError{Op: OpPoll, Err: err}
		}

		if event == nil {
			stats.recordEmpty()
			slog.Debug("No events yet")

			continue
		}

		err = s.handle(event, stats)
		if err != nil {
			return err
		}
	}

	slog.Debug("Stop listening", slog.Any("reason", context.Cause(ctx)))

	return nil
}

// handle classifies, prints and acknowledges a single event.
func (s *Session) handle(event *vmi.Event, stats *stats) error {
	switch kind := event.Kind.(type) {
	case vmi.CrEvent:
		s.printer.CrEvent(stats.events, event.VCPU, kind)

		err := s.reply(event)
		if err != nil {
			return err
		}

		stats.recordCr(event.VCPU, kind.Type)
	default:
		// Acknowledge anyway, so the VCPU does not stay blocked.
		replyErr := s.reply(event)

		classifyErr := &LoopError{
			Op:      OpClassify,
			VCPU:    event.VCPU,
			EventID: event.ID,
			Err:     fmt.Errorf("%T: %w", kind, ErrUnhandledEventKind),
		}

		return errors.Join(classifyErr, replyErr)
	}

	return nil
}

func (s *Session) reply(event *vmi.Event) error {
	err := s.driver.ReplyEvent(event, vmi.ReplyContinue)
	if err != nil {
		return &LoopError{
			Op:      OpReply,
			VCPU:    event.VCPU,
			EventID: event.ID,
			Err:     err,
		}
	}

	return nil
}
