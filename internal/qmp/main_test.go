// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	goqmp "github.com/digitalocean/go-qemu/qmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errCommandNotFound = errors.New("command not found")

type handler func(args json.RawMessage) (any, error)

// fakeMonitor is a connected [goqmp.Monitor] answering commands with
// handlers.
type fakeMonitor struct {
	handlers map[string]handler
	// raw responses are returned as they are, bypassing handlers.
	raw          map[string]string
	executed     []string
	disconnected bool
}

var _ goqmp.Monitor = (*fakeMonitor)(nil)

func (*fakeMonitor) Connect() error {
	return nil
}

func (m *fakeMonitor) Disconnect() error {
	m.disconnected = true
	return nil
}

func (*fakeMonitor) Events(context.Context) (<-chan goqmp.Event, error) {
	return nil, errors.New("events not supported")
}

func (m *fakeMonitor) Run(command []byte) ([]byte, error) {
	var cmd struct {
		Execute   string          `json:"execute"`
		Arguments json.RawMessage `json:"arguments"`
	}

	err := json.Unmarshal(command, &cmd)
	if err != nil {
		return nil, err
	}

	m.executed = append(m.executed, cmd.Execute)

	if raw, exists := m.raw[cmd.Execute]; exists {
		return []byte(raw), nil
	}

	h, exists := m.handlers[cmd.Execute]
	if !exists {
		return nil, errCommandNotFound
	}

	result, err := h(cmd.Arguments)
	if err != nil {
		return nil, err
	}

	return json.Marshal(map[string]any{"return": result})
}
