// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/sourcegraph/jsonrpc2"
)

// fakeBackend wires a Client to an in-process JSON-RPC peer over a pipe.
type fakeBackend struct {
	conn *jsonrpc2.Conn
}

func newFakeBackend(t *testing.T, c *Client, handle func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error)) *fakeBackend {
	t.Helper()

	clientSide, serverSide := net.Pipe()

	c.attach(clientSide)
	t.Cleanup(func() { _ = c.conn.Close() })

	serverConn := jsonrpc2.NewConn(context.Background(),
		jsonrpc2.NewBufferedStream(serverSide, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.AsyncHandler(jsonrpc2.HandlerWithError(handle)))
	t.Cleanup(func() { _ = serverConn.Close() })

	return &fakeBackend{conn: serverConn}
}

func TestClient_CallRoundTrip(t *testing.T) {
	c := NewClient("", "/ws")
	newFakeBackend(t, c, func(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		if req.Method != "textDocument/hover" {
			t.Errorf("method = %q, want textDocument/hover", req.Method)
		}
		return map[string]any{"contents": "a prop"}, nil
	})

	raw, err := c.Call(context.Background(), "textDocument/hover", map[string]any{
		"textDocument": map[string]string{"uri": "file:///ws/app.vue.ts"},
	})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	var got struct {
		Contents string `json:"contents"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if got.Contents != "a prop" {
		t.Errorf("contents = %q, want %q", got.Contents, "a prop")
	}
}

func TestClient_MethodNotFoundSurfaces(t *testing.T) {
	c := NewClient("", "/ws")
	newFakeBackend(t, c, func(_ context.Context, _ *jsonrpc2.Conn, _ *jsonrpc2.Request) (any, error) {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "unsupported"}
	})

	_, err := c.Call(context.Background(), "textDocument/rename", nil)
	if err == nil {
		t.Fatal("Call() expected error for unsupported method")
	}

	var rpcErr *jsonrpc2.Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("error %v is not a *jsonrpc2.Error", err)
	}
	if rpcErr.Code != jsonrpc2.CodeMethodNotFound {
		t.Errorf("code = %d, want %d", rpcErr.Code, jsonrpc2.CodeMethodNotFound)
	}
}

func TestClient_NotificationDispatch(t *testing.T) {
	got := make(chan string, 1)
	c := NewClient("", "/ws", WithNotificationHandler(func(_ context.Context, method string, params json.RawMessage) {
		if method == "textDocument/publishDiagnostics" {
			var p struct {
				URI string `json:"uri"`
			}
			if err := json.Unmarshal(params, &p); err != nil {
				t.Errorf("unmarshal params: %v", err)
			}
			got <- p.URI
		}
	}))
	fake := newFakeBackend(t, c, func(_ context.Context, _ *jsonrpc2.Conn, _ *jsonrpc2.Request) (any, error) {
		return nil, nil
	})

	err := fake.conn.Notify(context.Background(), "textDocument/publishDiagnostics",
		map[string]any{"uri": "file:///ws/app.vue.ts", "diagnostics": []any{}})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	select {
	case uri := <-got:
		if uri != "file:///ws/app.vue.ts" {
			t.Errorf("uri = %q, want file:///ws/app.vue.ts", uri)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notification handler not invoked")
	}
}

func TestClient_ReverseRequestRefused(t *testing.T) {
	c := NewClient("", "/ws")
	fake := newFakeBackend(t, c, func(_ context.Context, _ *jsonrpc2.Conn, _ *jsonrpc2.Request) (any, error) {
		return nil, nil
	})

	var result json.RawMessage
	err := fake.conn.Call(context.Background(), "workspace/configuration", nil, &result)
	if err == nil {
		t.Fatal("reverse request expected method-not-found")
	}
	var rpcErr *jsonrpc2.Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("error %v is not a *jsonrpc2.Error", err)
	}
	if rpcErr.Code != jsonrpc2.CodeMethodNotFound {
		t.Errorf("code = %d, want %d", rpcErr.Code, jsonrpc2.CodeMethodNotFound)
	}
}

func TestClient_NotRunning(t *testing.T) {
	c := NewClient("", "/ws")

	if _, err := c.Call(context.Background(), "textDocument/hover", nil); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Call() error = %v, want ErrNotRunning", err)
	}
	if err := c.Notify(context.Background(), "textDocument/didOpen", nil); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Notify() error = %v, want ErrNotRunning", err)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Errorf("Stop() on stopped client error = %v", err)
	}
}
