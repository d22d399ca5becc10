// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/jeranaias/chatwidget/internal/server"
)

const (
	serveRateLimit     = 20
	serveRateBurst     = 40
	serveShutdownGrace = 5 * time.Second
)

// ServeData is the JSON form of a started development service.
type ServeData struct {
	URL string `json:"url"`
}

// HandleServe runs the in-memory development service until ctx is done.
func HandleServe(ctx context.Context, env *Env, args Args) error {
	srv := server.New(server.Options{
		Host:      args.Host,
		Port:      args.Port,
		Version:   Version,
		Latency:   args.Latency,
		RateLimit: serveRateLimit,
		RateBurst: serveRateBurst,
		Logger:    env.Logger,
	})

	ln, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		return NewCommandError("serve", "listen", "cannot listen on "+srv.Addr(), err)
	}
	url := "http://" + ln.Addr().String()

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	if args.JSON {
		if err := NewJSONResponse("serve", ServeData{URL: url}).Print(env.Out); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(env.Out, "%s serving on %s\n", SuccessStyle.Render("[OK]"), url)
		fmt.Fprintln(env.Out, DimStyle.Render("Try: chatwidget --url "+url+"   (ctrl+c to stop)"))
	}

	select {
	case err := <-done:
		if err != nil {
			return NewCommandError("serve", "serve", "service stopped", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return NewCommandError("serve", "shutdown", "service did not stop cleanly", err)
	}
	if err := <-done; err != nil {
		return NewCommandError("serve", "serve", "service stopped", err)
	}
	if !args.JSON {
		fmt.Fprintf(env.Out, "stopped after %d conversations\n", srv.Conversations().Len())
	}
	return nil
}
