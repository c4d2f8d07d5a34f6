package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"dqx0.com/go/httpd/httpd"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	srv, err := httpd.FromEnv()
	if err != nil {
		logger.Error("config", "err", err)
		os.Exit(1)
	}

	echo := httpd.HandlerFunc(func(ctx context.Context, r *httpd.Request) (*httpd.Response, error) {
		body, err := r.Body.Bytes()
		if err != nil {
			return nil, err
		}
		if len(body) == 0 {
			return httpd.TextResponse(200, r.Method+" "+r.Target), nil
		}
		return &httpd.Response{StatusCode: 200, Header: httpd.Header{}, Body: httpd.BytesBody(body)}, nil
	})

	ln, drv, err := srv.Logger(logger).Standalone(httpd.SharedHandler(echo))
	if err != nil {
		logger.Error("listen", "err", err)
		os.Exit(1)
	}
	logger.Info("listening", "addr", ln.Addr().String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g := new(errgroup.Group)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		ln.Close()
		return nil
	})
	g.Go(func() error {
		drv.Run()
		return nil
	})
	_ = g.Wait()
}
