package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/adapters/loam"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/declaration"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor drives a tree of routers from a single location string",
	Long: `Arbor keeps the visibility of nested routers (scenes, stacks, features, data)
in a URL-like location, caches hidden subtrees and restores them when shown again.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("file", "f", "arbor.yaml", "Declaration file (YAML, JSON or TOML)")
	rootCmd.PersistentFlags().String("dir", "", "Directory of router documents (overrides --file)")
	rootCmd.PersistentFlags().String("location-file", file.DefaultPath, "File holding the shared location")
	rootCmd.PersistentFlags().String("redis", "", "Redis address; stores the location in Redis instead of a file")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
}

// loadDeclaration reads the router tree from --dir or --file.
func loadDeclaration(cmd *cobra.Command) (*domain.Declaration, error) {
	var loader ports.DeclarationLoader
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		l, err := loam.Open(dir)
		if err != nil {
			return nil, err
		}
		loader = l
	} else {
		path, _ := cmd.Flags().GetString("file")
		loader = declaration.NewFileLoader(path)
	}
	return loader.Load(cmd.Context())
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	raw, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(raw)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

// session is a Manager plus whatever its transport needs to shut down.
type session struct {
	*arbor.Manager
	logger  *slog.Logger
	closers []func() error
}

func (s *session) Close() error {
	err := s.Manager.Close()
	for _, c := range s.closers {
		if cerr := c(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// newSession loads the declaration and builds a Manager on the configured
// transport. Redis sessions relay changes made by other instances until ctx
// is done and serialize cascades with a distributed lock.
func newSession(ctx context.Context, cmd *cobra.Command, extra ...arbor.Option) (*session, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}
	decl, err := loadDeclaration(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to load declaration: %w", err)
	}

	s := &session{logger: logger}
	opts := []arbor.Option{
		arbor.WithLogger(logger),
		arbor.WithLifecycleHooks(observability.LoggingHooks(logger)),
	}

	if addr, _ := cmd.Flags().GetString("redis"); addr != "" {
		client := backend.NewClient(&backend.Options{Addr: addr})
		transport := redis.NewFromClient(client, redis.WithLogger(logger))
		opts = append(opts,
			arbor.WithTransport(transport),
			arbor.WithLocker(redis.NewLocker(client, "arbor:")),
		)

		listenCtx, cancel := context.WithCancel(ctx)
		ready := make(chan struct{})
		listenErr := make(chan error, 1)
		go func() {
			err := transport.Listen(listenCtx, ready)
			if err != nil {
				logger.Warn("Redis listener stopped", "error", err)
			}
			listenErr <- err
		}()

		select {
		case <-ready:
		case err := <-listenErr:
			cancel()
			transport.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
		case <-ctx.Done():
			cancel()
			transport.Close()
			return nil, ctx.Err()
		}
		s.closers = append(s.closers, func() error { cancel(); return nil }, transport.Close)
	} else {
		path, _ := cmd.Flags().GetString("location-file")
		opts = append(opts, arbor.WithTransport(file.New(path)))
	}

	m, err := arbor.New(decl, append(opts, extra...)...)
	if err != nil {
		for _, c := range s.closers {
			_ = c()
		}
		return nil, err
	}
	s.Manager = m
	return s, nil
}
