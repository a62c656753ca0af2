package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/LavaJover/shvark-billing-service/internal/app/background"
	"github.com/LavaJover/shvark-billing-service/internal/app/setup"
	"github.com/LavaJover/shvark-billing-service/internal/delivery/grpcapi"
	"github.com/LavaJover/shvark-billing-service/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/migrate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const healthCheckInterval = 15 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers with background workers",
		RunE:  runServe,
	}
	cmd.Flags().Bool("migrate", true, "Apply pending migrations before serving")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogConfig)
	if err != nil {
		return err
	}
	defer log.Sync()

	deps, err := setup.InitializeDependencies(cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	if withMigrate, _ := cmd.Flags().GetBool("migrate"); withMigrate {
		if err := migrate.RunMigrations(deps.DB, cfg.BillingDB.MigrationsPath, log); err != nil {
			return err
		}
	}

	ucs, err := setup.InitializeUseCases(deps)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ucs.Queue.Start(ctx)
	defer ucs.Queue.Stop()

	var subscriber domain.SubscriberPort
	if deps.Subscriber != nil {
		subscriber = deps.Subscriber
	}
	background.NewBackgroundTasks(ucs.Billing, subscriber, cfg, log).StartAll(ctx)

	// gRPC: health only
	sqlDB, err := deps.DB.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	grpcServer := grpc.NewServer()
	healthHandler := grpcapi.NewHealthHandler(sqlDB.PingContext, healthCheckInterval, log)
	healthHandler.Register(grpcServer)
	go healthHandler.Run(ctx)

	lis, err := net.Listen("tcp", net.JoinHostPort(cfg.GRPCServer.Host, cfg.GRPCServer.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	go func() {
		log.Info("gRPC server started", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("gRPC server stopped", zap.Error(err))
		}
	}()

	// HTTP
	billingHandler := handlers.NewBillingHandler(ucs.Billing, ucs.Queue, log)
	metricsHandler := promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})
	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		Handler:      handlers.NewRouter(billingHandler, metricsHandler),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		log.Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	return nil
}
