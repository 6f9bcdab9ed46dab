package main

import (
	"context"
	"net"
	"strconv"

	"github.com/desertthunder/studydesk/internal/repositories"
	"github.com/desertthunder/studydesk/internal/server"
	"github.com/desertthunder/studydesk/internal/services"
	"github.com/desertthunder/studydesk/internal/shared"
	"github.com/desertthunder/studydesk/internal/stats"
	"github.com/urfave/cli/v3"
)

// Serve runs the gateway server until the command's context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	loc, err := r.config.Stats.Location()
	if err != nil {
		return err
	}

	auth, err := server.NewAuthenticator(*r.config)
	if err != nil {
		return err
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port))
	}
	if err := server.CheckExposure(*r.config, addr); err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repos := repositories.New(db)
	gateway := services.NewRepositoryGateway(repos, stats.New(loc))
	logger := shared.WithLogger(r.logger, "component", "server")
	router := server.NewGatewayRouter(gateway.Gateways(), repos.Users, auth, logger)

	logger.Info("starting gateway", "addr", addr, "auth_mode", r.config.Server.AuthMode, "database", r.config.Database.Path)
	return server.New(addr, router, logger).ListenAndServe(ctx)
}
