package cmd

import (
	"context"
	"fmt"
	"time"

	"cryptoTracker/internal/delivery/http"
)

type HTTPServer struct {
	ctx     context.Context
	appDep  *AppDependency
	handler *http.HttpAPIHandler
}

func NewHTTPServer(ctx context.Context, appDep *AppDependency, handler *http.HttpAPIHandler) *HTTPServer {
	return &HTTPServer{
		ctx:     ctx,
		appDep:  appDep,
		handler: handler,
	}
}

func (s *HTTPServer) Start() error {
	s.appDep.log.Info(s.ctx, "Starting HTTP server", map[string]interface{}{"port": s.appDep.cfg.APIPort})
	address := fmt.Sprintf(":%d", s.appDep.cfg.APIPort)

	s.SetupRoutes()

	return s.appDep.echo.Start(address)
}

func (s *HTTPServer) Stop() error {
	s.appDep.log.Info(s.ctx, "Shutting down HTTP server")

	// The serve context is already cancelled by now
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopDone := make(chan error, 1)
	go func() {
		stopDone <- s.appDep.echo.Shutdown(ctx)
	}()

	select {
	case err := <-stopDone:
		if err != nil {
			s.appDep.log.Error(ctx, err, "Error when stopping HTTP server")
			return err
		}
		s.appDep.log.Info(ctx, "HTTP server stopped successfully")
	case <-ctx.Done():
		s.appDep.log.Warn(ctx, "Timeout while stopping HTTP server, forcing shutdown")
		return s.appDep.echo.Close()
	}
	return nil
}

func (s *HTTPServer) SetupRoutes() {
	s.handler.SetupRoutes()
}
