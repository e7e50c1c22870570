// File: main.go
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lguibr/arenaserver/actor"
	"github.com/lguibr/arenaserver/config"
	"github.com/lguibr/arenaserver/coordinator"
	"github.com/lguibr/arenaserver/enginedriver"
	"github.com/lguibr/arenaserver/transport"
)

func run(cmd *cobra.Command, cfg *config.Config) error {
	engine := actor.NewEngine()
	fmt.Println("Actor engine created.")

	coordinatorProps := actor.NewProps(coordinator.NewProducer(engine, *cfg))
	coordinatorPID := engine.Spawn(coordinatorProps)
	if coordinatorPID == nil {
		return fmt.Errorf("failed to spawn coordinator actor")
	}
	fmt.Printf("Coordinator spawned with PID: %s\n", coordinatorPID)

	driver, driverProducer := enginedriver.New(engine, coordinatorPID, *cfg)
	driverPID := engine.Spawn(actor.NewProps(driverProducer))
	if driverPID == nil {
		return fmt.Errorf("failed to spawn engine driver actor")
	}
	fmt.Printf("Engine driver spawned with PID: %s\n", driverPID)

	engine.Send(coordinatorPID, coordinator.SetDriverPID{PID: driverPID}, nil)

	// Allow both actors to finish starting before accepting connections.
	time.Sleep(50 * time.Millisecond)

	srv := transport.New(engine, coordinatorPID, driver, *cfg)
	router := srv.Router()

	listenAddr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:    listenAddr,
		Handler: router,
	}

	fmt.Printf("Session server listening on %s (https=%v)\n", listenAddr, cfg.UseHTTPS)

	var err error
	if cfg.UseHTTPS {
		err = httpServer.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
	} else {
		err = httpServer.ListenAndServe()
	}

	fmt.Println("Server stopped:", err)
	fmt.Println("Shutting down actor engine...")
	engine.Shutdown(5 * time.Second)
	fmt.Println("Engine shutdown complete.")

	return err
}

func main() {
	cfg := config.Default()
	cmd := config.NewCommand(&cfg, ".env", run)
	if err := cmd.Execute(); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}
