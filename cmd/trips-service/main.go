// Package main starts the trips service: trip lifecycle over HTTP, federated
// driver and vehicle views, and the consumers that keep its caches consistent
// with the user and vehicle services.
package main

import (
	"fmt"
	"os"

	"github.com/pcd-labs/smart-mobility/internal/trip"
	"github.com/pcd-labs/smart-mobility/pkg/core"
	"github.com/pcd-labs/smart-mobility/pkg/http"
	"github.com/pcd-labs/smart-mobility/pkg/kafka"
	"github.com/pcd-labs/smart-mobility/pkg/mongo"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "trips-service",
		Short:   "Smart Mobility trips service",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			run()
			return nil
		},
	}
	return rootCmd
}

func run() {
	fx.New(
		core.NewCoreModule(),
		http.NewHTTPModule(),
		mongo.NewMongoModule(),
		kafka.NewModule(),
		trip.NewModule(),
	).Run()
}
