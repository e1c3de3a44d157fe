package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/secretvault-builder/bootstrap"
	"github.com/ruteri/secretvault-builder/cmd/flags"
	"github.com/ruteri/secretvault-builder/httpserver"
	"github.com/ruteri/secretvault-builder/nilauth"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "builder",
		Usage: "Bootstrap and register a SecretVault builder",
		Flags: flags.CommonFlags,
		Commands: []*cli.Command{
			{
				Name:  "bootstrap",
				Usage: "create the builder client and register the builder if needed",
				Flags: append(append([]cli.Flag{}, flags.NetworkFlags...), flags.BuilderNameFlag),
				Action: func(cCtx *cli.Context) error {
					logger := flags.SetupLogger(cCtx)
					cfg := flags.NetworkConfig(cCtx)

					res, err := bootstrap.New(logger).
						WithName(cCtx.String(flags.BuilderNameFlag.Name)).
						Bootstrap(cCtx.Context, cfg)
					if err != nil {
						logger.Error("Bootstrap failed", "err", err)
						return err
					}

					return printJSON(map[string]any{
						"did":          res.DID,
						"network":      res.Network.String(),
						"chain_id":     res.Network.ChainID(),
						"registration": res.Registration.Outcome.String(),
					})
				},
			},
			{
				Name:  "did",
				Usage: "print the builder DID derived from the API key",
				Flags: []cli.Flag{flags.APIKeyFlag},
				Action: func(cCtx *cli.Context) error {
					apiKey := cCtx.String(flags.APIKeyFlag.Name)
					if apiKey == "" {
						return bootstrap.ErrMissingCredential
					}

					did, err := bootstrap.GetBuilderDid(cCtx.Context, apiKey)
					if err != nil {
						return err
					}
					fmt.Println(did)
					return nil
				},
			},
			{
				Name:  "subscription",
				Usage: "query the builder subscription on the auth service",
				Flags: []cli.Flag{flags.APIKeyFlag, flags.AuthURLFlag},
				Action: func(cCtx *cli.Context) error {
					logger := flags.SetupLogger(cCtx)
					apiKey := cCtx.String(flags.APIKeyFlag.Name)
					if apiKey == "" {
						return bootstrap.ErrMissingCredential
					}
					authURL := cCtx.String(flags.AuthURLFlag.Name)

					s, err := bootstrap.GetBuilderSigner(apiKey)
					if err != nil {
						return err
					}

					network := nilauth.ClassifyNetwork(authURL)
					client, err := nilauth.NewClient(cCtx.Context, authURL, network.ChainID(), nilauth.WithLogger(logger))
					if err != nil {
						return err
					}

					status, err := client.SubscriptionStatus(cCtx.Context, s.PublicKey())
					if err != nil {
						return err
					}

					return printJSON(map[string]any{
						"public_key":   hex.EncodeToString(s.PublicKey()),
						"network":      network.String(),
						"subscription": status,
					})
				},
			},
			{
				Name:  "serve",
				Usage: "bootstrap the builder and serve its status API",
				Flags: append(append(append([]cli.Flag{}, flags.NetworkFlags...), flags.BuilderNameFlag), flags.ServerFlags...),
				Action: func(cCtx *cli.Context) error {
					logger := flags.SetupLogger(cCtx)
					cfg := flags.NetworkConfig(cCtx)

					logger.Info("Bootstrapping builder", "authURL", cfg.AuthURL, "nodes", len(cfg.NodeURLs))
					res, err := bootstrap.New(logger).
						WithName(cCtx.String(flags.BuilderNameFlag.Name)).
						Bootstrap(cCtx.Context, cfg)
					if err != nil {
						logger.Error("Bootstrap failed", "err", err)
						return err
					}
					logger.Info("Builder ready", "did", res.DID, "registration", res.Registration.Outcome.String())

					server, err := httpserver.New(flags.ConfigureServer(cCtx, logger), httpserver.NewHandler(res, logger))
					if err != nil {
						logger.Error("Failed to create server", "err", err)
						return err
					}
					server.RunInBackground()

					exit := make(chan os.Signal, 1)
					signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

					logger.Info("Server is running, press Ctrl+C to stop")
					<-exit
					logger.Info("Shutdown signal received")

					server.Shutdown()
					logger.Info("Server shutdown complete")
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func printJSON(v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
