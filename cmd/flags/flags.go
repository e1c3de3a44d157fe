package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/secretvault-builder/bootstrap"
	"github.com/ruteri/secretvault-builder/common"
	"github.com/ruteri/secretvault-builder/httpserver"
	"github.com/ruteri/secretvault-builder/interfaces"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String(LogServiceFlag.Name)

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

// NetworkConfig reads the builder network configuration from flags and their
// environment variables.
func NetworkConfig(cCtx *cli.Context) interfaces.NetworkConfig {
	return interfaces.NetworkConfig{
		APIKey:   cCtx.String(APIKeyFlag.Name),
		AuthURL:  cCtx.String(AuthURLFlag.Name),
		NodeURLs: cCtx.StringSlice(NodesFlag.Name),
	}
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger) *httpserver.HTTPServerConfig {
	enablePprof := cCtx.Bool(PprofFlag.Name)
	drainDuration := time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second

	return &httpserver.HTTPServerConfig{
		ListenAddr:               cCtx.String(ListenAddrFlag.Name),
		MetricsAddr:              cCtx.String(MetricsAddrFlag.Name),
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

var APIKeyFlag = &cli.StringFlag{
	Name:    "api-key",
	EnvVars: []string{"NILLION_API_KEY"},
	Usage:   "builder secret key, 64 hex chars with optional 0x prefix",
}

var AuthURLFlag = &cli.StringFlag{
	Name:    "nilauth-url",
	EnvVars: []string{"NILAUTH_URL"},
	Usage:   "authentication service base URL. URLs containing 'staging' or 'testnet' select the testnet chain",
}

var NodesFlag = &cli.StringSliceFlag{
	Name:    "nildb-node",
	EnvVars: []string{"NILDB_NODES"},
	Usage:   "storage node base URL, repeat or comma-separate for several nodes",
}

var BuilderNameFlag = &cli.StringFlag{
	Name:  "builder-name",
	Value: bootstrap.DefaultBuilderName,
	Usage: "display name used when registering the builder",
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "",
	Usage: "address to listen on for Prometheus metrics, empty disables",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: common.PackageName,
	Usage: "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
}

var NetworkFlags = []cli.Flag{
	APIKeyFlag,
	AuthURLFlag,
	NodesFlag,
}

var ServerFlags = []cli.Flag{
	ListenAddrFlag,
	MetricsAddrFlag,
	PprofFlag,
	DrainSecondsFlag,
}
