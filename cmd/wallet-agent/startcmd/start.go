/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/hyperledger/aries-wallet-go/component/log"
	"github.com/hyperledger/aries-wallet-go/component/storage/leveldb"
	"github.com/hyperledger/aries-wallet-go/component/storageutil/mem"
	"github.com/hyperledger/aries-wallet-go/pkg/controller"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/rest"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/rpc"
	"github.com/hyperledger/aries-wallet-go/pkg/framework/context"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet"
	"github.com/hyperledger/aries-wallet-go/spi/storage"
)

const (
	envPrefix = "WALLETD"

	configFlagName  = "config"
	configFlagUsage = "Optional configuration file. Its keys are the flag names." +
		" Alternatively, this can be set with the following environment variable: " + envPrefix + "_CONFIG"

	// api host flag.
	agentHostFlagName      = "api-host"
	agentHostFlagShorthand = "a"
	agentHostFlagUsage     = "Host Name:Port." +
		" Alternatively, this can be set with the following environment variable: WALLETD_API_HOST"

	// api token flag.
	agentTokenFlagName      = "api-token"
	agentTokenFlagShorthand = "t"
	agentTokenFlagUsage     = "Check for bearer token in the authorization header (optional)." +
		" Alternatively, this can be set with the following environment variable: WALLETD_API_TOKEN"

	databaseTypeFlagName      = "database-type"
	databaseTypeFlagShorthand = "q"
	databaseTypeFlagUsage     = "The type of database backing the wallet. Supported options: mem, leveldb." +
		" Defaults to mem if not set." +
		" Alternatively, this can be set with the following environment variable: WALLETD_DATABASE_TYPE"

	databasePathFlagName      = "database-path"
	databasePathFlagShorthand = "v"
	databasePathFlagUsage     = "Path prefix of the leveldb databases. Not needed if using mem." +
		" Alternatively, this can be set with the following environment variable: WALLETD_DATABASE_PATH"

	databaseTimeoutFlagName  = "database-timeout"
	databaseTimeoutFlagUsage = "Total time in seconds to wait until the db is available before giving up." +
		" Default: 30 seconds." +
		" Alternatively, this can be set with the following environment variable: WALLETD_DATABASE_TIMEOUT"
	databaseTimeoutDefault = 30

	// log level.
	agentLogLevelFlagName  = "log-level"
	agentLogLevelFlagUsage = "Log level." +
		" Possible values [INFO] [DEBUG] [ERROR] [WARNING] [CRITICAL] . Defaults to INFO if not set." +
		" Alternatively, this can be set with the following environment variable: WALLETD_LOG_LEVEL"

	agentTLSCertFileFlagName      = "tls-cert-file"
	agentTLSCertFileFlagShorthand = "c"
	agentTLSCertFileFlagUsage     = "tls certificate file." +
		" Alternatively, this can be set with the following environment variable: WALLETD_TLS_CERT_FILE"

	agentTLSKeyFileFlagName      = "tls-key-file"
	agentTLSKeyFileFlagShorthand = "k"
	agentTLSKeyFileFlagUsage     = "tls key file." +
		" Alternatively, this can be set with the following environment variable: WALLETD_TLS_KEY_FILE"

	autoSyncFlagName  = "auto-sync-interval"
	autoSyncFlagUsage = "Interval of the background wallet sync, e.g. 30s. Disabled if not set." +
		" Alternatively, this can be set with the following environment variable: WALLETD_AUTO_SYNC_INTERVAL"

	unlockRateFlagName  = "unlock-rate"
	unlockRateFlagUsage = "Sustained wallet unlock attempts accepted per second. Defaults to 1." +
		" Alternatively, this can be set with the following environment variable: WALLETD_UNLOCK_RATE"

	unlockBurstFlagName  = "unlock-burst"
	unlockBurstFlagUsage = "Wallet unlock attempts accepted at once. Defaults to 5." +
		" Alternatively, this can be set with the following environment variable: WALLETD_UNLOCK_BURST"

	workersFlagName  = "workers"
	workersFlagUsage = "Number of workers dispatching the requests of one websocket connection." +
		" Alternatively, this can be set with the following environment variable: WALLETD_WORKERS"

	originPatternsFlagName  = "origin-patterns"
	originPatternsFlagUsage = "Browser origins allowed to open websocket connections." +
		" This flag can be repeated." +
		" Alternatively, this can be set with the following environment variable (in CSV format): " +
		"WALLETD_ORIGIN_PATTERNS"

	requestLogFlagName  = "request-log"
	requestLogFlagUsage = "Record the outcome of every dispatched request in the database." +
		" Possible values [true] [false]. Defaults to false if not set." +
		" Alternatively, this can be set with the following environment variable: WALLETD_REQUEST_LOG"

	remoteWalletURLFlagName  = "remote-wallet-url"
	remoteWalletURLFlagUsage = "URL of the wallet agent backing wallets created with the proxy backend." +
		" The proxy backend is unavailable if not set." +
		" Alternatively, this can be set with the following environment variable: WALLETD_REMOTE_WALLET_URL"

	remoteWalletTokenFlagName  = "remote-wallet-token"
	remoteWalletTokenFlagUsage = "Bearer token of the remote wallet agent (optional)." +
		" Alternatively, this can be set with the following environment variable: WALLETD_REMOTE_WALLET_TOKEN"

	databaseTypeMemOption     = "mem"
	databaseTypeLevelDBOption = "leveldb"
)

var (
	errMissingHost = errors.New("host not provided")
	logger         = log.New("wallet/agent")
)

type agentParameters struct {
	server                  server
	host, token             string
	tlsCertFile, tlsKeyFile string
	dbParam                 *dbParam
	autoSync                time.Duration
	unlockRate              float64
	unlockBurst             int
	workers                 int
	originPatterns          []string
	requestLog              bool
	remoteWalletURL         string
	remoteWalletToken       string
}

type dbParam struct {
	dbType  string
	path    string
	timeout uint64
}

// nolint:gochecknoglobals
var supportedStorageProviders = map[string]func(path string) (storage.Provider, error){
	databaseTypeMemOption: func(string) (storage.Provider, error) { // nolint:unparam
		return mem.NewProvider(), nil
	},
	databaseTypeLevelDBOption: func(path string) (storage.Provider, error) {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}

		return leveldb.NewProvider(path), nil
	},
}

type server interface {
	ListenAndServe(host string, router http.Handler, certFile, keyFile string) error
}

// HTTPServer represents an actual server implementation.
type HTTPServer struct{}

// ListenAndServe starts the server using the standard Go HTTP server implementation.
func (s *HTTPServer) ListenAndServe(host string, router http.Handler, certFile, keyFile string) error {
	if certFile != "" && keyFile != "" {
		return http.ListenAndServeTLS(host, certFile, keyFile, router)
	}

	return http.ListenAndServe(host, router)
}

// Cmd returns the Cobra start command.
func Cmd(server server) (*cobra.Command, error) {
	v := viper.New()

	startCmd := createStartCMD(server, v)

	createFlags(startCmd)

	if err := bindFlags(startCmd.Flags(), v); err != nil {
		return nil, err
	}

	return startCmd, nil
}

func createStartCMD(server server, v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a wallet agent",
		Long:  `Start a wallet agent serving the wallet, keyring, did and dock services`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := readConfigFile(v); err != nil {
				return err
			}

			if err := setLogLevel(v.GetString(agentLogLevelFlagName)); err != nil {
				return err
			}

			parameters, err := getAgentParameters(v)
			if err != nil {
				return err
			}

			parameters.server = server

			return startAgent(parameters)
		},
	}
}

func createFlags(startCmd *cobra.Command) {
	startCmd.Flags().String(configFlagName, "", configFlagUsage)

	// agent host flag
	startCmd.Flags().StringP(agentHostFlagName, agentHostFlagShorthand, "", agentHostFlagUsage)

	// agent token flag
	startCmd.Flags().StringP(agentTokenFlagName, agentTokenFlagShorthand, "", agentTokenFlagUsage)

	// db type
	startCmd.Flags().StringP(databaseTypeFlagName, databaseTypeFlagShorthand, databaseTypeMemOption,
		databaseTypeFlagUsage)

	// db path
	startCmd.Flags().StringP(databasePathFlagName, databasePathFlagShorthand, "", databasePathFlagUsage)

	// db timeout
	startCmd.Flags().Uint64(databaseTimeoutFlagName, databaseTimeoutDefault, databaseTimeoutFlagUsage)

	// log level
	startCmd.Flags().StringP(agentLogLevelFlagName, "", "", agentLogLevelFlagUsage)

	// tls cert file
	startCmd.Flags().StringP(agentTLSCertFileFlagName,
		agentTLSCertFileFlagShorthand, "", agentTLSCertFileFlagUsage)

	// tls key file
	startCmd.Flags().StringP(agentTLSKeyFileFlagName,
		agentTLSKeyFileFlagShorthand, "", agentTLSKeyFileFlagUsage)

	startCmd.Flags().Duration(autoSyncFlagName, 0, autoSyncFlagUsage)
	startCmd.Flags().Float64(unlockRateFlagName, float64(rpc.DefaultUnlockRate), unlockRateFlagUsage)
	startCmd.Flags().Int(unlockBurstFlagName, rpc.DefaultUnlockBurst, unlockBurstFlagUsage)
	startCmd.Flags().Int(workersFlagName, 0, workersFlagUsage)
	startCmd.Flags().StringSlice(originPatternsFlagName, []string{}, originPatternsFlagUsage)
	startCmd.Flags().Bool(requestLogFlagName, false, requestLogFlagUsage)
	startCmd.Flags().String(remoteWalletURLFlagName, "", remoteWalletURLFlagUsage)
	startCmd.Flags().String(remoteWalletTokenFlagName, "", remoteWalletTokenFlagUsage)
}

// bindFlags makes every flag readable from v, falling back to WALLETD_<FLAG_NAME> and then to the
// configuration file.
func bindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	return nil
}

func readConfigFile(v *viper.Viper) error {
	path := v.GetString(configFlagName)
	if path == "" {
		return nil
	}

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read configuration file %s: %w", path, err)
	}

	logger.Infof("using configuration file %s", v.ConfigFileUsed())

	return nil
}

func getAgentParameters(v *viper.Viper) (*agentParameters, error) {
	host := v.GetString(agentHostFlagName)
	if host == "" {
		return nil, errors.New("Neither " + agentHostFlagName + " (command line flag) nor " + envPrefix +
			"_API_HOST (environment variable) have been set.")
	}

	dbType := v.GetString(databaseTypeFlagName)
	if _, supported := supportedStorageProviders[dbType]; !supported {
		return nil, fmt.Errorf("database type [%s] not supported. run start --help to see the available options",
			dbType)
	}

	dbPath := v.GetString(databasePathFlagName)
	if dbType == databaseTypeLevelDBOption && dbPath == "" {
		return nil, fmt.Errorf("%s is required for leveldb", databasePathFlagName)
	}

	timeout := v.GetUint64(databaseTimeoutFlagName)
	if timeout == 0 {
		timeout = databaseTimeoutDefault
	}

	autoSync := v.GetDuration(autoSyncFlagName)
	if autoSync < 0 {
		return nil, fmt.Errorf("%s must not be negative", autoSyncFlagName)
	}

	unlockRate := v.GetFloat64(unlockRateFlagName)
	unlockBurst := v.GetInt(unlockBurstFlagName)

	if unlockRate <= 0 || unlockBurst <= 0 {
		return nil, fmt.Errorf("%s and %s must be positive", unlockRateFlagName, unlockBurstFlagName)
	}

	tlsCertFile := v.GetString(agentTLSCertFileFlagName)
	tlsKeyFile := v.GetString(agentTLSKeyFileFlagName)

	if (tlsCertFile == "") != (tlsKeyFile == "") {
		return nil, fmt.Errorf("%s and %s must be set together", agentTLSCertFileFlagName, agentTLSKeyFileFlagName)
	}

	return &agentParameters{
		host:        host,
		token:       v.GetString(agentTokenFlagName),
		tlsCertFile: tlsCertFile,
		tlsKeyFile:  tlsKeyFile,
		dbParam: &dbParam{
			dbType:  dbType,
			path:    dbPath,
			timeout: timeout,
		},
		autoSync:          autoSync,
		unlockRate:        unlockRate,
		unlockBurst:       unlockBurst,
		workers:           v.GetInt(workersFlagName),
		originPatterns:    getStringSlice(v, originPatternsFlagName),
		requestLog:        v.GetBool(requestLogFlagName),
		remoteWalletURL:   v.GetString(remoteWalletURLFlagName),
		remoteWalletToken: v.GetString(remoteWalletTokenFlagName),
	}, nil
}

// getStringSlice also splits the CSV form of environment variables.
func getStringSlice(v *viper.Viper, key string) []string {
	var values []string

	for _, value := range v.GetStringSlice(key) {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	}

	return values
}

func setLogLevel(logLevel string) error {
	if logLevel != "" {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("failed to parse log level '%s' : %w", logLevel, err)
		}

		log.SetLevel("", level)

		logger.Infof("logger level set to %s", logLevel)
	}

	return nil
}

func startAgent(parameters *agentParameters) error {
	if parameters.host == "" {
		return errMissingHost
	}

	ctx, err := createContext(parameters)
	if err != nil {
		return err
	}

	defer func() {
		if err := ctx.Close(); err != nil {
			logger.Warnf("failed to close the wallet agent: %s", err)
		}
	}()

	// get all HTTP REST API handlers available for controller API
	handlers, err := controller.GetRESTHandlers(ctx, controller.WithOriginPatterns(parameters.originPatterns...))
	if err != nil {
		return fmt.Errorf("failed to start wallet agent on port [%s], failed to get rest service api :  %w",
			parameters.host, err)
	}

	logger.Infof("Starting wallet agent on host [%s]", parameters.host)

	err = parameters.server.ListenAndServe(parameters.host, rest.NewRouter(parameters.token, handlers...),
		parameters.tlsCertFile, parameters.tlsKeyFile)
	if err != nil {
		return fmt.Errorf("failed to start wallet agent on port [%s], cause:  %w", parameters.host, err)
	}

	return nil
}

func createContext(parameters *agentParameters) (*context.Provider, error) {
	storePro, err := createStoreProvider(parameters.dbParam)
	if err != nil {
		return nil, err
	}

	opts := []context.ProviderOption{
		context.WithStorageProvider(storePro),
		context.WithDispatcherOptions(
			rpc.WithWorkers(parameters.workers),
			rpc.WithRateLimit("wallet", "unlock", rate.Limit(parameters.unlockRate), parameters.unlockBurst),
		),
	}

	if parameters.autoSync > 0 {
		opts = append(opts, context.WithWalletOptions(wallet.WithAutoSync(parameters.autoSync)))
	}

	if parameters.requestLog {
		opts = append(opts, context.WithRequestLog())
	}

	if parameters.remoteWalletURL != "" {
		opts = append(opts, context.WithRemoteWallet(
			rpc.NewHTTPCaller(parameters.remoteWalletURL, rpc.WithHTTPToken(parameters.remoteWalletToken))))
	}

	ctx, err := context.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start wallet agent on port [%s], failed to initialize context : %w",
			parameters.host, err)
	}

	return ctx, nil
}

func createStoreProvider(param *dbParam) (storage.Provider, error) {
	provider, supported := supportedStorageProviders[param.dbType]
	if !supported {
		return nil, fmt.Errorf("database type not set to a valid type." +
			" run start --help to see the available options")
	}

	var store storage.Provider

	err := backoff.RetryNotify(
		func() error {
			var openErr error
			store, openErr = provider(param.path)

			return openErr
		},
		backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), param.timeout),
		func(retryErr error, t time.Duration) {
			logger.Warnf(
				"failed to open storage, will sleep for %s before trying again : %s\n",
				t, retryErr)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage at %s : %w", param.path, err)
	}

	return store, nil
}
