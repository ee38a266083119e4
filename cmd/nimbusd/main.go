// nimbusd serves the compute servers REST API backed by the
// in-memory instance store.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/juju/gnuflag"

	"github.com/craneworks/nimbus"
	"github.com/craneworks/nimbus/api"
	"github.com/craneworks/nimbus/logging"
	"github.com/craneworks/nimbus/store"
)

var (
	configFlag  = gnuflag.String("config", "", "path to the YAML configuration file")
	listenFlag  = gnuflag.String("listen", "", "bind address, overrides the config file")
	baseURLFlag = gnuflag.String("base-url", "", "public endpoint URL, overrides the config file")
	versionFlag = gnuflag.Bool("version", false, "print the version and exit")
)

func run() error {
	cfg, err := loadConfig(*configFlag)
	if err != nil {
		return err
	}
	if *listenFlag != "" {
		cfg.Listen = *listenFlag
	}
	if *baseURLFlag != "" {
		cfg.BaseURL = *baseURLFlag
	}
	if err := logging.ConfigureLevels(cfg.Logging); err != nil {
		return err
	}
	service, err := api.New(api.Options{
		Store:          store.New(),
		BaseURL:        cfg.BaseURL,
		MaxPageSize:    cfg.MaxPageSize,
		PasswordLength: cfg.PasswordLength,
		IncludeIPv6:    cfg.IncludeIPv6,
	})
	if err != nil {
		return err
	}
	logger := logging.New("daemon")
	logger.Infof("nimbusd %s listening on %s, endpoint %s", nimbus.Version, cfg.Listen, cfg.BaseURL)
	return http.ListenAndServe(cfg.Listen, service.Router())
}

func main() {
	gnuflag.Parse(true)
	if *versionFlag {
		fmt.Printf("nimbusd %s\n", nimbus.Version)
		return
	}
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
