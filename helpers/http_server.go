package helpers

import (
	"fmt"
	"net/http"

	"code.cloudfoundry.org/lager/v3"
	"github.com/tedsuo/ifrit"
	"github.com/tedsuo/ifrit/http_server"
)

type ServerConfig struct {
	Port int `yaml:"port" json:"port"`
}

func NewHTTPServer(logger lager.Logger, conf ServerConfig, handler http.Handler) (ifrit.Runner, error) {
	addr := fmt.Sprintf("0.0.0.0:%d", conf.Port)
	logger.Info("new-http-server", lager.Data{"port": conf.Port})
	return http_server.New(addr, handler), nil
}
