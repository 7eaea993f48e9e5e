package server

import (
	"context"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/azharpratama/tenso/common/log"
	"github.com/azharpratama/tenso/config"
	constant "github.com/azharpratama/tenso/const"
	nodecontract "github.com/azharpratama/tenso/internal/contract"
	"github.com/azharpratama/tenso/internal/ctrl"
	database "github.com/azharpratama/tenso/internal/db"
	"github.com/azharpratama/tenso/internal/handler"
	"github.com/azharpratama/tenso/internal/proxy"
	"github.com/azharpratama/tenso/internal/settlement"
	"github.com/azharpratama/tenso/internal/verifier"
	"github.com/azharpratama/tenso/monitor"
)

//go:generate swag fmt
//go:generate swag init --dir ./,../../ --output ../../doc

//	@title			Payment Forwarder Node API
//	@version		0.1.0
//	@description	These APIs let clients pay per request for registered upstream APIs and let owners manage their listings. The host is localhost, and the port is configured with PORT, defaulting to 8080.
//	@host			localhost:8080
//	@BasePath		/
//	@in				header

func Main() {
	// Initialize logger
	logger, err := log.GetLogger(&config.GetConfig().Logger)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	logger.Info("Starting forwarder node")

	config := config.GetConfig()

	db, err := database.NewDB(config, logger)
	if err != nil {
		logger.WithFields(logrus.Fields{"error": err}).Error("Failed to initialize database")
		panic(err)
	}
	if err := db.Migrate(); err != nil {
		logger.WithFields(logrus.Fields{"error": err}).Error("Failed to migrate database")
		panic(err)
	}

	contract, err := nodecontract.NewNodeContract(config, logger)
	if err != nil {
		logger.WithFields(logrus.Fields{"error": err}).Error("Failed to initialize node contract")
		panic(err)
	}
	defer contract.Close()

	proofVerifier := verifier.New(contract, config.Network.ChainID, logger)

	engineImpl, err := settlement.NewEngine(config.Settlement.Mode, contract, config.Network.NetworkID, logger)
	if err != nil {
		logger.WithFields(logrus.Fields{"error": err}).Error("Failed to initialize settlement engine")
		panic(err)
	}

	engine := gin.New()

	if config.Monitor.Enable {
		monitor.PrometheusInit("forwarder-node")
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
		logger.Info("Prometheus monitoring enabled")
	}

	svcCache := cache.New(config.RegistryCacheExpiration, 2*config.RegistryCacheExpiration)

	nodeOperator := config.NodeOperator
	if nodeOperator == "" {
		nodeOperator = contract.NodeAddress()
	}

	if node, err := contract.GetNode(context.Background(), common.HexToAddress(nodeOperator)); err != nil {
		logger.WithFields(logrus.Fields{"error": err, "operator": nodeOperator}).Warn("Could not read node registration")
	} else if !node.Active {
		logger.WithFields(logrus.Fields{"operator": nodeOperator}).Warn("Node is not active in the on-chain registry")
	} else {
		logger.WithFields(logrus.Fields{
			"operator":   nodeOperator,
			"endpoint":   node.Endpoint,
			"region":     node.Region,
			"stake":      node.StakeAmount.String(),
			"reputation": node.Reputation.String(),
		}).Info("Node registration confirmed")
	}

	ctrl := ctrl.New(
		db,
		proofVerifier,
		engineImpl,
		svcCache,
		config.Analytics.Workers,
		nodeOperator,
		config.Contracts.Usdc,
		config.Network.NetworkID,
		logger,
	)
	defer ctrl.Close()

	p := proxy.New(ctrl, engine, config.AllowOrigins, config.Monitor.Enable, logger)
	if err := p.Start(); err != nil {
		logger.WithFields(logrus.Fields{"error": err}).Error("Failed to start proxy")
		panic(err)
	}

	h := handler.New(ctrl, p)
	h.Register(engine)

	logger.WithFields(logrus.Fields{
		"port":           os.Getenv("PORT"),
		"network":        config.Network.NetworkID,
		"settlementMode": engineImpl.Mode(),
		"proxyPrefix":    constant.ProxyPrefix,
	}).Info("Starting HTTP server")

	// Listen and Serve, config port with PORT=X
	if err := engine.Run(); err != nil {
		logger.WithFields(logrus.Fields{"error": err}).Error("Failed to start HTTP server")
		panic(err)
	}
}
