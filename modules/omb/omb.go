package omb

import (
	"context"
	"strings"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/ordmarket/orderbook-engine/common/errs"
	"github.com/ordmarket/orderbook-engine/core/datasources"
	"github.com/ordmarket/orderbook-engine/core/worker"
	"github.com/ordmarket/orderbook-engine/internal/config"
	"github.com/ordmarket/orderbook-engine/internal/postgres"
	ombapi "github.com/ordmarket/orderbook-engine/modules/omb/api"
	ombdatagateway "github.com/ordmarket/orderbook-engine/modules/omb/datagateway"
	ombpostgres "github.com/ordmarket/orderbook-engine/modules/omb/repository/postgres"
	ombusecase "github.com/ordmarket/orderbook-engine/modules/omb/usecase"
	"github.com/ordmarket/orderbook-engine/pkg/cas"
	"github.com/ordmarket/orderbook-engine/pkg/logger"
	"github.com/samber/do/v2"
	"github.com/samber/lo"
)

func New(injector do.Injector) (worker.Worker, error) {
	ctx := do.MustInvoke[context.Context](injector)
	conf := do.MustInvoke[config.Config](injector)
	moduleConf := conf.Modules.Omb

	var ombDg ombdatagateway.OmbDataGateway
	switch strings.ToLower(moduleConf.Database) {
	case "postgresql", "postgres", "pg":
		pg, err := postgres.NewPool(ctx, moduleConf.Postgres)
		if err != nil {
			if errors.Is(err, errs.InvalidArgument) {
				return nil, errors.Wrap(err, "invalid Postgres configuration")
			}
			return nil, errors.Wrap(err, "can't create Postgres connection pool")
		}
		ombDg = ombpostgres.NewRepository(pg)
	default:
		return nil, errors.Wrapf(errs.Unsupported, "%q database is not supported", moduleConf.Database)
	}

	var lookup datasources.LookupService
	switch strings.ToLower(moduleConf.Datasource) {
	case "bitcoin-node":
		btcClient := do.MustInvoke[*rpcclient.Client](injector)
		lookup = datasources.NewBitcoinNode(btcClient, conf.Network.ChainParams(), nil)
	default:
		return nil, errors.Wrapf(errs.Unsupported, "%q datasource is not supported", moduleConf.Datasource)
	}

	contentClient, err := cas.New(moduleConf.Content)
	if err != nil {
		return nil, errors.Wrap(err, "can't create content storage client")
	}

	uc := ombusecase.New(ombDg, lookup, contentClient, conf.Network, moduleConf.FeeRate, moduleConf.NetworkFee)

	// Mount API
	apiHandlers := lo.Uniq(moduleConf.APIHandlers)
	for _, handler := range apiHandlers {
		switch handler {
		case "http":
			httpServer := do.MustInvoke[*fiber.App](injector)
			ombHTTPHandler := ombapi.NewHTTPHandler(conf.Network, uc)
			if err := ombHTTPHandler.Mount(httpServer); err != nil {
				return nil, errors.Wrap(err, "can't mount orderbook API")
			}
			logger.InfoContext(ctx, "Mounted HTTP handler")
		default:
			return nil, errors.Wrapf(errs.Unsupported, "%q API handler is not supported", handler)
		}
	}

	return NewWorker(uc, ombDg, conf.Network, moduleConf.ResolveInterval), nil
}
