package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/inferpay/escrow/internal/app/api/server"
	"github.com/inferpay/escrow/internal/app/service/gate"
	"github.com/inferpay/escrow/internal/app/service/history"
	"github.com/inferpay/escrow/internal/app/service/settlement"
	"github.com/inferpay/escrow/internal/app/service/transaction"
	"github.com/inferpay/escrow/internal/platform/db"
	"github.com/inferpay/escrow/internal/platform/keyring"
	"github.com/inferpay/escrow/internal/platform/ledger"
	"github.com/inferpay/escrow/pkg/config"
	"github.com/inferpay/escrow/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	ledger.Module,
	keyring.Module,
	server.Module,
	transaction.Module,
	settlement.Module,
	gate.Module,
	history.Module,
)
