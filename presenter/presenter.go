package presenter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/omni/retryables-monitor/config"
	"github.com/omni/retryables-monitor/contract"
	"github.com/omni/retryables-monitor/db"
	"github.com/omni/retryables-monitor/entity"
	"github.com/omni/retryables-monitor/ethclient"
	"github.com/omni/retryables-monitor/logging"
	"github.com/omni/retryables-monitor/presenter/http/middleware"
	"github.com/omni/retryables-monitor/presenter/http/render"
	"github.com/omni/retryables-monitor/repository"
	"github.com/omni/retryables-monitor/retryables"
)

const (
	defaultStatusCacheSize   = 10000
	defaultStatusConcurrency = 8
)

// Rollup holds the clients the presenter uses to resolve messages of a single rollup.
type Rollup struct {
	Config *config.RollupConfig
	L1     ethclient.Client
	L2     ethclient.Client
}

type Presenter struct {
	logger  logging.Logger
	repo    *repository.Repo
	rollups map[string]*Rollup
	// terminal statuses never change, so they are cached by creation id
	statuses *lru.Cache[common.Hash, retryables.Status]
	root     chi.Router
}

func NewPresenter(logger logging.Logger, repo *repository.Repo, rollups map[string]*Rollup) (*Presenter, error) {
	statuses, err := lru.New[common.Hash, retryables.Status](defaultStatusCacheSize)
	if err != nil {
		return nil, fmt.Errorf("can't create status cache: %w", err)
	}
	p := &Presenter{
		logger:   logger,
		repo:     repo,
		rollups:  rollups,
		statuses: statuses,
		root:     chi.NewMux(),
	}
	p.routes()
	return p, nil
}

func (p *Presenter) routes() {
	configs := make(map[string]*config.RollupConfig, len(p.rollups))
	for id, rollup := range p.rollups {
		configs[id] = rollup.Config
	}

	p.root.Use(chimiddleware.Throttle(5))
	p.root.Use(chimiddleware.RequestID)
	p.root.Use(middleware.NewLoggerMiddleware(p.logger))
	p.root.Use(middleware.Recoverer)

	p.root.Route("/tx/{txHash}", func(r chi.Router) {
		r.Use(middleware.GetRollupConfigMiddleware(configs))
		r.Use(middleware.GetHashMiddleware("txHash"))
		r.Get("/", p.GetTx)
		r.With(middleware.GetMessageIndexMiddleware).Get("/message", p.GetMessage)
		r.With(middleware.GetMessageIndexMiddleware).Get("/messages/{index}", p.GetMessage)
	})
	p.root.With(middleware.GetHashMiddleware("creationID")).Get("/ticket/{creationID}", p.GetTicket)
	p.root.Route("/rollup/{rollupID}", func(r chi.Router) {
		r.Use(middleware.GetRollupConfigMiddleware(configs))
		r.Get("/", p.GetRollup)
		r.With(middleware.GetTicketsFilterMiddleware).Get("/tickets", p.GetTickets)
	})
}

func (p *Presenter) Serve(addr string) error {
	p.logger.WithField("addr", addr).Info("starting presenter service")
	return http.ListenAndServe(addr, p.root)
}

func (p *Presenter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.root.ServeHTTP(w, r)
}

func (p *Presenter) rollup(ctx context.Context) *Rollup {
	return p.rollups[middleware.RollupConfig(ctx).ID]
}

func options(rollup *Rollup) []retryables.Option {
	return []retryables.Option{retryables.WithRetryableTxAddress(rollup.Config.L2.RetryableTxAddress)}
}

func (p *Presenter) GetTx(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rollup := p.rollup(ctx)
	txHash := middleware.Hash(ctx)

	receipt, err := p.getReceipt(ctx, rollup, txHash)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	msgs, err := receipt.Messages(ctx, rollup.L2, options(rollup)...)
	if err != nil {
		render.Error(w, r, fmt.Errorf("can't resolve messages: %w", err))
		return
	}
	infos, err := p.describeMessages(ctx, msgs)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	res := &TxResult{
		RollupID:    rollup.Config.ID,
		ChainID:     rollup.Config.L1.Chain.ChainID,
		TxHash:      txHash,
		BlockNumber: receipt.BlockNumber().Uint64(),
		Succeeded:   receipt.Succeeded(),
		Link:        txLink(rollup.Config.L1.Chain.ChainID, txHash),
		Messages:    infos,
		Deposits:    make([]*DepositInfo, 0),
	}
	deposits, err := receipt.DepositEvents()
	if err != nil {
		logging.LoggerFromContext(ctx).WithError(err).Warn("can't decode gateway deposits")
	}
	for _, deposit := range deposits {
		res.Deposits = append(res.Deposits, depositToInfo(deposit))
	}
	res.LooksLikeEthDeposit, err = receipt.LooksLikeEthDeposit(ctx, rollup.L1)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, res)
}

func (p *Presenter) GetMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rollup := p.rollup(ctx)
	txHash := middleware.Hash(ctx)
	index := middleware.MessageIndex(ctx)

	receipt, err := p.getReceipt(ctx, rollup, txHash)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	msg, err := receipt.Message(ctx, rollup.L2, index, options(rollup)...)
	if err != nil {
		render.Error(w, r, messageError(err))
		return
	}
	i := 0
	if index != nil {
		i = *index
	}
	info, err := p.describeMessage(ctx, i, msg)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, &MessageResult{
		RollupID:    rollup.Config.ID,
		TxHash:      txHash,
		Link:        txLink(rollup.Config.L1.Chain.ChainID, txHash),
		MessageInfo: info,
	})
}

func (p *Presenter) GetTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	creationID := middleware.Hash(ctx)

	ticket, err := p.repo.Tickets.GetByCreationID(ctx, creationID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			err = render.NewError(http.StatusNotFound, fmt.Errorf("ticket %s: %w", creationID, err))
		}
		render.Error(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, ticketToInfo(ticket))
}

func (p *Presenter) GetRollup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg := middleware.RollupConfig(ctx)

	res := &RollupResult{
		RollupID:     cfg.ID,
		L1ChainID:    cfg.L1.Chain.ChainID,
		L2ChainID:    cfg.L2.Chain.ChainID,
		InboxAddress: cfg.L1.InboxAddress,
	}
	cursor, err := p.repo.LogsCursors.GetByChainIDAndAddress(ctx, cfg.L1.Chain.ChainID, cfg.L1.InboxAddress)
	if err = db.IgnoreErrNotFound(err); err != nil {
		render.Error(w, r, err)
		return
	}
	if cursor != nil {
		res.LastFetchedBlock = cursor.LastFetchedBlock
		res.LastProcessedBlock = cursor.LastProcessedBlock
		res.UpdatedAt = cursor.UpdatedAt
	}
	render.JSON(w, r, http.StatusOK, res)
}

func (p *Presenter) GetTickets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg := middleware.RollupConfig(ctx)
	filter := middleware.GetTicketsFilter(ctx)

	var tickets []*entity.Ticket
	var err error
	if filter.OlderThan != nil {
		tickets, err = p.repo.Tickets.FindStale(ctx, cfg.ID, time.Now().Add(-*filter.OlderThan))
		if len(tickets) > int(filter.Limit) {
			tickets = tickets[:filter.Limit]
		}
	} else {
		tickets, err = p.repo.Tickets.FindByStatus(ctx, cfg.ID, filter.Status, filter.Limit)
	}
	if err != nil {
		render.Error(w, r, err)
		return
	}

	res := &TicketsResult{
		RollupID: cfg.ID,
		Status:   filter.Status,
		Tickets:  make([]*TicketInfo, len(tickets)),
	}
	for i, ticket := range tickets {
		res.Tickets[i] = ticketToInfo(ticket)
	}
	render.JSON(w, r, http.StatusOK, res)
}

func (p *Presenter) getReceipt(ctx context.Context, rollup *Rollup, txHash common.Hash) (*retryables.Receipt, error) {
	raw, err := rollup.L1.TransactionReceiptByHash(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, render.NewError(http.StatusNotFound, fmt.Errorf("transaction %s: %w", txHash, err))
	}
	if err != nil {
		return nil, fmt.Errorf("can't get receipt of %s: %w", txHash, err)
	}
	return retryables.NewReceipt(raw), nil
}

func messageError(err error) error {
	switch {
	case errors.Is(err, retryables.ErrNoMessageFound):
		return render.NewError(http.StatusNotFound, err)
	case errors.Is(err, retryables.ErrIndexOutOfRange):
		return render.NewError(http.StatusBadRequest, err)
	case errors.Is(err, retryables.ErrAmbiguousMessageCount):
		return render.NewError(http.StatusConflict, err)
	}
	return err
}

// describeMessages requests statuses of all messages concurrently, keeping the message order.
func (p *Presenter) describeMessages(ctx context.Context, msgs []*retryables.Message) ([]*MessageInfo, error) {
	infos := make([]*MessageInfo, len(msgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultStatusConcurrency)
	for i, msg := range msgs {
		i, msg := i, msg
		g.Go(func() error {
			info, err := p.describeMessage(gctx, i, msg)
			infos[i] = info
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return infos, nil
}

func (p *Presenter) describeMessage(ctx context.Context, index int, msg *retryables.Message) (*MessageInfo, error) {
	status, err := p.status(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("can't get status of message %d: %w", index, err)
	}
	info := messageToInfo(index, msg, status)
	if status != retryables.StatusCreated {
		return info, nil
	}

	timeout, err := msg.Timeout(ctx)
	if errors.Is(err, contract.ErrNoTicketWithID) {
		return info, nil
	}
	if err != nil {
		return nil, fmt.Errorf("can't get ticket timeout: %w", err)
	}
	ts := time.Unix(timeout.Int64(), 0).UTC()
	info.Timeout = &ts
	if info.Lifetime, err = msg.Lifetime(ctx); err != nil {
		return nil, fmt.Errorf("can't get ticket lifetime: %w", err)
	}
	beneficiary, err := msg.Beneficiary(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't get ticket beneficiary: %w", err)
	}
	info.Beneficiary = &beneficiary
	return info, nil
}

func (p *Presenter) status(ctx context.Context, msg *retryables.Message) (retryables.Status, error) {
	if status, ok := p.statuses.Get(msg.CreationID()); ok {
		return status, nil
	}
	status, err := msg.Status(ctx)
	if err != nil {
		return 0, err
	}
	if status.IsTerminal() {
		p.statuses.Add(msg.CreationID(), status)
	}
	return status, nil
}
