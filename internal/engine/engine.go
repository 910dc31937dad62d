package engine

import (
	"context"
	"strings"
	gosync "sync"
	"time"

	"Centavo/internal/contracts"
	"Centavo/internal/domain/goal"
	"Centavo/internal/domain/transaction"
	appErrors "Centavo/internal/errors"
	"Centavo/internal/identity"
	"Centavo/internal/logger"
	"Centavo/internal/pkg"
	"Centavo/internal/store"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type State string

const (
	StateUnauthenticated State = "UNAUTHENTICATED"
	StateLoading         State = "LOADING"
	StateReady           State = "READY"
)

const (
	savingsTitlePrefix  = "Adicionado a "
	goalSavingsMerchant = "Poupança de Meta"
	watchBuffer         = 8
)

// Engine é o dono exclusivo do snapshot em memória da identidade ativa.
// O armazenamento remoto é a única fonte de verdade: mutações nunca
// alteram o snapshot localmente; o estado local só muda por fetch,
// disparado pela entrada da identidade ou por notificação de mudança.
type Engine struct {
	store    store.Client
	provider identity.Provider

	mu       gosync.Mutex
	session  *session
	snap     Snapshot
	state    State
	watchers []chan Snapshot

	cancel context.CancelFunc
	done   chan struct{}
}

// session amarra fetches e assinaturas a uma identidade. Um fetch que
// termina depois da troca de sessão encontra e.session != s e descarta
// o resultado, em vez de repovoar o snapshot já limpo.
type session struct {
	identity identity.Identity
	ctx      context.Context
	cancel   context.CancelFunc
	subs     []store.Subscription
}

func NewEngine(storeClient store.Client, provider identity.Provider) *Engine {
	return &Engine{
		store:    storeClient,
		provider: provider,
		snap:     buildSnapshot(nil, nil, nil, false),
		state:    StateUnauthenticated,
	}
}

func (e *Engine) Start() {
	events := e.provider.Watch()

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})

	go e.run(ctx, events)

	if ident, ok := e.provider.Current(); ok {
		e.beginSession(*ident)
	}
}

func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
		<-e.done
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.endSessionLocked()
	for _, ch := range e.watchers {
		close(ch)
	}
	e.watchers = nil
}

func (e *Engine) run(ctx context.Context, events <-chan identity.Event) {
	defer close(e.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			switch event.Kind {
			case identity.SignedIn:
				e.beginSession(*event.Identity)
			case identity.SignedOut:
				e.endSession()
			}
		}
	}
}

func (e *Engine) beginSession(ident identity.Identity) {
	e.mu.Lock()

	e.endSessionLocked()

	sctx, cancel := context.WithCancel(context.Background())
	s := &session{identity: ident, ctx: sctx, cancel: cancel}
	e.session = s
	e.state = StateLoading
	e.snap = buildSnapshot(nil, nil, nil, false)
	e.publishLocked()

	// Assina antes do fetch inicial para não perder mudanças na janela
	// entre fetch e assinatura.
	for _, table := range []store.Table{store.TableGoals, store.TableTransactions} {
		table := table
		sub, err := e.store.Subscribe(table, ident.Id, func(change store.Change) {
			e.onChange(s, change.Table)
		})
		if err != nil {
			logger.Error().Err(err).Str("table", string(table)).Msg("Falha ao assinar notificações de mudança")
			continue
		}
		s.subs = append(s.subs, sub)
	}

	e.mu.Unlock()

	logger.Info().Str("user_id", ident.Id.String()).Msg("Sessão de sincronização iniciada")
	go e.initialFetch(s)
}

func (e *Engine) endSession() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.endSessionLocked()
}

func (e *Engine) endSessionLocked() {
	if e.session == nil {
		e.state = StateUnauthenticated
		return
	}

	s := e.session
	e.session = nil
	s.cancel()
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}

	e.snap = buildSnapshot(nil, nil, nil, false)
	e.state = StateUnauthenticated
	e.publishLocked()

	logger.Info().Str("user_id", s.identity.Id.String()).Msg("Sessão de sincronização encerrada")
}

// initialFetch busca metas e transações concorrentemente e só então sai
// de Loading. O perfil é suplementar: falha vira warning, não bloqueia.
func (e *Engine) initialFetch(s *session) {
	userID := s.identity.Id

	var (
		goals []*goal.Goal
		txs   []*transaction.Transaction
	)

	group, gctx := errgroup.WithContext(s.ctx)
	group.Go(func() error {
		fetched, err := e.store.FetchGoals(gctx, userID)
		if err != nil {
			return err
		}
		goals = fetched
		return nil
	})
	group.Go(func() error {
		fetched, err := e.store.FetchTransactions(gctx, userID)
		if err != nil {
			return err
		}
		txs = fetched
		return nil
	})

	if err := group.Wait(); err != nil {
		if s.ctx.Err() != nil {
			return
		}
		logger.Error().Err(err).Str("user_id", userID.String()).Msg("Falha no fetch inicial")
		return
	}

	prof, err := e.store.FetchProfile(s.ctx, userID)
	if err != nil {
		if s.ctx.Err() != nil {
			return
		}
		logger.Warn().Err(err).Str("user_id", userID.String()).Msg("Falha ao buscar perfil")
		prof = nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != s {
		return
	}
	e.snap = buildSnapshot(goals, txs, prof, true)
	e.state = StateReady
	e.publishLocked()
}

// onChange reage a uma notificação rebuscando apenas a tabela afetada.
// Se a sessão ainda está em Loading, o fetch inicial é refeito inteiro.
func (e *Engine) onChange(s *session, table store.Table) {
	e.mu.Lock()
	if e.session != s {
		e.mu.Unlock()
		return
	}
	state := e.state
	e.mu.Unlock()

	if state != StateReady {
		e.initialFetch(s)
		return
	}
	e.refreshTable(s, table)
}

// refreshTable substitui a sequência da tabela inteira (nunca aplica
// deltas) e recalcula os agregados. Falha mantém o último snapshot bom.
func (e *Engine) refreshTable(s *session, table store.Table) {
	userID := s.identity.Id

	switch table {
	case store.TableGoals:
		fetched, err := e.store.FetchGoals(s.ctx, userID)
		if err != nil {
			if s.ctx.Err() == nil {
				logger.Error().Err(err).Msg("Falha ao rebuscar metas; mantendo último snapshot")
			}
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.session != s {
			return
		}
		e.snap = buildSnapshot(fetched, e.snap.Transactions, e.snap.Profile, true)
		e.publishLocked()

	case store.TableTransactions:
		fetched, err := e.store.FetchTransactions(s.ctx, userID)
		if err != nil {
			if s.ctx.Err() == nil {
				logger.Error().Err(err).Msg("Falha ao rebuscar transações; mantendo último snapshot")
			}
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.session != s {
			return
		}
		e.snap = buildSnapshot(e.snap.Goals, fetched, e.snap.Profile, true)
		e.publishLocked()
	}
}

// Snapshot devolve uma cópia do snapshot atual; consumidores nunca
// recebem as fatias internas do engine.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap.clone()
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Watch devolve um canal que recebe uma cópia do snapshot a cada
// mudança. Consumidores lentos perdem snapshots intermediários; o mais
// recente sempre pode ser obtido via Snapshot().
func (e *Engine) Watch() <-chan Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch := make(chan Snapshot, watchBuffer)
	e.watchers = append(e.watchers, ch)
	return ch
}

func (e *Engine) publishLocked() {
	for _, ch := range e.watchers {
		select {
		case ch <- e.snap.clone():
		default:
		}
	}
}

func (e *Engine) activeSession() (*session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, appErrors.ErrNotAuthenticated
	}
	return e.session, nil
}

// AddGoal insere uma meta com current_amount zero, sempre. A validação
// acontece antes de qualquer chamada remota.
func (e *Engine) AddGoal(ctx context.Context, req *contracts.GoalCreateRequest) error {
	s, err := e.activeSession()
	if err != nil {
		return err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return appErrors.NewValidationError("title", "é obrigatório")
	}
	if !req.TargetAmount.IsPositive() {
		return appErrors.NewValidationError("target_amount", "deve ser maior que zero")
	}

	g := &goal.Goal{
		Id:            pkg.GenerateULIDObject(),
		UserId:        s.identity.Id,
		Title:         title,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: decimal.Zero,
		Emoji:         req.Emoji,
		Deadline:      req.Deadline,
		Color:         req.Color,
		CreatedAt:     time.Now(),
	}

	return e.store.InsertGoal(ctx, g)
}

// EditGoal atualiza apenas os campos informados; os demais ficam como
// estão. current_amount nunca é editável por aqui.
func (e *Engine) EditGoal(ctx context.Context, goalID ulid.ULID, req *contracts.GoalUpdateRequest) error {
	s, err := e.activeSession()
	if err != nil {
		return err
	}

	e.mu.Lock()
	_, found := e.snap.FindGoal(goalID.String())
	e.mu.Unlock()
	if !found {
		return appErrors.ErrGoalNotFound
	}

	fields := make(map[string]interface{})
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return appErrors.NewValidationError("title", "é obrigatório")
		}
		fields["title"] = title
	}
	if req.TargetAmount != nil {
		if !req.TargetAmount.IsPositive() {
			return appErrors.NewValidationError("target_amount", "deve ser maior que zero")
		}
		fields["target_amount"] = *req.TargetAmount
	}
	if req.Emoji != nil {
		fields["emoji"] = *req.Emoji
	}
	if req.Deadline != nil {
		fields["deadline"] = *req.Deadline
	}
	if req.Color != nil {
		fields["color"] = *req.Color
	}

	if len(fields) == 0 {
		return appErrors.NewValidationError("fields", "nenhum campo informado")
	}

	return e.store.UpdateGoal(ctx, goalID, s.identity.Id, fields)
}

// AddTransaction insere uma transação append-only. O snapshot só
// refletirá a escrita após a notificação de mudança disparar o re-fetch.
func (e *Engine) AddTransaction(ctx context.Context, req *contracts.TransactionCreateRequest) error {
	s, err := e.activeSession()
	if err != nil {
		return err
	}

	category := transaction.Category(req.Category)
	if !category.IsValid() {
		return appErrors.ErrInvalidCategory
	}
	if req.GoalId != nil && category != transaction.CategorySavings {
		return appErrors.NewValidationError("goal_id", "só é permitido em transações Savings")
	}

	goalID, err := pkg.ParseULIDPtr(req.GoalId)
	if err != nil {
		return appErrors.NewValidationError("goal_id", "formato inválido")
	}

	tx := &transaction.Transaction{
		Id:        pkg.GenerateULIDObject(),
		UserId:    s.identity.Id,
		Title:     strings.TrimSpace(req.Title),
		Amount:    req.Amount,
		Category:  category,
		Icon:      req.Icon,
		Merchant:  req.Merchant,
		GoalId:    goalID,
		CreatedAt: time.Now(),
	}

	return e.store.InsertTransaction(ctx, tx)
}

// AddToGoal aplica dois efeitos sequenciais, não atômicos: insere a
// transação de poupança e pede ao servidor o incremento atômico de
// current_amount. Se o segundo passo falhar, a transação órfã permanece
// e o chamador recebe InconsistencyError com os ids para reconciliação.
func (e *Engine) AddToGoal(ctx context.Context, goalID ulid.ULID, amount decimal.Decimal) error {
	s, err := e.activeSession()
	if err != nil {
		return err
	}

	if !amount.IsPositive() {
		return appErrors.NewValidationError("amount", "deve ser maior que zero")
	}

	e.mu.Lock()
	g, found := e.snap.FindGoal(goalID.String())
	e.mu.Unlock()
	if !found {
		return appErrors.ErrGoalNotFound
	}

	id := goalID
	tx := &transaction.Transaction{
		Id:        pkg.GenerateULIDObject(),
		UserId:    s.identity.Id,
		Title:     savingsTitlePrefix + g.Title,
		Amount:    amount,
		Category:  transaction.CategorySavings,
		Icon:      g.Emoji,
		Merchant:  goalSavingsMerchant,
		GoalId:    &id,
		CreatedAt: time.Now(),
	}

	if err := e.store.InsertTransaction(ctx, tx); err != nil {
		return err
	}

	args := map[string]interface{}{
		store.ArgGoalID: goalID.String(),
		store.ArgAmount: amount,
	}
	if err := e.store.Invoke(ctx, store.ProcedureAddToGoal, args); err != nil {
		incErr := appErrors.NewInconsistencyError(goalID.String(), tx.Id.String(), err)
		logger.Error().
			Err(err).
			Str("goal_id", incErr.GoalID).
			Str("transaction_id", incErr.TransactionID).
			Msg("Incremento da meta falhou após gravar transação de poupança")
		return incErr
	}

	return nil
}
