package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"Centavo/config"
	"Centavo/internal/logger"
	"Centavo/internal/pkg"
	"Centavo/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
)

// Listener mantém uma conexão dedicada em LISTEN no canal de mudanças e
// repassa cada notificação às assinaturas com tabela e dono
// correspondentes. A conexão é refeita com backoff quando cai; perder
// notificações é tolerado porque o engine rebusca a tabela inteira.
type Listener struct {
	connString string
	channel    string
	backoff    time.Duration
	maxBackoff time.Duration

	mu     sync.Mutex
	subs   map[uint64]*subscription
	nextID uint64

	cancel context.CancelFunc
	done   chan struct{}
}

type subscription struct {
	id       uint64
	table    store.Table
	userID   ulid.ULID
	onChange func(store.Change)
	listener *Listener
}

func (s *subscription) Unsubscribe() {
	s.listener.mu.Lock()
	defer s.listener.mu.Unlock()
	delete(s.listener.subs, s.id)
}

func NewListener(cfg *config.Config) *Listener {
	return &Listener{
		connString: cfg.Database.DSN(),
		channel:    cfg.Listener.Channel,
		backoff:    cfg.Listener.ReconnectBackoff,
		maxBackoff: cfg.Listener.MaxBackoff,
		subs:       make(map[uint64]*subscription),
	}
}

func (l *Listener) Subscribe(table store.Table, userID ulid.ULID, onChange func(store.Change)) (store.Subscription, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	sub := &subscription{
		id:       l.nextID,
		table:    table,
		userID:   userID,
		onChange: onChange,
		listener: l,
	}
	l.subs[sub.id] = sub
	return sub, nil
}

func (l *Listener) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})

	go l.run(ctx)
}

func (l *Listener) Stop() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
}

func (l *Listener) run(ctx context.Context) {
	defer close(l.done)

	wait := l.backoff
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := pgx.Connect(ctx, l.connString)
		if err != nil {
			logger.Warn().Err(err).Dur("backoff", wait).Msg("Falha ao conectar listener de notificações")
			if !sleepCtx(ctx, wait) {
				return
			}
			wait = nextBackoff(wait, l.maxBackoff)
			continue
		}

		if _, err := conn.Exec(ctx, fmt.Sprintf("LISTEN %s", l.channel)); err != nil {
			logger.Warn().Err(err).Str("channel", l.channel).Msg("Falha ao executar LISTEN")
			_ = conn.Close(ctx)
			if !sleepCtx(ctx, wait) {
				return
			}
			wait = nextBackoff(wait, l.maxBackoff)
			continue
		}

		logger.Info().Str("channel", l.channel).Msg("Listener de notificações conectado")
		wait = l.backoff

		for {
			notification, err := conn.WaitForNotification(ctx)
			if err != nil {
				_ = conn.Close(context.Background())
				if ctx.Err() != nil {
					return
				}
				logger.Warn().Err(err).Msg("Conexão do listener perdida, reconectando")
				break
			}

			change, err := decodeNotifyPayload(notification.Payload)
			if err != nil {
				logger.Warn().Err(err).Str("payload", notification.Payload).Msg("Payload de notificação inválido")
				continue
			}

			l.dispatch(change)
		}
	}
}

func (l *Listener) dispatch(change store.Change) {
	l.mu.Lock()
	matched := make([]*subscription, 0, len(l.subs))
	for _, sub := range l.subs {
		if sub.table == change.Table && sub.userID == change.UserID {
			matched = append(matched, sub)
		}
	}
	l.mu.Unlock()

	for _, sub := range matched {
		go sub.onChange(change)
	}
}

type notifyPayload struct {
	Table  string `json:"table"`
	Op     string `json:"op"`
	UserID string `json:"user_id"`
}

func decodeNotifyPayload(payload string) (store.Change, error) {
	var p notifyPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return store.Change{}, err
	}
	if p.Table == "" {
		return store.Change{}, fmt.Errorf("payload sem tabela: %q", payload)
	}
	userID, err := pkg.ParseULID(p.UserID)
	if err != nil {
		return store.Change{}, fmt.Errorf("payload com user_id inválido: %q", payload)
	}
	return store.Change{
		Table:  store.Table(p.Table),
		Op:     store.Operation(p.Op),
		UserID: userID,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}
