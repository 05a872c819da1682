package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"footprint-mirror/internal/wizard"
)

var (
	ErrDraftNotFound = errors.New("draft not found")
	ErrDraftConflict = errors.New("draft modified concurrently")
)

// DraftStore guarda el estado de cada wizard con TTL.
// Update aplica fn de forma atómica por borrador: ninguna edición se pierde.
type DraftStore interface {
	Create(ctx context.Context, id string, st wizard.State) error
	Get(ctx context.Context, id string) (wizard.State, error)
	Update(ctx context.Context, id string, fn func(*wizard.Wizard) error) (wizard.State, error)
	Delete(ctx context.Context, id string) error
}

type memoryDraft struct {
	state     wizard.State
	expiresAt time.Time
}

type memoryDraftStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]memoryDraft
	now   func() time.Time
}

func NewMemoryDraftStore(ttl time.Duration) DraftStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &memoryDraftStore{
		ttl:   ttl,
		items: make(map[string]memoryDraft),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *memoryDraftStore) Create(_ context.Context, id string, st wizard.State) error {
	if strings.TrimSpace(id) == "" {
		return ErrDraftNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = memoryDraft{state: st, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *memoryDraftStore) Get(_ context.Context, id string) (wizard.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.lookup(id)
	if !ok {
		return wizard.State{}, ErrDraftNotFound
	}
	return d.state, nil
}

func (s *memoryDraftStore) Update(_ context.Context, id string, fn func(*wizard.Wizard) error) (wizard.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.lookup(id)
	if !ok {
		return wizard.State{}, ErrDraftNotFound
	}
	w, err := wizard.Restore(d.state)
	if err != nil {
		return wizard.State{}, err
	}
	if err := fn(w); err != nil {
		return d.state, err
	}
	st := w.State()
	s.items[id] = memoryDraft{state: st, expiresAt: s.now().Add(s.ttl)}
	return st, nil
}

func (s *memoryDraftStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// lookup asume s.mu tomado; borra entradas vencidas.
func (s *memoryDraftStore) lookup(id string) (memoryDraft, bool) {
	d, ok := s.items[id]
	if !ok {
		return memoryDraft{}, false
	}
	if s.now().After(d.expiresAt) {
		delete(s.items, id)
		return memoryDraft{}, false
	}
	return d, true
}

const redisDraftMaxRetries = 5

// redisDraftClient es la parte de go-redis que usa el store.
type redisDraftClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	watchDraft(ctx context.Context, key string, fn func(draftTx) error) error
}

// draftTx es una transacción con WATCH sobre la clave del borrador.
type draftTx interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	commit(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

type goRedisDraftClient struct {
	*redis.Client
}

func (c goRedisDraftClient) watchDraft(ctx context.Context, key string, fn func(draftTx) error) error {
	return c.Watch(ctx, func(tx *redis.Tx) error {
		return fn(goRedisDraftTx{tx})
	}, key)
}

type goRedisDraftTx struct {
	*redis.Tx
}

func (t goRedisDraftTx) commit(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	_, err := t.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, payload, ttl)
		return nil
	})
	return err
}

type redisDraftStore struct {
	client redisDraftClient
	ttl    time.Duration
	prefix string
}

func NewRedisDraftStore(client *redis.Client, ttl time.Duration) DraftStore {
	if client == nil {
		return nil
	}
	return newRedisDraftStore(goRedisDraftClient{client}, ttl)
}

func newRedisDraftStore(client redisDraftClient, ttl time.Duration) *redisDraftStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &redisDraftStore{
		client: client,
		ttl:    ttl,
		prefix: "draft:",
	}
}

func (s *redisDraftStore) key(id string) string { return s.prefix + id }

func (s *redisDraftStore) Create(ctx context.Context, id string, st wizard.State) error {
	payload, err := encodeDraftState(st)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(id), payload, s.ttl).Err()
}

func (s *redisDraftStore) Get(ctx context.Context, id string) (wizard.State, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return wizard.State{}, ErrDraftNotFound
	}
	if err != nil {
		return wizard.State{}, fmt.Errorf("redis get draft: %w", err)
	}
	return decodeDraftState(raw)
}

// Update usa WATCH/MULTI: si otro request modificó la clave, reintenta con el estado nuevo.
func (s *redisDraftStore) Update(ctx context.Context, id string, fn func(*wizard.Wizard) error) (wizard.State, error) {
	key := s.key(id)
	var (
		out   wizard.State
		fnErr error
	)
	txf := func(tx draftTx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrDraftNotFound
		}
		if err != nil {
			return err
		}
		st, err := decodeDraftState(raw)
		if err != nil {
			return err
		}
		w, err := wizard.Restore(st)
		if err != nil {
			return err
		}
		if err := fn(w); err != nil {
			out, fnErr = st, err
			return nil
		}
		out = w.State()
		payload, err := encodeDraftState(out)
		if err != nil {
			return err
		}
		return tx.commit(ctx, key, payload, s.ttl)
	}

	for i := 0; i < redisDraftMaxRetries; i++ {
		fnErr = nil
		err := s.client.watchDraft(ctx, key, txf)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			if errors.Is(err, ErrDraftNotFound) {
				return wizard.State{}, err
			}
			return wizard.State{}, fmt.Errorf("redis update draft: %w", err)
		}
		return out, fnErr
	}
	return wizard.State{}, ErrDraftConflict
}

func (s *redisDraftStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

func encodeDraftState(st wizard.State) ([]byte, error) {
	payload, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode draft: %w", err)
	}
	return payload, nil
}

func decodeDraftState(raw []byte) (wizard.State, error) {
	var st wizard.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return wizard.State{}, fmt.Errorf("decode draft: %w", err)
	}
	return st, nil
}
