package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRunInProgress indica que já existe uma liquidação em andamento
var ErrRunInProgress = errors.New("settlement: run already in progress")

// ErrLockLost indica que a chave expirou ou passou a outro dono
var ErrLockLost = errors.New("settlement: run lock lost")

// Lease é a posse da trava durante uma execução
type Lease interface {
	Extend(ctx context.Context) error
	Release(ctx context.Context) error
}

// RunLock impede execuções simultâneas entre processos (agendada x manual)
type RunLock interface {
	Acquire(ctx context.Context) (lease Lease, ok bool, err error)
}

const DefaultLockKey = "settlement:run:lock"

// RedisRunLock usa SET NX PX com token; renovação e liberação só tocam a chave se o token for o mesmo
type RedisRunLock struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
}

func NewRedisRunLock(c *redis.Client, ttl time.Duration) *RedisRunLock {
	return &RedisRunLock{Client: c, Key: DefaultLockKey, TTL: ttl}
}

var (
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

	extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

func (l *RedisRunLock) Acquire(ctx context.Context) (Lease, bool, error) {
	token := uuid.NewString()
	ok, err := l.Client.SetNX(ctx, l.Key, token, l.TTL).Result()
	if err != nil || !ok {
		return nil, false, err
	}
	return &redisLease{client: l.Client, key: l.Key, token: token, ttl: l.TTL}, true, nil
}

type redisLease struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

// Extend devolve o TTL cheio à chave; chamada entre partidas
func (r *redisLease) Extend(ctx context.Context) error {
	n, err := extendScript.Run(ctx, r.client, []string{r.key}, r.token, r.ttl.Milliseconds()).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLockLost
	}
	return nil
}

func (r *redisLease) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, r.client, []string{r.key}, r.token).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLockLost
	}
	return nil
}
