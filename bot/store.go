package bot

import (
	"encoding/json"
	"time"

	"github.com/mediocregopher/radix/v3"

	"github.com/albertgustavsson/mcmonitor/packets"
	"github.com/albertgustavsson/mcmonitor/utils"
)

// StatusStore keeps the latest status per server address for a short time,
// so repeated commands do not hammer the server.
type StatusStore interface {
	Get(address string) (*packets.ServerStatus, bool, error)
	Put(address string, status *packets.ServerStatus) error
	Close() error
}

type MemoryStatusStore struct {
	cache *utils.ExpiringCache
	ttl   time.Duration
}

func NewMemoryStatusStore(ttl time.Duration) *MemoryStatusStore {
	return &MemoryStatusStore{
		cache: utils.NewExpiringCache(&packets.ServerStatus{}, 1000),
		ttl:   ttl,
	}
}

func (s *MemoryStatusStore) Get(address string) (*packets.ServerStatus, bool, error) {
	v, ok := s.cache.Get(address)
	if !ok {
		return nil, false, nil
	}
	return v.(*packets.ServerStatus), true, nil
}

func (s *MemoryStatusStore) Put(address string, status *packets.ServerStatus) error {
	if s.ttl > 0 {
		s.cache.SetDelay(address, status, s.ttl)
	}
	return nil
}

func (s *MemoryStatusStore) Close() error {
	s.cache.InvalidateAll()
	return nil
}

const redisKeyPrefix = "mcmonitor_status:"

// StatusChannel receives the address of every server whose status was
// stored, for other processes watching the same servers.
const StatusChannel = "mcmonitor.status"

// RedisStatusStore shares statuses between bot instances through redis.
type RedisStatusStore struct {
	client radix.Client
	ttl    time.Duration
}

func NewRedisStatusStore(client radix.Client, ttl time.Duration) *RedisStatusStore {
	return &RedisStatusStore{client: client, ttl: ttl}
}

func (s *RedisStatusStore) Get(address string) (*packets.ServerStatus, bool, error) {
	var raw []byte
	mn := radix.MaybeNil{Rcv: &raw}
	if err := s.client.Do(radix.Cmd(&mn, "GET", redisKeyPrefix+address)); err != nil {
		return nil, false, err
	}
	if mn.Nil {
		return nil, false, nil
	}
	status, err := packets.ParseServerStatus(raw)
	if err != nil {
		return nil, false, err
	}
	return status, true, nil
}

func (s *RedisStatusStore) Put(address string, status *packets.ServerStatus) (err error) {
	seconds := int(s.ttl / time.Second)
	if seconds < 1 {
		return nil
	}
	raw := []byte(status.Raw)
	if len(raw) == 0 {
		if raw, err = json.Marshal(status); err != nil {
			return err
		}
	}
	err = s.client.Do(radix.FlatCmd(nil, "SET", redisKeyPrefix+address, raw, "EX", seconds))
	if err != nil {
		return err
	}
	return s.client.Do(radix.Cmd(nil, "PUBLISH", StatusChannel, address))
}

func (s *RedisStatusStore) Close() error {
	return s.client.Close()
}
