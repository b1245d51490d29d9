package redisx

import (
	"github.com/redis/go-redis/v9"
)

func Open(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}
