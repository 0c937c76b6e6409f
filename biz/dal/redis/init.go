package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"cryptovest/conf"
)

var Client *redis.Client

// Init connects the shared redis client used for the last-known price
// cache. A failed connection leaves Client nil; price reads then fall back
// to the in-process history.
func Init() error {
	Client = redis.NewClient(&redis.Options{
		Addr:     conf.GetConf().Redis.Address,
		Username: conf.GetConf().Redis.Username,
		Password: conf.GetConf().Redis.Password,
		DB:       conf.GetConf().Redis.DB,
	})
	if err := Client.Ping(context.Background()).Err(); err != nil {
		Client = nil
		return err
	}
	return nil
}
