// Package redisstore implements core.TokenRepository on Redis using
// github.com/redis/go-redis/v9. Create relies on SETNX and Update on SETXX,
// which gives per-key atomic writes without transactions.
package redisstore
