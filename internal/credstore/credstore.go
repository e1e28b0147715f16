// Package credstore is the server-side stand-in for the device's secure
// credential storage: one named, encrypted blob per device. Blobs are sealed
// with AES-GCM under a key derived from the configured master material and
// kept in Redis, so nothing usable ever rests in plaintext.
package credstore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/hkdf"
)

// ErrNotFound is returned when no blob is stored under the given name.
var ErrNotFound = errors.New("credstore: no credentials stored")

const keyPrefix = "credstore:"

// Store persists encrypted credential blobs.
type Store interface {
	Save(ctx context.Context, name string, plaintext []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
	// Available reports whether the backing store is reachable — the
	// server-side analog of the device's "is biometric hardware present"
	// capability query.
	Available(ctx context.Context) bool
}

type redisStore struct {
	rdb *redis.Client
	key []byte
	ttl time.Duration
}

// New derives a 32-byte AES key from the master material via HKDF-SHA256 and
// returns a Redis-backed store. Blobs never expire while enrolled (ttl 0).
func New(rdb *redis.Client, masterMaterial string) (Store, error) {
	if masterMaterial == "" {
		return nil, errors.New("credstore: master key material is empty")
	}
	h := hkdf.New(sha256.New, []byte(masterMaterial), nil, []byte("device-credentials"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, err
	}
	return &redisStore{rdb: rdb, key: key}, nil
}

func (s *redisStore) Save(ctx context.Context, name string, plaintext []byte) error {
	sealed, err := seal(s.key, plaintext)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, keyPrefix+name, sealed, s.ttl).Err()
}

func (s *redisStore) Get(ctx context.Context, name string) ([]byte, error) {
	sealed, err := s.rdb.Get(ctx, keyPrefix+name).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return open(s.key, sealed)
}

func (s *redisStore) Delete(ctx context.Context, name string) error {
	return s.rdb.Del(ctx, keyPrefix+name).Err()
}

func (s *redisStore) Available(ctx context.Context) bool {
	return s.rdb.Ping(ctx).Err() == nil
}

// seal encrypts with AES-GCM; the nonce is prepended to the ciphertext.
func seal(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return append(nonce, gcm.Seal(nil, nonce, plaintext, nil)...), nil
}

func open(key, blob []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	ns := gcm.NonceSize()
	if len(blob) < ns {
		return nil, errors.New("credstore: ciphertext too short")
	}
	return gcm.Open(nil, blob[:ns], blob[ns:], nil)
}
