package yourls

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"
	"time"

	"yourls.local/internal/platform/metrics"
)

// DefaultNonceLife 与 YOURLS 服务端 YOURLS_NONCE_LIFE 的默认值一致（12 小时）。
const DefaultNonceLife = 12 * time.Hour

// credentials 决定每个请求要带哪些认证字段。
type credentials struct {
	username  string
	password  string
	signature string
	nonceLife time.Duration
	now       func() time.Time

	// 限时签名缓存：只在 timedSignature 里读写
	mu       sync.Mutex
	cachedAt int64
	digest   string
}

func newCredentials(cfg Config) (*credentials, error) {
	hasUser := cfg.Username != "" || cfg.Password != ""
	hasSig := cfg.Signature != ""

	switch {
	case hasUser && hasSig:
		return nil, fmt.Errorf("%w: pass either username and password or signature, not both", ErrCredentialConflict)
	case hasUser && (cfg.Username == "" || cfg.Password == ""):
		return nil, fmt.Errorf("%w: username and password must be passed together", ErrCredentialConflict)
	case cfg.AuthRequired && !hasUser && !hasSig:
		return nil, fmt.Errorf("%w: server requires authentication, pass username and password or signature", ErrConfig)
	case cfg.NonceLife < 0:
		return nil, fmt.Errorf("%w: nonce life must be >= 0", ErrConfig)
	case cfg.NonceLife > 0 && !hasSig:
		return nil, ErrNonceWithoutSignature
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &credentials{
		username:  cfg.Username,
		password:  cfg.Password,
		signature: cfg.Signature,
		nonceLife: cfg.NonceLife,
		now:       now,
	}, nil
}

// apply 把认证字段写进 query；没有配置任何凭证时什么也不做（服务端不需要认证）。
func (c *credentials) apply(q map[string]string) {
	switch {
	case c.username != "":
		q["username"] = c.username
		q["password"] = c.password
	case c.signature != "" && c.nonceLife == 0:
		q["signature"] = c.signature
	case c.signature != "":
		ts, digest := c.timedSignature()
		q["timestamp"] = strconv.FormatInt(ts, 10)
		q["signature"] = digest
	}
}

// timedSignature 返回 (timestamp, md5(timestamp + signature))。
// 缓存值在 nonceLife 内复用，过期后用当前时间重新计算。
func (c *credentials) timedSignature() (int64, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().Unix()
	if c.digest == "" || now-c.cachedAt > int64(c.nonceLife/time.Second) {
		sum := md5.Sum([]byte(strconv.FormatInt(now, 10) + c.signature))
		c.digest = hex.EncodeToString(sum[:])
		c.cachedAt = now
		metrics.SignatureRefreshTotal.Inc()
	}
	return c.cachedAt, c.digest
}

func (c *credentials) mode() string {
	switch {
	case c.username != "":
		return "password"
	case c.signature != "" && c.nonceLife > 0:
		return "timed_signature"
	case c.signature != "":
		return "signature"
	default:
		return "none"
	}
}
