// auth.go

package game

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SpectatorClaims 观战令牌，只对一个房间有效
type SpectatorClaims struct {
	RoomID string `json:"room_id"`
	jwt.RegisteredClaims
}

// TokenIssuer 签发和校验观战令牌
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer 创建签发器，secret 为空时使用随机密钥（重启后旧令牌失效）
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	key := []byte(secret)
	if len(key) == 0 {
		key = []byte(uuid.NewString())
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenIssuer{secret: key, ttl: ttl, now: time.Now}
}

// Issue 为房间签发令牌
func (t *TokenIssuer) Issue(roomID string) (string, error) {
	now := t.now()
	claims := SpectatorClaims{
		RoomID: roomID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   "spectator",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("签发观战令牌失败: %w", err)
	}
	return signed, nil
}

// Verify 校验令牌并确认它属于 roomID
func (t *TokenIssuer) Verify(tokenString, roomID string) (*SpectatorClaims, error) {
	claims := &SpectatorClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.RoomID != roomID {
		return nil, fmt.Errorf("%w: 令牌不属于房间 %s", ErrInvalidToken, roomID)
	}
	return claims, nil
}
