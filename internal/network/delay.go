package network

import (
	"context"
	"math/rand"
	"time"
)

// Delayer は、リクエスト前の礼儀待機の戦略です。
type Delayer interface {
	Wait(ctx context.Context) error
}

// RandomDelay は [Min, Max] の一様分布から選んだ時間だけ待機します。
type RandomDelay struct {
	Min time.Duration
	Max time.Duration
	// Rand が nil の場合はパッケージのグローバル乱数を使います。
	Rand *rand.Rand
}

// DefaultDelay は 0.5秒〜1.5秒のランダム待機を返します。
func DefaultDelay() RandomDelay {
	return RandomDelay{Min: 500 * time.Millisecond, Max: 1500 * time.Millisecond}
}

// Next は次の待機時間を返します。
func (d RandomDelay) Next() time.Duration {
	span := d.Max - d.Min
	if span <= 0 {
		return d.Min
	}
	var n int64
	if d.Rand != nil {
		n = d.Rand.Int63n(int64(span) + 1)
	} else {
		n = rand.Int63n(int64(span) + 1)
	}
	return d.Min + time.Duration(n)
}

func (d RandomDelay) Wait(ctx context.Context) error {
	return sleep(ctx, d.Next())
}

// FixedDelay は常に同じ時間だけ待機します。
type FixedDelay time.Duration

func (d FixedDelay) Wait(ctx context.Context) error {
	return sleep(ctx, time.Duration(d))
}

// NoDelay は待機しません。
type NoDelay struct{}

func (NoDelay) Wait(ctx context.Context) error {
	return ctx.Err()
}

// NewDelayer は、固定間隔(ミリ秒)が正なら FixedDelay を、そうでなければ
// [minMillis, maxMillis] の RandomDelay を返します。
func NewDelayer(fixedMillis, minMillis, maxMillis int) Delayer {
	if fixedMillis > 0 {
		return FixedDelay(time.Duration(fixedMillis) * time.Millisecond)
	}
	if minMillis <= 0 && maxMillis <= 0 {
		return DefaultDelay()
	}
	return RandomDelay{
		Min: time.Duration(minMillis) * time.Millisecond,
		Max: time.Duration(maxMillis) * time.Millisecond,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
