package tickmath

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/bitmath"
	"github.com/holiman/uint256"
)

const (
	// MIN_TICK is the minimum tick that may be passed to GetSqrtRatioAtTick.
	MIN_TICK = -887272
	// MAX_TICK is the maximum tick that may be passed to GetSqrtRatioAtTick.
	MAX_TICK = 887272
)

var (
	// MIN_SQRT_RATIO is the minimum value that can be returned from GetSqrtRatioAtTick.
	MIN_SQRT_RATIO, _ = new(big.Int).SetString("4295128739", 10)
	// MAX_SQRT_RATIO is the maximum value that can be returned from GetSqrtRatioAtTick.
	MAX_SQRT_RATIO, _ = new(big.Int).SetString("1461446703485210103287273052203988822378723970342", 10)

	ErrTickOutOfBounds      = errors.New("tick out of bounds")
	ErrSqrtPriceOutOfBounds = errors.New("sqrt price out of bounds")

	one        = uint256.NewInt(1)
	maxUint256 = uint256.MustFromBig(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)))

	// Constants for GetSqrtRatioAtTick, pre-parsed from hex.
	// These represent 1/sqrt(1.0001^2^i) in UQ128.128 for i in 0..19, and a mask.
	ratioConstants = [22]*uint256.Int{
		uint256.MustFromBig(fromHex("0xfffcb933bd6fad37aa2d162d1a594001")),  // 2^0
		uint256.MustFromBig(fromHex("0x100000000000000000000000000000000")), // 1 in UQ128.128
		uint256.MustFromBig(fromHex("0xfff97272373d413259a46990580e213a")),  // 2^1
		uint256.MustFromBig(fromHex("0xfff2e50f5f656932ef12357cf3c7fdcc")),  // 2^2
		uint256.MustFromBig(fromHex("0xffe5caca7e10e4e61c3624eaa0941cd0")),  // 2^3
		uint256.MustFromBig(fromHex("0xffcb9843d60f6159c9db58835c926644")),  // 2^4
		uint256.MustFromBig(fromHex("0xff973b41fa98c081472e6896dfb254c0")),  // 2^5
		uint256.MustFromBig(fromHex("0xff2ea16466c96a3843ec78b326b52861")),  // 2^6
		uint256.MustFromBig(fromHex("0xfe5dee046a99a2a811c461f1969c3053")),  // 2^7
		uint256.MustFromBig(fromHex("0xfcbe86c7900a88aedcffc83b479aa3a4")),  // 2^8
		uint256.MustFromBig(fromHex("0xf987a7253ac413176f2b074cf7815e54")),  // 2^9
		uint256.MustFromBig(fromHex("0xf3392b0822b70005940c7a398e4b70f3")),  // 2^10
		uint256.MustFromBig(fromHex("0xe7159475a2c29b7443b29c7fa6e889d9")),  // 2^11
		uint256.MustFromBig(fromHex("0xd097f3bdfd2022b8845ad8f792aa5825")),  // 2^12
		uint256.MustFromBig(fromHex("0xa9f746462d870fdf8a65dc1f90e061e5")),  // 2^13
		uint256.MustFromBig(fromHex("0x70d869a156d2a1b890bb3df62baf32f7")),  // 2^14
		uint256.MustFromBig(fromHex("0x31be135f97d08fd981231505542fcfa6")),  // 2^15
		uint256.MustFromBig(fromHex("0x9aa508b5b7a84e1c677de54f3e99bc9")),   // 2^16
		uint256.MustFromBig(fromHex("0x5d6af8dedb81196699c329225ee604")),    // 2^17
		uint256.MustFromBig(fromHex("0x2216e584f5fa1ea926041bedfe98")),      // 2^18
		uint256.MustFromBig(fromHex("0x48a170391f7dc42444e8fa2")),           // 2^19
		uint256.MustFromBig(fromHex("0xffffffff")),                          // mask for rounding
	}

	// log_sqrt(1.0001) in Q128, and the error bounds used to bracket the tick.
	logSqrt10001, _  = new(big.Int).SetString("255738958999603826347141", 10)
	tickLowOffset, _ = new(big.Int).SetString("3402992956809132418596140100660247210", 10)
	tickHiOffset, _  = new(big.Int).SetString("291339464771989622907027621153398088495", 10)
)

// tickMath holds reusable uint256 scratch values to avoid allocations.
type tickMath struct {
	ratio *uint256.Int
	rem   *uint256.Int
}

// pool manages a pool of tickMath objects for safe concurrent use.
var pool = sync.Pool{
	New: func() any {
		return &tickMath{
			ratio: new(uint256.Int),
			rem:   new(uint256.Int),
		}
	},
}

// GetSqrtRatioAtTick calculates sqrt(1.0001^tick) * 2^96, rounded up.
func GetSqrtRatioAtTick(tick int) (*big.Int, error) {
	if tick < MIN_TICK || tick > MAX_TICK {
		return nil, fmt.Errorf("%w: %d", ErrTickOutOfBounds, tick)
	}

	tm := pool.Get().(*tickMath)
	defer pool.Put(tm)

	absTick := tick
	if tick < 0 {
		absTick = -tick
	}

	if (absTick & 0x1) != 0 {
		tm.ratio.Set(ratioConstants[0])
	} else {
		tm.ratio.Set(ratioConstants[1])
	}

	for i := 2; i < 21; i++ {
		if (absTick & (1 << (i - 1))) != 0 {
			tm.ratio.Mul(tm.ratio, ratioConstants[i]).Rsh(tm.ratio, 128)
		}
	}

	// Positive ticks use the reciprocal.
	if tick > 0 {
		tm.ratio.Div(maxUint256, tm.ratio)
	}

	// Divide by 2^32, rounding up, to go from Q128.128 to Q64.96.
	tm.rem.And(tm.ratio, ratioConstants[21])
	tm.ratio.Rsh(tm.ratio, 32)
	if tm.rem.Sign() > 0 {
		tm.ratio.Add(tm.ratio, one)
	}

	return tm.ratio.ToBig(), nil
}

// GetTickAtSqrtRatio calculates the greatest tick value such that GetSqrtRatioAtTick(tick) <= sqrtPriceX96.
func GetTickAtSqrtRatio(sqrtPriceX96 *big.Int) (int, error) {
	if sqrtPriceX96.Cmp(MIN_SQRT_RATIO) < 0 || sqrtPriceX96.Cmp(MAX_SQRT_RATIO) >= 0 {
		return 0, fmt.Errorf("%w: %s", ErrSqrtPriceOutOfBounds, sqrtPriceX96)
	}

	sqrtRatioX128 := new(big.Int).Lsh(sqrtPriceX96, 32)
	msb, err := bitmath.MostSignificantBit(sqrtRatioX128)
	if err != nil {
		return 0, err
	}

	r := new(big.Int)
	if msb >= 128 {
		r.Rsh(sqrtRatioX128, msb-127)
	} else {
		r.Lsh(sqrtRatioX128, 127-msb)
	}

	// log_2 is signed Q64.64; big.Int shifts and Or follow two's complement semantics.
	log2 := new(big.Int).Lsh(big.NewInt(int64(msb)-128), 64)
	f := new(big.Int)
	for i := 0; i < 14; i++ {
		r.Mul(r, r).Rsh(r, 127)
		f.Rsh(r, 128)
		log2.Or(log2, new(big.Int).Lsh(f, uint(63-i)))
		r.Rsh(r, uint(f.Uint64()))
	}

	logSqrt := new(big.Int).Mul(log2, logSqrt10001)

	tickLow := int(new(big.Int).Rsh(new(big.Int).Sub(logSqrt, tickLowOffset), 128).Int64())
	tickHigh := int(new(big.Int).Rsh(new(big.Int).Add(logSqrt, tickHiOffset), 128).Int64())

	if tickLow == tickHigh {
		return tickLow, nil
	}

	ratioAtHigh, err := GetSqrtRatioAtTick(tickHigh)
	if err != nil {
		return 0, err
	}
	if ratioAtHigh.Cmp(sqrtPriceX96) <= 0 {
		return tickHigh, nil
	}
	return tickLow, nil
}

// Helper to create a big.Int from a hex string.
func fromHex(s string) *big.Int {
	n, _ := new(big.Int).SetString(s[2:], 16)
	return n
}
