package vm

import (
	"math/big"
	"slices"

	"github.com/chazu/dicelang/compiler"
)

// checkEvery is how many dice are rolled between deadline checks.
const checkEvery = 4096

// roll rolls count dice with the given number of sides, keeping the highest or
// lowest keep of them when mode asks for it. vector returns the individual
// rolls instead of their sum.
func (ex *execution) roll(count, sides, keep Value, mode compiler.KeepMode, vector bool) (Value, error) {
	n, ok := toBig(count)
	if !ok {
		return nil, errorf(KindOperation, "Dice count must be an integer, not %s.", count.Type())
	}
	if digits := len(new(big.Int).Abs(n).String()); digits > ex.in.opts.MaxDiceDigits {
		return nil, errorf(KindTimeout, "%s is too many dice!", n)
	}
	if n.Sign() < 0 {
		return nil, errorf(KindOperation, "Cannot roll a negative number of dice.")
	}
	s, ok := toBig(sides)
	if !ok {
		return nil, errorf(KindOperation, "Dice sides must be an integer, not %s.", sides.Type())
	}
	if s.Sign() <= 0 {
		return nil, errorf(KindOperation, "Dice must have at least one side.")
	}
	if !s.IsInt64() {
		return nil, errorf(KindOperation, "Dice with %s sides are too large.", s)
	}
	total := int(n.Int64())
	faces := s.Int64()

	kept := total
	if mode != compiler.KeepAll {
		k, ok := toBig(keep)
		if !ok {
			return nil, errorf(KindOperation, "Dice keep count must be an integer, not %s.", keep.Type())
		}
		if k.Sign() < 0 {
			return nil, errorf(KindOperation, "Cannot keep a negative number of dice.")
		}
		if k.Cmp(big.NewInt(int64(total))) < 0 {
			kept = int(k.Int64())
		}
	}

	if !vector && mode == compiler.KeepAll {
		// Sum without materializing the rolls.
		acc := new(big.Int)
		var run int64
		wide := faces > 1<<32
		for i := range total {
			run += ex.in.randInt64(faces) + 1
			if wide {
				acc.Add(acc, big.NewInt(run))
				run = 0
			}
			if i%checkEvery == checkEvery-1 {
				acc.Add(acc, big.NewInt(run))
				run = 0
				if err := ex.checkDeadline(); err != nil {
					return nil, err
				}
			}
		}
		acc.Add(acc, big.NewInt(run))
		return Int{acc}, nil
	}

	rolls := make([]int64, total)
	for i := range rolls {
		rolls[i] = ex.in.randInt64(faces) + 1
		if i%checkEvery == checkEvery-1 {
			if err := ex.checkDeadline(); err != nil {
				return nil, err
			}
		}
	}
	if kept < total {
		order := slices.Clone(rolls)
		slices.Sort(order)
		if mode == compiler.KeepHighest {
			order = order[total-kept:]
		} else {
			order = order[:kept]
		}
		rolls = keepInOrder(rolls, order)
	}
	if vector {
		out := make([]Value, len(rolls))
		for i, r := range rolls {
			out[i] = NewInt(r)
		}
		return NewList(out...), nil
	}
	acc := new(big.Int)
	for _, r := range rolls {
		acc.Add(acc, big.NewInt(r))
	}
	return Int{acc}, nil
}

// keepInOrder returns the rolls that appear in the sorted multiset keep,
// preserving the order they were rolled in.
func keepInOrder(rolls, keep []int64) []int64 {
	want := map[int64]int{}
	for _, k := range keep {
		want[k]++
	}
	out := make([]int64, 0, len(keep))
	for _, r := range rolls {
		if want[r] > 0 {
			want[r]--
			out = append(out, r)
		}
	}
	return out
}
