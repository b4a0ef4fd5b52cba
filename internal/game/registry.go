package game

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
)

// Registry выбирает движок по тегу типа игры
type Registry struct {
	engines map[GameType]Engine
}

// NewRegistry возвращает реестр со всеми поддерживаемыми играми
func NewRegistry() *Registry {
	r := &Registry{engines: make(map[GameType]Engine)}
	for _, e := range []Engine{
		TicTacToe{},
		Connect4{},
		Gomoku{},
		Checkers{},
		Chess{},
		Dice{},
		RPS{},
		Mines{},
	} {
		r.Register(e)
	}
	return r
}

// Register добавляет или заменяет движок
func (r *Registry) Register(e Engine) {
	r.engines[e.Type()] = e
}

func (r *Registry) Get(t GameType) (Engine, error) {
	e, ok := r.engines[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, t)
	}
	return e, nil
}

func (r *Registry) Types() []GameType {
	types := make([]GameType, 0, len(r.engines))
	for t := range r.engines {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// RandIntn - криптостойкое случайное число в [0, n).
// В тестах подменяется для предсказуемых сеток и ботов.
var RandIntn = func(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// Shuffle перемешивает срез по Фишеру-Йетсу через RandIntn
func Shuffle[T any](items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := RandIntn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
