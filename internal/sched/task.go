// Package sched - отложенные задачи с защитой от устаревших срабатываний.
package sched

import "time"

// Task - один отложенный вызов. Gen растет при каждой отмене и
// перепланировании, поэтому сработавший таймер может сверить свой gen с
// текущим и молча выйти, если его уже отменили. Task не потокобезопасен,
// владелец вызывает методы под своей блокировкой.
type Task struct {
	timer *time.Timer
	gen   uint64
}

// Schedule отменяет предыдущий вызов и планирует fn через d
func (t *Task) Schedule(d time.Duration, fn func(gen uint64)) {
	t.Stop()
	gen := t.gen
	t.timer = time.AfterFunc(d, func() { fn(gen) })
}

func (t *Task) Stop() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

// Current - таймер с этим gen все еще актуален
func (t *Task) Current(gen uint64) bool { return t.timer != nil && t.gen == gen }

func (t *Task) Pending() bool { return t.timer != nil }
