package main

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
)

type fakeMigrator struct {
	upErr  error
	steps  []int
	forced []int
	ups    int
}

func (f *fakeMigrator) Up() error {
	f.ups++
	return f.upErr
}

func (f *fakeMigrator) Steps(n int) error {
	f.steps = append(f.steps, n)
	return nil
}

func (f *fakeMigrator) Force(v int) error {
	f.forced = append(f.forced, v)
	return nil
}

func TestRunDefaultsToUp(t *testing.T) {
	m := &fakeMigrator{upErr: migrate.ErrNoChange}
	if err := run(m, nil); err != nil {
		t.Fatalf("no change should not be an error: %v", err)
	}
	if m.ups != 1 {
		t.Fatalf("expected one Up call, got %d", m.ups)
	}
}

func TestRunUpFailure(t *testing.T) {
	m := &fakeMigrator{upErr: errors.New("boom")}
	if err := run(m, []string{"up"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRunDown(t *testing.T) {
	m := &fakeMigrator{}
	if err := run(m, []string{"down"}); err != nil {
		t.Fatalf("down: %v", err)
	}
	if err := run(m, []string{"down", "2"}); err != nil {
		t.Fatalf("down 2: %v", err)
	}
	if len(m.steps) != 2 || m.steps[0] != -1 || m.steps[1] != -2 {
		t.Fatalf("unexpected steps %v", m.steps)
	}
}

func TestRunForce(t *testing.T) {
	m := &fakeMigrator{}
	if err := run(m, []string{"force"}); err == nil {
		t.Fatalf("force without a version should fail")
	}
	if err := run(m, []string{"force", "x"}); err == nil {
		t.Fatalf("force with a bad version should fail")
	}
	if err := run(m, []string{"force", "2"}); err != nil {
		t.Fatalf("force: %v", err)
	}
	if len(m.forced) != 1 || m.forced[0] != 2 {
		t.Fatalf("unexpected forced %v", m.forced)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if err := run(&fakeMigrator{}, []string{"sideways"}); err == nil {
		t.Fatalf("expected error")
	}
}
