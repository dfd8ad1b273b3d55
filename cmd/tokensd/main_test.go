package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type stubApp struct {
	runErr error
	ran    bool
}

func (s *stubApp) Run(ctx context.Context) error {
	s.ran = true
	return s.runErr
}

func TestRun_OK(t *testing.T) {
	stub := &stubApp{}
	origCtor, origFatal := appCtor, fatalf
	defer func() { appCtor, fatalf = origCtor, origFatal }()

	appCtor = func() (runner, error) { return stub, nil }
	var fatal string
	fatalf = func(format string, v ...any) { fatal = fmt.Sprintf(format, v...) }

	run(context.Background())

	if !stub.ran {
		t.Fatalf("app was never run")
	}
	if fatal != "" {
		t.Fatalf("unexpected fatal: %s", fatal)
	}
}

func TestRun_CtorError(t *testing.T) {
	origCtor, origFatal := appCtor, fatalf
	defer func() { appCtor, fatalf = origCtor, origFatal }()

	appCtor = func() (runner, error) { return nil, errors.New("bad definitions") }
	var fatal string
	fatalf = func(format string, v ...any) { fatal = fmt.Sprintf(format, v...) }

	run(context.Background())

	if fatal == "" {
		t.Fatalf("expected fatal on constructor error")
	}
}

func TestRun_AppError(t *testing.T) {
	stub := &stubApp{runErr: errors.New("listen failed")}
	origCtor, origFatal := appCtor, fatalf
	defer func() { appCtor, fatalf = origCtor, origFatal }()

	appCtor = func() (runner, error) { return stub, nil }
	var fatal string
	fatalf = func(format string, v ...any) { fatal = fmt.Sprintf(format, v...) }

	run(context.Background())

	if fatal == "" {
		t.Fatalf("expected fatal on run error")
	}
}
