package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"todo/internal/auth"
	"todo/internal/exitcode"
	"todo/internal/service"
)

// report prints err and returns the matching exit code.
func report(env *Env, err error) int {
	switch service.KindOf(err) {
	case service.KindValidation:
		fmt.Fprintf(env.ErrOut, "error: %s\n", err)
		printDetails(env, err)
		return exitcode.UserError
	case service.KindNotFound:
		fmt.Fprintf(env.ErrOut, "error: %s\n", err)
		return exitcode.UserError
	case service.KindAuth:
		fmt.Fprintf(env.ErrOut, "error: %s\n", authMessage(err))
		return exitcode.AuthError
	case service.KindNetwork:
		fmt.Fprintf(env.ErrOut, "error: %s (check your connection and try again)\n", err)
		return exitcode.BackendError
	default:
		fmt.Fprintf(env.ErrOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

// reportSession prints a session lookup failure and returns AuthError.
func reportSession(env *Env, err error) int {
	fmt.Fprintf(env.ErrOut, "error: %s\n", authMessage(err))
	return exitcode.AuthError
}

func authMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrNoSession):
		return "not logged in (run: todo login)"
	case errors.Is(err, auth.ErrSessionExpired):
		return "session expired (run: todo login)"
	case errors.Is(err, auth.ErrNoOAuthClient):
		return err.Error()
	}
	msg := err.Error()
	if strings.Contains(msg, "run: todo login") {
		return "auth error: " + msg
	}
	return "auth error: " + msg + " (run: todo login)"
}

func printDetails(env *Env, err error) {
	var se *service.Error
	if !errors.As(err, &se) || len(se.Details) == 0 {
		return
	}
	fields := make([]string, 0, len(se.Details))
	for f := range se.Details {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		for _, msg := range se.Details[f] {
			if msg == se.Message {
				continue
			}
			fmt.Fprintf(env.ErrOut, "  %s: %s\n", f, msg)
		}
	}
}
