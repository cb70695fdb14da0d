/*
Package commands implements dayctl's individual cobra subcommands.
Every command opens its own Store connection against the shared --db
flag and closes it before returning — dayctl is a short-lived process,
not a daemon, so there is no connection pooling to worry about.
*/
package commands

import (
	"context"
	"time"

	"github.com/fatih/color"

	"github.com/warp/dayline/core"
	"github.com/warp/dayline/store"
	"github.com/warp/dayline/store/sqlite"
)

var (
	headerColor  = color.New(color.FgMagenta, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

func openStore(dbPath string) (store.Store, error) {
	return sqlite.New(dbPath)
}

// effectiveDate loads Settings and computes "today" exactly the way
// the server does, so the CLI and the HTTP API never disagree about
// what day it is.
func effectiveDate(ctx context.Context, st store.Store) (core.Date, *core.Settings, error) {
	settings, err := st.GetSettings(ctx)
	if err != nil {
		return core.Date{}, nil, err
	}
	return settings.DateContext().EffectiveDate(time.Now()), settings, nil
}
