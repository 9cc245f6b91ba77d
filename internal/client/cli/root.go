package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/hubauth/internal/client/flow"
	"github.com/dmitrijs2005/hubauth/internal/client/services"
	"github.com/dmitrijs2005/hubauth/internal/common"
)

// getStatus builds the prompt decoration: the signed-in email, the
// connectivity mode and a running resend countdown.
func (a *App) getStatus() string {
	var parts []string
	if a.view != nil {
		if email := a.view.Email(); email != "" {
			parts = append(parts, email)
		}
	}
	if m := a.mode(); m != "" {
		parts = append(parts, string(m))
	}
	if a.timers != nil && a.view != nil {
		p := a.view.Active()
		if p == flow.PanelOTP || p == flow.PanelReset {
			if left := a.timers.Remaining(p); left > 0 {
				parts = append(parts, fmt.Sprintf("resend in %ds", int(left.Seconds())))
			}
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Root restores any stored session, checks the server, starts the
// connectivity watcher and runs the REPL until the user exits.
func (a *App) Root(ctx context.Context) error {
	a.println("Welcome to hubauth (type 'help' for commands)")

	s, err := a.authService.Restore(ctx)
	if err != nil {
		a.log.Warn(ctx, "could not restore session", "error", err)
	}
	if s != nil {
		a.println("Signed in as", s.Email)
	}
	if pv := a.authService.Pending(); pv != nil && pv.Purpose == services.PurposePasswordReset {
		a.println("A password reset for", common.MaskEmail(pv.Email), "is in progress; type 'reset' to finish it.")
	}

	if err := a.checkOnline(ctx); err != nil {
		a.println("Server unavailable:", services.UserMessage(services.ActionHealth, err))
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(watchCtx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}
