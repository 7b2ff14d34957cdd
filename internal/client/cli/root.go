package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/dmitrijs2005/voxkeeper/internal/client/models"
	"github.com/dmitrijs2005/voxkeeper/internal/client/services"
)

// getStatus renders the prompt badge, e.g. "(ann@example.com cached)".
func (a *App) getStatus() string {
	snap := a.session.Snapshot()
	if snap.Profile == nil {
		if snap.State == services.StateHydrating {
			return "(restoring)"
		}
		return ""
	}

	s := snap.Profile.Email
	if snap.Provenance == models.ProvenanceCached {
		s += " cached"
	}
	return fmt.Sprintf("(%s)", s)
}

// sessionNotice describes a transition worth telling the user about, or
// returns "" when there is none.
func sessionNotice(prev, next services.Snapshot) string {
	switch {
	case prev.IsAuthenticated() && !next.IsAuthenticated():
		return "Signed out."
	case prev.State != services.StateAuthenticated || !next.IsAuthenticated():
		return ""
	case prev.Provenance != models.ProvenanceCached && next.Provenance == models.ProvenanceCached:
		return fmt.Sprintf("Working offline (%s), showing your last known profile.", next.Reason)
	case prev.Provenance == models.ProvenanceCached && next.Provenance == models.ProvenanceFresh:
		return "Back online."
	}
	return ""
}

// announceTransitions prints session notices until the returned function is called.
func (a *App) announceTransitions() (stop func()) {
	var mu sync.Mutex
	prev := a.session.Snapshot()

	return a.session.Subscribe(func(next services.Snapshot) {
		mu.Lock()
		msg := sessionNotice(prev, next)
		prev = next
		mu.Unlock()

		if msg != "" {
			printlnFn(msg)
		}
	})
}

func (a *App) Root(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	printlnFn("Welcome to voxkeeper CLI (type 'help' for commands)")

	stop := a.announceTransitions()
	defer stop()

	if err := a.session.Handle(ctx, services.SignalStartup); err != nil {
		printlnFn("Could not confirm your session:", err)
	}
	if a.isLoggedIn() {
		a.printProfile()
	}

	go a.StartRefreshWatcher(ctx, a.config.RefreshInterval)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}
