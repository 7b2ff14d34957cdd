package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/voxkeeper/internal/client/models"
	"github.com/dmitrijs2005/voxkeeper/internal/client/services"
)

var errNotLoggedIn = errors.New("not logged in")

func (a *App) printProfile() {
	snap := a.session.Snapshot()
	p := snap.Profile
	if p == nil {
		printlnFn("Not logged in")
		return
	}

	plan := "free"
	if p.IsPremium {
		plan = "premium"
	}
	printlnFn(fmt.Sprintf("%s <%s>, %s plan, %d credits", p.Name, p.Email, plan, p.Credits))
	if snap.Provenance == models.ProvenanceCached {
		printlnFn(fmt.Sprintf("(offline copy: %s)", snap.Reason))
	}
}

// WhoAmI prints the session profile as currently held, without a fetch.
func (a *App) WhoAmI(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	a.printProfile()
	return nil
}

// Refresh re-validates the session against the server. A rejected
// credential is announced by the session subscription, not here.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.session.Refresh(ctx); err != nil {
		if errors.Is(err, services.ErrNoCache) {
			return fmt.Errorf("server unreachable and nothing cached, try again later")
		}
		return err
	}

	if a.isLoggedIn() {
		a.printProfile()
	}
	return nil
}

// Metrics dumps the session counters in Prometheus text format.
func (a *App) Metrics(ctx context.Context) error {
	return a.metrics.WriteText(a.out)
}
