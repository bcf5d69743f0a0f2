package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/benfdking/monzo-mcp/internal/domain"
	"github.com/benfdking/monzo-mcp/pkg/monzoclient"
	"github.com/robfig/cron/v3"
)

const probeTimeout = 30 * time.Second

type accountLister interface {
	ListAccounts(ctx context.Context, accountType domain.AccountType) ([]domain.Account, error)
}

// ProbeStatus is the outcome of the most recent credential check.
type ProbeStatus struct {
	CheckedAt      time.Time `json:"checked_at"`
	Healthy        bool      `json:"healthy"`
	ReauthRequired bool      `json:"reauth_required"`
	ErrorKind      string    `json:"error_kind,omitempty"`
}

// CredentialProbe periodically lists accounts so an expired or revoked token
// shows up in logs and /health before a caller hits it. It never refreshes
// the token.
type CredentialProbe struct {
	api      accountLister
	schedule string
	cron     *cron.Cron

	mu     sync.RWMutex
	status *ProbeStatus
}

// NewCredentialProbe creates a probe that runs on schedule (a cron expression).
// An empty schedule disables periodic runs.
func NewCredentialProbe(api accountLister, schedule string) *CredentialProbe {
	cronLogger := cron.PrintfLogger(log.Default())
	return &CredentialProbe{
		api:      api,
		schedule: schedule,
		cron:     cron.New(cron.WithChain(cron.Recover(cronLogger))),
	}
}

// Start registers the probe job, runs one check so /health reflects the token
// from boot, and starts the scheduler.
func (p *CredentialProbe) Start() error {
	if p.schedule == "" {
		log.Println("level=info component=credential_probe msg=\"credential probe disabled\"")
		return nil
	}
	if _, err := p.cron.AddFunc(p.schedule, p.run); err != nil {
		return err
	}
	p.run()
	p.cron.Start()
	log.Printf("level=info component=credential_probe msg=\"scheduled credential probe\" schedule=%q", p.schedule)
	return nil
}

// Stop stops the scheduler; the returned context is done when running jobs finish.
func (p *CredentialProbe) Stop() context.Context {
	return p.cron.Stop()
}

func (p *CredentialProbe) run() {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	p.Check(ctx)
}

// Check performs one probe and records its outcome.
func (p *CredentialProbe) Check(ctx context.Context) ProbeStatus {
	_, err := p.api.ListAccounts(ctx, "")

	status := ProbeStatus{CheckedAt: time.Now().UTC(), Healthy: err == nil}
	if err != nil {
		status.ErrorKind = string(ClassifyError(err))
		var apiErr *monzoclient.APIError
		if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
			status.ReauthRequired = true
			log.Printf("level=warn component=credential_probe msg=\"access token rejected; re-authentication required\" status=%d", apiErr.StatusCode)
		} else {
			log.Printf("level=warn component=credential_probe msg=\"credential probe failed\" kind=%s err=%v", status.ErrorKind, err)
		}
	}

	p.mu.Lock()
	p.status = &status
	p.mu.Unlock()
	return status
}

// Status returns the last probe outcome, if any probe has run.
func (p *CredentialProbe) Status() (ProbeStatus, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.status == nil {
		return ProbeStatus{}, false
	}
	return *p.status, true
}
