// Package cli is the interactive terminal client for the IPO Tracker API.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/dberezin/ipotrack/internal/client/api"
	"github.com/dberezin/ipotrack/internal/client/config"
)

type App struct {
	config *config.Config
	client *api.Client
	email  string
	reader *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	return &App{
		config: c,
		client: api.NewClient(c.ServerEndpointAddr, c.RequestTimeout),
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.client.Token() != ""
}

func (a *App) Run(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

func (a *App) status() string {
	if a.isLoggedIn() {
		return a.email
	}
	return "not logged in"
}
