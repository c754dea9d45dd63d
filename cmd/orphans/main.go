// Command orphans lists and reconciles identities whose profile row was never
// written at signup.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/oksasatya/supabase-auth-api/config"
	"github.com/oksasatya/supabase-auth-api/internal/container"
	"github.com/oksasatya/supabase-auth-api/internal/domain/entity"
	repo "github.com/oksasatya/supabase-auth-api/internal/domain/repository"
	"github.com/oksasatya/supabase-auth-api/pkg/helpers"
)

type env struct {
	ctx     context.Context
	orphans repo.OrphanRepository
	users   repo.UserRepository
	out     io.Writer
}

type CLI struct {
	Ls      Ls      `kong:"cmd,help='List orphaned identities.'"`
	Resolve Resolve `kong:"cmd,help='Remove an entry, optionally creating the missing profile row first.'"`
}

type Ls struct{}

func (c *Ls) Run(e *env) error {
	list, err := e.orphans.List(e.ctx)
	if err != nil {
		return fmt.Errorf("failed listing orphans: %w", err)
	}
	if len(list) == 0 {
		_, _ = fmt.Fprintln(e.out, "no orphaned identities")
		return nil
	}
	data := make([][]string, len(list))
	for i, o := range list {
		data[i] = []string{o.IdentityID, o.Email, o.Username, o.CreatedAt.Format(time.RFC3339), o.Reason}
	}
	return renderTable([]string{"Identity", "Email", "Username", "Recorded", "Reason"}, data, e.out)
}

type Resolve struct {
	ID            string `arg:"" help:"Identity id of the entry."`
	CreateProfile bool   `help:"Insert the profile row from the recorded username and email before removing the entry."`
}

func (c *Resolve) Run(e *env) error {
	if c.CreateProfile {
		o, err := find(e, c.ID)
		if err != nil {
			return err
		}
		p, err := e.users.Create(e.ctx, entity.NewProfile(o.IdentityID, o.Username, o.Email, time.Now()))
		if err != nil {
			return fmt.Errorf("failed creating profile for %s: %w", c.ID, err)
		}
		_, _ = fmt.Fprintf(e.out, "created profile id=%s username=%s\n", p.ID, p.GetUsername())
	}
	if err := e.orphans.Remove(e.ctx, c.ID); err != nil {
		return fmt.Errorf("failed removing %s: %w", c.ID, err)
	}
	_, _ = fmt.Fprintf(e.out, "resolved %s\n", c.ID)
	return nil
}

func find(e *env, id string) (entity.OrphanedIdentity, error) {
	list, err := e.orphans.List(e.ctx)
	if err != nil {
		return entity.OrphanedIdentity{}, fmt.Errorf("failed listing orphans: %w", err)
	}
	for _, o := range list {
		if o.IdentityID == id {
			return o, nil
		}
	}
	return entity.OrphanedIdentity{}, fmt.Errorf("no orphan recorded for %s", id)
}

func renderTable(header []string, data [][]string, w io.Writer) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Borders: tw.BorderNone,
			Symbols: tw.NewSymbols(tw.StyleASCII),
			Settings: tw.Settings{
				Lines:      tw.Lines{ShowHeaderLine: tw.Off, ShowTop: tw.Off, ShowBottom: tw.Off},
				Separators: tw.Separators{BetweenRows: tw.Off, BetweenColumns: tw.Off},
			},
		})),
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignLeft}},
			Row: tw.CellConfig{
				Formatting:   tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:    tw.CellAlignment{Global: tw.AlignLeft},
				ColMaxWidths: tw.CellWidth{Global: 60},
			},
		}),
	)
	table.Header(header)
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("orphans"),
		kong.Description("Reconcile identities created at signup without a profile row."),
		kong.UsageOnError(),
	)

	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if cfg.RedisAddr == "" {
		log.Fatal("REDIS_ADDR is not set; the orphan ledger is disabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	c, err := container.New(ctx, cfg, helpers.NewDiscardLogger())
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer c.Close()

	err = kctx.Run(&env{ctx: ctx, orphans: c.Orphans(), users: c.Users(), out: os.Stdout})
	kctx.FatalIfErrorf(err)
}
