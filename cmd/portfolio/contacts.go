package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/store"
)

// ContactsCmd prints every stored submission. Badger holds an exclusive
// lock, so stop the server before listing a badger store.
type ContactsCmd struct {
	JSON bool `help:"Print records as JSON instead of a table."`
}

func (c *ContactsCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return c.print(ctx, st, os.Stdout)
}

func (c *ContactsCmd) print(ctx context.Context, st store.Store, w io.Writer) error {
	records, err := st.List(ctx)
	if err != nil {
		return fmt.Errorf("list contacts: %w", err)
	}
	if c.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No contact submissions yet.")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Received", "Name", "Email", "Company", "Message"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.AppendBulk(lo.Map(records, func(r contact.Record, _ int) []string {
		return []string{
			strconv.FormatInt(r.ID, 10),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Name,
			r.Email,
			r.Company,
			truncate(r.Message, 60),
		}
	}))
	table.Render()
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
