package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/starford/daybook/internal"
	"github.com/starford/daybook/internal/access"
	"github.com/starford/daybook/internal/document"
	"github.com/starford/daybook/internal/models"
	"github.com/starford/daybook/internal/service"
)

var typeColors = map[models.PageType]*color.Color{
	models.PageTypeEntry:      color.New(color.FgGreen),
	models.PageTypeNote:       color.New(color.FgCyan),
	models.PageTypeAttachment: color.New(color.FgYellow),
	models.PageTypeUnknown:    color.New(color.FgHiBlack),
}

// openService loads the config and builds a service logging to stderr.
func openService(cmd *cli.Command) (*service.Service, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	return internal.OpenService(internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func printRef(w io.Writer, typ models.PageType, scope, path string) {
	c, ok := typeColors[typ]
	if !ok {
		c = typeColors[models.PageTypeUnknown]
	}
	c.Fprintf(w, "%-10s", typ)
	fmt.Fprintf(w, " %-10s %s\n", scope, path)
}

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "List journal files as they are discovered",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Only list entry, note, attachment or unknown"},
			&cli.BoolFlag{Name: "sync", Usage: "Rebuild the catalog afterwards"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			typ, err := models.ParsePageType(cmd.String("type"))
			if err != nil {
				return err
			}
			svc, closeFn, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			out := os.Stdout
			n := 0
			done := make(chan error, 1)
			svc.Access.PreviouslyAccessed(ctx, 0, typ, svc.Layout.BaseDirectories(), func(u access.Update) {
				if u.Done {
					done <- u.Err
					return
				}
				n++
				printRef(out, u.Entry.Type, u.Entry.Scope, u.Entry.Path)
			})
			if err := <-done; err != nil {
				return err
			}
			fmt.Fprintf(out, "%d files\n", n)

			if cmd.Bool("sync") {
				if _, err := svc.Sync(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func entryCommand() *cli.Command {
	return &cli.Command{
		Name:  "entry",
		Usage: "Open (creating if needed) the entry for a day and print its path",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Days relative to today"},
			&cli.StringFlag{Name: "scope", Aliases: []string{"s"}, Usage: "Journal scope"},
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Read the existing entry for YYYY-MM-DD instead"},
			&cli.StringFlag{Name: "note", Aliases: []string{"n"}, Usage: "Open a titled note in the day's notes folder"},
			&cli.BoolFlag{Name: "files", Aliases: []string{"f"}, Usage: "Also list referenced and notes folder files"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, closeFn, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			in := models.Input{
				Offset: int(cmd.Int("offset")),
				Scope:  cmd.String("scope"),
				Text:   cmd.String("note"),
			}
			date := svc.Journal.ResolveDate(in)

			var doc *document.Document
			switch {
			case cmd.String("date") != "":
				date, err = time.ParseInLocation(time.DateOnly, cmd.String("date"), time.Local)
				if err != nil {
					return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
				}
				doc, err = svc.EntryForDate(ctx, date, in.Scope)
			case in.Text != "":
				doc, err = svc.OpenNote(ctx, in)
			default:
				doc, err = svc.OpenEntry(ctx, in)
			}
			if err != nil {
				return err
			}

			out := os.Stdout
			fmt.Fprintln(out, doc.Path)
			if !cmd.Bool("files") {
				return nil
			}

			refs, err := svc.Refs.ReferencedFiles(ctx, doc)
			if err != nil {
				return err
			}
			folder, err := svc.Refs.FilesInNotesFolder(ctx, doc, date, in.Scope)
			if err != nil {
				return err
			}
			for _, r := range append(refs, folder...) {
				printRef(out, r.Type, r.Scope, r.Path)
			}
			return nil
		},
	}
}
