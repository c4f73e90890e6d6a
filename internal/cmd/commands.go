package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/cli"
	"github.com/samvad-hq/notion-records/internal/importer"
	"github.com/samvad-hq/notion-records/pkg/notion"
	"gopkg.in/yaml.v3"
)

// Runtime is what the commands need from app.Records.
type Runtime interface {
	List(ctx context.Context, pageSize int) ([]notion.Record, error)
	ListPage(ctx context.Context, pageSize int, cursor string) (notion.Page, error)
	Create(ctx context.Context, fields notion.Record) (notion.Record, error)
	Update(ctx context.Context, id string, fields notion.Record) (notion.Record, error)
	Archive(ctx context.Context, id string) (notion.Record, error)
	Import(ctx context.Context, path string) (importer.Result, error)
	Close() error
}

// Opener builds a Runtime on demand so help and version work without config.
type Opener func(ctx context.Context) (Runtime, error)

// Commands returns the command table for cli.CLI.
func Commands(ctx context.Context, ui cli.Ui, open Opener) map[string]cli.CommandFactory {
	b := &base{ctx: ctx, ui: ui, open: open}
	return map[string]cli.CommandFactory{
		"list":    func() (cli.Command, error) { return &listCommand{base: b}, nil },
		"create":  func() (cli.Command, error) { return &createCommand{base: b}, nil },
		"update":  func() (cli.Command, error) { return &updateCommand{base: b}, nil },
		"archive": func() (cli.Command, error) { return &archiveCommand{base: b}, nil },
		"import":  func() (cli.Command, error) { return &importCommand{base: b}, nil },
		"version": func() (cli.Command, error) { return &versionCommand{base: b}, nil },
	}
}

type base struct {
	ctx  context.Context
	ui   cli.Ui
	open Opener
}

// run opens the runtime, calls fn and prints its result as JSON.
func (b *base) run(fn func(Runtime) (any, error)) int {
	rt, err := b.open(b.ctx)
	if err != nil {
		b.ui.Error(err.Error())
		return 1
	}
	defer func() {
		if err := rt.Close(); err != nil {
			b.ui.Warn(fmt.Sprintf("close: %v", err))
		}
	}()

	out, err := fn(rt)
	if out != nil {
		if werr := b.output(out); werr != nil {
			b.ui.Error(werr.Error())
			return 1
		}
	}
	if err != nil {
		b.ui.Error(err.Error())
		return 1
	}
	return 0
}

func (b *base) output(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	b.ui.Output(string(raw))
	return nil
}

func (b *base) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// readProperties takes properties from an inline JSON object or a JSON/YAML file.
func readProperties(inline, path string) (notion.Record, error) {
	inline = strings.TrimSpace(inline)
	path = strings.TrimSpace(path)
	switch {
	case inline != "" && path != "":
		return nil, errors.New("use either -properties or -f, not both")
	case inline != "":
		var props notion.Record
		if err := json.Unmarshal([]byte(inline), &props); err != nil {
			return nil, fmt.Errorf("decode -properties: %w", err)
		}
		return props, nil
	case path != "":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read properties file: %w", err)
		}
		var props notion.Record
		unmarshal := yaml.Unmarshal
		if strings.EqualFold(filepath.Ext(path), ".json") {
			unmarshal = json.Unmarshal
		}
		if err := unmarshal(raw, &props); err != nil {
			return nil, fmt.Errorf("decode properties file: %w", err)
		}
		return props, nil
	default:
		return nil, errors.New("properties are required (-properties or -f)")
	}
}

type listCommand struct{ *base }

func (c *listCommand) Synopsis() string { return "List the records of the database" }

func (c *listCommand) Help() string {
	return `Usage: notionctl list [options]

  Prints every record of the database as a JSON array, following the query
  cursor until the last page.

Options:

  -page-size=N   Records per query page (default: PAGE_SIZE).
  -single        Print a single page (with has_more/next_cursor) instead.
  -cursor=C      Start cursor for -single.`
}

func (c *listCommand) Run(args []string) int {
	fs := c.flagSet("list")
	pageSize := fs.Int("page-size", 0, "")
	single := fs.Bool("single", false, "")
	cursor := fs.String("cursor", "", "")
	if err := fs.Parse(args); err != nil {
		c.ui.Error(err.Error())
		return cli.RunResultHelp
	}
	if *pageSize < 0 {
		c.ui.Error("-page-size must be positive")
		return 1
	}

	return c.run(func(rt Runtime) (any, error) {
		if *single || *cursor != "" {
			page, err := rt.ListPage(c.ctx, *pageSize, *cursor)
			if err != nil {
				return nil, err
			}
			return page, nil
		}
		records, err := rt.List(c.ctx, *pageSize)
		if err != nil {
			return nil, err
		}
		return records, nil
	})
}

type createCommand struct{ *base }

func (c *createCommand) Synopsis() string { return "Create a record" }

func (c *createCommand) Help() string {
	return `Usage: notionctl create (-properties=JSON | -f=FILE)

  Creates a page in the database and prints the created page.`
}

func (c *createCommand) Run(args []string) int {
	fs := c.flagSet("create")
	inline := fs.String("properties", "", "")
	file := fs.String("f", "", "")
	if err := fs.Parse(args); err != nil {
		c.ui.Error(err.Error())
		return cli.RunResultHelp
	}
	props, err := readProperties(*inline, *file)
	if err != nil {
		c.ui.Error(err.Error())
		return 1
	}

	return c.run(func(rt Runtime) (any, error) {
		created, err := rt.Create(c.ctx, props)
		if err != nil {
			return nil, err
		}
		return created, nil
	})
}

type updateCommand struct{ *base }

func (c *updateCommand) Synopsis() string { return "Update the properties of a record" }

func (c *updateCommand) Help() string {
	return `Usage: notionctl update -id=PAGE_ID (-properties=JSON | -f=FILE)

  Merges the given properties into the page and prints the updated page.`
}

func (c *updateCommand) Run(args []string) int {
	fs := c.flagSet("update")
	id := fs.String("id", "", "")
	inline := fs.String("properties", "", "")
	file := fs.String("f", "", "")
	if err := fs.Parse(args); err != nil {
		c.ui.Error(err.Error())
		return cli.RunResultHelp
	}
	if strings.TrimSpace(*id) == "" {
		c.ui.Error("-id is required")
		return 1
	}
	props, err := readProperties(*inline, *file)
	if err != nil {
		c.ui.Error(err.Error())
		return 1
	}

	return c.run(func(rt Runtime) (any, error) {
		updated, err := rt.Update(c.ctx, *id, props)
		if err != nil {
			return nil, err
		}
		return updated, nil
	})
}

type archiveCommand struct{ *base }

func (c *archiveCommand) Synopsis() string { return "Archive (soft-delete) a record" }

func (c *archiveCommand) Help() string {
	return `Usage: notionctl archive -id=PAGE_ID

  Flags the page as archived. Nothing is removed remotely.`
}

func (c *archiveCommand) Run(args []string) int {
	fs := c.flagSet("archive")
	id := fs.String("id", "", "")
	if err := fs.Parse(args); err != nil {
		c.ui.Error(err.Error())
		return cli.RunResultHelp
	}
	if strings.TrimSpace(*id) == "" {
		c.ui.Error("-id is required")
		return 1
	}

	return c.run(func(rt Runtime) (any, error) {
		archived, err := rt.Archive(c.ctx, *id)
		if err != nil {
			return nil, err
		}
		return archived, nil
	})
}

type importCommand struct{ *base }

func (c *importCommand) Synopsis() string { return "Create records from a YAML or JSON file" }

func (c *importCommand) Help() string {
	return `Usage: notionctl import -f=FILE

  Creates one page per entry of FILE:

    records:
      - key: optional-stable-key
        properties: {...}

  Entries already imported (by key, or by identical properties) are skipped.`
}

func (c *importCommand) Run(args []string) int {
	fs := c.flagSet("import")
	file := fs.String("f", "", "")
	if err := fs.Parse(args); err != nil {
		c.ui.Error(err.Error())
		return cli.RunResultHelp
	}
	if strings.TrimSpace(*file) == "" {
		c.ui.Error("-f is required")
		return 1
	}

	return c.run(func(rt Runtime) (any, error) {
		res, err := rt.Import(c.ctx, *file)
		if len(res.Created) == 0 && len(res.Skipped) == 0 && res.Failed == 0 {
			return nil, err
		}
		return res, err
	})
}

type versionCommand struct{ *base }

func (c *versionCommand) Synopsis() string { return "Print the version" }
func (c *versionCommand) Help() string     { return "Usage: notionctl version" }

func (c *versionCommand) Run([]string) int {
	c.ui.Output(Version)
	return 0
}
