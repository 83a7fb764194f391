package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/unkn0wn-root/pagesnap"
	"github.com/unkn0wn-root/pagesnap/internal/config"
)

func newRootCmd(a *app) *cobra.Command {
	if a.v == nil {
		a.v = viper.New()
	}

	root := &cobra.Command{
		Use:   "pagesnap",
		Short: "Manage pagination snapshots",
		Long: `pagesnap - stable pagination snapshots on Redis.

Commands:
  pagesnap create <id>...          Snapshot an ordered id list
  pagesnap page <cursor>           Print the ids of one page
  pagesnap inspect <cursor>        Show counts and remaining lifetime
  pagesnap touch <cursor>          Extend a cursor by a full TTL
  pagesnap delete <cursor>         Drop a cursor`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			return a.setup(configFile)
		},
	}
	config.BindFlags(root, a.v)

	root.AddCommand(newCreateCmd(a))
	root.AddCommand(newPageCmd(a))
	root.AddCommand(newInspectCmd(a))
	root.AddCommand(newTouchCmd(a))
	root.AddCommand(newDeleteCmd(a))
	return root
}

// execute runs root and releases what setup opened even when the command
// fails; cobra skips post-run hooks after a RunE error.
func execute(ctx context.Context, a *app, root *cobra.Command) error {
	defer a.teardown(ctx)
	return root.ExecuteContext(ctx)
}

func newCreateCmd(a *app) *cobra.Command {
	var total int64
	var file string

	cmd := &cobra.Command{
		Use:   "create [id...]",
		Short: "Snapshot an ordered id list",
		Long: `Snapshot an ordered id list and print the new cursor id.

Ids come from arguments, or one per line from --file ("-" reads stdin).

Examples:
  pagesnap create 42 17 9 3
  pagesnap create --file ids.txt --total 25000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := args
			if file != "" {
				var err error
				if ids, err = readIDs(cmd.InOrStdin(), file); err != nil {
					return err
				}
			}
			if len(ids) == 0 {
				return errors.New("no ids given")
			}

			var opts []pagesnap.CreateOption
			if total >= 0 {
				opts = append(opts, pagesnap.WithTotalCount(total))
			}
			c, err := a.pager.CreateCursor(cmd.Context(), ids, opts...)
			if err != nil {
				return err
			}
			stored, err := c.StoredCount(cmd.Context())
			if err != nil {
				return err
			}
			n, err := c.TotalCount(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.ID())
			fmt.Fprintf(cmd.ErrOrStderr(), "stored %d ids, total %d, ttl %s\n", stored, n, a.cfg.TTL)
			return nil
		},
	}
	cmd.Flags().Int64Var(&total, "total", -1, "total row count (default: number of ids)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read ids from file, one per line (- for stdin)")
	return cmd
}

func newPageCmd(a *app) *cobra.Command {
	var page, perPage int

	cmd := &cobra.Command{
		Use:   "page <cursor>",
		Short: "Print the ids of one page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.pager.RequireCursor(ctx, args[0])
			if err != nil {
				return err
			}
			snap := a.pager.Snapshot(c)
			ids, err := snap.PageIDs(ctx, page, perPage)
			if err != nil {
				return err
			}
			pages, err := snap.TotalPages(ctx, perPage)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "page %d of %d\n", max(page, 1), pages)
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number (1-based)")
	cmd.Flags().IntVarP(&perPage, "per-page", "n", 25, "ids per page")
	return cmd
}

type ttlReader interface {
	TTL(ctx context.Context, cursorID string) (time.Duration, error)
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <cursor>",
		Short: "Show counts and remaining lifetime",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.pager.FindCursor(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if c == nil {
				fmt.Fprintf(out, "cursor:  %s\nexists:  false\n", args[0])
				return nil
			}
			total, err := c.TotalCount(ctx)
			if err != nil {
				return err
			}
			stored, err := c.StoredCount(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "cursor:  %s\nexists:  true\ntotal:   %d\nstored:  %d\n", c.ID(), total, stored)
			if tr, ok := a.pager.Store().(ttlReader); ok {
				if d, err := tr.TTL(ctx, c.ID()); err == nil {
					fmt.Fprintf(out, "ttl:     %s\n", d.Round(time.Second))
				}
			}
			return nil
		},
	}
}

func newTouchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "touch <cursor>",
		Short: "Extend a cursor by a full TTL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.pager.RequireCursor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ok, err := c.Touch(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return &pagesnap.CursorError{Op: "touch", CursorID: args[0], Err: pagesnap.ErrCursorExpired}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "touched %s (ttl %s)\n", c.ID(), a.cfg.TTL)
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <cursor>",
		Short: "Drop a cursor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := a.pager.Store().Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s not found\n", args[0])
			}
			return nil
		},
	}
}

func readIDs(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var ids []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if id := strings.TrimSpace(sc.Text()); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, sc.Err()
}
