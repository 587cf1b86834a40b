package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"blogsys/internal/database"
	"blogsys/internal/repository"
	"blogsys/internal/seed"
	"blogsys/internal/service"

	"github.com/spf13/cobra"
)

func (c *cli) commentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Inspect and manage comments",
	}

	var page, perPage int
	list := &cobra.Command{
		Use:   "list <postId>",
		Short: "List comments on a post, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.connect()
			if err != nil {
				return err
			}
			defer database.Close(db)

			svc := service.NewCommentService(repository.NewCommentRepository(db))
			result, err := svc.ListComments(cmd.Context(), args[0], page, perPage)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Post %s: %d comments (page %d, %d per page)\n",
				args[0], result.Total, result.Page, result.PerPage)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tAUTHOR\tLIKES\tCONTENT")
			for _, cm := range result.Comments {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
					cm.ID, cm.Date.Format("2006-01-02 15:04"), cm.Author, cm.Likes, preview(cm.Content, 60))
			}
			return w.Flush()
		},
	}
	list.Flags().IntVar(&page, "page", service.DefaultPage, "page number")
	list.Flags().IntVar(&perPage, "per-page", service.DefaultPerPage, "comments per page")

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid comment id %q", args[0])
			}

			db, err := c.connect()
			if err != nil {
				return err
			}
			defer database.Close(db)

			svc := service.NewCommentService(repository.NewCommentRepository(db))
			removed, err := svc.DeleteComment(cmd.Context(), uint(id))
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("comment %d not found", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted comment %d\n", id)
			return nil
		},
	}

	var opts seed.Options
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate fake comments for development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.IsProduction() {
				return fmt.Errorf("refusing to seed a production database")
			}

			db, err := c.connect()
			if err != nil {
				return err
			}
			defer database.Close(db)

			created, err := seed.NewFactory(db, opts).Comments(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d comments\n", len(created))
			return nil
		},
	}
	seedCmd.Flags().IntVar(&opts.Count, "count", 20, "number of comments")
	seedCmd.Flags().StringSliceVar(&opts.PostIDs, "posts", nil, "post IDs to comment on (random when empty)")
	seedCmd.Flags().IntVar(&opts.MaxLikes, "max-likes", 25, "upper bound for random like counts")
	seedCmd.Flags().IntVar(&opts.MaxDays, "max-days", 90, "how many days back comment dates may go")
	seedCmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (0 picks one)")

	cmd.AddCommand(list, remove, seedCmd)
	return cmd
}

func preview(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
