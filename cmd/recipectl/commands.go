package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"recipe-finder/internal/client"
	"recipe-finder/internal/pkg/common"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	server  string
	timeout time.Duration
	asJSON  bool
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.server, o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "recipectl",
		Short: "recipectl - command line client for the recipe finder API",
		Long: `recipectl talks to a running recipe finder server.

Examples:
  recipectl search rice egg --finger-food
  recipectl suggest chiken
  recipectl rename egg-fried-rice --title "Toddler Egg Rice"
  recipectl redirect egg-fried-rice`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.server, "server", "s", "http://localhost:8080", "recipe finder server URL")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")
	rootCmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print raw JSON")

	rootCmd.AddCommand(
		newSearchCmd(opts),
		newSuggestCmd(opts),
		newRenameCmd(opts),
		newRedirectCmd(opts),
		newRedirectsCmd(opts),
		newStatsCmd(opts),
		newReindexCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "recipectl %s\n", version)
			},
		},
	)
	return rootCmd
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		params    client.SearchParams
		messiness []string
	)

	cmd := &cobra.Command{
		Use:   "search [ingredient...]",
		Short: "Search recipes by pantry ingredients",
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Ingredients = args
			params.Filters.MessinessLevel = nil
			for _, m := range messiness {
				params.Filters.MessinessLevel = append(params.Filters.MessinessLevel, common.MessinessLevel(m))
			}

			result, err := opts.client().Search(cmd.Context(), params)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d matching recipes\n", result.TotalCount)
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, r := range result.Recipes {
				fmt.Fprintf(w, "  %s\t%s\n", r.Slug, r.Title)
			}
			_ = w.Flush()
			if result.HasMore {
				fmt.Fprintf(out, "  ... more with --offset %d\n", params.Offset+len(result.Recipes))
			}
			if len(result.AlmostMatches) > 0 {
				fmt.Fprintln(out, "almost there:")
				for _, r := range result.AlmostMatches {
					fmt.Fprintf(w, "  %s\t%s\n", r.Slug, r.Title)
				}
				_ = w.Flush()
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&params.Filters.IsFingerFood, "finger-food", false, "finger food only")
	f.BoolVar(&params.Filters.IsUtensilFood, "utensil-food", false, "utensil food only")
	f.StringSliceVar(&messiness, "messiness", nil, "messiness levels (clean, moderate, messy)")
	f.BoolVar(&params.Filters.IsFreezerFriendly, "freezer", false, "freezer friendly only")
	f.BoolVar(&params.Filters.IsFoodProcessorFriendly, "food-processor", false, "food processor friendly only")
	f.BoolVar(&params.Filters.FavoritesOnly, "favorites", false, "favorites only (needs --user)")
	f.Int64Var(&params.UserID, "user", 0, "user id for favorites")
	f.IntVar(&params.Limit, "limit", 0, "page size")
	f.IntVar(&params.Offset, "offset", 0, "page offset")
	return cmd
}

func newSuggestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <query>",
		Short: "Suggest ingredient names for a partial or misspelled query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			suggestions, err := opts.client().Suggest(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), suggestions)
			}
			for _, s := range suggestions {
				fmt.Fprintln(cmd.OutOrStdout(), s.Name)
			}
			return nil
		},
	}
}

func newRenameCmd(opts *rootOptions) *cobra.Command {
	var title, slug string

	cmd := &cobra.Command{
		Use:   "rename <current-slug>",
		Short: "Rename a recipe, keeping a redirect from the old slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.client().Rename(cmd.Context(), args[0], title, slug)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed to %q (%s)\n", res.Title, res.Slug)
			if res.RedirectCreated && res.OldSlug != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "redirect %s -> %s\n", *res.OldSlug, res.Slug)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&slug, "slug", "", "new slug (derived from the title when omitted)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newRedirectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "redirect <slug>",
		Short: "Check whether a slug redirects to a renamed recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			check, err := opts.client().CheckRedirect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), check)
			}
			if check.Redirect {
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", check.OldSlug, check.NewSlug)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not redirected\n", check.Slug)
			}
			return nil
		},
	}
}

func newRedirectsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "redirects",
		Short: "List all redirects, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := opts.client().Redirects(cmd.Context())
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), list)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, r := range list.Redirects {
				fmt.Fprintf(w, "%s\t-> %s\t%s\t%s\n", r.OldSlug, r.NewSlug, r.RecipeTitle, r.CreatedAt.Format(time.RFC3339))
			}
			_ = w.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "%d redirects\n", list.Total)
			return nil
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show recipe and redirect counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := opts.client().Stats(cmd.Context())
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), stats)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recipes: %d\nredirects: %d\n", stats.TotalRecipes, stats.TotalRedirects)
			return nil
		},
	}
}

func newReindexCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the ingredient suggestion index",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := opts.client().Reindex(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d ingredients\n", count)
			return nil
		},
	}
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
