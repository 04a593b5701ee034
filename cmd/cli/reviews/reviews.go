package reviews

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/crucial707/bookshelf/cmd/cli/client"
	"github.com/crucial707/bookshelf/cmd/cli/output"
	"github.com/crucial707/bookshelf/cmd/cli/root"
	"github.com/crucial707/bookshelf/internal/models"
	"github.com/spf13/cobra"
)

func init() {
	reviewsCmd := &cobra.Command{
		Use:   "reviews",
		Short: "Manage your book reviews",
	}
	reviewsCmd.AddCommand(listCmd(), showCmd(), addCmd(), editCmd(), deleteCmd())
	root.GetRoot().AddCommand(reviewsCmd)
}

func listCmd() *cobra.Command {
	var field, order string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your reviews",
		Long:  "List your reviews, optionally sorted by id, date or title (asc or desc).",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/reviews"
			if field != "" || order != "" {
				q := url.Values{}
				q.Set("sort", field)
				q.Set("order", order)
				path += "?" + q.Encode()
			}

			var list []models.Review
			if err := client.New().Do(http.MethodGet, path, nil, &list); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No reviews found")
				return nil
			}

			rows := make([][]any, 0, len(list))
			for _, rv := range list {
				rows = append(rows, []any{rv.ID, rv.Date.Format("2006-01-02"), rv.Title, rv.ISBN, rv.Notes})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Date", "Title", "ISBN", "Notes"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&field, "sort", "", "sort field: id, date or title")
	cmd.Flags().StringVar(&order, "order", "", "sort order: asc or desc")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func showCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var rv models.Review
			if err := client.New().Do(http.MethodGet, "/reviews/"+strconv.Itoa(id), nil, &rv); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), rv)
			}
			printReview(cmd, &rv)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func addCmd() *cobra.Command {
	var in models.ReviewInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a review",
		RunE: func(cmd *cobra.Command, args []string) error {
			var rv models.Review
			if err := client.New().Do(http.MethodPost, "/reviews", in, &rv); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added review %d\n", rv.ID)
			printReview(cmd, &rv)
			return nil
		},
	}
	reviewFlags(cmd, &in)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func editCmd() *cobra.Command {
	var in models.ReviewInput
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a review; only the given fields change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c := client.New()
			path := "/reviews/" + strconv.Itoa(id)

			var cur models.Review
			if err := c.Do(http.MethodGet, path, nil, &cur); err != nil {
				return err
			}
			merged := models.ReviewInput{
				Title:       cur.Title,
				Description: cur.Description,
				Notes:       cur.Notes,
				ISBN:        cur.ISBN,
			}
			f := cmd.Flags()
			if f.Changed("title") {
				merged.Title = in.Title
			}
			if f.Changed("description") {
				merged.Description = in.Description
			}
			if f.Changed("notes") {
				merged.Notes = in.Notes
			}
			if f.Changed("isbn") {
				merged.ISBN = in.ISBN
			}

			var rv models.Review
			if err := c.Do(http.MethodPut, path, merged, &rv); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated review %d\n", rv.ID)
			printReview(cmd, &rv)
			return nil
		},
	}
	reviewFlags(cmd, &in)
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := client.New().Do(http.MethodDelete, "/reviews/"+strconv.Itoa(id), nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted review %d\n", id)
			return nil
		},
	}
}

func reviewFlags(cmd *cobra.Command, in *models.ReviewInput) {
	cmd.Flags().StringVar(&in.Title, "title", "", "book title")
	cmd.Flags().StringVar(&in.Description, "description", "", "review text")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "private notes")
	cmd.Flags().StringVar(&in.ISBN, "isbn", "", "ISBN, used to look up a cover image")
}

func printReview(cmd *cobra.Command, rv *models.Review) {
	image := "-"
	if rv.Image != nil {
		image = *rv.Image
	}
	output.RenderTable(cmd.OutOrStdout(), []string{"Field", "Value"}, [][]any{
		{"ID", rv.ID},
		{"Title", rv.Title},
		{"Date", rv.Date.Format("2006-01-02")},
		{"ISBN", rv.ISBN},
		{"Description", rv.Description},
		{"Notes", rv.Notes},
		{"Cover", image},
	})
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid review id %q", s)
	}
	return id, nil
}
